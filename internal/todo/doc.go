// Package todo models tasks and categories and reads and writes snapshot files.
//
// A snapshot file holds both ordered sequences in one document:
//
//	{
//	  "schema_version": 1,
//	  "tasks": [
//	    {
//	      "title": "Meeting",
//	      "desc": "Weekly sync",
//	      "priority": "High",
//	      "category": "Work",
//	      "done": false
//	    }
//	  ],
//	  "categories": [
//	    {"name": "Work"}
//	  ]
//	}
//
// Files ending in .yaml or .yml carry the same keys in YAML.
//
// # Priorities
//
//   - "High": rank 1
//   - "Medium": rank 2, the default
//   - "Low": rank 3
//
// The labels "Hoch", "Mittel" and "Niedrig" are accepted on input and
// written back in their English form.
//
// # Categories
//
// Task.Category is a plain name. It is matched against Category.Name by
// equality and is never a pointer, so duplicate category names are allowed
// and removing one clears every task carrying that name.
//
// # Validation
//
// Validate checks a file against the embedded JSON Schema (draft 2020-12)
// or a schema file given by path. Category references are checked
// separately: a task pointing at a missing category is an error, two
// categories sharing a name is a warning. Repair clears dangling references.
//
// # File Format
//
// When writing JSON, the package uses:
//   - 2-space indentation
//   - Trailing newline
//   - Stable key ordering (via JSON marshaling)
package todo
