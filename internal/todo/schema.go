package todo

import _ "embed"

const embeddedSchemaURL = "https://github.com/nibzard/tasklist/tasklist.schema.json"

//go:embed tasklist.schema.json
var snapshotSchema string

// Schema returns the JSON Schema used to validate snapshot files.
func Schema() string {
	return snapshotSchema
}
