package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# tasklist configuration file
# Values can be overridden by TASKLIST_* environment variables or CLI flags

# Snapshot file (relative to the current directory); .yaml/.yml selects YAML
data_file = "tasks.json"

# JSON Schema used by "tasklist doctor" (empty: built-in schema)
# schema_file = "tasklist.schema.json"

# Storage backend: file, redis or memory
storage = "file"

# Skip confirmation prompts for destructive commands
assume_yes = false

# Journal and log directory (supports ~ expansion and %VAR% on Windows)
log_dir = "~/.tasklist"

# Record every change to <log_dir>/<project>/journal.jsonl
journal = true

# Console logging
log_level = "warn"     # debug, info, warn, error
log_format = "text"    # text, json, logfmt
log_timestamps = false
log_caller = false

# Redis backend (storage = "redis")
[redis]
# url = "redis://:password@localhost:6379/0"
addr = "localhost:6379"
password = ""
db = 0
namespace = "tasklist"
`
}
