package config

import "flag"

// parseFlags defines the global CLI flags on fs and parses args.
// Only flags given on the command line change cfg; if sources is non-nil,
// they are attributed to SourceFlag.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("tasklist", flag.ContinueOnError)
	}

	// Flags bind to a copy; only visited flags are applied below.
	v := *cfg

	fs.StringVar(&v.DataFile, "file", cfg.DataFile, "Path to the snapshot file (.json, .yaml)")
	fs.StringVar(&v.SchemaFile, "schema", cfg.SchemaFile, "Path to a JSON Schema for doctor")
	fs.StringVar(&v.LogDir, "log-dir", cfg.LogDir, "Journal directory")
	fs.StringVar(&v.Storage, "storage", cfg.Storage, "Storage backend (file, redis, memory)")
	fs.StringVar(&v.Redis.URL, "redis-url", cfg.Redis.URL, "Redis URL (overrides -redis-addr)")
	fs.StringVar(&v.Redis.Addr, "redis-addr", cfg.Redis.Addr, "Redis address")
	fs.IntVar(&v.Redis.DB, "redis-db", cfg.Redis.DB, "Redis database number")
	fs.StringVar(&v.Redis.Namespace, "redis-namespace", cfg.Redis.Namespace, "Redis key prefix")
	fs.BoolVar(&v.AssumeYes, "yes", cfg.AssumeYes, "Answer yes to confirmation prompts")
	fs.BoolVar(&v.Journal, "journal", cfg.Journal, "Record changes to the journal")
	fs.StringVar(&v.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&v.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json, logfmt)")
	fs.BoolVar(&v.LogTimestamps, "log-timestamps", cfg.LogTimestamps, "Show timestamps in logs")
	fs.BoolVar(&v.LogCaller, "log-caller", cfg.LogCaller, "Show caller location in logs")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// Map flag names to source field names and apply set flags to config
	apply := map[string]struct {
		field string
		set   func()
	}{
		"file":            {"data_file", func() { cfg.DataFile = v.DataFile }},
		"schema":          {"schema_file", func() { cfg.SchemaFile = v.SchemaFile }},
		"log-dir":         {"log_dir", func() { cfg.LogDir = v.LogDir }},
		"storage":         {"storage", func() { cfg.Storage = v.Storage }},
		"redis-url":       {"redis.url", func() { cfg.Redis.URL = v.Redis.URL }},
		"redis-addr":      {"redis.addr", func() { cfg.Redis.Addr = v.Redis.Addr }},
		"redis-db":        {"redis.db", func() { cfg.Redis.DB = v.Redis.DB }},
		"redis-namespace": {"redis.namespace", func() { cfg.Redis.Namespace = v.Redis.Namespace }},
		"yes":             {"assume_yes", func() { cfg.AssumeYes = v.AssumeYes }},
		"journal":         {"journal", func() { cfg.Journal = v.Journal }},
		"log-level":       {"log_level", func() { cfg.LogLevel = v.LogLevel }},
		"log-format":      {"log_format", func() { cfg.LogFormat = v.LogFormat }},
		"log-timestamps":  {"log_timestamps", func() { cfg.LogTimestamps = v.LogTimestamps }},
		"log-caller":      {"log_caller", func() { cfg.LogCaller = v.LogCaller }},
	}

	fs.Visit(func(f *flag.Flag) {
		a, ok := apply[f.Name]
		if !ok {
			return
		}
		a.set()
		if sources != nil {
			sources[a.field] = SourceFlag
		}
	})

	return nil
}
