package config

import (
	"os"
	"strconv"
	"strings"
)

// loadFromEnv overrides config from TASKLIST_* environment variables.
// If sources is non-nil, it tracks the source of each value.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) {
	set := func(field string) {
		if sources != nil {
			sources[field] = SourceEnv
		}
	}

	strVars := []struct {
		env    string
		field  string
		target *string
	}{
		{"TASKLIST_FILE", "data_file", &cfg.DataFile},
		{"TASKLIST_SCHEMA", "schema_file", &cfg.SchemaFile},
		{"TASKLIST_LOG_DIR", "log_dir", &cfg.LogDir},
		{"TASKLIST_STORAGE", "storage", &cfg.Storage},
		{"TASKLIST_REDIS_URL", "redis.url", &cfg.Redis.URL},
		{"TASKLIST_REDIS_ADDR", "redis.addr", &cfg.Redis.Addr},
		{"TASKLIST_REDIS_PASSWORD", "redis.password", &cfg.Redis.Password},
		{"TASKLIST_REDIS_NAMESPACE", "redis.namespace", &cfg.Redis.Namespace},
		{"TASKLIST_LOG_LEVEL", "log_level", &cfg.LogLevel},
		{"TASKLIST_LOG_FORMAT", "log_format", &cfg.LogFormat},
	}
	for _, v := range strVars {
		if val := os.Getenv(v.env); val != "" {
			*v.target = val
			set(v.field)
		}
	}

	boolVars := []struct {
		env    string
		field  string
		target *bool
	}{
		{"TASKLIST_ASSUME_YES", "assume_yes", &cfg.AssumeYes},
		{"TASKLIST_JOURNAL", "journal", &cfg.Journal},
		{"TASKLIST_LOG_TIMESTAMPS", "log_timestamps", &cfg.LogTimestamps},
		{"TASKLIST_LOG_CALLER", "log_caller", &cfg.LogCaller},
	}
	for _, v := range boolVars {
		if val := os.Getenv(v.env); val != "" {
			*v.target = boolFromString(val)
			set(v.field)
		}
	}

	if v := os.Getenv("TASKLIST_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.Redis.DB = db
			set("redis.db")
		}
	}
}

// boolFromString parses a boolean from a string.
func boolFromString(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}
