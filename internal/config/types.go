package config

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource
	// Files lists the config files that were read, user file first.
	Files []string
}

// Storage backends.
const (
	StorageFile   = "file"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Default values.
const (
	DefaultDataFile       = "tasks.json"
	DefaultStorage        = StorageFile
	DefaultLogDir         = "~/.tasklist"
	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisNamespace = "tasklist"
	DefaultLogLevel       = "warn"
	DefaultLogFormat      = "text"
	DefaultJournal        = true
)

// Config holds the full configuration for tasklist.
type Config struct {
	// Paths
	DataFile   string `toml:"data_file"`
	SchemaFile string `toml:"schema_file"`
	LogDir     string `toml:"log_dir"`

	// Storage backend: file, redis or memory
	Storage string      `toml:"storage"`
	Redis   RedisConfig `toml:"redis"`

	// Skip confirmation prompts
	AssumeYes bool `toml:"assume_yes"`

	// Record mutations to the journal
	Journal bool `toml:"journal"`

	// Logging configuration
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Project root (computed)
	ProjectRoot string `toml:"-"`
}

// RedisConfig holds the Redis connection used by the redis backend.
// URL, when set, takes precedence over the individual fields.
type RedisConfig struct {
	URL       string `toml:"url"`
	Addr      string `toml:"addr"`
	Password  string `toml:"password"`
	DB        int    `toml:"db"`
	Namespace string `toml:"namespace"`
}
