package config

import "time"

// Config is the root configuration structure for docgate.
type Config struct {
	// Gate controls how many submissions may be sent per period.
	Gate GateConfig `yaml:"gate"`

	// Client contains the HTTP settings for the document creation endpoint.
	Client ClientConfig `yaml:"client"`

	// Journal contains configuration for the submission journal including
	// backend selection and retention.
	Journal JournalConfig `yaml:"journal"`

	// Inbox contains configuration for the directory watcher used by
	// "docgate watch".
	Inbox InboxConfig `yaml:"inbox"`

	// Telemetry contains configuration for observability including logging,
	// metrics, and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// GateConfig contains admission gate configuration.
type GateConfig struct {
	// Period is the length of one admission window.
	// Default: 1s
	Period time.Duration `yaml:"period"`

	// Limit is the number of submissions admitted per period.
	// Default: 10
	Limit int `yaml:"limit"`

	// Set when the value came from the file or the environment. Only an
	// absent value is defaulted; an explicit zero must fail validation.
	periodSet bool
	limitSet  bool
}

// ClientConfig contains configuration for the submission HTTP client.
type ClientConfig struct {
	// Endpoint is the document creation URL.
	// Default: "https://ismp.crpt.ru/api/v3/lk/documents/create"
	Endpoint string `yaml:"endpoint"`

	// Token is the Bearer access token issued by the remote service.
	// This should typically be loaded from DOCGATE_CLIENT_TOKEN.
	Token string `yaml:"token"`

	// Timeout is the maximum duration of one HTTP exchange.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// UserAgent is sent with every request.
	// Default: "docgate"
	UserAgent string `yaml:"user_agent"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 10
	MaxIdleConns int `yaml:"max_idle_conns"`

	// MaxIdleConnsPerHost is the maximum number of idle connections per host.
	// Default: 10
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host"`

	// IdleConnTimeout is how long an idle connection is kept.
	// Default: 90s
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

// JournalConfig contains submission journal configuration.
type JournalConfig struct {
	// Enabled controls whether submission attempts are journaled.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Backend selects the storage backend.
	// Options: "memory", "sqlite", "redis"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite backend configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Redis contains Redis backend configuration.
	Redis RedisConfig `yaml:"redis"`

	// AsyncBuffer is the size of the recorder queue.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// MaxResponseBytes caps the response body kept per entry.
	// Default: 4096
	MaxResponseBytes int `yaml:"max_response_bytes"`

	// Retention contains journal pruning configuration.
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig contains SQLite backend configuration.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/journal.db"
	Path string `yaml:"path"`

	// Driver selects the database/sql driver.
	// Options: "sqlite" (pure Go), "sqlite3" (cgo)
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// BusyTimeout is how long a writer waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`
}

// RedisConfig contains Redis backend configuration.
type RedisConfig struct {
	// Address is the Redis server address.
	// Default: "localhost:6379"
	Address string `yaml:"address"`

	// Password is the optional Redis password.
	Password string `yaml:"password"`

	// DB is the Redis database number.
	// Default: 0
	DB int `yaml:"db"`

	// Prefix is prepended to every key.
	// Default: "docgate:journal:"
	Prefix string `yaml:"prefix"`
}

// RetentionConfig contains journal retention configuration.
type RetentionConfig struct {
	// Days is how long entries are kept. 0 keeps entries forever.
	// Default: 90
	Days int `yaml:"days"`

	// MaxRecords caps the number of entries. 0 means unlimited.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`

	// Schedule is the cron expression for automatic pruning.
	// Default: "0 3 * * *"
	Schedule string `yaml:"schedule"`
}

// InboxConfig contains directory watcher configuration.
type InboxConfig struct {
	// Dir is the directory watched for <name>.json / <name>.sig pairs.
	// Default: "inbox"
	Dir string `yaml:"dir"`

	// DoneDir receives submitted pairs and their responses.
	// Default: "<dir>/done"
	DoneDir string `yaml:"done_dir"`

	// FailedDir receives failed pairs and their errors.
	// Default: "<dir>/failed"
	FailedDir string `yaml:"failed_dir"`

	// Workers is the number of concurrent submitters.
	// Default: 4
	Workers int `yaml:"workers"`

	// Debounce is how long a file must be quiet before it is picked up.
	// Default: 200ms
	Debounce time.Duration `yaml:"debounce"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether the metrics listener is started in watch mode.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address of the metrics and health listener.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "docgate"
	Namespace string `yaml:"namespace"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "docgate"
	ServiceName string `yaml:"service_name"`

	// OTLP contains OTLP exporter specific configuration.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	// Insecure disables TLS for the OTLP connection.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}
