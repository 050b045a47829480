package config

import (
	"path/filepath"
	"time"
)

// Default values for configuration fields.
const (
	// Gate defaults
	DefaultGatePeriod = time.Second
	DefaultGateLimit  = 10

	// Client defaults
	DefaultClientEndpoint            = "https://ismp.crpt.ru/api/v3/lk/documents/create"
	DefaultClientTimeout             = 30 * time.Second
	DefaultClientUserAgent           = "docgate"
	DefaultClientMaxIdleConns        = 10
	DefaultClientMaxIdleConnsPerHost = 10
	DefaultClientIdleConnTimeout     = 90 * time.Second

	// Journal defaults
	DefaultJournalBackend           = "sqlite"
	DefaultJournalSQLitePath        = "data/journal.db"
	DefaultJournalSQLiteDriver      = "sqlite"
	DefaultJournalSQLiteBusyTimeout = 5 * time.Second
	DefaultJournalSQLiteMaxOpen     = 10
	DefaultJournalRedisAddress      = "localhost:6379"
	DefaultJournalRedisPrefix       = "docgate:journal:"
	DefaultJournalAsyncBuffer       = 1000
	DefaultJournalMaxResponseBytes  = 4096
	DefaultJournalRetentionDays     = 90
	DefaultJournalRetentionSchedule = "0 3 * * *"

	// Inbox defaults
	DefaultInboxDir      = "inbox"
	DefaultInboxWorkers  = 4
	DefaultInboxDebounce = 200 * time.Millisecond

	// Telemetry defaults
	DefaultLoggingLevel         = "info"
	DefaultLoggingFormat        = "json"
	DefaultMetricsListenAddress = "127.0.0.1:9090"
	DefaultMetricsPath          = "/metrics"
	DefaultMetricsNamespace     = "docgate"
	DefaultTracingSampler       = "ratio"
	DefaultTracingSampleRatio   = 1.0
	DefaultTracingServiceName   = "docgate"
	DefaultTracingOTLPTimeout   = 10 * time.Second
)

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Gate defaults
	if cfg.Gate.Period == 0 && !cfg.Gate.periodSet {
		cfg.Gate.Period = DefaultGatePeriod
	}
	if cfg.Gate.Limit == 0 && !cfg.Gate.limitSet {
		cfg.Gate.Limit = DefaultGateLimit
	}

	// Client defaults
	if cfg.Client.Endpoint == "" {
		cfg.Client.Endpoint = DefaultClientEndpoint
	}
	if cfg.Client.Timeout == 0 {
		cfg.Client.Timeout = DefaultClientTimeout
	}
	if cfg.Client.UserAgent == "" {
		cfg.Client.UserAgent = DefaultClientUserAgent
	}
	if cfg.Client.MaxIdleConns == 0 {
		cfg.Client.MaxIdleConns = DefaultClientMaxIdleConns
	}
	if cfg.Client.MaxIdleConnsPerHost == 0 {
		cfg.Client.MaxIdleConnsPerHost = DefaultClientMaxIdleConnsPerHost
	}
	if cfg.Client.IdleConnTimeout == 0 {
		cfg.Client.IdleConnTimeout = DefaultClientIdleConnTimeout
	}

	// Journal defaults
	if cfg.Journal.Backend == "" {
		cfg.Journal.Backend = DefaultJournalBackend
	}
	if cfg.Journal.SQLite.Path == "" {
		cfg.Journal.SQLite.Path = DefaultJournalSQLitePath
	}
	if cfg.Journal.SQLite.Driver == "" {
		cfg.Journal.SQLite.Driver = DefaultJournalSQLiteDriver
	}
	if cfg.Journal.SQLite.BusyTimeout == 0 {
		cfg.Journal.SQLite.BusyTimeout = DefaultJournalSQLiteBusyTimeout
	}
	if cfg.Journal.SQLite.MaxOpenConns == 0 {
		cfg.Journal.SQLite.MaxOpenConns = DefaultJournalSQLiteMaxOpen
	}
	if cfg.Journal.Redis.Address == "" {
		cfg.Journal.Redis.Address = DefaultJournalRedisAddress
	}
	if cfg.Journal.Redis.Prefix == "" {
		cfg.Journal.Redis.Prefix = DefaultJournalRedisPrefix
	}
	if cfg.Journal.AsyncBuffer == 0 {
		cfg.Journal.AsyncBuffer = DefaultJournalAsyncBuffer
	}
	if cfg.Journal.MaxResponseBytes == 0 {
		cfg.Journal.MaxResponseBytes = DefaultJournalMaxResponseBytes
	}
	if cfg.Journal.Retention.Days == 0 {
		cfg.Journal.Retention.Days = DefaultJournalRetentionDays
	}
	if cfg.Journal.Retention.Schedule == "" {
		cfg.Journal.Retention.Schedule = DefaultJournalRetentionSchedule
	}

	// Inbox defaults
	if cfg.Inbox.Dir == "" {
		cfg.Inbox.Dir = DefaultInboxDir
	}
	if cfg.Inbox.DoneDir == "" {
		cfg.Inbox.DoneDir = filepath.Join(cfg.Inbox.Dir, "done")
	}
	if cfg.Inbox.FailedDir == "" {
		cfg.Inbox.FailedDir = filepath.Join(cfg.Inbox.Dir, "failed")
	}
	if cfg.Inbox.Workers == 0 {
		cfg.Inbox.Workers = DefaultInboxWorkers
	}
	if cfg.Inbox.Debounce == 0 {
		cfg.Inbox.Debounce = DefaultInboxDebounce
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	// A zero ratio is expressed with the "never" sampler.
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.OTLP.Timeout == 0 {
		cfg.Telemetry.Tracing.OTLP.Timeout = DefaultTracingOTLPTimeout
	}
}
