// Package config provides centralized configuration management for the
// datagrid server and terminal client. It loads configuration from
// environment variables with defaults and validates all settings on startup
// to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all server configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Grid     GridConfig
	Import   ImportConfig
	Audit    AuditConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 2m, covers exports)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"2m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 20)
	MaxConns int `env:"DB_MAX_CONNS" default:"20"`

	// MinConns is the minimum number of connections to keep open (default: 4)
	MinConns int `env:"DB_MIN_CONNS" default:"4"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// AutoMigrate applies pending schema migrations on startup (default: false)
	AutoMigrate bool `env:"DB_AUTO_MIGRATE" default:"false"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the sustained rate per IP (default: 300)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`

	// Burst is the number of requests allowed at once (default: 50)
	Burst int `env:"RATE_LIMIT_BURST" default:"50"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// RequireAPIKey rejects API requests without a valid X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`

	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`

	// File, when set, writes logs to a rotated file instead of stdout
	File string `env:"LOG_FILE"`

	// MaxSizeMB is the size at which the log file is rotated (default: 100)
	MaxSizeMB int `env:"LOG_MAX_SIZE_MB" default:"100"`

	// MaxBackups is the number of rotated files to keep (default: 3)
	MaxBackups int `env:"LOG_MAX_BACKUPS" default:"3"`

	// MaxAgeDays is how long rotated files are kept (default: 28)
	MaxAgeDays int `env:"LOG_MAX_AGE_DAYS" default:"28"`

	// Compress gzips rotated files (default: true)
	Compress bool `env:"LOG_COMPRESS" default:"true"`
}

// GridConfig holds table engine settings shared by the server page and the
// terminal client.
type GridConfig struct {
	// PageSize is used for tables that do not configure one (default: 10)
	PageSize int `env:"GRID_PAGE_SIZE" default:"10"`

	// SearchDebounce is the quiet period before a search reloads (default: 300ms)
	SearchDebounce time.Duration `env:"GRID_SEARCH_DEBOUNCE" default:"300ms"`

	// RequestTimeout bounds every backend call (default: 15s)
	RequestTimeout time.Duration `env:"GRID_REQUEST_TIMEOUT" default:"15s"`

	// CommitConcurrency bounds parallel row updates in a batch commit (default: 4)
	CommitConcurrency int `env:"GRID_COMMIT_CONCURRENCY" default:"4"`

	// TablesDir holds extra YAML/TOML table definitions
	TablesDir string `env:"TABLES_DIR"`

	// Locale selects number grouping and separators (default: en-US)
	Locale string `env:"GRID_LOCALE" default:"en-US"`

	// Currency is the ISO 4217 code used for price and total columns (default: USD)
	Currency string `env:"GRID_CURRENCY" default:"USD"`

	// TimeZone is the IANA zone dates are displayed in (default: UTC)
	TimeZone string `env:"GRID_TIMEZONE" default:"UTC"`
}

// ImportConfig holds CSV import settings.
type ImportConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 100MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"104857600"`

	// MaxConcurrent is the maximum number of parallel imports (default: 3)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"3"`

	// MaxWaitTime is how long to wait for an import slot (default: 15s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"15s"`

	// BatchSize is the number of rows per bulk upsert (default: 200)
	BatchSize int `env:"IMPORT_BATCH_SIZE" default:"200"`
}

// AuditConfig holds audit trail settings.
type AuditConfig struct {
	// Enabled records every mutation in the audit_log table (default: true)
	Enabled bool `env:"AUDIT_ENABLED" default:"true"`

	// Retention is how long entries are kept (default: 2160h, 90 days)
	Retention time.Duration `env:"AUDIT_RETENTION" default:"2160h"`

	// CheckInterval is how often old entries are purged (default: 24h)
	CheckInterval time.Duration `env:"AUDIT_CHECK_INTERVAL" default:"24h"`
}

// ClientConfig holds the terminal client settings.
type ClientConfig struct {
	// APIURL is the base URL of a datagrid server (default: http://localhost:8080)
	APIURL string `env:"GRID_API_URL" default:"http://localhost:8080"`

	// APIKey is sent as X-API-Key when set
	APIKey string `env:"GRID_API_KEY"`

	// UserID owns saved filters (default: the OS user via USER)
	UserID string `env:"GRID_USER_ID" envAlt:"USER"`

	// Table is the table opened on start (default: users)
	Table string `env:"GRID_TABLE" default:"users"`

	// TransferDir holds CSV files for import and receives exports (default: transfers)
	TransferDir string `env:"GRID_TRANSFER_DIR" default:"transfers"`

	Grid    GridConfig
	Logging LoggingConfig
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
