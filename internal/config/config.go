// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Catalog  CatalogConfig
	Database DatabaseConfig
	History  HistoryConfig
	Batch    BatchConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Display  DisplayConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing the response (default: 15s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"15s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 15s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`

	// RequestTimeout is the middleware timeout for requests (default: 10s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"10s"`
}

// CatalogConfig holds the category definition source.
type CatalogConfig struct {
	// Path is a JSON or YAML definition file. Empty uses the embedded table.
	Path string `env:"CATALOG_PATH" envAlt:"UNITS_DATA"`
}

// DatabaseConfig holds PostgreSQL settings for conversion history.
// The database is optional; without DATABASE_URL history stays in memory.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (optional)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a database is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// HistoryConfig holds conversion history settings.
type HistoryConfig struct {
	// Enabled controls whether conversions are recorded (default: true)
	Enabled bool `env:"HISTORY_ENABLED" default:"true"`

	// MemoryCapacity is the in-memory ring size when no database is set (default: 1000)
	MemoryCapacity int `env:"HISTORY_MEMORY_CAPACITY" default:"1000"`

	// Retention is how long entries are kept (default: 720h)
	Retention time.Duration `env:"HISTORY_RETENTION" default:"720h"`

	// PurgeInterval is how often old entries are purged (default: 1h)
	PurgeInterval time.Duration `env:"HISTORY_PURGE_INTERVAL" default:"1h"`
}

// BatchConfig holds batch conversion limits.
type BatchConfig struct {
	// MaxItems is the maximum number of requests in one batch (default: 1000)
	MaxItems int `env:"BATCH_MAX_ITEMS" default:"1000"`

	// MaxConcurrent is the maximum number of batches in flight (default: 4)
	MaxConcurrent int `env:"BATCH_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for a batch slot (default: 5s)
	MaxWaitTime time.Duration `env:"BATCH_MAX_WAIT_TIME" default:"5s"`

	// Workers is the per-batch parallelism (default: 8)
	Workers int `env:"BATCH_WORKERS" default:"8"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 300)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey requires X-API-Key on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// DisplayConfig holds presentation settings.
type DisplayConfig struct {
	// Precision is the number of decimal places shown (default: 4)
	Precision int `env:"DISPLAY_PRECISION" default:"4"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + strconv.Itoa(c.Port)
	}
	return c.Host + ":" + strconv.Itoa(c.Port)
}
