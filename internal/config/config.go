// Package config provides centralized configuration management for the importer.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Database DatabaseConfig
	Import   ImportConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// MinConns is the minimum number of connections to keep open (default: 0)
	MinConns int `env:"DB_MIN_CONNS" default:"0"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// ConnectTimeout bounds the initial dial; 0 leaves it to the driver (default: 0s)
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" default:"0s"`

	// SlowQueryThreshold is the duration above which ORM queries are logged as slow (default: 1s)
	SlowQueryThreshold time.Duration `env:"DB_SLOW_QUERY_THRESHOLD" default:"1s"`

	// InsertBatchSize is the number of rows per INSERT statement inside the
	// import transaction (default: 1000). It does not split the commit.
	InsertBatchSize int `env:"DB_INSERT_BATCH_SIZE" default:"1000"`
}

// ImportConfig holds CSV import settings.
type ImportConfig struct {
	// File is the path of the CSV file to import (default: products.csv)
	File string `env:"IMPORT_FILE" default:"products.csv"`

	// Timeout bounds a whole import run; 0 means no limit (default: 0s)
	Timeout time.Duration `env:"IMPORT_TIMEOUT" default:"0s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}
