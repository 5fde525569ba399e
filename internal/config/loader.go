package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrInvalid marks every error returned by Load, so callers can tell a
// configuration problem apart from a runtime failure with errors.Is.
var ErrInvalid = errors.New("invalid configuration")

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error wrapping ErrInvalid if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w: %w", ErrInvalid, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w: %w", ErrInvalid, err)
	}

	return cfg, nil
}

// LoadOffline reads only the settings that do not involve the database:
// the Import and Logging sections. DATABASE_URL is neither required nor read.
func LoadOffline() (*Config, error) {
	cfg := &Config{}

	for _, section := range []any{&cfg.Import, &cfg.Logging} {
		if err := loadStruct(reflect.ValueOf(section).Elem()); err != nil {
			return nil, fmt.Errorf("config load: %w: %w", ErrInvalid, err)
		}
	}

	var errs []string
	errs = cfg.validateImport(errs)
	errs = cfg.validateLogging(errs)
	if err := joinProblems(errs); err != nil {
		return nil, fmt.Errorf("config validation: %w: %w", ErrInvalid, err)
	}

	return cfg, nil
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}

		value := lookupEnv(envName, field.Tag.Get("envAlt"))
		if value == "" {
			if field.Tag.Get("required") == "true" {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = field.Tag.Get("default")
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// lookupEnv returns the trimmed value of the primary variable, falling back
// to the alternate name when the primary is unset or blank.
func lookupEnv(name, alt string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" && alt != "" {
		value = strings.TrimSpace(os.Getenv(alt))
	}
	return value
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(i)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// MaxInsertBatchSize keeps one INSERT of product rows (six columns) under
// PostgreSQL's limit of 65535 bind parameters.
const MaxInsertBatchSize = 10000

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string
	errs = c.validateDatabase(errs)
	errs = c.validateImport(errs)
	errs = c.validateLogging(errs)
	return joinProblems(errs)
}

func (c *Config) validateDatabase(errs []string) []string {
	if c.Database.URL == "" {
		errs = append(errs, "DATABASE_URL is required")
	} else if _, err := pgconn.ParseConfig(c.Database.URL); err != nil {
		// pgconn echoes the input on some failures; keep credentials out of the message.
		errs = append(errs, "DATABASE_URL is not a valid PostgreSQL connection string")
	}
	if c.Database.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if c.Database.MinConns < 0 {
		errs = append(errs, "DB_MIN_CONNS must be non-negative")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
			c.Database.MaxConns, c.Database.MinConns))
	}
	if c.Database.ConnectTimeout < 0 {
		errs = append(errs, "DB_CONNECT_TIMEOUT must be non-negative")
	}
	if c.Database.SlowQueryThreshold < 0 {
		errs = append(errs, "DB_SLOW_QUERY_THRESHOLD must be non-negative")
	}
	if c.Database.InsertBatchSize <= 0 || c.Database.InsertBatchSize > MaxInsertBatchSize {
		errs = append(errs, fmt.Sprintf("DB_INSERT_BATCH_SIZE must be between 1 and %d", MaxInsertBatchSize))
	}
	return errs
}

func (c *Config) validateImport(errs []string) []string {
	if strings.TrimSpace(c.Import.File) == "" {
		errs = append(errs, "IMPORT_FILE must not be empty")
	}
	if c.Import.Timeout < 0 {
		errs = append(errs, "IMPORT_TIMEOUT must be non-negative")
	}
	return errs
}

func (c *Config) validateLogging(errs []string) []string {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}
	return errs
}

func joinProblems(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
}

// String returns a safe string representation of the config for logging.
// The database URL is masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Database: {URL: [MASKED], MaxConns: %d, MinConns: %d}, ",
		c.Database.MaxConns, c.Database.MinConns)
	fmt.Fprintf(&b, "Import: {File: %q, Timeout: %s}, ", c.Import.File, c.Import.Timeout)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
