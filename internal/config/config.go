// Package config handles resolving configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable override.
const EnvPrefix = "GATHER_"

// Log levels accepted by [Config.LogLevel].
const (
	LogLevelDebug = "DEBUG"
	LogLevelInfo  = "INFO"
	LogLevelWarn  = "WARN"
	LogLevelError = "ERROR"
)

// Session store kinds accepted by [Session.Store].
const (
	SessionStoreMemory   = "memory"
	SessionStoreDatabase = "database"
)

// Database drivers accepted by [Database.Driver].
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the complete configuration of the application.
type Config struct {
	LogLevel   string `yaml:"log_level"   env:"LOG_LEVEL"   validate:"oneof=DEBUG INFO WARN ERROR"`
	WebAddress string `yaml:"web_address" env:"WEB_ADDRESS" validate:"required,hostname_port"`
	// DevMode enables request logging, source locations in logs, and seeding
	// of fake events on startup.
	DevMode  bool     `yaml:"dev_mode" env:"DEV_MODE"`
	Database Database `yaml:"database" envPrefix:"DATABASE_"`
	Session  Session  `yaml:"session"  envPrefix:"SESSION_"`
	Server   Server   `yaml:"server"   envPrefix:"SERVER_"`
}

// Database configures the backing SQL store.
type Database struct {
	Driver string `yaml:"driver" env:"DRIVER" validate:"oneof=sqlite postgres"`
	// Filepath is the SQLite database file, used with the sqlite driver.
	Filepath string `yaml:"filepath" env:"FILEPATH" validate:"required_if=Driver sqlite"`
	// URL is the PostgreSQL connection URL, used with the postgres driver.
	URL string `yaml:"url" env:"URL" validate:"required_if=Driver postgres"`
}

// Session configures session lifetime and storage.
type Session struct {
	Store        string        `yaml:"store"         env:"STORE"         validate:"oneof=memory database"`
	TTL          time.Duration `yaml:"ttl"           env:"TTL"           validate:"gt=0"`
	SecureCookie bool          `yaml:"secure_cookie" env:"SECURE_COOKIE"`
}

// Server configures the HTTP server timeouts.
type Server struct {
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"READ_HEADER_TIMEOUT" validate:"gt=0"`
	ReadTimeout       time.Duration `yaml:"read_timeout"        env:"READ_TIMEOUT"        validate:"gt=0"`
	WriteTimeout      time.Duration `yaml:"write_timeout"       env:"WRITE_TIMEOUT"       validate:"gt=0"`
	// ShutdownTimeout bounds how long in-flight requests may finish once the
	// server is stopping.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
}

// DSN returns the data source name for the configured driver.
func (c *Config) DSN() string {
	if c.Database.Driver == DriverPostgres {
		return c.Database.URL
	}
	return c.Database.Filepath
}

// DefaultPath is the location of the config file when none is specified.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "gather.yaml")
}

// Default returns a version of the config with all default values populated.
func Default() *Config {
	return &Config{
		LogLevel:   LogLevelInfo,
		WebAddress: "localhost:9999",
		DevMode:    false,
		Database: Database{
			Driver:   DriverSQLite,
			Filepath: filepath.Join(xdg.DataHome, "gather", "db.sqlite"),
		},
		Session: Session{
			Store: SessionStoreMemory,
			TTL:   30 * time.Minute, //nolint:mnd // default session lifetime
		},
		Server: Server{
			ReadHeaderTimeout: 1 * time.Second,
			ReadTimeout:       5 * time.Second,  //nolint:mnd // default read timeout
			WriteTimeout:      5 * time.Second,  //nolint:mnd // default write timeout
			ShutdownTimeout:   10 * time.Second, //nolint:mnd // default shutdown grace
		},
	}
}

// Load resolves the configuration: defaults, then the YAML file at path (if it
// exists), then environment overrides from environ (KEY=value pairs, as from
// [os.Environ]), and finally validates the result for completeness.
func Load(path string, environ []string) (*Config, error) {
	cfg := Default()

	bytes, err := os.ReadFile(path) //nolint:gosec // allow the config file to be loaded from anywhere
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// defaults and environment only
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err = yaml.Unmarshal(bytes, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file at %s: %w", path, err)
		}
	}

	err = env.ParseWithOptions(cfg, env.Options{
		Prefix:      EnvPrefix,
		Environment: toMap(environ),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cfg for completeness.
func Validate(cfg *Config) error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Write serializes cfg as YAML to path, creating parent directories.
func Write(path string, cfg *Config) error {
	bytes, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	const userOnlyDirPerms, userOnlyFilePerms = 0o700, 0o600
	if err = os.MkdirAll(filepath.Dir(path), userOnlyDirPerms); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err = os.WriteFile(path, bytes, userOnlyFilePerms); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func toMap(environ []string) map[string]string {
	out := make(map[string]string, len(environ))
	for _, kv := range environ {
		if key, value, ok := strings.Cut(kv, "="); ok {
			out[key] = value
		}
	}
	return out
}
