// Package config loads runtime settings from defaults, a TOML file, a .env
// file and the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jwulff/bioreactor-go/internal/derive"
	"github.com/jwulff/bioreactor-go/internal/reportdate"
)

// Environment variables.
const (
	EnvConfigPath           = "BIOREACTOR_CONFIG"
	EnvSupabaseURL          = "SUPABASE_URL"
	EnvSupabaseKey          = "SUPABASE_SERVICE_ROLE_KEY"
	EnvPort                 = "PORT"
	EnvStore                = "BIOREACTOR_STORE"
	EnvSQLitePath           = "BIOREACTOR_SQLITE_PATH"
	EnvLogLevel             = "BIOREACTOR_LOG_LEVEL"
	EnvSummarySchedule      = "BIOREACTOR_SUMMARY_SCHEDULE"
	EnvExposeUpstreamErrors = "BIOREACTOR_EXPOSE_UPSTREAM_ERRORS"
)

const (
	defaultConfigPath = "bioreactor.toml"
	defaultEnvFile    = ".env"
)

// ErrMissingCredentials means the Supabase URL or service role key is unset.
var ErrMissingCredentials = errors.New("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY must be set")

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddress:           "0.0.0.0",
		ListenPort:              3000,
		LogLevel:                "info",
		Store:                   BackendSupabase,
		SQLitePath:              "bioreactor.db",
		TimezoneOffsetHours:     int(reportdate.DefaultOffset / time.Hour),
		SamplingIntervalMinutes: derive.DefaultSamplingIntervalMinutes,
		ReadTimeout:             Duration{10 * time.Second},
		WriteTimeout:            Duration{30 * time.Second},
		ShutdownTimeout:         Duration{10 * time.Second},
	}
}

// Load resolves the configuration. path may be empty, in which case
// BIOREACTOR_CONFIG or bioreactor.toml is tried. A missing file is fine.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		path = defaultConfigPath
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		cfg.Path = path
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	// Existing process variables win over .env entries.
	if err := godotenv.Load(defaultEnvFile); err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("failed to load %s: %w", defaultEnvFile, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvSupabaseURL); v != "" {
		c.Supabase.URL = v
	}
	if v := os.Getenv(EnvSupabaseKey); v != "" {
		c.Supabase.ServiceRoleKey = v
	}
	if v := os.Getenv(EnvStore); v != "" {
		c.Store = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv(EnvSQLitePath); v != "" {
		c.SQLitePath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvSummarySchedule); v != "" {
		c.SummarySchedule = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		c.ListenPort = port
	}
	if v := os.Getenv(EnvExposeUpstreamErrors); v != "" {
		expose, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvExposeUpstreamErrors, v, err)
		}
		c.ExposeUpstreamErrors = expose
	}
	return nil
}

// Validate rejects settings no component can run with. Missing Supabase
// credentials are reported by RequireCredentials instead.
func (c Config) Validate() error {
	switch c.Store {
	case BackendSupabase, BackendSQLite:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store)
	}
	if c.Store == BackendSQLite && c.SQLitePath == "" {
		return errors.New("sqlite_path is required for the sqlite store")
	}
	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return fmt.Errorf("listen_port %d out of range", c.ListenPort)
	}
	if c.TimezoneOffsetHours < -12 || c.TimezoneOffsetHours > 14 {
		return fmt.Errorf("timezone_offset_hours %d out of range", c.TimezoneOffsetHours)
	}
	if c.SamplingIntervalMinutes <= 0 {
		return fmt.Errorf("sampling_interval_minutes must be positive, got %v", c.SamplingIntervalMinutes)
	}
	return nil
}

// HasCredentials reports whether the Supabase endpoint and key are set.
func (c Config) HasCredentials() bool {
	return c.Supabase.URL != "" && c.Supabase.ServiceRoleKey != ""
}

// RequireCredentials returns ErrMissingCredentials when the Supabase store is
// selected without credentials.
func (c Config) RequireCredentials() error {
	if c.Store == BackendSupabase && !c.HasCredentials() {
		return ErrMissingCredentials
	}
	return nil
}

// Location returns the civil timezone for daily summaries.
func (c Config) Location() *time.Location {
	return reportdate.Zone(time.Duration(c.TimezoneOffsetHours) * time.Hour)
}

// ListenAddr returns host:port for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.ListenAddress, c.ListenPort)
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
