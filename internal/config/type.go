package config

import "time"

// Store backends.
const (
	BackendSupabase = "supabase"
	BackendSQLite   = "sqlite"
)

// Config holds every runtime setting. It is built once at startup and
// passed to the components that need it.
type Config struct {
	ListenAddress string `toml:"listen_address"`
	ListenPort    int    `toml:"listen_port"`
	LogLevel      string `toml:"log_level"`

	// Store selects the persistence backend: "supabase" or "sqlite".
	Store      string `toml:"store"`
	SQLitePath string `toml:"sqlite_path"`

	Supabase SupabaseConfig `toml:"supabase"`

	// TimezoneOffsetHours defines the civil day used for daily summaries.
	TimezoneOffsetHours int `toml:"timezone_offset_hours"`
	// SamplingIntervalMinutes is the device reporting period used for
	// interval energy.
	SamplingIntervalMinutes float64 `toml:"sampling_interval_minutes"`

	// SummarySchedule is a 5-field cron expression evaluated in the civil
	// timezone. Empty disables the in-process trigger.
	SummarySchedule string `toml:"summary_schedule"`

	// ExposeUpstreamErrors adds the store's message to 500 responses.
	ExposeUpstreamErrors bool `toml:"expose_upstream_errors"`

	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`

	// Path records where the file layer was read from, if anywhere.
	Path string `toml:"-"`
}

// SupabaseConfig holds the project endpoint and privileged key.
type SupabaseConfig struct {
	URL            string `toml:"url"`
	ServiceRoleKey string `toml:"service_role_key"`
}

// Duration is a time.Duration that decodes from TOML strings like "5s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}
