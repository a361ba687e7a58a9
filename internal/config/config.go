package config

// Config represents the complete scangate configuration.
//
// The classification sets (extensions, tool names) are deliberately not
// configurable; config only covers ambient concerns.
type Config struct {
	Version  string   `yaml:"version"`
	Settings Settings `yaml:"settings"`
}

// Settings contains global configuration settings
type Settings struct {
	LogLevel string        `yaml:"log_level"`
	LogFile  string        `yaml:"log_file,omitempty"`
	Audit    AuditSettings `yaml:"audit,omitempty"`
}

// AuditSettings controls the optional decision audit store
type AuditSettings struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`

	// RecordTTL is how long audit rows are kept, as a time.ParseDuration
	// string. Defaults to 720h when unset.
	RecordTTL string `yaml:"record_ttl,omitempty"`

	// CleanupProbability is the chance (0..1) that a gate invocation also
	// prunes expired rows.
	CleanupProbability float64 `yaml:"cleanup_probability,omitempty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: "1",
		Settings: Settings{
			LogLevel: "info",
			Audit: AuditSettings{
				Enabled:            false,
				RecordTTL:          "720h",
				CleanupProbability: 0.1,
			},
		},
	}
}
