package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	configDirName  = ".scangate"
	configFileName = "config.yaml"
)

// Loader handles loading and merging configuration files
type Loader struct {
	globalPath  string
	projectPath string
}

// NewLoader creates a new configuration loader
func NewLoader(projectDir string) (*Loader, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	if projectDir == "" {
		projectDir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
	}

	return &Loader{
		globalPath:  filepath.Join(homeDir, configDirName, configFileName),
		projectPath: filepath.Join(projectDir, configDirName, configFileName),
	}, nil
}

// Load loads and merges configuration from all sources. Project config
// overrides global config overrides defaults.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	globalCfg, err := l.loadFile(l.globalPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load global config: %w", err)
	}
	if globalCfg != nil {
		cfg = mergeConfigs(cfg, globalCfg)
	}

	projectCfg, err := l.loadFile(l.projectPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}
	if projectCfg != nil {
		cfg = mergeConfigs(cfg, projectCfg)
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific file
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	return l.loadFile(path)
}

func (l *Loader) loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return &cfg, nil
}

// mergeConfigs merges two configurations, with override taking precedence
func mergeConfigs(base, override *Config) *Config {
	result := &Config{
		Version: coalesce(override.Version, base.Version),
		Settings: Settings{
			LogLevel: coalesce(override.Settings.LogLevel, base.Settings.LogLevel),
			LogFile:  coalesce(override.Settings.LogFile, base.Settings.LogFile),
			Audit:    mergeAuditSettings(base.Settings.Audit, override.Settings.Audit),
		},
	}

	return result
}

// mergeAuditSettings merges audit settings, with override taking precedence
// for set values
func mergeAuditSettings(base, override AuditSettings) AuditSettings {
	result := base

	// Enabled can't distinguish "not set" from "set to false", so it only
	// flips when any audit setting is configured in the override
	if override.Enabled || override.Path != "" || override.RecordTTL != "" ||
		override.CleanupProbability != 0 {
		result.Enabled = override.Enabled
	}

	if override.Path != "" {
		result.Path = override.Path
	}
	if override.RecordTTL != "" {
		result.RecordTTL = override.RecordTTL
	}
	if override.CleanupProbability != 0 {
		result.CleanupProbability = override.CleanupProbability
	}

	return result
}

func coalesce(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// GlobalConfigPath returns the path to the global config file
func (l *Loader) GlobalConfigPath() string {
	return l.globalPath
}

// ProjectConfigPath returns the path to the project config file
func (l *Loader) ProjectConfigPath() string {
	return l.projectPath
}
