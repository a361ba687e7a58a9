package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/acutis-security/scangate/internal/config"
)

var (
	setupGlobal bool
	setupCursor bool
	setupAudit  bool
	setupForce  bool
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Set up scangate configuration and host hook registration",
	Long: `Set up scangate with a single command.

This command:
1. Creates a scangate configuration file (.scangate/config.yaml or global)
2. Outputs the hook registration JSON for copy/paste into host settings

Examples:
  scangate setup               # Project config + Claude Code snippet
  scangate setup --global      # Write to ~/.scangate/config.yaml
  scangate setup --cursor      # Output a Cursor hooks.json snippet
  scangate setup --audit       # Enable the decision audit store
  scangate setup --force       # Overwrite existing config`,
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().BoolVarP(&setupGlobal, "global", "g", false, "Write config to ~/.scangate/config.yaml instead of project")
	setupCmd.Flags().BoolVar(&setupCursor, "cursor", false, "Output a Cursor hooks snippet instead of Claude Code")
	setupCmd.Flags().BoolVar(&setupAudit, "audit", false, "Enable the decision audit store in the generated config")
	setupCmd.Flags().BoolVar(&setupForce, "force", false, "Overwrite existing config file")
	rootCmd.AddCommand(setupCmd)
}

// claudeHookConfig mirrors the hooks section of a Claude Code settings file.
type claudeHookConfig struct {
	Hooks map[string][]claudeEventConfig `json:"hooks"`
}

type claudeEventConfig struct {
	Hooks []claudeHookCommand `json:"hooks"`
}

type claudeHookCommand struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Timeout int    `json:"timeout,omitempty"`
}

// cursorHookConfig mirrors a Cursor hooks.json file.
type cursorHookConfig struct {
	Version int                            `json:"version"`
	Hooks   map[string][]cursorHookCommand `json:"hooks"`
}

type cursorHookCommand struct {
	Command string `json:"command"`
}

func runSetup(cmd *cobra.Command, args []string) error {
	// Determine config path
	var configPath string
	if setupGlobal {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(homeDir, ".scangate", "config.yaml")
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		configPath = filepath.Join(cwd, ".scangate", "config.yaml")
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		if !setupForce {
			return fmt.Errorf("config file already exists: %s\nUse --force to overwrite", configPath)
		}
	}

	cfg := config.DefaultConfig()
	if setupAudit {
		cfg.Settings.Audit.Enabled = true
	}

	// Create directory if needed
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Created scangate config: %s\n\n", configPath)

	fmt.Println("Features enabled:")
	if cfg.Settings.Audit.Enabled {
		storage := cfg.Settings.Audit.Path
		if storage == "" {
			storage = "~/.scangate/audit/decisions.db"
		}
		fmt.Printf("  - Decision audit: enabled (%s)\n", storage)
	} else {
		fmt.Println("  - Decision audit: disabled")
	}
	fmt.Printf("  - Log level: %s\n", cfg.Settings.LogLevel)
	fmt.Println()

	if setupCursor {
		return printCursorSnippet()
	}
	return printClaudeSnippet()
}

func printClaudeSnippet() error {
	hookConfig := claudeHookConfig{
		Hooks: map[string][]claudeEventConfig{
			"Stop": {
				{
					Hooks: []claudeHookCommand{
						{
							Type:    "command",
							Command: "scangate gate",
							Timeout: 30,
						},
					},
				},
			},
		},
	}

	output, err := json.MarshalIndent(hookConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal hook config: %w", err)
	}

	fmt.Println("Add the following to your Claude Code settings file:")
	fmt.Println()
	fmt.Println(string(output))
	fmt.Println()
	fmt.Println("Settings file locations:")
	fmt.Println("  - Global: ~/.claude/settings.json")
	fmt.Println("  - Project: .claude/settings.json")
	fmt.Println()
	fmt.Println("Note: Merge with existing settings if present.")

	return nil
}

func printCursorSnippet() error {
	hookConfig := cursorHookConfig{
		Version: 1,
		Hooks: map[string][]cursorHookCommand{
			"stop": {
				{Command: "scangate gate"},
			},
		},
	}

	output, err := json.MarshalIndent(hookConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal hook config: %w", err)
	}

	fmt.Println("Add the following to your Cursor hooks file:")
	fmt.Println()
	fmt.Println(string(output))
	fmt.Println()
	fmt.Println("Hooks file location: ~/.cursor/hooks.json")
	fmt.Println()
	fmt.Println("Note: Merge with existing hooks if present.")

	return nil
}
