package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/acutis-security/scangate/internal/audit"
	"github.com/acutis-security/scangate/internal/config"
	"github.com/acutis-security/scangate/internal/gate"
	"github.com/acutis-security/scangate/internal/hooks"
	"github.com/acutis-security/scangate/internal/logger"
)

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Run the stop-gate hook",
	Long: `Run the stop-gate hook.

This command reads the stop-hook JSON record from stdin, walks the
transcript it points at, and writes a blocking response to stdout when
unverified security-relevant writes exist. When the stop is allowed,
nothing is written. The process exits 0 on every documented path; the
hook must never fail the host turn through its own malfunction.

Example:
  echo '{"transcript_path": "~/.claude/projects/x/t.jsonl"}' | scangate gate`,
	RunE: runGate,
}

func init() {
	rootCmd.AddCommand(gateCmd)
}

func runGate(cmd *cobra.Command, args []string) error {
	cfg := loadConfigOrDefault()

	if verbose {
		_ = logger.Init("debug", cfg.Settings.LogFile)
	} else if cfg.Settings.LogLevel != "" {
		_ = logger.Init(cfg.Settings.LogLevel, cfg.Settings.LogFile)
	} else {
		logger.InitQuiet()
	}

	in := hooks.ReadInput(os.Stdin)
	env := hooks.DetectEnvironment(in)

	logger.Debug().
		Str("environment", string(env)).
		Str("transcript_path", in.TranscriptPath).
		Bool("stop_hook_active", in.StopHookActive).
		Msg("Received stop-hook input")

	decision := gate.Evaluate(in)

	recordDecision(cfg, in, env, decision)

	if decision.Allow {
		// No output at all means "allow"
		return nil
	}

	out, err := hooks.MarshalBlock(env, decision.Reason)
	if err != nil {
		// A failure here must still not fail the turn
		logger.Error().Err(err).Msg("Failed to marshal block response")
		return nil
	}

	fmt.Println(string(out))
	return nil
}

// recordDecision appends the decision to the audit store when auditing is
// enabled. Audit failures are logged and swallowed.
func recordDecision(cfg *config.Config, in hooks.StopInput, env hooks.Environment, decision gate.Decision) {
	if !cfg.Settings.Audit.Enabled {
		return
	}

	store, err := audit.NewSQLiteStore(cfg.Settings.Audit.Path)
	if err != nil {
		logger.Debug().Err(err).Msg("Failed to open audit store, continuing without auditing")
		return
	}
	defer func() { _ = store.Close() }()

	verdict := "allow"
	if !decision.Allow {
		verdict = "block"
	}

	rec := &audit.Record{
		SessionID:      in.SessionID,
		Environment:    string(env),
		Decision:       verdict,
		Reason:         decision.Reason,
		TranscriptPath: in.TranscriptPath,
		LastWritePos:   decision.Analysis.LastWritePos,
		LastAllowPos:   decision.Analysis.LastAllowPos,
	}
	if err := store.Append(rec); err != nil {
		logger.Debug().Err(err).Msg("Failed to append audit record")
		return
	}

	audit.MaybeRunCleanup(store, cfg.Settings.Audit)
}

// loadConfigOrDefault loads merged configuration, falling back to defaults.
// The hook path never fails on config problems.
func loadConfigOrDefault() *config.Config {
	loader, err := config.NewLoader(projectDir)
	if err != nil {
		return config.DefaultConfig()
	}

	var cfg *config.Config
	if configFile != "" {
		cfg, err = loader.LoadFromFile(configFile)
	} else {
		cfg, err = loader.Load()
	}
	if err != nil || cfg == nil {
		return config.DefaultConfig()
	}

	return cfg
}
