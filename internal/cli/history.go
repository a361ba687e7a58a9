package cli

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/acutis-security/scangate/internal/audit"
	"github.com/acutis-security/scangate/internal/config"
	"github.com/acutis-security/scangate/internal/logger"
)

var (
	historyLimit   int
	historySession string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent gate decisions",
	Long: `Show recent gate decisions from the audit store.

Auditing is off by default; enable it in config:

  settings:
    audit:
      enabled: true

Example:
  scangate history                 # Most recent decisions
  scangate history --limit 50
  scangate history --session <id>  # One session's decisions`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of decisions to show")
	historyCmd.Flags().StringVarP(&historySession, "session", "s", "", "Show decisions for a specific session")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if verbose {
		_ = logger.Init("debug", "")
	} else {
		logger.InitQuiet()
	}

	loader, err := config.NewLoader(projectDir)
	if err != nil {
		return fmt.Errorf("failed to create config loader: %w", err)
	}
	cfg, err := loader.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}

	store, err := audit.NewSQLiteStore(cfg.Settings.Audit.Path)
	if err != nil {
		return fmt.Errorf("failed to open audit store: %w", err)
	}
	defer func() { _ = store.Close() }()

	var records []*audit.Record
	if historySession != "" {
		records, err = store.BySession(historySession)
		if len(records) > historyLimit {
			records = records[len(records)-historyLimit:]
		}
	} else {
		records, err = store.Recent(historyLimit)
	}
	if err != nil {
		return fmt.Errorf("failed to read decisions: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No recorded decisions found.")
		return nil
	}

	fmt.Printf("%-14s  %-12s  %-7s  %-36s  %s\n", "WHEN", "HOST", "VERDICT", "SESSION", "POSITIONS")
	fmt.Println(strings.Repeat("-", 100))

	for _, rec := range records {
		sessionID := rec.SessionID
		if sessionID == "" {
			sessionID = "-"
		}
		if len(sessionID) > 36 {
			sessionID = sessionID[:33] + "..."
		}

		positions := "-"
		if rec.LastWritePos >= 0 {
			positions = fmt.Sprintf("write@%d allow@%d", rec.LastWritePos, rec.LastAllowPos)
		}

		fmt.Printf("%-14s  %-12s  %-7s  %-36s  %s\n",
			humanize.Time(rec.CreatedAt),
			rec.Environment,
			rec.Decision,
			sessionID,
			positions,
		)
	}

	if len(records) == historyLimit {
		fmt.Printf("\n(Showing %d decisions. Use --limit to see more.)\n", historyLimit)
	}

	return nil
}
