package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/acutis-security/scangate/internal/gate"
	"github.com/acutis-security/scangate/internal/logger"
)

var scanJSON bool

var scanCmd = &cobra.Command{
	Use:   "scan <transcript-path>",
	Short: "Report verification state for a transcript",
	Long: `Report verification state for a transcript without gating anything.

This walks the JSONL transcript exactly like the gate does and prints what
it found: whether security-relevant files were written, whether the latest
write is covered by a scan_code ALLOW result, and the positions involved.

Example:
  scangate scan ~/.claude/projects/myproject/transcript.jsonl
  scangate scan transcript.jsonl --json`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Output report as JSON")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	if verbose {
		_ = logger.Init("debug", "")
	} else {
		logger.InitQuiet()
	}

	transcriptPath := args[0]
	a := gate.AnalyzeTranscript(transcriptPath)
	wouldBlock := a.HasSecurityWrites() && a.HasUnverifiedWrites()

	if scanJSON {
		output := map[string]interface{}{
			"path":                  transcriptPath,
			"records":               a.Records,
			"last_write_pos":        a.LastWritePos,
			"last_allow_pos":        a.LastAllowPos,
			"has_security_writes":   a.HasSecurityWrites(),
			"has_unverified_writes": a.HasUnverifiedWrites(),
			"would_block":           wouldBlock,
		}

		jsonBytes, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		fmt.Println(string(jsonBytes))
		return nil
	}

	fmt.Printf("Transcript: %s\n", transcriptPath)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Records parsed: %d\n", a.Records)
	fmt.Println()

	if !a.HasSecurityWrites() {
		fmt.Println("No security-relevant writes found. Stop would be allowed.")
		return nil
	}

	fmt.Printf("Last security-relevant write: record %d\n", a.LastWritePos)
	if a.LastAllowPos >= 0 {
		fmt.Printf("Last scan_code ALLOW:         record %d\n", a.LastAllowPos)
	} else {
		fmt.Println("Last scan_code ALLOW:         none")
	}
	fmt.Println()

	if wouldBlock {
		fmt.Println("Verdict: BLOCK (latest write is unverified)")
	} else {
		fmt.Println("Verdict: ALLOW (latest write is covered by a verification)")
	}

	return nil
}
