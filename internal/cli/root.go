package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version information set via ldflags
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	verbose    bool
	configFile string
	projectDir string
)

var rootCmd = &cobra.Command{
	Use:   "scangate",
	Short: "Stop-gate hook enforcing code verification before turn completion",
	Long: `Scangate is a stop-gate hook for agentic coding hosts.

When the agent attempts to end its turn, the host invokes scangate with a
JSON record on stdin. Scangate walks the conversation transcript and blocks
completion if security-relevant source files were written after the last
successful scan_code verification.

Configure ambient settings in:
  - ~/.scangate/config.yaml (global)
  - .scangate/config.yaml (project-specific)`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("scangate %s\n", Version)
		fmt.Printf("  commit: %s\n", Commit)
		fmt.Printf("  built:  %s\n", Date)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Override config file path")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "project", "p", "", "Override project directory")

	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
