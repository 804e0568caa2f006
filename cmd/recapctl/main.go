// recapctl records, replays, and inspects simulation cache directories.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/nharlow/recap/internal/logging"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	logLevel string
	logJSON  bool
)

var rootCmd = &cobra.Command{
	Use:     "recapctl",
	Short:   "Record/replay cache for stepwise simulations",
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(logging.ParseLevel(logLevel), logJSON)
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON")

	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(inspectCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
