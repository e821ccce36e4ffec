package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/harbor/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "harbor",
	Short: "Harbor - pipeline-based HTTP server runtime",
	Long: `Harbor runs an HTTP application behind an ordered pipeline of decorators.

It provides:
  - Deterministic start/stop lifecycle with graceful drain
  - Bounded worker slots and a background pool for blocking work
  - Health checks, gauges and timers exported to Prometheus
  - Console, CSV and SQLite metric reporters
  - OpenTelemetry request tracing`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return cli.ExitCode(err)
	}
	return cli.ExitOK
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults only when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
