package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/harbor/pkg/cli"
	"mercator-hq/harbor/pkg/config"
)

var validateOutput string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load the configuration file, apply defaults and HARBOR_* environment
overrides, and validate the result without starting a server.

With --output json or yaml the effective configuration is printed.

Examples:
  # Validate the default configuration
  harbor validate

  # Validate a file and print the effective configuration
  harbor validate --config config.yaml --output yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVarP(&validateOutput, "output", "o", "text", "output format (text, json, yaml)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(validateOutput)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		var verr config.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(out, "✗ Configuration invalid (%d errors)\n", len(verr.Errors))
			for _, fe := range verr.Errors {
				fmt.Fprintf(out, "  - %s\n", fe.Error())
			}
			return err
		}
		return cli.NewConfigError("", err.Error())
	}

	if _, err := config.NewLaunchConfig(cfg); err != nil {
		return cli.NewConfigError("server", err.Error())
	}

	if format == cli.FormatText {
		source := cfgFile
		if source == "" {
			source = "(defaults)"
		}
		fmt.Fprintf(out, "✓ Configuration valid: %s\n", source)
		fmt.Fprintf(out, "  listen:  %s:%d\n", cfg.Server.Address, cfg.Server.Port)
		fmt.Fprintf(out, "  workers: %d slots, %d background\n", cfg.Server.WorkerThreads, cfg.Server.BackgroundThreads)
		fmt.Fprintf(out, "  tls:     %t\n", cfg.Server.TLS.Enabled)
		fmt.Fprintf(out, "  metrics: %t, health: %t, tracing: %t, reporters: %t\n",
			cfg.Telemetry.Metrics.Enabled,
			cfg.Telemetry.Health.Enabled,
			cfg.Telemetry.Tracing.Enabled,
			cfg.Telemetry.Reporters.ReportingEnabled(),
		)
		return nil
	}

	return cli.NewFormatter(format).FormatTo(out, cfg)
}
