package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/harbor/pkg/cli"
	"mercator-hq/harbor/pkg/config"
	"mercator-hq/harbor/pkg/handling"
	"mercator-hq/harbor/pkg/middleware"
	"mercator-hq/harbor/pkg/server"
	"mercator-hq/harbor/pkg/telemetry"
	"mercator-hq/harbor/pkg/telemetry/logging"
	"mercator-hq/harbor/pkg/telemetry/tracing"
)

var runFlags struct {
	port     int
	logLevel string
	dryRun   bool
	watch    bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the harbor server",
	Long: `Start the harbor server with the specified configuration.

The server runs until it receives SIGINT or SIGTERM, or a request to the
admin stop endpoint. SIGHUP, or a change to the configuration file when
--watch is set, restarts the server with the reloaded configuration.

Examples:
  # Start with default config
  harbor run

  # Start with custom config and reload it on change
  harbor run --config /etc/harbor/config.yaml --watch

  # Override the port (0 picks a free port)
  harbor run --port 0

  # Validate config without starting server
  harbor run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVarP(&runFlags.port, "port", "p", 0, "override listen port")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
	runCmd.Flags().BoolVarP(&runFlags.watch, "watch", "w", false, "restart when the config file changes")
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	reload := make(chan struct{}, 1)
	requestReload := func() {
		select {
		case reload <- struct{}{}:
		default:
		}
	}

	hup := cli.ReloadSignals()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				requestReload()
			}
		}
	}()

	if runFlags.watch && cfgFile != "" && !runFlags.dryRun {
		watcher, err := config.NewWatcher(cfgFile, 0, slog.Default())
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		defer watcher.Stop()

		go func() {
			if err := watcher.Watch(ctx, requestReload); err != nil {
				slog.Error("configuration watcher stopped", "error", err)
			}
		}()
	}

	for {
		cfg, err := loadRunConfig(cmd)
		if err != nil {
			return err
		}

		if runFlags.dryRun {
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
			return nil
		}

		restart, err := serve(ctx, cmd, cfg, reload)
		if err != nil {
			return err
		}
		if !restart {
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "↻ Configuration changed, restarting")
	}
}

// loadRunConfig loads the configuration and applies the command line overrides.
func loadRunConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("port") {
		cfg.Server.Port = runFlags.port
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// serve runs one server until it stops. It reports whether the server should
// be started again with a reloaded configuration.
func serve(ctx context.Context, cmd *cobra.Command, cfg *config.Config, reload <-chan struct{}) (restart bool, err error) {
	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging, os.Stderr))
	if err != nil {
		return false, cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)

	launch, err := config.NewLaunchConfig(cfg)
	if err != nil {
		return false, cli.NewConfigError("server", err.Error())
	}

	tel, err := telemetry.New(ctx, cfg.Telemetry, telemetry.WithLogger(logger))
	if err != nil {
		return false, err
	}

	tracer, err := tracing.New(ctx, cfg.Telemetry.Tracing)
	if err != nil {
		return false, cli.NewConfigError("telemetry.tracing", err.Error())
	}
	defer func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	work := newWorkload(tel.Metrics(), launch.BackgroundThreads())
	tel.Add(work)

	decorators := []handling.Decorator{
		tel.Decorator(),
		middleware.RequestID(),
		tracing.Decorator(tracer),
		middleware.Logging(),
		middleware.Recovery(),
	}
	if cfg.Admin.StopEnabled {
		decorators = append(decorators, middleware.Mount(cfg.Admin.StopPath, middleware.StopHandler()))
	}

	srv := server.New(launch, newApplication(work),
		server.WithLogger(logger),
		server.WithDecorators(decorators...),
		server.WithService(tel.Services()...),
	)

	if _, err := srv.Start(ctx); err != nil {
		// The server stops only services that started. Stopping the
		// scheduler again is a no-op.
		for _, svc := range tel.Services() {
			_ = svc.Stop(context.Background())
		}
		return false, cli.NewCommandError("run", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Harbor v%s\n", Version)
	fmt.Fprintf(out, "✓ Server listening on %s\n", srv.URL())
	if cfg.Telemetry.Health.Enabled {
		fmt.Fprintf(out, "✓ Health endpoint: %s%s\n", srv.URL(), cfg.Telemetry.Health.Path)
	}
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Fprintf(out, "✓ Metrics endpoint: %s%s\n", srv.URL(), cfg.Telemetry.Metrics.Path)
	}
	if cfg.Admin.StopEnabled {
		fmt.Fprintf(out, "✓ Stop endpoint: %s%s\n", srv.URL(), cfg.Admin.StopPath)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	select {
	case <-ctx.Done():
		fmt.Fprintln(out, "\nShutting down gracefully...")
	case <-reload:
		restart = true
	case <-srv.Done():
		// Stopped from inside, by the admin endpoint or a failed serve loop.
	}

	// The signal context is done by now in the shutdown case, so the stop
	// runs on a fresh context bounded by the server's shutdown timeout.
	if err := srv.Stop(context.Background()); err != nil {
		if !errors.Is(err, context.DeadlineExceeded) {
			return false, cli.NewCommandError("run", err)
		}
		logger.Warn("graceful drain timed out", "error", err)
	}

	fmt.Fprintln(out, "✓ Server stopped")
	return restart, nil
}
