// Command apoptosim simulates the apoptosis reaction network, either
// deterministically with mitochondria replicated as a loop or
// stochastically over an ensemble of seeds.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/njchilds90/apoptosim/config"
	"github.com/njchilds90/apoptosim/telemetry"
)

var (
	rootCmd = &cobra.Command{
		Use:   "apoptosim",
		Short: "Simulate the apoptosis reaction network",
		Long: `apoptosim integrates the extrinsic apoptosis network of a cell and its
mitochondria. Mitochondria are compiled once and replicated as a loop, so
the number of organelles is a run-time setting.`,
		SilenceUsage:       true,
		PersistentPreRunE:  setup,
		PersistentPostRunE: teardown,
	}

	configPath string
	logLevel   string
	logFormat  string

	cfg           *config.Config
	logLevelVar   *slog.LevelVar
	shutdownTrace func(context.Context) error
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Override logging.format (text, json, auto)")

	rootCmd.AddCommand(solveCmd, describeCmd, stochasticCmd, serveCmd, modelsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration and installs the logger and tracer.
func setup(cmd *cobra.Command, _ []string) error {
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
	} else {
		cfg = config.Default()
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}

	logger, lv, err := telemetry.NewLeveledLogger(os.Stderr, cfg.Logging)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	logLevelVar = lv

	shutdownTrace, err = telemetry.InitTracing(cmd.Context(), cfg.Tracing)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	return nil
}

func teardown(cmd *cobra.Command, _ []string) error {
	if shutdownTrace == nil {
		return nil
	}
	return shutdownTrace(context.WithoutCancel(cmd.Context()))
}
