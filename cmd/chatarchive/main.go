// Package main implements the chatarchive CLI, which turns Claude and
// ChatGPT data exports into a dated archive of Markdown files.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/chatarchive/internal/config"
	"github.com/fyrsmithlabs/chatarchive/internal/logging"
	"github.com/fyrsmithlabs/chatarchive/internal/telemetry"
)

var (
	// cfgFile overrides the default config path
	cfgFile string
	// logLevel overrides logging.level from the config
	logLevel string
	// version information
	version = "dev"

	// populated by setup before any subcommand runs
	appConfig    *config.Config
	appLogger    *logging.Logger
	appTelemetry *telemetry.Telemetry
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// execute runs the root command. Telemetry and the logger are flushed
// whether or not the command succeeds.
func execute(ctx context.Context) error {
	defer teardown(ctx)
	return rootCmd.ExecuteContext(ctx)
}

var rootCmd = &cobra.Command{
	Use:   "chatarchive",
	Short: "Export Claude and ChatGPT conversations to Markdown",
	Long: `chatarchive converts the data exports of Claude and ChatGPT into one
Markdown file per conversation, organized by year and month, with YAML
frontmatter and optional AI-assigned tags.

Configuration is read from $XDG_CONFIG_HOME/chat-archive/config.yaml and
CHATARCHIVE_* environment variables.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/chat-archive/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override: trace, debug, info, warn, error")
}

// setup loads configuration and builds the logger. Logs go to the command's
// error stream so stdout carries only command output.
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	logCfg, err := logging.FromSettings(cfg.Logging)
	if err != nil {
		return err
	}
	logCfg.Output = zapcore.Lock(zapcore.AddSync(cmd.ErrOrStderr()))

	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}

	tel, err := telemetry.New(cmd.Context(), telemetry.FromSettings(cfg.Telemetry, version))
	if err != nil {
		return err
	}
	if health := tel.Health(); health.Degraded {
		logger.Warn(cmd.Context(), "telemetry degraded, continuing without export", zap.Error(health.Err))
	}

	appConfig = cfg
	appLogger = logger
	appTelemetry = tel
	cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
	return nil
}

// teardown flushes telemetry and the logger. Repeated calls are no-ops for
// telemetry.
func teardown(ctx context.Context) {
	if appTelemetry != nil {
		if err := appTelemetry.Shutdown(context.WithoutCancel(ctx)); err != nil && appLogger != nil {
			appLogger.Warn(ctx, "telemetry shutdown", zap.Error(err))
		}
	}
	if appLogger != nil {
		_ = appLogger.Sync()
	}
}
