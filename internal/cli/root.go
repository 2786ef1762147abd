package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/johnharris85/fab-content-filter/internal/control"
	"github.com/johnharris85/fab-content-filter/internal/core/config"
	"github.com/johnharris85/fab-content-filter/internal/infra/settings"
)

var (
	cfgPath string
	isDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "fabfilter",
	Short: "Seller filter harness for Fab marketplace pages",
	Long: `fabfilter hides product cards from unwanted sellers. The browser build
runs as a content script; this harness runs the same filter engine against
saved HTML snapshots for development and debugging.`,
	Run: runServe,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
}

// loadConfig reads the config file and initializes logging. Exits on a
// broken config, matching the behavior of every subcommand.
func loadConfig() *config.AppConfig {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	slogLevel := slog.LevelInfo
	if isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}

	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})

	return cfg
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	if len(cfg.Snapshots) == 0 {
		slog.Error("No snapshots configured, nothing to serve")
		os.Exit(1)
	}

	store := settings.NewFileStore(cfg.Settings)
	runner := control.NewRunner(control.Config{
		Snapshots: cfg.Snapshots,
		Profile:   cfg.Profile,
		Tuning:    cfg.Engine,
	}, store, slog.Default())
	server := control.NewServer(runner, cfg.Server.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Start(); err != nil {
			slog.Error("Status server failed", "error", err)
		}
	}()

	runnerDone := make(chan error, 1)
	go func() {
		runnerDone <- runner.Run(ctx)
	}()

	slog.Info("Serving snapshots",
		"config", cfgPath,
		"snapshots", len(cfg.Snapshots),
		"port", cfg.Server.Port)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		cancel()
		<-runnerDone
	case err := <-runnerDone:
		if err != nil {
			slog.Error("Runner failed", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
		os.Exit(1)
	}
}
