package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/MrWong99/scribeclean/internal/app"
	"github.com/MrWong99/scribeclean/internal/config"
	"github.com/MrWong99/scribeclean/internal/observe"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		watch      bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configPath, watch)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "path to the YAML configuration file")
	cmd.Flags().BoolVar(&watch, "watch", true, "reload the configuration when the file changes")
	return cmd
}

func runServe(parent context.Context, configPath string, watch bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", "path", configPath, "err", err)
		return err
	}

	level := levelVar(cfg.Server.LogLevel)
	slog.SetDefault(newLogger(level))

	slog.Info("scribeclean starting",
		"version", version,
		"config", configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
		"store", cfg.Vocabulary.Store.Name,
	)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	application, err := app.New(ctx, cfg,
		app.WithMetrics(metrics),
		app.WithMetricsHandler(provider.MetricsHandler()),
		app.WithLogLevel(level),
	)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return err
	}

	if watch {
		w, err := config.NewWatcher(configPath, func(_, next *config.Config) {
			if err := application.Reload(ctx, next); err != nil {
				slog.Error("config reload error", "err", err)
			}
		})
		if err != nil {
			slog.Warn("config watcher disabled", "err", err)
		} else {
			defer w.Stop()
		}
	}

	slog.Info("server ready, press Ctrl+C to shut down", "addr", application.Addr())
	runErr := application.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		slog.Error("run error", "err", runErr)
	}

	slog.Info("shutdown signal received, stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	slog.Info("goodbye")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}
