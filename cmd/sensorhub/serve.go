package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avelis/sensorhub"
	"github.com/avelis/sensorhub/config"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newLogger creates a JSON logger for CLI use.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// serveCmd starts the SensorHub server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ingestion server",
	Long: `Start the SensorHub ingestion server.

The server will:
  - Accept sensor readings on POST /webhook
  - Persist them to the configured SQLite database
  - Stream them to WebSocket subscribers on /ws
  - Fire webhook alerts when thresholds are breached
  - Serve the live dashboard on the configured port

Without a config file the server uses defaults, adjustable via the
PORT, DATABASE_PATH, ALERT_WEBHOOK_URL, TEMP_THRESHOLD and
HUM_THRESHOLD environment variables.

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  sensorhub serve
  sensorhub serve -c config.yaml
  PORT=8080 sensorhub serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (optional)")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	configFile, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configFile != "" {
		cfg, err = config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger.Info("config loaded", "file", configFile)
	} else {
		cfg, err = config.Default()
		if err != nil {
			return fmt.Errorf("failed to build default config: %w", err)
		}
	}

	logger.Info("starting server",
		"port", cfg.Port,
		"database", cfg.Database,
		"alerts_enabled", cfg.Alert.WebhookURL != "",
	)

	opts := append(config.Build(cfg), sensorhub.WithLogger(logger))

	sh, err := sensorhub.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create SensorHub: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start server - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- sh.Start(ctx)
	}()

	// wait for server to finish
	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
