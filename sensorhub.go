package sensorhub

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avelis/sensorhub/dashboard"
	"github.com/avelis/sensorhub/internal/alert"
	"github.com/avelis/sensorhub/internal/broadcast"
	"github.com/avelis/sensorhub/internal/server"
	"github.com/avelis/sensorhub/internal/store"
)

const (
	defaultPort         = 3000
	defaultDatabase     = "data.db"
	defaultAlertTimeout = 5 * time.Second
)

// SensorHub is the main orchestrator for reading ingestion, storage,
// live broadcast and alerting.
//
// SensorHub wires the durable reading store, the WebSocket fan-out hub,
// the alert notifier and the HTTP server together. It is created with
// [New] using functional options and run with [SensorHub.Start].
//
// The typical lifecycle is:
//
//	sh, err := sensorhub.New(sensorhub.WithPort(3000))
//	if err != nil {
//	    slog.Error("failed to create sensorhub", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	sh.Start(ctx) // blocks until context cancelled
//
// The caller controls the lifecycle via the context. Cancel the context
// to trigger graceful shutdown.
type SensorHub struct {
	title            string
	port             int
	database         string
	thresholds       alert.Thresholds
	alertWebhookURL  string
	alertTimeout     time.Duration
	logger           *slog.Logger
	readingCallbacks []func(Reading)
}

// New creates a new [SensorHub] instance with the given options.
//
// All options have sensible defaults:
//   - Port: 3000
//   - Database: data.db
//   - Thresholds: 30.0 °C / 20.0 %
//   - Alert timeout: 5 seconds
//   - Alerting: disabled until [WithAlertWebhook] is set
//
// Returns an error if any option is invalid.
func New(opts ...Option) (*SensorHub, error) {
	cfg := &shConfig{
		port:          defaultPort,
		database:      defaultDatabase,
		tempThreshold: DefaultTemperatureThreshold,
		humThreshold:  DefaultHumidityThreshold,
		alertTimeout:  defaultAlertTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SensorHub{
		title:            cfg.title,
		port:             cfg.port,
		database:         cfg.database,
		thresholds:       alert.Thresholds{Temperature: cfg.tempThreshold, Humidity: cfg.humThreshold},
		alertWebhookURL:  cfg.alertWebhookURL,
		alertTimeout:     cfg.alertTimeout,
		logger:           logger,
		readingCallbacks: cfg.readingCallbacks,
	}, nil
}

// Start opens the store and begins serving the ingestion endpoint, the
// read-back API, the WebSocket channel and the dashboard.
//
// Start is a blocking call that runs until the provided context is
// cancelled. Returns nil on graceful shutdown, or an error if the store
// cannot be opened or the HTTP server fails to start.
func (sh *SensorHub) Start(ctx context.Context) error {
	sh.logger.Info("sensorhub starting",
		"port", sh.port,
		"database", sh.database,
		"temp_threshold", sh.thresholds.Temperature,
		"hum_threshold", sh.thresholds.Humidity,
	)

	if ctx.Err() != nil {
		return nil
	}

	st, err := store.Open(sh.database)
	if err != nil {
		return fmt.Errorf("failed to open reading store: %w", err)
	}

	hub := broadcast.New(sh.logger)

	notifier := alert.NewNotifier(sh.alertWebhookURL, sh.alertTimeout, sh.logger)
	notifier.Start(ctx)

	cleanup := func() {
		notifier.Stop()
		hub.Close()
		if err := st.Close(); err != nil {
			sh.logger.Error("failed to close reading store", "error", err)
		}
	}

	var onReading func(store.Reading)
	if len(sh.readingCallbacks) > 0 {
		onReading = func(r store.Reading) {
			public := storeReadingToPublic(r)
			for _, cb := range sh.readingCallbacks {
				invokeCallbackSafe(cb, public, sh.logger)
			}
		}
	}

	httpServer := server.New(server.Config{
		Store:      st,
		Hub:        hub,
		Notifier:   notifier,
		Thresholds: sh.thresholds,
		Port:       sh.port,
		Title:      sh.title,
		Assets:     dashboard.Assets,
		Logger:     sh.logger,
		OnReading:  onReading,
	})
	if err := httpServer.Start(ctx); err != nil {
		cleanup()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	sh.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", sh.port))

	<-ctx.Done()
	cleanup()
	sh.logger.Info("sensorhub stopped")
	return nil
}

// Port returns the configured HTTP port.
func (sh *SensorHub) Port() int {
	return sh.port
}

// Database returns the configured SQLite database path.
func (sh *SensorHub) Database() string {
	return sh.database
}

// invokeCallbackSafe calls a reading callback with panic recovery.
// Panics are logged but do not propagate to the request.
func invokeCallbackSafe(cb func(Reading), r Reading, logger *slog.Logger) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("reading callback panicked",
				"panic", rec,
				"reading_id", r.ID,
			)
		}
	}()
	cb(r)
}
