// Package sensorhub provides an embeddable ingestion-and-fanout pipeline
// for temperature/humidity sensor readings.
//
// SensorHub accepts readings over HTTP, persists them to a durable SQLite
// log, pushes each one to connected WebSocket viewers in real time, and
// raises a best-effort webhook alert when a reading crosses the configured
// thresholds. It is designed as an SDK-first library: configure it
// programmatically with functional options, or run the bundled CLI with a
// YAML file.
//
// # Quick Start
//
// Create a hub and run it with graceful shutdown:
//
//	sh, err := sensorhub.New(
//	    sensorhub.WithPort(3000),
//	    sensorhub.WithDatabase("data.db"),
//	    sensorhub.WithAlertWebhook("https://hooks.example.com/alerts"),
//	)
//	if err != nil {
//	    slog.Error("failed to create sensorhub", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	sh.Start(ctx) // blocks until context is cancelled
//
// # Configuration
//
// SensorHub uses the functional options pattern:
//
//	sh, err := sensorhub.New(
//	    sensorhub.WithPort(3000),
//	    sensorhub.WithThresholds(30.0, 20.0),
//	    sensorhub.WithAlertTimeout(5 * time.Second),
//	    sensorhub.WithReadingCallback(func(r sensorhub.Reading) {
//	        slog.Info("reading stored", "id", r.ID)
//	    }),
//	)
//
// # Pipeline
//
// Each POST to /webhook runs a strictly sequential pipeline: the reading
// is durably stored (a failure here stops everything and the producer
// sees a server error), then broadcast to all connected subscribers, then
// evaluated against the threshold policy. Alert delivery runs on a
// background dispatcher and never delays the producer's response.
//
// # Architecture
//
// SensorHub consists of several internal packages (under internal/):
//
//   - internal/store: Durable SQLite log of readings
//   - internal/broadcast: WebSocket fan-out hub
//   - internal/alert: Threshold policy and async webhook notifier
//   - internal/server: HTTP ingestion endpoint, read-back API, dashboard
//   - dashboard: Embedded web UI assets
//
// The internal packages are not part of the public API and may change
// without notice. The library is designed for single-binary deployment
// using Go's embed directive for static assets.
package sensorhub
