package sensorhub

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"
)

// shConfig holds mutable state during SensorHub construction.
type shConfig struct {
	title            string
	port             int
	database         string
	tempThreshold    float64
	humThreshold     float64
	alertWebhookURL  string
	alertTimeout     time.Duration
	logger           *slog.Logger
	readingCallbacks []func(Reading)
}

// Option is a function that configures a [SensorHub] instance during
// construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
type Option func(*shConfig) error

// WithPort sets the TCP port the HTTP server listens on.
//
// Defaults to 3000 if not specified. Returns an error if the port is
// outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *shConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithDatabase sets the SQLite database file path.
//
// Defaults to "data.db" in the working directory. Use ":memory:" for an
// ephemeral store. Returns an error if the path is empty.
func WithDatabase(path string) Option {
	return func(cfg *shConfig) error {
		if path == "" {
			return errors.New("database path cannot be empty")
		}
		cfg.database = path
		return nil
	}
}

// WithThresholds sets the alert policy: an alert fires when a reading's
// temperature is strictly above temperature, or its humidity is strictly
// below humidity.
//
// Defaults to [DefaultTemperatureThreshold] and
// [DefaultHumidityThreshold]. The thresholds are process-wide
// configuration; they cannot change per request.
func WithThresholds(temperature, humidity float64) Option {
	return func(cfg *shConfig) error {
		cfg.tempThreshold = temperature
		cfg.humThreshold = humidity
		return nil
	}
}

// WithAlertWebhook sets the external webhook URL that receives threshold
// alert notifications as POST {"content": "<message>"}.
//
// If unset, alerting is disabled (readings are still stored and
// broadcast). Returns an error if the URL is not a valid http(s) URL.
func WithAlertWebhook(rawURL string) Option {
	return func(cfg *shConfig) error {
		parsed, err := url.Parse(rawURL)
		if err != nil {
			return fmt.Errorf("invalid alert webhook URL: %w", err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return errors.New("alert webhook URL must have an http:// or https:// scheme")
		}
		cfg.alertWebhookURL = rawURL
		return nil
	}
}

// WithAlertTimeout bounds a single outbound alert delivery attempt.
//
// Defaults to 5 seconds. Returns an error if the duration is zero or
// negative.
func WithAlertTimeout(d time.Duration) Option {
	return func(cfg *shConfig) error {
		if d <= 0 {
			return errors.New("alert timeout must be positive")
		}
		cfg.alertTimeout = d
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the SensorHub instance.
//
// If not specified, [slog.Default] is used. Returns an error if the
// logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *shConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithTitle sets the dashboard title displayed in the browser tab and
// page header. Defaults to "SensorHub".
func WithTitle(title string) Option {
	return func(cfg *shConfig) error {
		cfg.title = title
		return nil
	}
}

// WithReadingCallback registers a function invoked after every
// successfully ingested reading (stored and broadcast).
//
// Multiple callbacks may be registered; they execute in registration
// order on the request goroutine, before the producer's response is
// written. Callbacks must therefore be fast; dispatch long-running work
// to a separate goroutine. Panics within callbacks are recovered and
// logged; they do not fail the request.
//
// Nil callbacks are silently ignored.
func WithReadingCallback(cb func(Reading)) Option {
	return func(cfg *shConfig) error {
		if cb == nil {
			return nil
		}
		cfg.readingCallbacks = append(cfg.readingCallbacks, cb)
		return nil
	}
}
