// Package config provides YAML configuration parsing for SensorHub.
//
// This package enables running SensorHub as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Greenhouse Monitor
//	port: 3000
//	database: data.db
//
//	alert:
//	  webhook_url: ${ALERT_WEBHOOK_URL:-}
//	  temperature_threshold: 30
//	  humidity_threshold: 20
//	  timeout: 5s
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for SensorHub.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML, or [Default]
// when no configuration file is supplied.
type Config struct {
	// Title is the dashboard title. Defaults to "SensorHub" if not set.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 3000.
	Port int `yaml:"port"`

	// Database is the SQLite database file path. Defaults to "data.db".
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	Database string `yaml:"database"`

	// Alert configures threshold-triggered webhook notifications.
	Alert AlertConfig `yaml:"alert"`
}

// AlertConfig configures the outbound alert webhook.
type AlertConfig struct {
	// WebhookURL is the endpoint alerts are POSTed to. Empty disables
	// alert dispatch entirely.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	WebhookURL string `yaml:"webhook_url"`

	// TemperatureThreshold fires an alert when a reading's temperature
	// strictly exceeds it. Defaults to 30.
	TemperatureThreshold *float64 `yaml:"temperature_threshold"`

	// HumidityThreshold fires an alert when a reading's humidity falls
	// strictly below it. Defaults to 20.
	HumidityThreshold *float64 `yaml:"humidity_threshold"`

	// Timeout is the per-delivery HTTP timeout. Defaults to 5s.
	Timeout Duration `yaml:"timeout"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// already have an error, skip processing
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		// submatches[2] is ":-..." (non-empty if default syntax was used)
		// submatches[3] is the actual default value (may be empty for ${VAR:-})
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Default returns the configuration used when no file is supplied:
// port 3000, database "data.db", default thresholds, alerts disabled
// unless ALERT_WEBHOOK_URL is set. Environment overrides are applied.
func Default() (*Config, error) {
	var cfg Config
	cfg.applyDefaults()
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before use, and
// environment overrides (PORT, DATABASE_PATH, ALERT_WEBHOOK_URL,
// TEMP_THRESHOLD, HUM_THRESHOLD) are applied on top of the file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Defaults are applied for missing fields, then environment overrides,
// then ${VAR} expansion and validation.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults fills in zero-valued fields.
func (c *Config) applyDefaults() {
	if c.Title == "" {
		c.Title = "SensorHub"
	}
	if c.Port == 0 {
		c.Port = 3000
	}
	if c.Database == "" {
		c.Database = "data.db"
	}
	if c.Alert.TemperatureThreshold == nil {
		v := 30.0
		c.Alert.TemperatureThreshold = &v
	}
	if c.Alert.HumidityThreshold == nil {
		v := 20.0
		c.Alert.HumidityThreshold = &v
	}
	if c.Alert.Timeout == 0 {
		c.Alert.Timeout = Duration(5 * time.Second)
	}
}

// applyEnvOverrides lets the process environment override file values.
// PORT, DATABASE_PATH and ALERT_WEBHOOK_URL match the variables the
// serve command documents; TEMP_THRESHOLD and HUM_THRESHOLD tune alerts
// without editing the file.
func (c *Config) applyEnvOverrides() error {
	if v, ok := os.LookupEnv("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Port = port
	}

	if v, ok := os.LookupEnv("DATABASE_PATH"); ok {
		c.Database = v
	}

	if v, ok := os.LookupEnv("ALERT_WEBHOOK_URL"); ok {
		c.Alert.WebhookURL = v
	}

	if v, ok := os.LookupEnv("TEMP_THRESHOLD"); ok {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid TEMP_THRESHOLD %q: %w", v, err)
		}
		c.Alert.TemperatureThreshold = &t
	}

	if v, ok := os.LookupEnv("HUM_THRESHOLD"); ok {
		h, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid HUM_THRESHOLD %q: %w", v, err)
		}
		c.Alert.HumidityThreshold = &h
	}

	return nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	expanded, err := expandEnvVars(c.Database)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	c.Database = expanded
	if c.Database == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	expanded, err = expandEnvVars(c.Alert.WebhookURL)
	if err != nil {
		return fmt.Errorf("alert: webhook_url: %w", err)
	}
	c.Alert.WebhookURL = expanded

	if c.Alert.WebhookURL != "" {
		parsed, err := url.Parse(c.Alert.WebhookURL)
		if err != nil {
			return fmt.Errorf("alert: invalid webhook_url: %w", err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("alert: webhook_url scheme must be http or https, got %q", parsed.Scheme)
		}
	}

	if c.Alert.Timeout.Duration() <= 0 {
		return fmt.Errorf("alert: timeout must be positive, got %s", c.Alert.Timeout.Duration())
	}

	return nil
}
