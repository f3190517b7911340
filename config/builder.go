package config

import (
	"github.com/avelis/sensorhub"
)

// Build converts parsed configuration into SDK options for
// [sensorhub.New].
func Build(cfg *Config) []sensorhub.Option {
	opts := []sensorhub.Option{
		sensorhub.WithPort(cfg.Port),
		sensorhub.WithDatabase(cfg.Database),
		sensorhub.WithTitle(cfg.Title),
		sensorhub.WithThresholds(*cfg.Alert.TemperatureThreshold, *cfg.Alert.HumidityThreshold),
		sensorhub.WithAlertTimeout(cfg.Alert.Timeout.Duration()),
	}

	if cfg.Alert.WebhookURL != "" {
		opts = append(opts, sensorhub.WithAlertWebhook(cfg.Alert.WebhookURL))
	}

	return opts
}
