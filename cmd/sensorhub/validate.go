package main

import (
	"fmt"

	"github.com/avelis/sensorhub/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a SensorHub configuration file without starting the server.

This command parses the YAML, expands environment variables, applies
environment overrides, and validates all fields. It's useful for CI/CD
pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  sensorhub validate -c config.yaml
  sensorhub validate --config /etc/sensorhub/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	alerts := "disabled"
	if cfg.Alert.WebhookURL != "" {
		alerts = "enabled"
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Port:     %d\n", cfg.Port)
	fmt.Printf("  Database: %s\n", cfg.Database)
	fmt.Printf("  Alerts:   %s (temp > %g, hum < %g)\n",
		alerts, *cfg.Alert.TemperatureThreshold, *cfg.Alert.HumidityThreshold)

	return nil
}
