// Package main is the entry point for the sensorhub CLI.
//
// SensorHub can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	sensorhub serve                    # Start with defaults + env vars
//	sensorhub serve -c config.yaml     # Start with a config file
//	sensorhub validate -c config.yaml  # Validate configuration
//	sensorhub version                  # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "sensorhub",
	Short: "A sensor reading ingestion and fan-out server",
	Long: `SensorHub ingests temperature and humidity readings over HTTP,
persists them to SQLite, streams them to WebSocket subscribers and
fires webhook alerts when thresholds are breached.

Quick start:
  1. Run: sensorhub serve
  2. POST readings to http://localhost:3000/webhook
  3. Open http://localhost:3000 in your browser

Example config:
  port: 3000
  database: data.db
  alert:
    webhook_url: ${ALERT_WEBHOOK_URL:-}
    temperature_threshold: 30
    humidity_threshold: 20`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this sensorhub binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sensorhub %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
