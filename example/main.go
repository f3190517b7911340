package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/avelis/sensorhub"
)

func main() {
	// start mock alert receiver (see mock_alert.go)
	go StartMockAlertReceiver(":9999")
	time.Sleep(100 * time.Millisecond)

	dbPath := filepath.Join(os.TempDir(), "sensorhub-demo.db")

	sh, err := sensorhub.New(
		sensorhub.WithPort(3000),
		sensorhub.WithDatabase(dbPath),
		sensorhub.WithTitle("SensorHub Demo"),
		sensorhub.WithAlertWebhook("http://localhost:9999/alerts"),
		sensorhub.WithReadingCallback(func(r sensorhub.Reading) {
			slog.Info("reading stored", "id", r.ID,
				"temperature", fmtPtr(r.Temperature),
				"humidity", fmtPtr(r.Humidity),
			)
		}),
	)
	if err != nil {
		slog.Error("failed to create sensorhub", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   SensorHub Demo                                      ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:3000 in your browser          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   A simulated sensor posts a reading every 3s.        ║")
	fmt.Println("  ║   Occasional spikes trigger alerts, delivered to      ║")
	fmt.Println("  ║   the mock receiver on :9999 and printed below.       ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// simulated sensor posting to the ingest endpoint (see sensor_sim.go)
	go RunSimulatedSensor(ctx, "http://localhost:3000/webhook", 3*time.Second)

	if err := sh.Start(ctx); err != nil {
		slog.Error("sensorhub error", "error", err)
		os.Exit(1)
	}
}

func fmtPtr(v *float64) any {
	if v == nil {
		return "null"
	}
	return *v
}
