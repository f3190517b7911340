package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"time"
)

// RunSimulatedSensor posts a reading to url every interval until ctx is
// cancelled. Readings hover in a comfortable range with occasional
// spikes that cross the default alert thresholds.
func RunSimulatedSensor(ctx context.Context, url string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			temp := 20 + rand.Float64()*8 // 20-28 °C
			hum := 35 + rand.Float64()*30 // 35-65 %

			// roughly one in six readings spikes out of range
			if rand.Intn(6) == 0 {
				temp += 10
				hum -= 25
			}

			body, _ := json.Marshal(map[string]float64{
				"temperature": float64(int(temp*10)) / 10,
				"humidity":    float64(int(hum*10)) / 10,
			})

			req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				slog.Error("failed to build request", "error", err)
				continue
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				slog.Warn("failed to post reading", "error", err)
				continue
			}
			resp.Body.Close()
		}
	}
}
