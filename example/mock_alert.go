package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
)

// alertPayload matches the body the notifier POSTs to its webhook.
type alertPayload struct {
	Content string `json:"content"`
}

// StartMockAlertReceiver runs a mock webhook endpoint that prints every
// alert it receives. Call this in a goroutine before starting SensorHub.
func StartMockAlertReceiver(addr string) {
	var (
		mu    sync.Mutex
		count int
	)

	http.HandleFunc("/alerts", func(w http.ResponseWriter, r *http.Request) {
		var payload alertPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}

		mu.Lock()
		count++
		n := count
		mu.Unlock()

		slog.Info("alert received", "n", n, "message", payload.Content)
		w.WriteHeader(http.StatusNoContent)
	})

	if err := http.ListenAndServe(addr, nil); err != nil {
		slog.Error("mock alert receiver error", "error", err)
	}
}
