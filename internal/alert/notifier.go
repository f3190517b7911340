package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultTimeout bounds a single outbound notification attempt. Alerting
// is best effort, so a hung webhook must not pile up goroutines.
const DefaultTimeout = 5 * time.Second

// queueDepth is the dispatch queue capacity. Alerts beyond it are dropped
// (at-most-once, never retried), so the depth only needs to absorb bursts.
const queueDepth = 32

var (
	alertsDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sensorhub_alerts_dispatched_total",
		Help: "Alert notifications successfully delivered.",
	})
	alertFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sensorhub_alert_failures_total",
		Help: "Alert notifications that failed or were dropped.",
	})
)

// notification is one queued alert dispatch.
type notification struct {
	temperature *float64
	humidity    *float64
}

// Notifier dispatches threshold alerts to an external webhook.
//
// Dispatch is decoupled from the caller: alerts are queued to a background
// worker, so the ingestion response never waits on notification delivery.
// Failures (non-2xx status, network error, timeout) are logged and
// dropped; nothing is retried and nothing propagates to the caller.
type Notifier struct {
	webhookURL string
	timeout    time.Duration
	log        *slog.Logger
	client     *http.Client
	queue      chan notification

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewNotifier creates a [Notifier] posting to webhookURL.
//
// An empty webhookURL disables dispatch entirely; Dispatch becomes a
// no-op. A non-positive timeout falls back to [DefaultTimeout].
func NewNotifier(webhookURL string, timeout time.Duration, logger *slog.Logger) *Notifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Notifier{
		webhookURL: webhookURL,
		timeout:    timeout,
		log:        logger,
		client:     &http.Client{},
		queue:      make(chan notification, queueDepth),
	}
}

// Start launches the background dispatch worker.
//
// Start is idempotent; subsequent calls after the first are no-ops, as is
// a call after Stop. If ctx is nil, context.Background() is used.
func (n *Notifier) Start(ctx context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.started || n.stopped {
		return
	}
	n.started = true

	if n.webhookURL == "" {
		n.log.Info("alert dispatch disabled, no webhook configured")
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, n.cancel = context.WithCancel(ctx)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case job := <-n.queue:
				n.send(ctx, job)
			}
		}
	}()
}

// Stop halts the worker and waits for any in-flight delivery to finish.
// Queued but undelivered alerts are abandoned; they were best effort.
// Stop is idempotent and safe to call before Start.
func (n *Notifier) Stop() {
	n.mu.Lock()
	if !n.stopped {
		n.stopped = true
		if n.cancel != nil {
			n.cancel()
		}
	}
	n.mu.Unlock()

	n.wg.Wait()
}

// Dispatch queues one alert for the given reading values without blocking.
//
// Call only after the threshold policy fired; Dispatch itself does not
// evaluate thresholds. If the queue is full the alert is dropped and
// logged, preserving at-most-once semantics.
func (n *Notifier) Dispatch(temperature, humidity *float64) {
	if n.webhookURL == "" {
		return
	}

	select {
	case n.queue <- notification{temperature: temperature, humidity: humidity}:
	default:
		alertFailures.Inc()
		n.log.Warn("alert queue full, dropping notification",
			"temperature", fmtValue(temperature),
			"humidity", fmtValue(humidity),
		)
	}
}

// send performs one delivery attempt. Errors are logged, never returned.
func (n *Notifier) send(ctx context.Context, job notification) {
	msg := fmt.Sprintf("🔥 Alert! Temp=%s °C | Hum=%s %%",
		fmtValue(job.temperature), fmtValue(job.humidity))

	body, err := json.Marshal(map[string]string{"content": msg})
	if err != nil {
		alertFailures.Inc()
		n.log.Error("failed to encode alert payload", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		alertFailures.Inc()
		n.log.Error("failed to build alert request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		alertFailures.Inc()
		n.log.Error("alert delivery failed", "error", err)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		alertFailures.Inc()
		n.log.Error("alert endpoint rejected notification", "status", resp.StatusCode)
		return
	}

	alertsDispatched.Inc()
	n.log.Info("alert sent", "message", msg)
}

// fmtValue renders a possibly-absent reading value for the alert message.
func fmtValue(v *float64) string {
	if v == nil {
		return "null"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
