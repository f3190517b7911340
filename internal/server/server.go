package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avelis/sensorhub/internal/alert"
	"github.com/avelis/sensorhub/internal/broadcast"
	"github.com/avelis/sensorhub/internal/store"
)

const (
	// shutdownTimeout bounds graceful shutdown of in-flight requests.
	shutdownTimeout = 5 * time.Second

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "SensorHub"

	// titlePlaceholder is the marker in HTML that gets replaced with the actual title.
	titlePlaceholder = "{{.Title}}"

	// maxIngestBodySize caps a single ingest payload.
	maxIngestBodySize = 1 << 16 // 64KB
)

var (
	readingsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sensorhub_readings_ingested_total",
		Help: "Readings accepted and durably stored.",
	})
	ingestFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sensorhub_ingest_failures_total",
		Help: "Ingest requests rejected or failed at the storage step.",
	})
)

// ingestPayload is the wire shape accepted on /webhook. Both fields are
// optional on purpose: absent or null values pass through to storage
// unvalidated, matching the store's nullable columns.
type ingestPayload struct {
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
}

// Config carries the collaborators and settings for a [Server].
type Config struct {
	Store      store.Store
	Hub        *broadcast.Hub
	Notifier   *alert.Notifier
	Thresholds alert.Thresholds
	Port       int
	Title      string
	Assets     fs.FS
	Logger     *slog.Logger

	// OnReading, if set, is invoked after each successfully stored and
	// broadcast reading. It runs on the request goroutine before the
	// response is written; the caller is responsible for panic safety.
	OnReading func(store.Reading)
}

// Server handles the ingestion endpoint, the read-back API, the WebSocket
// channel, and the dashboard.
//
// Endpoints:
//   - POST /webhook: Ingest one reading (store, broadcast, alert)
//   - GET /api/readings: All readings, most recent first
//   - GET /api/latest: Latest reading, {} if none
//   - GET /ws: WebSocket channel pushing ingested readings
//   - GET /health: Liveness probe
//   - GET /metrics: Prometheus metrics
//   - GET /: Embedded dashboard
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	cfg        Config
	httpServer *http.Server
	upgrader   websocket.Upgrader
}

// New creates a new HTTP [Server]. The server is not started until
// [Server.Start] is called.
func New(cfg Config) *Server {
	return &Server{cfg: cfg}
}

// Handler builds the server's route table. Exposed so tests can drive the
// full surface through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /webhook", s.handleIngest)
	mux.HandleFunc("GET /api/readings", s.handleReadings)
	mux.HandleFunc("GET /api/latest", s.handleLatest)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	if s.cfg.Assets != nil {
		mux.HandleFunc("GET /", s.handleDashboard)
	}

	return mux
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the
// server is listening (binding failures surface synchronously). The
// server runs until the context is cancelled, then shuts down gracefully
// with a bounded timeout.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.cfg.Port, err)
	}

	s.httpServer = &http.Server{
		Handler: s.Handler(),
		// Request contexts derive from the run context so cancellation
		// reaches long-lived handlers.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.cfg.Logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.cfg.Logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// handleIngest runs the per-reading pipeline: parse, store, broadcast,
// then evaluate the alert policy. The producer's response depends only on
// the storage step; broadcast has no failure mode visible here and alert
// dispatch is asynchronous.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	defer func() { _ = r.Body.Close() }()

	var payload ingestPayload
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxIngestBodySize))
	if err := dec.Decode(&payload); err != nil {
		ingestFailures.Inc()
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	s.cfg.Logger.Info("incoming payload",
		"temperature", payload.Temperature,
		"humidity", payload.Humidity,
	)

	reading, err := s.cfg.Store.Insert(r.Context(), payload.Temperature, payload.Humidity)
	if err != nil {
		ingestFailures.Inc()
		s.cfg.Logger.Error("failed to store reading", "error", err)
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}

	s.cfg.Hub.Publish(broadcast.Message{
		Temperature: reading.Temperature,
		Humidity:    reading.Humidity,
	})

	if s.cfg.Thresholds.Exceeded(reading.Temperature, reading.Humidity) {
		s.cfg.Notifier.Dispatch(reading.Temperature, reading.Humidity)
	}

	if s.cfg.OnReading != nil {
		s.cfg.OnReading(reading)
	}

	readingsIngested.Inc()
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Data received"))
}

// handleReadings returns every stored reading as a JSON array,
// most recent first.
func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request) {
	readings, err := s.cfg.Store.ListAll(r.Context())
	if err != nil {
		s.cfg.Logger.Error("failed to list readings", "error", err)
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(readings); err != nil {
		s.cfg.Logger.Error("failed to encode readings response", "error", err)
	}
}

// handleLatest returns the most recent reading, or an empty object when
// the store holds nothing.
func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	latest, err := s.cfg.Store.Latest(r.Context())
	if err != nil {
		s.cfg.Logger.Error("failed to query latest reading", "error", err)
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if latest == nil {
		_, _ = w.Write([]byte("{}"))
		return
	}
	if err := json.NewEncoder(w).Encode(latest); err != nil {
		s.cfg.Logger.Error("failed to encode latest response", "error", err)
	}
}

// handleWebSocket upgrades the connection and registers it with the hub.
// The server accepts silently and never expects inbound messages.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		s.cfg.Logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	s.cfg.Logger.Info("websocket client connected", "remote", conn.RemoteAddr().String())
	s.cfg.Hub.Subscribe(conn)
}

// handleDashboard serves the embedded dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	content, err := fs.ReadFile(s.cfg.Assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	title := s.cfg.Title
	if title == "" {
		title = defaultTitle
	}
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(title))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(rendered)); err != nil {
		s.cfg.Logger.Error("failed to write dashboard response", "error", err)
	}
}
