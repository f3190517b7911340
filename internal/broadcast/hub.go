package broadcast

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// sendBuffer is the per-subscriber outbound queue depth. A subscriber
	// that falls this far behind starts losing messages rather than
	// blocking the publisher.
	sendBuffer = 64

	// writeWait bounds a single transport write to a slow client.
	writeWait = 5 * time.Second

	// pongWait is how long to wait for a pong before considering the
	// connection dead. pingPeriod must be shorter than pongWait.
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second

	maxInboundSize = 512
)

var (
	messagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sensorhub_broadcast_messages_total",
		Help: "Messages delivered to subscriber send queues.",
	})
	messagesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sensorhub_broadcast_dropped_total",
		Help: "Messages dropped because a subscriber's queue was full.",
	})
	subscriberCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sensorhub_broadcast_subscribers",
		Help: "Currently connected broadcast subscribers.",
	})
)

// Message is the payload pushed to every live subscriber when a reading
// is ingested. Field values mirror the ingested reading, including nulls.
type Message struct {
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
}

// Subscriber is the handle for one connected real-time viewer.
//
// Each subscriber owns a buffered send queue drained by a dedicated write
// goroutine, so messages published in sequence arrive in the same sequence
// (FIFO per subscriber). The queue is never closed; tearing down signals
// the write goroutine via done instead, which keeps Publish free of
// send-on-closed-channel races.
type Subscriber struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (s *Subscriber) close() {
	s.once.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

// Hub fans newly ingested readings out to all connected subscribers.
//
// Delivery is best effort and at-most-once per subscriber: a closed,
// closing, or lagging subscriber is skipped silently and nothing is ever
// retried or surfaced to the publisher. Subscribe and Unsubscribe race
// safely with Publish.
type Hub struct {
	log *slog.Logger

	mu     sync.RWMutex
	subs   map[uuid.UUID]*Subscriber
	closed bool
}

// New creates an empty [Hub] ready for subscribers.
func New(logger *slog.Logger) *Hub {
	return &Hub{
		log:  logger,
		subs: make(map[uuid.UUID]*Subscriber),
	}
}

// Subscribe registers conn as a new subscriber and returns its handle.
// Registration always succeeds; there is no admission control.
//
// The hub takes ownership of the connection: it starts the write pump and
// a read loop that discards anything the client sends, and it closes the
// connection when the subscriber is removed. If the hub is already closed
// the connection is closed immediately and the returned handle is inert.
func (h *Hub) Subscribe(conn *websocket.Conn) *Subscriber {
	sub := &Subscriber{
		id:   uuid.New(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		sub.close()
		return sub
	}
	h.subs[sub.id] = sub
	h.mu.Unlock()

	subscriberCount.Inc()
	h.log.Debug("subscriber connected", "subscriber", sub.id)

	go h.writePump(sub)
	go h.readPump(sub)

	return sub
}

// Unsubscribe removes sub and closes its connection. Unsubscribing a
// handle that was already removed is a no-op.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	_, present := h.subs[sub.id]
	if present {
		delete(h.subs, sub.id)
	}
	h.mu.Unlock()

	if !present {
		return
	}

	sub.close()
	subscriberCount.Dec()
	h.log.Debug("subscriber disconnected", "subscriber", sub.id)
}

// Publish delivers msg to every currently connected subscriber.
//
// The message is serialized once. Subscribers whose queues are full are
// skipped; transport failures are detected by the write pump and lead to
// removal, never to an error here.
func (h *Hub) Publish(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		// Message contains only floats; this cannot happen in practice.
		h.log.Error("failed to encode broadcast message", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		select {
		case sub.send <- data:
			messagesSent.Inc()
		default:
			messagesDropped.Inc()
		}
	}
}

// Count returns the number of currently connected subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close disconnects all subscribers and rejects future ones.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := make([]*Subscriber, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.subs = make(map[uuid.UUID]*Subscriber)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.close()
		subscriberCount.Dec()
	}
}

// writePump drains the subscriber's send queue onto the wire and keeps the
// connection alive with periodic pings. Any write failure removes the
// subscriber.
func (h *Hub) writePump(sub *Subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data := <-sub.send:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.Unsubscribe(sub)
				return
			}
		case <-ticker.C:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.Unsubscribe(sub)
				return
			}
		case <-sub.done:
			return
		}
	}
}

// readPump discards inbound frames (the server never expects messages from
// subscribers) while processing control frames. A read error means the
// client went away, so the subscriber is removed.
func (h *Hub) readPump(sub *Subscriber) {
	sub.conn.SetReadLimit(maxInboundSize)
	_ = sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			h.Unsubscribe(sub)
			return
		}
	}
}
