package broadcast

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fp(v float64) *float64 { return &v }

// newHubServer exposes hub over a real WebSocket endpoint so tests
// exercise the actual transport.
func newHubServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Subscribe(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Unmarshal(%q) error = %v", data, err)
	}
	return msg
}

// waitForCount polls until the hub reaches the wanted subscriber count.
// Connection registration and teardown run on hub goroutines, so tests
// must wait rather than assert immediately.
func waitForCount(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.Count() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Count() = %d, want %d", hub.Count(), want)
}

func TestHub_PublishReachesAllSubscribers(t *testing.T) {
	hub := New(testLogger())
	defer hub.Close()
	srv := newHubServer(t, hub)

	conns := []*websocket.Conn{dial(t, srv), dial(t, srv), dial(t, srv)}
	waitForCount(t, hub, 3)

	hub.Publish(Message{Temperature: fp(25), Humidity: fp(50)})

	for i, conn := range conns {
		msg := readMessage(t, conn)
		if msg.Temperature == nil || *msg.Temperature != 25 {
			t.Errorf("subscriber %d Temperature = %v, want 25", i, msg.Temperature)
		}
		if msg.Humidity == nil || *msg.Humidity != 50 {
			t.Errorf("subscriber %d Humidity = %v, want 50", i, msg.Humidity)
		}
	}
}

func TestHub_ExactlyOneMessagePerPublish(t *testing.T) {
	hub := New(testLogger())
	defer hub.Close()
	srv := newHubServer(t, hub)

	conn := dial(t, srv)
	waitForCount(t, hub, 1)

	hub.Publish(Message{Temperature: fp(1), Humidity: fp(2)})

	readMessage(t, conn)

	// no second message may arrive for a single publish
	_ = conn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("received a second message for a single Publish()")
	}
}

func TestHub_FIFOPerSubscriber(t *testing.T) {
	hub := New(testLogger())
	defer hub.Close()
	srv := newHubServer(t, hub)

	conn := dial(t, srv)
	waitForCount(t, hub, 1)

	for i := 1; i <= 5; i++ {
		hub.Publish(Message{Temperature: fp(float64(i))})
	}

	for i := 1; i <= 5; i++ {
		msg := readMessage(t, conn)
		if msg.Temperature == nil || *msg.Temperature != float64(i) {
			t.Fatalf("message %d Temperature = %v, want %d", i, msg.Temperature, i)
		}
	}
}

func TestHub_DisconnectedSubscriberSkipped(t *testing.T) {
	hub := New(testLogger())
	defer hub.Close()
	srv := newHubServer(t, hub)

	gone := dial(t, srv)
	stays := dial(t, srv)
	waitForCount(t, hub, 2)

	_ = gone.Close()
	waitForCount(t, hub, 1)

	hub.Publish(Message{Temperature: fp(30), Humidity: fp(40)})

	msg := readMessage(t, stays)
	if msg.Temperature == nil || *msg.Temperature != 30 {
		t.Errorf("surviving subscriber Temperature = %v, want 30", msg.Temperature)
	}
}

func TestHub_UnsubscribeIdempotent(t *testing.T) {
	hub := New(testLogger())
	defer hub.Close()
	srv := newHubServer(t, hub)

	upgrader := websocket.Upgrader{}
	var sub *Subscriber
	subscribed := make(chan struct{})
	srv.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		sub = hub.Subscribe(conn)
		close(subscribed)
	})

	dial(t, srv)
	select {
	case <-subscribed:
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber never registered")
	}
	waitForCount(t, hub, 1)

	hub.Unsubscribe(sub)
	waitForCount(t, hub, 0)

	// removing an already-removed handle must be a no-op
	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub)
	if got := hub.Count(); got != 0 {
		t.Errorf("Count() = %d, want 0", got)
	}
}

func TestHub_PublishWithNilFields(t *testing.T) {
	hub := New(testLogger())
	defer hub.Close()
	srv := newHubServer(t, hub)

	conn := dial(t, srv)
	waitForCount(t, hub, 1)

	hub.Publish(Message{Temperature: nil, Humidity: fp(15)})

	msg := readMessage(t, conn)
	if msg.Temperature != nil {
		t.Errorf("Temperature = %v, want nil", msg.Temperature)
	}
	if msg.Humidity == nil || *msg.Humidity != 15 {
		t.Errorf("Humidity = %v, want 15", msg.Humidity)
	}
}

func TestHub_CloseDisconnectsSubscribers(t *testing.T) {
	hub := New(testLogger())
	srv := newHubServer(t, hub)

	conn := dial(t, srv)
	waitForCount(t, hub, 1)

	hub.Close()

	if got := hub.Count(); got != 0 {
		t.Errorf("Count() after Close() = %d, want 0", got)
	}

	// the client side observes the closed transport
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("ReadMessage() after hub close error = nil, want error")
	}

	// publishing to a closed hub must not panic
	hub.Publish(Message{Temperature: fp(1)})
}
