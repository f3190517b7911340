package alert

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fp(v float64) *float64 { return &v }

func TestThresholds_Exceeded(t *testing.T) {
	policy := DefaultThresholds()

	tests := []struct {
		name        string
		temperature *float64
		humidity    *float64
		want        bool
	}{
		{"exactly at both thresholds", fp(30.0), fp(20.0), false},
		{"temperature just above", fp(30.1), fp(50), true},
		{"humidity just below", fp(25), fp(19.9), true},
		{"both breached", fp(30.1), fp(19.9), true},
		{"well within range", fp(25), fp(50), false},
		{"nil temperature, humidity fires", nil, fp(10), true},
		{"nil humidity, temperature fires", fp(35), nil, true},
		{"both nil never fires", nil, nil, false},
		{"nil fields at rest", nil, fp(50), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.Exceeded(tt.temperature, tt.humidity); got != tt.want {
				t.Errorf("Exceeded(%v, %v) = %v, want %v", tt.temperature, tt.humidity, got, tt.want)
			}
		})
	}
}

// alertRecorder is a webhook endpoint capturing delivered notifications.
type alertRecorder struct {
	mu       sync.Mutex
	bodies   []string
	status   int
	received chan struct{}
}

func newAlertRecorder(status int) *alertRecorder {
	return &alertRecorder{status: status, received: make(chan struct{}, 16)}
}

func (a *alertRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	a.mu.Lock()
	a.bodies = append(a.bodies, string(body))
	a.mu.Unlock()
	a.received <- struct{}{}
	w.WriteHeader(a.status)
}

func (a *alertRecorder) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.bodies)
}

func (a *alertRecorder) waitForOne(t *testing.T) {
	t.Helper()
	select {
	case <-a.received:
	case <-time.After(2 * time.Second):
		t.Fatal("no notification arrived")
	}
}

func TestNotifier_DeliversContentPayload(t *testing.T) {
	rec := newAlertRecorder(http.StatusOK)
	srv := httptest.NewServer(rec)
	defer srv.Close()

	n := NewNotifier(srv.URL, time.Second, testLogger())
	n.Start(context.Background())
	defer n.Stop()

	n.Dispatch(fp(35), fp(15))
	rec.waitForOne(t)

	if got := rec.count(); got != 1 {
		t.Fatalf("received %d notifications, want 1", got)
	}

	var payload map[string]string
	if err := json.Unmarshal([]byte(rec.bodies[0]), &payload); err != nil {
		t.Fatalf("Unmarshal(%q) error = %v", rec.bodies[0], err)
	}
	content := payload["content"]
	if !strings.Contains(content, "35") || !strings.Contains(content, "15") {
		t.Errorf("content = %q, want both reading values embedded", content)
	}
}

func TestNotifier_ExactlyOneNotificationPerDispatch(t *testing.T) {
	rec := newAlertRecorder(http.StatusOK)
	srv := httptest.NewServer(rec)
	defer srv.Close()

	n := NewNotifier(srv.URL, time.Second, testLogger())
	n.Start(context.Background())
	defer n.Stop()

	// a reading breaching both thresholds still dispatches once
	n.Dispatch(fp(30.1), fp(19.9))
	rec.waitForOne(t)

	// allow any spurious extra delivery to land before counting
	time.Sleep(100 * time.Millisecond)
	if got := rec.count(); got != 1 {
		t.Errorf("received %d notifications, want 1", got)
	}
}

func TestNotifier_FailureNotRetried(t *testing.T) {
	rec := newAlertRecorder(http.StatusInternalServerError)
	srv := httptest.NewServer(rec)
	defer srv.Close()

	n := NewNotifier(srv.URL, time.Second, testLogger())
	n.Start(context.Background())
	defer n.Stop()

	n.Dispatch(fp(40), fp(10))
	rec.waitForOne(t)

	time.Sleep(150 * time.Millisecond)
	if got := rec.count(); got != 1 {
		t.Errorf("received %d deliveries, want 1 (no retries on failure)", got)
	}
}

func TestNotifier_DispatchDoesNotBlock(t *testing.T) {
	// webhook that never answers within the test window
	stall := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-stall
	}))
	defer srv.Close()
	defer close(stall)

	n := NewNotifier(srv.URL, 10*time.Second, testLogger())
	n.Start(context.Background())

	done := make(chan struct{})
	go func() {
		// well beyond the queue depth; every call must return immediately
		for i := 0; i < queueDepth*3; i++ {
			n.Dispatch(fp(50), fp(5))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch() blocked the caller")
	}

	// Stop must return even with a delivery stuck in flight
	go n.Stop()
}

func TestNotifier_EmptyURLDisablesDispatch(t *testing.T) {
	n := NewNotifier("", time.Second, testLogger())
	n.Start(context.Background())
	defer n.Stop()

	// must not panic or queue anything
	n.Dispatch(fp(100), fp(0))
	if len(n.queue) != 0 {
		t.Errorf("queue length = %d, want 0 when disabled", len(n.queue))
	}
}

func TestNotifier_StopIdempotent(t *testing.T) {
	n := NewNotifier("http://127.0.0.1:0", time.Second, testLogger())
	n.Start(context.Background())
	n.Stop()
	n.Stop()

	// Stop before Start is also a safe no-op
	n2 := NewNotifier("", time.Second, testLogger())
	n2.Stop()
}

func TestFmtValue(t *testing.T) {
	if got := fmtValue(nil); got != "null" {
		t.Errorf("fmtValue(nil) = %q, want %q", got, "null")
	}
	if got := fmtValue(fp(30.1)); got != "30.1" {
		t.Errorf("fmtValue(30.1) = %q, want %q", got, "30.1")
	}
	if got := fmtValue(fp(35)); got != "35" {
		t.Errorf("fmtValue(35) = %q, want %q", got, "35")
	}
}
