package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mfeld/voiceled/internal/engine"
	"github.com/mfeld/voiceled/internal/event"
)

type staticSource struct {
	snap engine.Snapshot
}

func (s staticSource) Snapshot() engine.Snapshot { return s.snap }

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}

func newTestServer(t *testing.T, snap engine.Snapshot) (*httptest.Server, *event.Bus) {
	t.Helper()

	log := testLogger()
	bus := event.NewBus(log, 16)

	s := NewServer(log, "127.0.0.1:0", staticSource{snap: snap}, bus)
	ts := httptest.NewServer(s.srv.Handler)
	t.Cleanup(ts.Close)

	return ts, bus
}

func TestStatusEndpoint(t *testing.T) {
	snap := engine.Snapshot{
		State:          engine.StateTargetSpeaking,
		Mode:           engine.ModeVoiceActivity,
		Connected:      true,
		HardwareOK:     true,
		TargetSpeakers: 1,
		OtherSpeakers:  2,
	}
	ts, _ := newTestServer(t, snap)

	resp, err := http.Get(ts.URL + "/status")
	if err != nil {
		t.Fatalf("GET /status: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q, want application/json", ct)
	}

	var got engine.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if got != snap {
		t.Errorf("snapshot = %+v, want %+v", got, snap)
	}
}

func TestToggleEndpoint(t *testing.T) {
	ts, bus := newTestServer(t, engine.Snapshot{})

	resp, err := http.Post(ts.URL+"/toggle", "", nil)
	if err != nil {
		t.Fatalf("POST /toggle: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusAccepted)
	}

	select {
	case ev := <-bus.Events():
		if ev.Kind != event.KindHotkeyToggle {
			t.Errorf("kind = %s, want %s", ev.Kind, event.KindHotkeyToggle)
		}
	case <-time.After(time.Second):
		t.Fatal("toggle not published")
	}
}

func TestShutdownEndpoint(t *testing.T) {
	ts, bus := newTestServer(t, engine.Snapshot{})

	resp, err := http.Post(ts.URL+"/shutdown", "", nil)
	if err != nil {
		t.Fatalf("POST /shutdown: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusAccepted)
	}

	select {
	case ev := <-bus.Priority():
		if ev.Kind != event.KindShutdown {
			t.Errorf("kind = %s, want %s", ev.Kind, event.KindShutdown)
		}
	case <-time.After(time.Second):
		t.Fatal("shutdown not published")
	}
}

func TestControlEndpointsRejectGet(t *testing.T) {
	ts, _ := newTestServer(t, engine.Snapshot{})

	for _, path := range []string{"/toggle", "/shutdown"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("GET %s status = %d, want %d", path, resp.StatusCode, http.StatusMethodNotAllowed)
		}
	}
}
