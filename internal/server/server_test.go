package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hostwatch-agent/internal/journal"
	"hostwatch-agent/internal/model"
	"hostwatch-agent/internal/stream"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type staticBuilder struct{}

func (staticBuilder) BuildSnapshot(context.Context) model.HealthSnapshot {
	snap := model.HealthSnapshot{Timestamp: time.Now().UTC()}
	snap.Normalize()
	return snap
}

type fakeTailer struct {
	out  string
	err  error
	unit string
}

func (f *fakeTailer) Tail(_ context.Context, unit string) (string, error) {
	f.unit = unit
	if err := journal.ValidateUnit(unit); err != nil {
		return "", err
	}
	return f.out, f.err
}

type fakeHealth struct {
	healthy bool
}

func (f fakeHealth) Healthy() bool { return f.healthy }

func (f fakeHealth) Snapshot() map[string]any {
	return map[string]any{"healthy": f.healthy}
}

func newTestServer(t *testing.T, logs LogTailer, health HealthReporter) *httptest.Server {
	t.Helper()
	p := stream.NewPublisher(discardLogger, staticBuilder{}, 10*time.Millisecond)
	srv := httptest.NewServer(New(discardLogger, p, logs, health, Options{}).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func TestIndex(t *testing.T) {
	srv := newTestServer(t, &fakeTailer{}, fakeHealth{healthy: true})

	resp, body := get(t, srv.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Fatalf("unexpected content type %q", resp.Header.Get("Content-Type"))
	}
	if !strings.Contains(body, `EventSource("/stream")`) {
		t.Fatalf("index page does not subscribe to the feed")
	}

	resp, _ = get(t, srv.URL+"/nope")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown path; got %d", resp.StatusCode)
	}
}

func TestLogs(t *testing.T) {
	tailer := &fakeTailer{out: "2024-01-01T00:00:00+0000 host sshd[1]: started\n"}
	srv := newTestServer(t, tailer, fakeHealth{healthy: true})

	resp, body := get(t, srv.URL+"/api/logs/sshd.service")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if body != tailer.out {
		t.Fatalf("unexpected body %q", body)
	}
	if tailer.unit != "sshd.service" {
		t.Fatalf("unexpected unit %q", tailer.unit)
	}
}

func TestLogs_Failure(t *testing.T) {
	tailer := &fakeTailer{err: errors.New("exit status 1")}
	srv := newTestServer(t, tailer, fakeHealth{healthy: true})

	resp, body := get(t, srv.URL+"/api/logs/missing.service")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if body != "Failed to get logs: exit status 1" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestLogs_InvalidUnit(t *testing.T) {
	srv := newTestServer(t, &fakeTailer{}, fakeHealth{healthy: true})

	resp, body := get(t, srv.URL+"/api/logs/-evil")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if !strings.HasPrefix(body, "Failed to get logs: ") {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestHealthz(t *testing.T) {
	for _, tc := range []struct {
		healthy bool
		status  int
	}{
		{healthy: true, status: http.StatusOK},
		{healthy: false, status: http.StatusServiceUnavailable},
	} {
		t.Run(fmt.Sprint(tc.healthy), func(t *testing.T) {
			srv := newTestServer(t, &fakeTailer{}, fakeHealth{healthy: tc.healthy})
			resp, body := get(t, srv.URL+"/healthz")
			if resp.StatusCode != tc.status {
				t.Fatalf("unexpected status %d", resp.StatusCode)
			}
			var report map[string]any
			if err := json.Unmarshal([]byte(body), &report); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if report["healthy"] != tc.healthy {
				t.Fatalf("unexpected report %v", report)
			}
		})
	}
}

func TestStreamRoute(t *testing.T) {
	srv := newTestServer(t, &fakeTailer{}, fakeHealth{healthy: true})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/stream", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}
	buf := make([]byte, 6)
	if _, err := io.ReadFull(resp.Body, buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(buf) != "data: " {
		t.Fatalf("unexpected frame prefix %q", buf)
	}
}
