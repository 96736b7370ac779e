package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"hostwatch-agent/internal/model"
)

var errStreamingUnsupported = errors.New("response writer does not support flushing")

// SSESink writes snapshots as server-sent events.
type SSESink struct {
	w       io.Writer
	flusher http.Flusher
}

// NewSSESink writes the event-stream headers and returns a sink for w.
func NewSSESink(w http.ResponseWriter) (*SSESink, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &SSESink{w: w, flusher: flusher}, nil
}

func (s *SSESink) Send(_ context.Context, snap model.HealthSnapshot) error {
	payload, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	if err := WriteSSEFrame(s.w, payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteSSEFrame writes payload as a single "data:" event.
func WriteSSEFrame(w io.Writer, payload []byte) error {
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// SSEHandler streams snapshots until the client goes away.
func SSEHandler(p *Publisher, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sink, err := NewSSESink(w)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if err := p.Run(r.Context(), sink, TransportSSE, r.RemoteAddr); err != nil {
			logger.Debug("sse stream ended", "remote", r.RemoteAddr, "error", err)
		}
	})
}
