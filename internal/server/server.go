// Package server exposes the live feed, the journal side channel and the
// agent's own health over HTTP.
package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"hostwatch-agent/internal/journal"
	"hostwatch-agent/internal/stream"
)

//go:embed static/index.html
var indexHTML []byte

type LogTailer interface {
	Tail(ctx context.Context, unit string) (string, error)
}

type HealthReporter interface {
	Healthy() bool
	Snapshot() map[string]any
}

type Options struct {
	WebSocket stream.WebSocketOptions
}

type Server struct {
	logger    *slog.Logger
	publisher *stream.Publisher
	logs      LogTailer
	health    HealthReporter
	opts      Options
}

func New(logger *slog.Logger, publisher *stream.Publisher, logs LogTailer, health HealthReporter, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		logger:    logger,
		publisher: publisher,
		logs:      logs,
		health:    health,
		opts:      opts,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("GET /stream", stream.SSEHandler(s.publisher, s.logger))
	mux.Handle("GET /ws", stream.WebSocketHandler(s.publisher, s.logger, s.opts.WebSocket))
	mux.HandleFunc("GET /api/logs/{unit}", s.handleLogs)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	unit := r.PathValue("unit")
	out, err := s.logs.Tail(r.Context(), unit)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, journal.ErrInvalidUnit) {
			status = http.StatusBadRequest
		}
		s.logger.Warn("journal read failed", "unit", unit, "error", err)
		writeText(w, status, fmt.Sprintf("Failed to get logs: %v", err))
		return
	}
	writeText(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := http.StatusOK
	if !s.health.Healthy() {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(s.health.Snapshot())
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
