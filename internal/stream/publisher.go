// Package stream turns snapshots into live feeds. Every subscriber runs its
// own publish loop; loops share only the aggregator behind the Publisher.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultInterval = 2 * time.Second

const (
	TransportSSE       = "sse"
	TransportWebSocket = "websocket"
	TransportGRPC      = "grpc"
)

// Subscriber describes one active feed.
type Subscriber struct {
	ID        string    `json:"id"`
	Transport string    `json:"transport"`
	Remote    string    `json:"remote"`
	Since     time.Time `json:"since"`
	Sent      uint64    `json:"sent"`
}

type Publisher struct {
	logger   *slog.Logger
	builder  SnapshotBuilder
	interval time.Duration

	mu           sync.Mutex
	subscribers  map[string]*Subscriber
	lastSnapshot time.Time
}

func NewPublisher(logger *slog.Logger, builder SnapshotBuilder, interval time.Duration) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Publisher{
		logger:      logger,
		builder:     builder,
		interval:    interval,
		subscribers: make(map[string]*Subscriber),
	}
}

func (p *Publisher) Interval() time.Duration {
	return p.interval
}

// Run publishes a snapshot to sink immediately and then once per interval
// until ctx is done (returns nil) or the sink fails (returns the error).
func (p *Publisher) Run(ctx context.Context, sink Sink, transport, remote string) error {
	id := p.register(transport, remote)
	defer p.unregister(id)

	log := p.logger.With("subscriber", id, "transport", transport, "remote", remote)
	log.Info("subscriber connected")
	defer log.Info("subscriber disconnected")

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		snap := p.builder.BuildSnapshot(ctx)
		if err := sink.Send(ctx, snap); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warn("snapshot send failed", "error", err)
			return fmt.Errorf("send snapshot: %w", err)
		}
		p.markSent(id, snap.Timestamp)

		if !sleepWithContext(ctx, p.interval) {
			return nil
		}
	}
}

func (p *Publisher) Subscribers() []Subscriber {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Subscriber, 0, len(p.subscribers))
	for _, s := range p.subscribers {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Since.Equal(out[j].Since) {
			return out[i].Since.Before(out[j].Since)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// LastSnapshot is the capture time of the most recently delivered snapshot.
func (p *Publisher) LastSnapshot() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSnapshot
}

func (p *Publisher) register(transport, remote string) string {
	id := uuid.NewString()
	p.mu.Lock()
	p.subscribers[id] = &Subscriber{
		ID:        id,
		Transport: transport,
		Remote:    remote,
		Since:     time.Now().UTC(),
	}
	p.mu.Unlock()
	return id
}

func (p *Publisher) unregister(id string) {
	p.mu.Lock()
	delete(p.subscribers, id)
	p.mu.Unlock()
}

func (p *Publisher) markSent(id string, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.subscribers[id]; ok {
		s.Sent++
	}
	if at.After(p.lastSnapshot) {
		p.lastSnapshot = at
	}
}

// sleepWithContext reports false if ctx ended before d elapsed.
func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
