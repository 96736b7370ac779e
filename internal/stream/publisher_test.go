package stream

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"hostwatch-agent/internal/model"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type countingBuilder struct {
	calls atomic.Int64
}

func (b *countingBuilder) BuildSnapshot(context.Context) model.HealthSnapshot {
	n := b.calls.Add(1)
	snap := model.HealthSnapshot{
		LoadAvg:   model.LoadAvg{TotalProcesses: uint32(n)},
		Timestamp: time.Unix(1_700_000_000+n, 0).UTC(),
	}
	snap.Normalize()
	return snap
}

type recordingSink struct {
	mu    sync.Mutex
	snaps []model.HealthSnapshot
	after int
	err   error
	onAdd func(n int)
}

func (s *recordingSink) Send(_ context.Context, snap model.HealthSnapshot) error {
	s.mu.Lock()
	if s.err != nil && len(s.snaps) >= s.after {
		s.mu.Unlock()
		return s.err
	}
	s.snaps = append(s.snaps, snap)
	n := len(s.snaps)
	onAdd := s.onAdd
	s.mu.Unlock()
	if onAdd != nil {
		onAdd(n)
	}
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snaps)
}

func TestPublisher_RunStopsOnCancel(t *testing.T) {
	builder := &countingBuilder{}
	p := NewPublisher(discardLogger, builder, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	sink := &recordingSink{onAdd: func(n int) {
		if n == 3 {
			cancel()
		}
	}}

	if err := p.Run(ctx, sink, TransportSSE, "test"); err != nil {
		t.Fatalf("expected nil on cancel; got %v", err)
	}
	if got := sink.count(); got != 3 {
		t.Fatalf("expected 3 snapshots; got %d", got)
	}
	for i, snap := range sink.snaps {
		if snap.LoadAvg.TotalProcesses != uint32(i+1) {
			t.Fatalf("snapshot %d should be a fresh build; got %+v", i, snap.LoadAvg)
		}
	}
	if len(p.Subscribers()) != 0 {
		t.Fatalf("subscriber must be removed after Run returns")
	}
	if want := time.Unix(1_700_000_003, 0).UTC(); !p.LastSnapshot().Equal(want) {
		t.Fatalf("expected last snapshot %v; got %v", want, p.LastSnapshot())
	}
}

func TestPublisher_FirstSnapshotIsImmediate(t *testing.T) {
	p := NewPublisher(discardLogger, &countingBuilder{}, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sent := make(chan struct{}, 1)
	sink := SinkFunc(func(context.Context, model.HealthSnapshot) error {
		sent <- struct{}{}
		return nil
	})
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, sink, TransportGRPC, "test") }()

	select {
	case <-sent:
	case <-time.After(2 * time.Second):
		t.Fatalf("first snapshot was not sent immediately")
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}

func TestPublisher_RunReturnsSinkError(t *testing.T) {
	p := NewPublisher(discardLogger, &countingBuilder{}, time.Millisecond)
	boom := errors.New("broken pipe")
	sink := &recordingSink{after: 2, err: boom}

	err := p.Run(context.Background(), sink, TransportWebSocket, "test")
	if !errors.Is(err, boom) {
		t.Fatalf("expected sink error; got %v", err)
	}
	if sink.count() != 2 {
		t.Fatalf("expected 2 delivered snapshots; got %d", sink.count())
	}
}

func TestPublisher_TracksSubscribers(t *testing.T) {
	p := NewPublisher(discardLogger, &countingBuilder{}, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	started := make(chan struct{}, 2)
	for _, tr := range []string{TransportSSE, TransportWebSocket} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Run(ctx, SinkFunc(func(context.Context, model.HealthSnapshot) error {
				started <- struct{}{}
				return nil
			}), tr, "remote-"+tr)
		}()
	}
	<-started
	<-started

	deadline := time.Now().Add(2 * time.Second)
	for {
		subs := p.Subscribers()
		if len(subs) == 2 && subs[0].Sent == 1 && subs[1].Sent == 1 {
			if subs[0].ID == "" || subs[0].ID == subs[1].ID {
				t.Fatalf("subscribers need distinct ids: %+v", subs)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected 2 subscribers with one snapshot each; got %+v", subs)
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	wg.Wait()
	if len(p.Subscribers()) != 0 {
		t.Fatalf("expected no subscribers after shutdown")
	}
}

func TestNewPublisher_DefaultInterval(t *testing.T) {
	if got := NewPublisher(nil, &countingBuilder{}, 0).Interval(); got != DefaultInterval {
		t.Fatalf("expected %v; got %v", DefaultInterval, got)
	}
}
