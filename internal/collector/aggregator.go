package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"hostwatch-agent/internal/model"
)

type probeResult struct {
	apply Apply
	err   error
}

type Aggregator struct {
	logger      *slog.Logger
	probes      []Probe
	concurrency int
	now         func() time.Time
}

// NewAggregator returns an Aggregator over probes. concurrency <= 0 runs
// every probe at once.
func NewAggregator(logger *slog.Logger, probes []Probe, concurrency int) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		logger:      logger,
		probes:      append([]Probe(nil), probes...),
		concurrency: concurrency,
		now:         time.Now,
	}
}

func (a *Aggregator) Probes() []string {
	names := make([]string, 0, len(a.probes))
	for _, p := range a.probes {
		names = append(names, p.Name())
	}
	return names
}

// BuildSnapshot runs every probe and folds the results. It never fails:
// a failed probe leaves its field empty and adds "<probe>: <error>" to
// Errors, in probe registration order.
func (a *Aggregator) BuildSnapshot(ctx context.Context) model.HealthSnapshot {
	results := make([]probeResult, len(a.probes))

	var g errgroup.Group
	if a.concurrency > 0 {
		g.SetLimit(a.concurrency)
	}
	for i, p := range a.probes {
		g.Go(func() error {
			results[i] = a.runProbe(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	var snap model.HealthSnapshot
	for i, r := range results {
		if r.err != nil {
			name := a.probes[i].Name()
			a.logger.Debug("probe failed", "probe", name, "error", r.err)
			snap.Errors = append(snap.Errors, fmt.Sprintf("%s: %v", name, r.err))
			continue
		}
		r.apply(&snap)
	}
	snap.Normalize()
	snap.Timestamp = a.now().UTC()
	return snap
}

func (a *Aggregator) runProbe(ctx context.Context, p Probe) (res probeResult) {
	defer func() {
		if r := recover(); r != nil {
			res = probeResult{err: fmt.Errorf("panic: %v", r)}
		}
	}()
	apply, err := p.Collect(ctx)
	if err == nil && apply == nil {
		apply = func(*model.HealthSnapshot) {}
	}
	return probeResult{apply: apply, err: err}
}
