// Package collector builds HealthSnapshots by running independent probes and
// folding their results, so a failing probe only costs its own field.
package collector

import (
	"context"

	"hostwatch-agent/internal/model"
)

// Apply writes a probe's successful result into the snapshot.
type Apply func(*model.HealthSnapshot)

// Probe fetches one field of the snapshot.
type Probe interface {
	Name() string
	Collect(ctx context.Context) (Apply, error)
}

type funcProbe[T any] struct {
	name   string
	fetch  func(context.Context) (T, error)
	assign func(*model.HealthSnapshot, T)
}

// NewProbe adapts a typed fetch function and a field setter into a Probe.
func NewProbe[T any](name string, fetch func(context.Context) (T, error), assign func(*model.HealthSnapshot, T)) Probe {
	return &funcProbe[T]{name: name, fetch: fetch, assign: assign}
}

func (p *funcProbe[T]) Name() string {
	return p.name
}

func (p *funcProbe[T]) Collect(ctx context.Context) (Apply, error) {
	v, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return func(s *model.HealthSnapshot) {
		p.assign(s, v)
	}, nil
}
