package stream

import (
	"context"
	"encoding/json"
	"fmt"

	"hostwatch-agent/internal/model"
)

// Sink delivers one full snapshot to one subscriber.
type Sink interface {
	Send(ctx context.Context, snap model.HealthSnapshot) error
}

type SnapshotBuilder interface {
	BuildSnapshot(ctx context.Context) model.HealthSnapshot
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, snap model.HealthSnapshot) error

func (f SinkFunc) Send(ctx context.Context, snap model.HealthSnapshot) error {
	return f(ctx, snap)
}

func EncodeSnapshot(snap model.HealthSnapshot) ([]byte, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return payload, nil
}
