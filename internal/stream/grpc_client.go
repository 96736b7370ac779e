package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"hostwatch-agent/internal/model"
)

// GRPCClient consumes the snapshot stream of a remote agent.
type GRPCClient struct {
	mu     sync.Mutex
	logger *slog.Logger
	addr   string
	conn   *grpc.ClientConn
}

func NewGRPCClient(addr string, logger *slog.Logger) *GRPCClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &GRPCClient{logger: logger, addr: addr}
}

// Watch calls fn for every received snapshot until the server ends the
// stream, ctx is canceled or fn returns an error.
func (c *GRPCClient) Watch(ctx context.Context, req StreamRequest, fn func(model.HealthSnapshot) error) error {
	conn, err := c.ensureConn()
	if err != nil {
		return err
	}
	s, err := conn.NewStream(ctx, &grpc.StreamDesc{ServerStreams: true}, StreamSnapshotsMethod)
	if err != nil {
		return fmt.Errorf("open snapshot stream: %w", err)
	}
	if err := s.SendMsg(&req); err != nil {
		return fmt.Errorf("send stream request: %w", err)
	}
	if err := s.CloseSend(); err != nil {
		return fmt.Errorf("close send: %w", err)
	}

	for {
		var snap model.HealthSnapshot
		if err := s.RecvMsg(&snap); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("receive snapshot: %w", err)
		}
		if err := fn(snap); err != nil {
			return err
		}
	}
}

func (c *GRPCClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *GRPCClient) ensureConn() (*grpc.ClientConn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return c.conn, nil
	}
	conn, err := grpc.NewClient(
		c.addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{}), grpc.CallContentSubtype("json")),
	)
	if err != nil {
		return nil, fmt.Errorf("grpc client %s: %w", c.addr, err)
	}
	c.conn = conn
	c.logger.Debug("grpc client created", "addr", c.addr)
	return conn, nil
}
