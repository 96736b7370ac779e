// Package libvirt lists the virtual machines of the local hypervisor so they
// can ride along in the health snapshot.
package libvirt

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	golibvirt "github.com/digitalocean/go-libvirt"
)

// ConnManager owns a single libvirt RPC connection. Connect makes one
// attempt; callers that want retries drive Reconnect on their own cadence.
type ConnManager struct {
	mu     sync.RWMutex
	client *golibvirt.Libvirt
	uri    string
	logger *slog.Logger
	dial   func(*url.URL) (*golibvirt.Libvirt, error)
}

func NewConnManager(uri string, logger *slog.Logger) *ConnManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConnManager{
		uri:    uri,
		logger: logger,
		dial: func(u *url.URL) (*golibvirt.Libvirt, error) {
			return golibvirt.ConnectToURI(u)
		},
	}
}

func (m *ConnManager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectLocked(ctx)
}

func (m *ConnManager) Client(ctx context.Context) (*golibvirt.Libvirt, error) {
	m.mu.RLock()
	c := m.client
	m.mu.RUnlock()
	if c != nil {
		return c, nil
	}
	if err := m.Connect(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.client == nil {
		return nil, fmt.Errorf("libvirt client is nil after connect")
	}
	return m.client, nil
}

func (m *ConnManager) Connected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client != nil
}

func (m *ConnManager) Reconnect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		if err := m.client.Disconnect(); err != nil {
			m.logger.Warn("libvirt disconnect failed", "error", err)
		}
		m.client = nil
	}
	return m.connectLocked(ctx)
}

// Healthy verifies the connection with a cheap version call.
func (m *ConnManager) Healthy(ctx context.Context) error {
	c, err := m.Client(ctx)
	if err != nil {
		return err
	}
	if _, err := c.Version(); err != nil {
		return fmt.Errorf("libvirt version check failed: %w", err)
	}
	return nil
}

func (m *ConnManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		return nil
	}
	err := m.client.Disconnect()
	m.client = nil
	return err
}

func (m *ConnManager) connectLocked(ctx context.Context) error {
	if m.client != nil {
		if _, err := m.client.Version(); err == nil {
			return nil
		}
		_ = m.client.Disconnect()
		m.client = nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	uri, err := ParseURI(m.uri)
	if err != nil {
		return err
	}
	c, err := m.dial(uri)
	if err != nil {
		return fmt.Errorf("libvirt connect %s: %w", uri.Redacted(), err)
	}
	m.client = c
	m.logger.Info("libvirt connected", "uri", uri.Redacted())
	return nil
}

// ParseURI resolves raw to a libvirt URI, defaulting to the local system
// QEMU driver when raw is empty or has no scheme.
func ParseURI(raw string) (*url.URL, error) {
	if raw == "" {
		raw = string(golibvirt.QEMUSystem)
	}
	uri, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse libvirt uri %q: %w", raw, err)
	}
	if uri.Scheme == "" {
		uri, err = url.Parse(string(golibvirt.QEMUSystem))
		if err != nil {
			return nil, fmt.Errorf("parse fallback uri: %w", err)
		}
	}
	return uri, nil
}
