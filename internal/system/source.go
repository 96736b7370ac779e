// Package system reads raw host data (files under /proc, CLI tool output) and
// parses it into typed records. Reading goes through Source so parsers can be
// exercised against captured fixtures.
package system

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

const (
	ProcDiskStats = "/proc/diskstats"
	ProcStat      = "/proc/stat"
	ProcMemInfo   = "/proc/meminfo"
	ProcLoadAvg   = "/proc/loadavg"
	ProcUptime    = "/proc/uptime"
	ProcNetDev    = "/proc/net/dev"
)

// ErrMissingField is returned when a required field is absent from a raw source.
var ErrMissingField = errors.New("missing required field")

// Source is the opaque raw data provider behind every adapter.
type Source interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// OSSource reads the local filesystem and spawns local processes.
type OSSource struct{}

func (OSSource) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return raw, nil
}

func (OSSource) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("run %s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("run %s: %w", name, err)
	}
	return out, nil
}
