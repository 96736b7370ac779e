package system

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOSSource_ReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loadavg")
	if err := os.WriteFile(path, []byte("0.13 0.50 0.36 1/217 688199\n"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	raw, err := OSSource{}.ReadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !strings.HasPrefix(string(raw), "0.13") {
		t.Fatalf("unexpected content %q", raw)
	}
}

func TestOSSource_ReadFileMissing(t *testing.T) {
	_, err := OSSource{}.ReadFile(context.Background(), filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestOSSource_ReadFileCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (OSSource{}).ReadFile(ctx, "/proc/loadavg"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestOSSource_RunMissingBinary(t *testing.T) {
	_, err := OSSource{}.Run(context.Background(), "hostwatch-definitely-not-installed")
	if err == nil {
		t.Fatalf("expected error for missing binary")
	}
	if !strings.Contains(err.Error(), "hostwatch-definitely-not-installed") {
		t.Fatalf("error should name the command: %v", err)
	}
}
