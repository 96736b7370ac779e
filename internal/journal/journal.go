// Package journal fetches recent systemd journal lines for a single unit.
package journal

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const DefaultLines = 200

// ErrInvalidUnit is returned for unit names that could be read as flags or
// contain characters systemd never uses in unit names.
var ErrInvalidUnit = errors.New("invalid unit name")

// Runner spawns a process and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type Reader struct {
	runner Runner
	lines  int
}

func NewReader(runner Runner, lines int) *Reader {
	if lines <= 0 {
		lines = DefaultLines
	}
	return &Reader{runner: runner, lines: lines}
}

// Tail returns the newest lines of unit's journal, newest first.
func (r *Reader) Tail(ctx context.Context, unit string) (string, error) {
	if err := ValidateUnit(unit); err != nil {
		return "", err
	}
	out, err := r.runner.Run(ctx, "journalctl", Args(unit, r.lines)...)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func Args(unit string, lines int) []string {
	return []string{
		"-u", unit,
		"--no-pager",
		"--output=short-iso",
		"--reverse",
		"--lines=" + strconv.Itoa(lines),
	}
}

func ValidateUnit(unit string) error {
	if unit == "" || len(unit) > 256 {
		return fmt.Errorf("%w: %q", ErrInvalidUnit, unit)
	}
	if strings.HasPrefix(unit, "-") {
		return fmt.Errorf("%w: %q", ErrInvalidUnit, unit)
	}
	for _, r := range unit {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune(":-_.@\\", r):
		default:
			return fmt.Errorf("%w: %q", ErrInvalidUnit, unit)
		}
	}
	return nil
}
