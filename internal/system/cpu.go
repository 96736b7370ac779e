package system

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"hostwatch-agent/internal/model"
)

const cpuStatMinFields = 11

// DefaultCPUSampleDelay separates the two /proc/stat samples of one CPU reading.
const DefaultCPUSampleDelay = 500 * time.Millisecond

// CPUTicks holds the tick buckets of one "cpu" line of /proc/stat.
type CPUTicks struct {
	Name      string
	User      uint64
	Nice      uint64
	System    uint64
	Idle      uint64
	IOWait    uint64
	IRQ       uint64
	SoftIRQ   uint64
	Steal     uint64
	Guest     uint64
	GuestNice uint64
}

func (t CPUTicks) Total() uint64 {
	return t.User + t.Nice + t.System + t.Idle + t.IOWait + t.IRQ + t.SoftIRQ + t.Steal + t.Guest + t.GuestNice
}

func ReadCPUTicks(ctx context.Context, src Source) ([]CPUTicks, error) {
	raw, err := src.ReadFile(ctx, ProcStat)
	if err != nil {
		return nil, err
	}
	return ParseCPUStats(raw)
}

func ParseCPUStats(raw []byte) ([]CPUTicks, error) {
	var out []CPUTicks
	s := bufio.NewScanner(bytes.NewReader(raw))
	for s.Scan() {
		line := s.Text()
		if !strings.HasPrefix(line, "cpu") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < cpuStatMinFields {
			continue
		}
		vals := make([]uint64, 10)
		for i := range vals {
			v, err := strconv.ParseUint(fields[i+1], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parse cpu stat %q for %s: %w", fields[i+1], fields[0], err)
			}
			vals[i] = v
		}
		out = append(out, CPUTicks{
			Name:      fields[0],
			User:      vals[0],
			Nice:      vals[1],
			System:    vals[2],
			Idle:      vals[3],
			IOWait:    vals[4],
			IRQ:       vals[5],
			SoftIRQ:   vals[6],
			Steal:     vals[7],
			Guest:     vals[8],
			GuestNice: vals[9],
		})
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", ProcStat, err)
	}
	return out, nil
}

// SampleCPUUsage takes two /proc/stat samples delay apart. The wait is not
// interrupted by ctx; it is bounded and short.
func SampleCPUUsage(ctx context.Context, src Source, delay time.Duration) ([]model.CPUUsage, error) {
	first, err := ReadCPUTicks(ctx, src)
	if err != nil {
		return nil, err
	}
	time.Sleep(delay)
	second, err := ReadCPUTicks(ctx, src)
	if err != nil {
		return nil, err
	}
	return CPUUsage(first, second), nil
}

// CPUUsage pairs rows by name; rows missing from either sample are skipped.
func CPUUsage(first, second []CPUTicks) []model.CPUUsage {
	prev := make(map[string]CPUTicks, len(first))
	for _, t := range first {
		prev[t.Name] = t
	}

	out := make([]model.CPUUsage, 0, len(second))
	for _, cur := range second {
		p, ok := prev[cur.Name]
		if !ok {
			continue
		}
		totalDiff := SaturatingSub(cur.Total(), p.Total())
		idleDiff := SaturatingSub(cur.Idle, p.Idle)

		usage := 0.0
		if totalDiff > 0 {
			usage = float64(SaturatingSub(totalDiff, idleDiff)) / float64(totalDiff) * 100
		}
		out = append(out, model.CPUUsage{
			Core:  cpuLabel(cur.Name),
			Usage: strconv.FormatFloat(ClampPercent(usage), 'f', 1, 64),
		})
	}
	return out
}

func cpuLabel(name string) string {
	if name == "cpu" {
		return "Total"
	}
	return "Core " + strings.TrimPrefix(name, "cpu")
}
