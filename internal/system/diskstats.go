package system

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
)

const diskStatsMinFields = 13

// pseudoDevicePrefixes never reach the rate window: loopback, optical, ram-backed.
var pseudoDevicePrefixes = []string{"loop", "sr", "ram"}

// DiskCounters are the monotonically increasing counters of one block device.
type DiskCounters struct {
	ReadsCompleted  uint64
	SectorsRead     uint64
	WritesCompleted uint64
	SectorsWritten  uint64
	TimeDoingIOms   uint64
}

func ReadDiskStats(ctx context.Context, src Source) (map[string]DiskCounters, error) {
	raw, err := src.ReadFile(ctx, ProcDiskStats)
	if err != nil {
		return nil, err
	}
	return ParseDiskStats(raw)
}

// ParseDiskStats parses the /proc/diskstats table. Short lines are skipped; a
// bad required column on a tracked device fails the whole read.
func ParseDiskStats(raw []byte) (map[string]DiskCounters, error) {
	out := make(map[string]DiskCounters)
	s := bufio.NewScanner(bytes.NewReader(raw))
	for s.Scan() {
		fields := strings.Fields(s.Text())
		if len(fields) < diskStatsMinFields {
			continue
		}
		name := fields[2]
		if isPseudoDevice(name) {
			continue
		}

		var c DiskCounters
		columns := []struct {
			idx   int
			label string
			dst   *uint64
		}{
			{3, "reads_completed", &c.ReadsCompleted},
			{5, "sectors_read", &c.SectorsRead},
			{7, "writes_completed", &c.WritesCompleted},
			{9, "sectors_written", &c.SectorsWritten},
			{12, "time_spent_io", &c.TimeDoingIOms},
		}
		for _, col := range columns {
			v, err := strconv.ParseUint(fields[col.idx], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parse %s for device %s: %w", col.label, name, err)
			}
			*col.dst = v
		}
		out[name] = c
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", ProcDiskStats, err)
	}
	return out, nil
}

func isPseudoDevice(name string) bool {
	for _, prefix := range pseudoDevicePrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
