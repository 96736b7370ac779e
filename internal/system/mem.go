package system

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"hostwatch-agent/internal/model"
)

const kibPerGiB = 1024.0 * 1024.0

func ReadMemoryUsage(ctx context.Context, src Source) (model.MemoryUsage, error) {
	raw, err := src.ReadFile(ctx, ProcMemInfo)
	if err != nil {
		return model.MemoryUsage{}, err
	}
	return ParseMemInfo(raw)
}

// ParseMemInfo converts /proc/meminfo into the memory table. MemTotal,
// MemAvailable, MemFree and Shmem are required.
func ParseMemInfo(raw []byte) (model.MemoryUsage, error) {
	vals := map[string]float64{}
	s := bufio.NewScanner(bytes.NewReader(raw))
	for s.Scan() {
		parts := strings.Fields(s.Text())
		if len(parts) < 2 {
			continue
		}
		v, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return model.MemoryUsage{}, fmt.Errorf("parse value for %s: %w", parts[0], err)
		}
		vals[strings.TrimSuffix(parts[0], ":")] = v
	}
	if err := s.Err(); err != nil {
		return model.MemoryUsage{}, fmt.Errorf("scan %s: %w", ProcMemInfo, err)
	}

	required := func(key string) (float64, error) {
		v, ok := vals[key]
		if !ok {
			return 0, fmt.Errorf("%w: %s not found in %s", ErrMissingField, key, ProcMemInfo)
		}
		return v, nil
	}
	total, err := required("MemTotal")
	if err != nil {
		return model.MemoryUsage{}, err
	}
	available, err := required("MemAvailable")
	if err != nil {
		return model.MemoryUsage{}, err
	}
	free, err := required("MemFree")
	if err != nil {
		return model.MemoryUsage{}, err
	}
	shared, err := required("Shmem")
	if err != nil {
		return model.MemoryUsage{}, err
	}
	buffCache := vals["Buffers"] + vals["Cached"]

	percentage := 0.0
	if total > 0 {
		percentage = (total - available) / total * 100
	}

	return model.MemoryUsage{
		Total:      kibToGB(total),
		Used:       kibToGB(total - available),
		Free:       kibToGB(free),
		Shared:     kibToGB(shared),
		BuffCache:  kibToGB(buffCache),
		Available:  kibToGB(available),
		Percentage: math.Round(percentage*10) / 10,
	}, nil
}

func kibToGB(kib float64) string {
	return fmt.Sprintf("%.2f GB", kib/kibPerGiB)
}
