package system

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"hostwatch-agent/internal/model"
)

func ReadLoadAvg(ctx context.Context, src Source) (model.LoadAvg, error) {
	raw, err := src.ReadFile(ctx, ProcLoadAvg)
	if err != nil {
		return model.LoadAvg{}, err
	}
	return ParseLoadAvg(string(raw))
}

// ParseLoadAvg parses a line such as "0.13 0.50 0.36 1/217 688199".
func ParseLoadAvg(raw string) (model.LoadAvg, error) {
	parts := strings.Fields(raw)
	if len(parts) < 5 {
		return model.LoadAvg{}, fmt.Errorf("malformed %s output", ProcLoadAvg)
	}

	var out model.LoadAvg
	loads := []struct {
		label string
		dst   *float64
	}{
		{"one_min", &out.OneMin},
		{"five_min", &out.FiveMin},
		{"fifteen_min", &out.FifteenMin},
	}
	for i, l := range loads {
		v, err := strconv.ParseFloat(parts[i], 64)
		if err != nil {
			return model.LoadAvg{}, fmt.Errorf("parse %s loadavg: %w", l.label, err)
		}
		*l.dst = v
	}

	runnable, total, ok := strings.Cut(parts[3], "/")
	if !ok {
		return model.LoadAvg{}, fmt.Errorf("parse runnable/total: %w: %q", ErrMissingField, parts[3])
	}
	r, err := strconv.ParseUint(runnable, 10, 32)
	if err != nil {
		return model.LoadAvg{}, fmt.Errorf("parse runnable entities: %w", err)
	}
	t, err := strconv.ParseUint(total, 10, 32)
	if err != nil {
		return model.LoadAvg{}, fmt.Errorf("parse total processes: %w", err)
	}
	out.RunnableEntities = uint32(r)
	out.TotalProcesses = uint32(t)
	return out, nil
}
