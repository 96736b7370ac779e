package system

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"hostwatch-agent/internal/model"
)

func ReadUptime(ctx context.Context, src Source) (model.Uptime, error) {
	raw, err := src.ReadFile(ctx, ProcUptime)
	if err != nil {
		return model.Uptime{}, err
	}
	return ParseUptime(string(raw))
}

func ParseUptime(raw string) (model.Uptime, error) {
	parts := strings.Fields(raw)
	if len(parts) < 2 {
		return model.Uptime{}, fmt.Errorf("malformed %s output", ProcUptime)
	}
	total, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return model.Uptime{}, fmt.Errorf("parse total_uptime_seconds: %w", err)
	}
	idle, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return model.Uptime{}, fmt.Errorf("parse idle_time_seconds: %w", err)
	}

	days := math.Floor(total / 86400)
	hours := math.Floor(math.Mod(total, 86400) / 3600)
	minutes := math.Floor(math.Mod(total, 3600) / 60)

	return model.Uptime{
		TotalUptimeSeconds: total,
		IdleTimeSeconds:    idle,
		FormattedUptime:    fmt.Sprintf("%.0fd %.0fh %.0fm", days, hours, minutes),
	}, nil
}
