package system

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"hostwatch-agent/internal/model"
)

func ReadServices(ctx context.Context, src Source) ([]model.Service, error) {
	raw, err := src.Run(ctx, "systemctl", "list-units", "--type=service", "--state=running", "--no-pager", "--plain", "--no-legend")
	if err != nil {
		return nil, err
	}
	return ParseServices(raw)
}

// ParseServices keeps rows whose first column is a .service unit. Columns are
// unit, load, active, sub, description...
func ParseServices(raw []byte) ([]model.Service, error) {
	out := []model.Service{}
	s := bufio.NewScanner(bytes.NewReader(raw))
	for s.Scan() {
		parts := strings.Fields(s.Text())
		if len(parts) < 4 || !strings.HasSuffix(parts[0], ".service") {
			continue
		}
		out = append(out, model.Service{
			Unit:        parts[0],
			Description: strings.Join(parts[4:], " "),
		})
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scan systemctl output: %w", err)
	}
	return out, nil
}

func ReadCgroups(ctx context.Context, src Source) ([]model.CgroupRow, error) {
	raw, err := src.Run(ctx, "systemd-cgtop", "-b", "-n", "1", "--order=memory")
	if err != nil {
		return nil, err
	}
	return ParseCgroups(raw)
}

// ParseCgroups parses one batch iteration of systemd-cgtop. Rows with neither
// a CPU nor a memory figure are dropped. Output is sorted by path.
func ParseCgroups(raw []byte) ([]model.CgroupRow, error) {
	out := []model.CgroupRow{}
	s := bufio.NewScanner(bytes.NewReader(raw))
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	header := true
	for s.Scan() {
		if header {
			header = false
			continue
		}
		parts := strings.Fields(s.Text())
		if len(parts) < 4 {
			continue
		}
		if parts[2] == "-" && parts[3] == "-" {
			continue
		}
		out = append(out, model.CgroupRow{
			Path:   parts[0],
			Tasks:  parts[1],
			CPU:    parts[2],
			Memory: parts[3],
		})
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scan systemd-cgtop output: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Path < out[j].Path
	})
	return out, nil
}
