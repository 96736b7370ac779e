package system

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"hostwatch-agent/internal/model"
)

const netDevMinFields = 10

func ReadInterfaceCounters(ctx context.Context, src Source) ([]model.InterfaceCounters, error) {
	raw, err := src.ReadFile(ctx, ProcNetDev)
	if err != nil {
		return nil, err
	}
	return ParseNetDev(raw)
}

// ParseNetDev parses /proc/net/dev. The two header lines are skipped; the
// interface name is split on ':' so wide counters glued to the name still parse.
func ParseNetDev(raw []byte) ([]model.InterfaceCounters, error) {
	out := []model.InterfaceCounters{}
	s := bufio.NewScanner(bytes.NewReader(raw))
	lineNo := 0
	for s.Scan() {
		lineNo++
		if lineNo <= 2 {
			continue
		}
		name, rest, ok := strings.Cut(s.Text(), ":")
		if !ok {
			continue
		}
		iface := strings.TrimSpace(name)
		metrics := strings.Fields(rest)
		if iface == "" || len(metrics) < netDevMinFields {
			continue
		}

		var c model.InterfaceCounters
		c.Interface = iface
		columns := []struct {
			idx   int
			label string
			dst   *uint64
		}{
			{0, "rx_bytes", &c.RxBytes},
			{1, "rx_packets", &c.RxPackets},
			{8, "tx_bytes", &c.TxBytes},
			{9, "tx_packets", &c.TxPackets},
		}
		for _, col := range columns {
			v, err := strconv.ParseUint(metrics[col.idx], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parse %s for %s: %w", col.label, iface, err)
			}
			*col.dst = v
		}
		out = append(out, c)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", ProcNetDev, err)
	}
	return out, nil
}
