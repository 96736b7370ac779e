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

func ReadTCPConnections(ctx context.Context, src Source) ([]model.TCPConnection, error) {
	raw, err := src.Run(ctx, "ss", "-t", "-n")
	if err != nil {
		return nil, err
	}
	return ParseTCPConnections(raw)
}

// ParseTCPConnections parses `ss -t -n` output, skipping the header row.
func ParseTCPConnections(raw []byte) ([]model.TCPConnection, error) {
	out := []model.TCPConnection{}
	s := bufio.NewScanner(bytes.NewReader(raw))
	header := true
	for s.Scan() {
		if header {
			header = false
			continue
		}
		parts := strings.Fields(s.Text())
		if len(parts) < 5 {
			continue
		}
		recvQ, err := strconv.ParseUint(parts[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parse recv_q: %w", err)
		}
		sendQ, err := strconv.ParseUint(parts[2], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parse send_q: %w", err)
		}
		out = append(out, model.TCPConnection{
			State:        parts[0],
			RecvQ:        uint32(recvQ),
			SendQ:        uint32(sendQ),
			LocalAddress: parts[3],
			PeerAddress:  parts[4],
		})
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scan ss output: %w", err)
	}
	return out, nil
}
