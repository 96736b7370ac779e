package system

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"hostwatch-agent/internal/model"
)

const (
	tailscaleOutboundMetric = "tailscaled_outbound_bytes_total"
	tailscaleInboundMetric  = "tailscaled_inbound_bytes_total"
	bytesPerMB              = 1024.0 * 1024.0
)

// StringOrList is a JSON value that is either a single string or a list of
// strings. Tailscale emits PeerAPIURL in both shapes depending on version.
type StringOrList struct {
	isList bool
	single string
	list   []string
}

func (v *StringOrList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return errors.New("empty string-or-list value")
	}
	switch trimmed[0] {
	case '"':
		v.isList = false
		v.list = nil
		return json.Unmarshal(trimmed, &v.single)
	case '[':
		v.isList = true
		v.single = ""
		return json.Unmarshal(trimmed, &v.list)
	default:
		return fmt.Errorf("expected string or list, got %s", trimmed)
	}
}

func (v StringOrList) IsList() bool {
	return v.isList
}

// Values always yields a list.
func (v StringOrList) Values() []string {
	if v.isList {
		return append([]string(nil), v.list...)
	}
	return []string{v.single}
}

type TailscaleNode struct {
	ID           string        `json:"ID"`
	PublicKey    string        `json:"PublicKey"`
	HostName     *string       `json:"HostName"`
	DNSName      string        `json:"DNSName"`
	OS           string        `json:"OS"`
	UserID       uint64        `json:"UserID"`
	TailscaleIPs []string      `json:"TailscaleIPs"`
	AllowedIPs   []string      `json:"AllowedIPs"`
	Addrs        []string      `json:"Addrs"`
	PeerAPIURL   *StringOrList `json:"PeerAPIURL"`
	Relay        string        `json:"Relay"`
	RxBytes      uint64        `json:"RxBytes"`
	TxBytes      uint64        `json:"TxBytes"`
	LastSeen     string        `json:"LastSeen"`
	Online       *bool         `json:"Online"`
	ExitNode     bool          `json:"ExitNode"`
	Active       bool          `json:"Active"`
	KeyExpiry    string        `json:"KeyExpiry"`
}

type TailscaleTailnet struct {
	Name            string `json:"Name"`
	MagicDNSSuffix  string `json:"MagicDNSSuffix"`
	MagicDNSEnabled bool   `json:"MagicDNSEnabled"`
}

type TailscaleUser struct {
	ID          uint64 `json:"ID"`
	LoginName   string `json:"LoginName"`
	DisplayName string `json:"DisplayName"`
}

// TailscaleStatus is the subset of `tailscale status --json` used here.
type TailscaleStatus struct {
	Version        string                   `json:"Version"`
	BackendState   *string                  `json:"BackendState"`
	TailscaleIPs   []string                 `json:"TailscaleIPs"`
	Self           *TailscaleNode           `json:"Self"`
	MagicDNSSuffix string                   `json:"MagicDNSSuffix"`
	CurrentTailnet *TailscaleTailnet        `json:"CurrentTailnet"`
	Peer           map[string]TailscaleNode `json:"Peer"`
	User           map[string]TailscaleUser `json:"User"`
}

func ReadTailscalePeers(ctx context.Context, src Source) ([]model.TailscalePeer, error) {
	raw, err := src.Run(ctx, "tailscale", "status", "--json")
	if err != nil {
		return nil, err
	}
	status, err := ParseTailscaleStatus(raw)
	if err != nil {
		return nil, err
	}
	return status.Peers(), nil
}

func ParseTailscaleStatus(raw []byte) (TailscaleStatus, error) {
	var status TailscaleStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return TailscaleStatus{}, fmt.Errorf("decode tailscale status: %w", err)
	}
	if status.BackendState == nil {
		return TailscaleStatus{}, fmt.Errorf("%w: BackendState", ErrMissingField)
	}
	if status.Self == nil {
		return TailscaleStatus{}, fmt.Errorf("%w: Self", ErrMissingField)
	}
	for key, peer := range status.Peer {
		if peer.HostName == nil {
			return TailscaleStatus{}, fmt.Errorf("%w: Peer[%s].HostName", ErrMissingField, key)
		}
		if peer.Online == nil {
			return TailscaleStatus{}, fmt.Errorf("%w: Peer[%s].Online", ErrMissingField, key)
		}
	}
	return status, nil
}

// Peers flattens the peer map, ordered by host name then IP.
func (s TailscaleStatus) Peers() []model.TailscalePeer {
	out := make([]model.TailscalePeer, 0, len(s.Peer))
	for _, p := range s.Peer {
		peer := model.TailscalePeer{OS: p.OS}
		if p.HostName != nil {
			peer.Name = *p.HostName
		}
		if len(p.TailscaleIPs) > 0 {
			peer.IP = p.TailscaleIPs[0]
		}
		peer.Online = p.Online != nil && *p.Online
		peer.Status = "Offline"
		if peer.Online {
			peer.Status = "Online"
		}
		out = append(out, peer)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].IP < out[j].IP
	})
	return out
}

func ReadTailscaleTraffic(ctx context.Context, src Source) (model.TailscaleTraffic, error) {
	raw, err := src.Run(ctx, "tailscale", "metrics")
	if err != nil {
		return model.TailscaleTraffic{}, err
	}
	return ParseTailscaleMetrics(raw)
}

// ParseTailscaleMetrics sums the daemon byte counters (all label sets) and
// reports them in MB rounded to two decimals.
func ParseTailscaleMetrics(raw []byte) (model.TailscaleTraffic, error) {
	var tx, rx float64
	s := bufio.NewScanner(bytes.NewReader(raw))
	for s.Scan() {
		line := s.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		v, err := strconv.ParseFloat(fields[len(fields)-1], 64)
		if err != nil {
			continue
		}
		switch {
		case strings.HasPrefix(line, tailscaleOutboundMetric):
			tx += v
		case strings.HasPrefix(line, tailscaleInboundMetric):
			rx += v
		}
	}
	if err := s.Err(); err != nil {
		return model.TailscaleTraffic{}, fmt.Errorf("scan tailscale metrics: %w", err)
	}
	return model.TailscaleTraffic{
		TotalTx: bytesToMB(tx),
		TotalRx: bytesToMB(rx),
	}, nil
}

func bytesToMB(b float64) float64 {
	return math.Round(b/bytesPerMB*100) / 100
}
