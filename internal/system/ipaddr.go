package system

import (
	"context"
	"encoding/json"
	"fmt"

	"hostwatch-agent/internal/model"
)

const noIPv4 = "No IPv4"

type ipAddrInfo struct {
	IfIndex   uint32         `json:"ifindex"`
	IfName    *string        `json:"ifname"`
	Flags     []string       `json:"flags"`
	MTU       uint32         `json:"mtu"`
	OperState *string        `json:"operstate"`
	LinkType  string         `json:"link_type"`
	Address   string         `json:"address"`
	AddrInfo  []ipAddrDetail `json:"addr_info"`
}

type ipAddrDetail struct {
	Family    *string `json:"family"`
	Local     *string `json:"local"`
	PrefixLen uint32  `json:"prefixlen"`
	Scope     string  `json:"scope"`
	Label     string  `json:"label"`
}

func ReadNetworkInterfaces(ctx context.Context, src Source) ([]model.NetworkInterface, error) {
	raw, err := src.Run(ctx, "ip", "-j", "addr")
	if err != nil {
		return nil, err
	}
	return ParseIPAddr(raw)
}

// ParseIPAddr reports every interface that is not DOWN and not loopback with
// its first IPv4 address.
func ParseIPAddr(raw []byte) ([]model.NetworkInterface, error) {
	var addrs []ipAddrInfo
	if err := json.Unmarshal(raw, &addrs); err != nil {
		return nil, fmt.Errorf("decode ip addr output: %w", err)
	}

	out := []model.NetworkInterface{}
	for i, iface := range addrs {
		if iface.IfName == nil || iface.OperState == nil || iface.AddrInfo == nil {
			return nil, fmt.Errorf("%w: interface %d needs ifname, operstate and addr_info", ErrMissingField, i)
		}
		for _, a := range iface.AddrInfo {
			if a.Family == nil || a.Local == nil {
				return nil, fmt.Errorf("%w: addr_info of %s needs family and local", ErrMissingField, *iface.IfName)
			}
		}
		if *iface.OperState == "DOWN" || *iface.IfName == "lo" {
			continue
		}

		ip := noIPv4
		for _, a := range iface.AddrInfo {
			if *a.Family == "inet" {
				ip = *a.Local
				break
			}
		}
		out = append(out, model.NetworkInterface{
			Name:  *iface.IfName,
			IP:    ip,
			State: *iface.OperState,
		})
	}
	return out, nil
}
