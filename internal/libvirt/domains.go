package libvirt

import (
	"context"
	"fmt"
	"sort"

	golibvirt "github.com/digitalocean/go-libvirt"
	"github.com/google/uuid"

	"hostwatch-agent/internal/model"
)

// domainClient is the slice of the libvirt RPC API the inventory needs.
type domainClient interface {
	ConnectListAllDomains(NeedResults int32, Flags golibvirt.ConnectListAllDomainsFlags) ([]golibvirt.Domain, uint32, error)
	DomainGetInfo(Dom golibvirt.Domain) (uint8, uint64, uint64, uint16, uint64, error)
}

type DomainLister struct {
	conn *ConnManager
}

func NewDomainLister(conn *ConnManager) *DomainLister {
	return &DomainLister{conn: conn}
}

// ListDomains returns every defined domain, running or not, sorted by name.
func (l *DomainLister) ListDomains(ctx context.Context) ([]model.VirtualDomain, error) {
	client, err := l.conn.Client(ctx)
	if err != nil {
		return nil, err
	}
	return listDomains(client)
}

func listDomains(c domainClient) ([]model.VirtualDomain, error) {
	doms, _, err := c.ConnectListAllDomains(1, 0)
	if err != nil {
		return nil, fmt.Errorf("ConnectListAllDomains: %w", err)
	}

	out := make([]model.VirtualDomain, 0, len(doms))
	for _, d := range doms {
		state, maxMemKiB, memKiB, vcpus, cpuNs, err := c.DomainGetInfo(d)
		if err != nil {
			return nil, fmt.Errorf("DomainGetInfo %s: %w", d.Name, err)
		}
		out = append(out, model.VirtualDomain{
			ID:          d.ID,
			UUID:        uuid.UUID(d.UUID).String(),
			Name:        d.Name,
			State:       domainStateString(state),
			VCPUCount:   vcpus,
			MemoryBytes: memKiB * 1024,
			MaxMemBytes: maxMemKiB * 1024,
			CPUTimeNs:   cpuNs,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func domainStateString(v uint8) string {
	switch golibvirt.DomainState(v) {
	case golibvirt.DomainNostate:
		return "nostate"
	case golibvirt.DomainRunning:
		return "running"
	case golibvirt.DomainBlocked:
		return "blocked"
	case golibvirt.DomainPaused:
		return "paused"
	case golibvirt.DomainShutdown:
		return "shutdown"
	case golibvirt.DomainShutoff:
		return "shutoff"
	case golibvirt.DomainCrashed:
		return "crashed"
	case golibvirt.DomainPmsuspended:
		return "pmsuspended"
	default:
		return "unknown"
	}
}
