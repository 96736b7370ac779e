package agent

import (
	"sync/atomic"
	"time"

	"hostwatch-agent/internal/stream"
)

type feedStats interface {
	Subscribers() []stream.Subscriber
	LastSnapshot() time.Time
}

type HealthStatus struct {
	version          string
	libvirtEnabled   bool
	serving          atomic.Bool
	libvirtConnected atomic.Bool
	lastSnapshotAt   atomic.Int64
	lastProbeErrors  atomic.Int64
	snapshots        atomic.Uint64
	feed             feedStats
}

func NewHealthStatus(version string, libvirtEnabled bool) *HealthStatus {
	return &HealthStatus{version: version, libvirtEnabled: libvirtEnabled}
}

func (h *HealthStatus) SetServing(ok bool) {
	h.serving.Store(ok)
}

func (h *HealthStatus) SetLibvirtConnected(ok bool) {
	h.libvirtConnected.Store(ok)
}

func (h *HealthStatus) MarkSnapshot(ts time.Time, probeErrors int) {
	h.lastSnapshotAt.Store(ts.UnixNano())
	h.lastProbeErrors.Store(int64(probeErrors))
	h.snapshots.Add(1)
}

// Healthy reports whether the agent is serving and, when libvirt is
// configured, connected to it. Failing host probes do not count.
func (h *HealthStatus) Healthy() bool {
	if !h.serving.Load() {
		return false
	}
	return !h.libvirtEnabled || h.libvirtConnected.Load()
}

func (h *HealthStatus) Snapshot() map[string]any {
	out := map[string]any{
		"healthy":         h.Healthy(),
		"version":         h.version,
		"serving":         h.serving.Load(),
		"libvirt_enabled": h.libvirtEnabled,
		"snapshots_built": h.snapshots.Load(),
	}
	if h.libvirtEnabled {
		out["libvirt_connected"] = h.libvirtConnected.Load()
	}
	if h.feed != nil {
		subs := h.feed.Subscribers()
		byTransport := make(map[string]int, len(subs))
		for _, s := range subs {
			byTransport[s.Transport]++
		}
		out["subscribers"] = len(subs)
		out["subscribers_by_transport"] = byTransport
		if ts := h.feed.LastSnapshot(); !ts.IsZero() {
			out["last_delivered_at"] = ts
		}
	}
	if v := h.lastSnapshotAt.Load(); v > 0 {
		out["last_snapshot_at"] = time.Unix(0, v).UTC()
		out["last_probe_errors"] = h.lastProbeErrors.Load()
	}
	return out
}
