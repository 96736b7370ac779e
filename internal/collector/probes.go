package collector

import (
	"context"
	"time"

	"hostwatch-agent/internal/delta"
	"hostwatch-agent/internal/model"
	"hostwatch-agent/internal/system"
)

// Probe names as they appear in snapshot error strings.
const (
	ProbeDisk             = "disk"
	ProbeRAM              = "ram"
	ProbeCPU              = "cpu"
	ProbeSensors          = "sensors"
	ProbeTailscale        = "tailscale"
	ProbeNetwork          = "network"
	ProbeLoadAvg          = "load_avg"
	ProbeTailscaleMetrics = "tailscale_metrics"
	ProbeNetDevInfo       = "net_dev_info"
	ProbeTCPConnections   = "tcp_connections"
	ProbeUptimeInfo       = "uptime_info"
	ProbeServices         = "services"
	ProbeCgroupData       = "cgroup_data"
	ProbeDiskIO           = "disk_io"
	ProbeVirtDomains      = "virt_domains"
)

type HostOptions struct {
	Source            system.Source
	Window            *delta.Window
	RootPath          string
	SensorsChip       string
	CPUSampleDelay    time.Duration
	DiskIOMinInterval time.Duration
}

// HostProbes returns the standard host probe set in snapshot field order.
func HostProbes(opts HostOptions) []Probe {
	src := opts.Source
	if src == nil {
		src = system.OSSource{}
	}
	window := opts.Window
	if window == nil {
		window = delta.NewWindow(nil)
	}
	cpuDelay := opts.CPUSampleDelay
	if cpuDelay <= 0 {
		cpuDelay = system.DefaultCPUSampleDelay
	}
	minInterval := opts.DiskIOMinInterval
	if minInterval <= 0 {
		minInterval = delta.DefaultMinInterval
	}

	return []Probe{
		NewProbe(ProbeDisk,
			func(ctx context.Context) (model.DiskUsage, error) {
				return system.ReadDiskUsage(ctx, opts.RootPath)
			},
			func(s *model.HealthSnapshot, v model.DiskUsage) { s.DiskInfo = v }),
		NewProbe(ProbeRAM,
			func(ctx context.Context) (model.MemoryUsage, error) {
				return system.ReadMemoryUsage(ctx, src)
			},
			func(s *model.HealthSnapshot, v model.MemoryUsage) { s.RAMInfo = v }),
		NewProbe(ProbeCPU,
			func(ctx context.Context) ([]model.CPUUsage, error) {
				return system.SampleCPUUsage(ctx, src, cpuDelay)
			},
			func(s *model.HealthSnapshot, v []model.CPUUsage) { s.CPUUsages = v }),
		NewProbe(ProbeSensors,
			func(ctx context.Context) ([]model.SensorReading, error) {
				return system.ReadSensors(ctx, src, opts.SensorsChip)
			},
			func(s *model.HealthSnapshot, v []model.SensorReading) { s.SensorData = v }),
		NewProbe(ProbeTailscale,
			func(ctx context.Context) ([]model.TailscalePeer, error) {
				return system.ReadTailscalePeers(ctx, src)
			},
			func(s *model.HealthSnapshot, v []model.TailscalePeer) { s.TailscalePeers = v }),
		NewProbe(ProbeNetwork,
			func(ctx context.Context) ([]model.NetworkInterface, error) {
				return system.ReadNetworkInterfaces(ctx, src)
			},
			func(s *model.HealthSnapshot, v []model.NetworkInterface) { s.NetworkInfo = v }),
		NewProbe(ProbeLoadAvg,
			func(ctx context.Context) (model.LoadAvg, error) {
				return system.ReadLoadAvg(ctx, src)
			},
			func(s *model.HealthSnapshot, v model.LoadAvg) { s.LoadAvg = v }),
		NewProbe(ProbeTailscaleMetrics,
			func(ctx context.Context) (model.TailscaleTraffic, error) {
				return system.ReadTailscaleTraffic(ctx, src)
			},
			func(s *model.HealthSnapshot, v model.TailscaleTraffic) { s.TailscaleMetrics = v }),
		NewProbe(ProbeNetDevInfo,
			func(ctx context.Context) ([]model.InterfaceCounters, error) {
				return system.ReadInterfaceCounters(ctx, src)
			},
			func(s *model.HealthSnapshot, v []model.InterfaceCounters) { s.NetDevInfo = v }),
		NewProbe(ProbeTCPConnections,
			func(ctx context.Context) ([]model.TCPConnection, error) {
				return system.ReadTCPConnections(ctx, src)
			},
			func(s *model.HealthSnapshot, v []model.TCPConnection) { s.TCPConnections = v }),
		NewProbe(ProbeUptimeInfo,
			func(ctx context.Context) (model.Uptime, error) {
				return system.ReadUptime(ctx, src)
			},
			func(s *model.HealthSnapshot, v model.Uptime) { s.UptimeInfo = v }),
		NewProbe(ProbeServices,
			func(ctx context.Context) ([]model.Service, error) {
				return system.ReadServices(ctx, src)
			},
			func(s *model.HealthSnapshot, v []model.Service) { s.Services = v }),
		NewProbe(ProbeCgroupData,
			func(ctx context.Context) ([]model.CgroupRow, error) {
				return system.ReadCgroups(ctx, src)
			},
			func(s *model.HealthSnapshot, v []model.CgroupRow) { s.CgroupData = v }),
		NewProbe(ProbeDiskIO,
			func(ctx context.Context) ([]model.DiskIORate, error) {
				counters, err := system.ReadDiskStats(ctx, src)
				if err != nil {
					return nil, err
				}
				at := window.Now()
				return window.SampleDisk(delta.FamilyDiskIO, counters, at, minInterval), nil
			},
			func(s *model.HealthSnapshot, v []model.DiskIORate) { s.DiskIOInfo = v }),
	}
}

// DomainLister is satisfied by the libvirt domain lister.
type DomainLister interface {
	ListDomains(ctx context.Context) ([]model.VirtualDomain, error)
}

// VirtDomainsProbe reports the hypervisor's domains. It is only registered
// when a libvirt URI is configured.
func VirtDomainsProbe(lister DomainLister) Probe {
	return NewProbe(ProbeVirtDomains, lister.ListDomains,
		func(s *model.HealthSnapshot, v []model.VirtualDomain) { s.VirtDomains = v })
}
