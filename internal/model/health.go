package model

import "time"

// HealthSnapshot is one complete aggregate of every probe at a single capture instant.
// A snapshot is always serializable: failed probes leave their field at the
// zero value and contribute one entry to Errors.
type HealthSnapshot struct {
	DiskInfo         DiskUsage           `json:"disk_info"`
	RAMInfo          MemoryUsage         `json:"ram_info"`
	CPUUsages        []CPUUsage          `json:"cpu_usages"`
	Errors           []string            `json:"errors"`
	SensorData       []SensorReading     `json:"sensor_data"`
	TailscalePeers   []TailscalePeer     `json:"tailscale_peers"`
	NetworkInfo      []NetworkInterface  `json:"network_info"`
	LoadAvg          LoadAvg             `json:"load_avg"`
	TailscaleMetrics TailscaleTraffic    `json:"tailscale_metrics"`
	NetDevInfo       []InterfaceCounters `json:"net_dev_info"`
	TCPConnections   []TCPConnection     `json:"tcp_connections"`
	UptimeInfo       Uptime              `json:"uptime_info"`
	Services         []Service           `json:"services"`
	CgroupData       []CgroupRow         `json:"cgroup_data"`
	DiskIOInfo       []DiskIORate        `json:"disk_io_info"`
	VirtDomains      []VirtualDomain     `json:"virt_domains,omitempty"`
	Timestamp        time.Time           `json:"timestamp"`
}

// Normalize replaces nil list fields with empty slices so they encode as [] instead of null.
func (s *HealthSnapshot) Normalize() {
	if s.CPUUsages == nil {
		s.CPUUsages = []CPUUsage{}
	}
	if s.Errors == nil {
		s.Errors = []string{}
	}
	if s.SensorData == nil {
		s.SensorData = []SensorReading{}
	}
	if s.TailscalePeers == nil {
		s.TailscalePeers = []TailscalePeer{}
	}
	if s.NetworkInfo == nil {
		s.NetworkInfo = []NetworkInterface{}
	}
	if s.NetDevInfo == nil {
		s.NetDevInfo = []InterfaceCounters{}
	}
	if s.TCPConnections == nil {
		s.TCPConnections = []TCPConnection{}
	}
	if s.Services == nil {
		s.Services = []Service{}
	}
	if s.CgroupData == nil {
		s.CgroupData = []CgroupRow{}
	}
	if s.DiskIOInfo == nil {
		s.DiskIOInfo = []DiskIORate{}
	}
}
