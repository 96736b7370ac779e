package model

// VirtualDomain is a libvirt guest visible on this host.
type VirtualDomain struct {
	ID          int32  `json:"id"`
	UUID        string `json:"uuid"`
	Name        string `json:"name"`
	State       string `json:"state"`
	VCPUCount   uint16 `json:"vcpu_count"`
	MemoryBytes uint64 `json:"memory_bytes"`
	MaxMemBytes uint64 `json:"max_mem_bytes"`
	CPUTimeNs   uint64 `json:"cpu_time_ns"`
}
