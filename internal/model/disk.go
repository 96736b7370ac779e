package model

// DiskUsage describes filesystem usage of the monitored root mount.
type DiskUsage struct {
	Filesystem string `json:"filesystem"`
	Size       string `json:"size"`
	Used       string `json:"used"`
	Avail      string `json:"avail"`
	UsePerc    string `json:"use_perc"`
	Mount      string `json:"mount"`
	Total      string `json:"total"`
	Percentage uint32 `json:"percentage"`
}

// DiskIORate is the per-device rate derived from two disk counter samples.
type DiskIORate struct {
	Device               string  `json:"device"`
	ReadIOPS             float64 `json:"read_iops"`
	WriteIOPS            float64 `json:"write_iops"`
	ReadMBS              float64 `json:"read_mb_s"`
	WriteMBS             float64 `json:"write_mb_s"`
	Utilization          float64 `json:"utilization"`
	TotalReadsCompleted  uint64  `json:"total_reads_completed"`
	TotalSectorsRead     uint64  `json:"total_sectors_read"`
	TotalWritesCompleted uint64  `json:"total_writes_completed"`
	TotalSectorsWritten  uint64  `json:"total_sectors_written"`
	TotalTimeSpentIO     uint64  `json:"total_time_spent_io"`
}
