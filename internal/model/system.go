package model

type LoadAvg struct {
	OneMin           float64 `json:"one_min"`
	FiveMin          float64 `json:"five_min"`
	FifteenMin       float64 `json:"fifteen_min"`
	RunnableEntities uint32  `json:"runnable_entities"`
	TotalProcesses   uint32  `json:"total_processes"`
}

type Uptime struct {
	TotalUptimeSeconds float64 `json:"total_uptime_seconds"`
	IdleTimeSeconds    float64 `json:"idle_time_seconds"`
	FormattedUptime    string  `json:"formatted_uptime"`
}

// Service is one running unit reported by the service manager.
type Service struct {
	Unit        string `json:"unit"`
	Description string `json:"description"`
}

// CgroupRow is one control group line from the resource table. Values are kept
// as the tool prints them ("-", "472M", ...).
type CgroupRow struct {
	Path   string `json:"path"`
	Tasks  string `json:"tasks"`
	CPU    string `json:"cpu"`
	Memory string `json:"memory"`
}
