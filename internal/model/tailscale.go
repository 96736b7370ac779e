package model

type TailscalePeer struct {
	IP     string `json:"ip"`
	Name   string `json:"name"`
	OS     string `json:"os"`
	Status string `json:"status"`
	Online bool   `json:"online"`
}

// TailscaleTraffic holds the mesh-VPN byte totals in MB.
type TailscaleTraffic struct {
	TotalTx float64 `json:"total_tx"`
	TotalRx float64 `json:"total_rx"`
}
