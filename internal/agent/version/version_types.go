package version

import "time"

type Info struct {
	AgentVersion    string    `json:"agent_version"`
	GoVersion       string    `json:"go_version"`
	ListenAddr      string    `json:"listen_addr"`
	GRPCListenAddr  string    `json:"grpc_listen_addr,omitempty"`
	ProbeListenAddr string    `json:"probe_listen_addr,omitempty"`
	CheckedAt       time.Time `json:"checked_at"`
}
