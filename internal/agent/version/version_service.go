package version

import (
	"runtime"
	"time"

	"hostwatch-agent/internal/config"
)

func Get(cfg config.Config) Info {
	v := cfg.AgentVersion
	if v == "" {
		v = config.HardcodedVersion
	}
	return Info{
		AgentVersion:    v,
		GoVersion:       runtime.Version(),
		ListenAddr:      cfg.ListenAddr,
		GRPCListenAddr:  cfg.GRPCListenAddr,
		ProbeListenAddr: cfg.ProbeListenAddr,
		CheckedAt:       time.Now().UTC(),
	}
}
