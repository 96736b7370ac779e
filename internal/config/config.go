package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPath       = "/etc/hostwatch/agent.yaml"
	HardcodedVersion  = "v0.3.0"
	defaultListenAddr = "0.0.0.0:8000"
	maxJournalLines   = 10000
)

type Config struct {
	ListenAddr        string        `yaml:"listen_addr"`
	GRPCListenAddr    string        `yaml:"grpc_listen_addr"`
	ProbeListenAddr   string        `yaml:"probe_listen_addr"`
	PublishInterval   time.Duration `yaml:"publish_interval"`
	DiskIOMinInterval time.Duration `yaml:"disk_io_min_interval"`
	CPUSampleDelay    time.Duration `yaml:"cpu_sample_delay"`
	ProbeConcurrency  int           `yaml:"probe_concurrency"`
	RootPath          string        `yaml:"root_path"`
	SensorsChip       string        `yaml:"sensors_chip"`
	JournalLines      int           `yaml:"journal_lines"`
	LibvirtURI        string        `yaml:"libvirt_uri"`
	HealthInterval    time.Duration `yaml:"health_interval"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	WSWriteTimeout    time.Duration `yaml:"ws_write_timeout"`
	WSPingInterval    time.Duration `yaml:"ws_ping_interval"`
	LogLevel          string        `yaml:"log_level"`
	LogJSON           bool          `yaml:"log_json"`
	AgentVersion      string        `yaml:"-"`
}

func Default() Config {
	return Config{
		ListenAddr:        defaultListenAddr,
		PublishInterval:   2 * time.Second,
		DiskIOMinInterval: 2 * time.Second,
		CPUSampleDelay:    500 * time.Millisecond,
		RootPath:          "/",
		SensorsChip:       "macsmc_hwmon-isa-0000",
		JournalLines:      200,
		HealthInterval:    10 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		WSWriteTimeout:    5 * time.Second,
		WSPingInterval:    15 * time.Second,
		LogLevel:          "info",
		AgentVersion:      HardcodedVersion,
	}
}

// Load layers defaults, the optional YAML file at path and HOSTWATCH_*
// environment overrides, then validates the result. A missing file is not
// an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.AgentVersion = HardcodedVersion

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.ListenAddr = env("HOSTWATCH_LISTEN_ADDR", c.ListenAddr)
	c.GRPCListenAddr = env("HOSTWATCH_GRPC_LISTEN_ADDR", c.GRPCListenAddr)
	c.ProbeListenAddr = env("HOSTWATCH_PROBE_LISTEN_ADDR", c.ProbeListenAddr)
	c.PublishInterval = envDuration("HOSTWATCH_PUBLISH_INTERVAL", c.PublishInterval)
	c.DiskIOMinInterval = envDuration("HOSTWATCH_DISK_IO_MIN_INTERVAL", c.DiskIOMinInterval)
	c.CPUSampleDelay = envDuration("HOSTWATCH_CPU_SAMPLE_DELAY", c.CPUSampleDelay)
	c.ProbeConcurrency = envInt("HOSTWATCH_PROBE_CONCURRENCY", c.ProbeConcurrency)
	c.RootPath = env("HOSTWATCH_ROOT_PATH", c.RootPath)
	c.SensorsChip = env("HOSTWATCH_SENSORS_CHIP", c.SensorsChip)
	c.JournalLines = envInt("HOSTWATCH_JOURNAL_LINES", c.JournalLines)
	c.LibvirtURI = env("HOSTWATCH_LIBVIRT_URI", c.LibvirtURI)
	c.HealthInterval = envDuration("HOSTWATCH_HEALTH_INTERVAL", c.HealthInterval)
	c.ShutdownTimeout = envDuration("HOSTWATCH_SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	c.WSWriteTimeout = envDuration("HOSTWATCH_WS_WRITE_TIMEOUT", c.WSWriteTimeout)
	c.WSPingInterval = envDuration("HOSTWATCH_WS_PING_INTERVAL", c.WSPingInterval)
	c.LogLevel = env("HOSTWATCH_LOG_LEVEL", c.LogLevel)
	c.LogJSON = envBool("HOSTWATCH_LOG_JSON", c.LogJSON)
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return errors.New("HOSTWATCH_LISTEN_ADDR is required")
	}
	for name, addr := range map[string]string{
		"HOSTWATCH_LISTEN_ADDR":       c.ListenAddr,
		"HOSTWATCH_GRPC_LISTEN_ADDR":  c.GRPCListenAddr,
		"HOSTWATCH_PROBE_LISTEN_ADDR": c.ProbeListenAddr,
	} {
		if addr == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.PublishInterval <= 0 {
		return errors.New("HOSTWATCH_PUBLISH_INTERVAL must be > 0")
	}
	if c.DiskIOMinInterval <= 0 {
		return errors.New("HOSTWATCH_DISK_IO_MIN_INTERVAL must be > 0")
	}
	if c.CPUSampleDelay <= 0 {
		return errors.New("HOSTWATCH_CPU_SAMPLE_DELAY must be > 0")
	}
	if c.ProbeConcurrency < 0 {
		return errors.New("HOSTWATCH_PROBE_CONCURRENCY must be >= 0")
	}
	if c.JournalLines < 1 || c.JournalLines > maxJournalLines {
		return fmt.Errorf("HOSTWATCH_JOURNAL_LINES must be between 1 and %d", maxJournalLines)
	}
	if c.HealthInterval <= 0 {
		return errors.New("HOSTWATCH_HEALTH_INTERVAL must be > 0")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("HOSTWATCH_SHUTDOWN_TIMEOUT must be > 0")
	}
	if c.WSWriteTimeout <= 0 || c.WSPingInterval <= 0 {
		return errors.New("websocket timeouts must be > 0")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level %q", c.LogLevel)
	}
	return nil
}

func env(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return fallback
	}
	switch v {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
