package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"hostwatch-agent/internal/collector"
	"hostwatch-agent/internal/config"
	"hostwatch-agent/internal/delta"
	"hostwatch-agent/internal/journal"
	"hostwatch-agent/internal/libvirt"
	"hostwatch-agent/internal/model"
	"hostwatch-agent/internal/server"
	"hostwatch-agent/internal/stream"
	"hostwatch-agent/internal/system"
)

type Agent struct {
	cfg        config.Config
	logger     *slog.Logger
	conn       *libvirt.ConnManager
	aggregator *collector.Aggregator
	httpSrv    *http.Server
	grpcSrv    *grpc.Server
	health     *HealthStatus
}

func New(cfg config.Config, logger *slog.Logger) (*Agent, error) {
	var conn *libvirt.ConnManager
	if cfg.LibvirtURI != "" {
		if _, err := libvirt.ParseURI(cfg.LibvirtURI); err != nil {
			return nil, fmt.Errorf("libvirt uri: %w", err)
		}
		conn = libvirt.NewConnManager(cfg.LibvirtURI, logger)
	}

	aggregator := NewAggregator(cfg, logger, conn)
	health := NewHealthStatus(cfg.AgentVersion, conn != nil)
	publisher := stream.NewPublisher(logger, &observedBuilder{builder: aggregator, health: health}, cfg.PublishInterval)
	health.feed = publisher

	logs := journal.NewReader(system.OSSource{}, cfg.JournalLines)
	handler := server.New(logger, publisher, logs, health, server.Options{
		WebSocket: stream.WebSocketOptions{
			WriteTimeout: cfg.WSWriteTimeout,
			PingInterval: cfg.WSPingInterval,
		},
	}).Handler()

	var grpcSrv *grpc.Server
	if cfg.GRPCListenAddr != "" {
		grpcSrv = stream.NewGRPCServer(stream.NewGRPCService(logger, publisher))
	}

	return &Agent{
		cfg:        cfg,
		logger:     logger,
		conn:       conn,
		aggregator: aggregator,
		httpSrv: &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		grpcSrv: grpcSrv,
		health:  health,
	}, nil
}

// NewAggregator assembles the host probe set for cfg, plus the virt_domains
// probe when conn is non-nil.
func NewAggregator(cfg config.Config, logger *slog.Logger, conn *libvirt.ConnManager) *collector.Aggregator {
	probes := collector.HostProbes(collector.HostOptions{
		Source:            system.OSSource{},
		Window:            delta.NewWindow(nil),
		RootPath:          cfg.RootPath,
		SensorsChip:       cfg.SensorsChip,
		CPUSampleDelay:    cfg.CPUSampleDelay,
		DiskIOMinInterval: cfg.DiskIOMinInterval,
	})
	if conn != nil {
		probes = append(probes, collector.VirtDomainsProbe(libvirt.NewDomainLister(conn)))
	}
	return collector.NewAggregator(logger, probes, cfg.ProbeConcurrency)
}

func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("starting hostwatch-agent",
		"version", a.cfg.AgentVersion,
		"listen_addr", a.cfg.ListenAddr,
		"grpc_listen_addr", a.cfg.GRPCListenAddr,
		"libvirt_uri", a.cfg.LibvirtURI,
		"probes", a.aggregator.Probes(),
	)
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- a.run(runCtx)
	}()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case runErr = <-runErrCh:
	case sig := <-sigCh:
		a.logger.Info("shutdown signal received, starting graceful shutdown", "signal", sig.String(), "timeout", a.cfg.ShutdownTimeout)
		cancelRun()

		graceTimer := time.NewTimer(a.cfg.ShutdownTimeout)
		defer graceTimer.Stop()

		select {
		case runErr = <-runErrCh:
		case sig2 := <-sigCh:
			a.logger.Warn("second signal received, forcing immediate shutdown", "signal", sig2.String())
			runErr = context.Canceled
		case <-graceTimer.C:
			a.logger.Warn("graceful shutdown timeout reached, forcing shutdown", "timeout", a.cfg.ShutdownTimeout)
			runErr = context.DeadlineExceeded
		}
	}

	a.shutdown()

	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return runErr
	}
	a.logger.Info("hostwatch-agent stopped")
	return nil
}

func BuildLogger(cfg config.Config) *slog.Logger {
	return BuildLoggerTo(cfg, os.Stdout)
}

// BuildLoggerTo is BuildLogger writing to w. One-shot commands log to
// stderr so stdout carries only their output.
func BuildLoggerTo(cfg config.Config, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	hOpts := &slog.HandlerOptions{Level: level}
	if cfg.LogJSON {
		return slog.New(slog.NewJSONHandler(w, hOpts))
	}
	return slog.New(slog.NewTextHandler(w, hOpts))
}

// observedBuilder records every snapshot the publisher builds in the health
// status.
type observedBuilder struct {
	builder stream.SnapshotBuilder
	health  *HealthStatus
}

func (b *observedBuilder) BuildSnapshot(ctx context.Context) model.HealthSnapshot {
	snap := b.builder.BuildSnapshot(ctx)
	b.health.MarkSnapshot(snap.Timestamp, len(snap.Errors))
	return snap
}
