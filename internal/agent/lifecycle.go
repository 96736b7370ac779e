package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

func (a *Agent) run(ctx context.Context) error {
	if a.conn != nil {
		if err := a.conn.Connect(ctx); err != nil {
			a.logger.Warn("initial libvirt connect failed, virt_domains will report errors until it recovers", "error", err)
		} else {
			a.health.SetLibvirtConnected(true)
		}
	}

	httpLn, err := net.Listen("tcp", a.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen http %s: %w", a.cfg.ListenAddr, err)
	}
	var grpcLn net.Listener
	if a.grpcSrv != nil {
		grpcLn, err = net.Listen("tcp", a.cfg.GRPCListenAddr)
		if err != nil {
			_ = httpLn.Close()
			return fmt.Errorf("listen grpc %s: %w", a.cfg.GRPCListenAddr, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.serveHTTP(gctx, httpLn)
	})
	if grpcLn != nil {
		g.Go(func() error {
			return a.serveGRPC(gctx, grpcLn)
		})
	}
	g.Go(func() error {
		return a.runHealthLoop(gctx)
	})
	if a.cfg.ProbeListenAddr != "" {
		g.Go(func() error {
			return a.runProbeListener(gctx)
		})
	}
	a.health.SetServing(true)

	err = g.Wait()
	a.health.SetServing(false)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// serveHTTP serves until ctx is done. Request contexts derive from ctx so
// long-lived feed handlers end with it.
func (a *Agent) serveHTTP(ctx context.Context, ln net.Listener) error {
	a.httpSrv.BaseContext = func(net.Listener) context.Context { return ctx }

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.httpSrv.Serve(ln)
	}()
	a.logger.Info("http endpoint listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http shutdown incomplete, closing", "error", err)
		_ = a.httpSrv.Close()
	}
	return nil
}

// serveGRPC serves until ctx is done. Snapshot streams are unbounded, so the
// server is stopped rather than drained.
func (a *Agent) serveGRPC(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.grpcSrv.Serve(ln)
	}()
	a.logger.Info("grpc endpoint listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve grpc: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	a.grpcSrv.Stop()
	return nil
}

func (a *Agent) runHealthLoop(ctx context.Context) error {
	t := time.NewTicker(a.cfg.HealthInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			a.checkLibvirt(ctx)
			a.logHealth()
		}
	}
}

func (a *Agent) checkLibvirt(ctx context.Context) {
	if a.conn == nil {
		return
	}
	if err := a.conn.Healthy(ctx); err != nil {
		a.logger.Warn("libvirt health check failed, reconnecting", "error", err)
		a.health.SetLibvirtConnected(false)
		if recErr := a.conn.Reconnect(ctx); recErr != nil {
			a.logger.Error("libvirt reconnect failed", "error", recErr)
			return
		}
		a.logger.Info("libvirt connection recovered")
	}
	a.health.SetLibvirtConnected(true)
}

func (a *Agent) logHealth() {
	a.logger.Log(context.Background(), slog.LevelDebug, "agent health", "snapshot", a.health.Snapshot())
}

func (a *Agent) shutdown() {
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Warn("libvirt close failed", "error", err)
		}
		a.health.SetLibvirtConnected(false)
	}
}
