package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	bridgeapi "github.com/lighter-sign/bridge/internal/api"
	"github.com/lighter-sign/bridge/internal/app/backend/stub"
	"github.com/lighter-sign/bridge/internal/app/clientreg"
	"github.com/lighter-sign/bridge/internal/config"
	"github.com/lighter-sign/bridge/internal/infra/linesock"
	"github.com/lighter-sign/bridge/internal/infra/signerlib"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Getenv("SIGNER_BRIDGE_CONFIG"))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	backend, err := configureBackend(cfg, logger)
	if err != nil {
		// 协议约定：backend 加载失败先写一条 id 为 null 的诊断响应，
		// 再以非零码退出，此前不读取任何请求。
		bridgeapi.WriteFatal(os.Stdout, err)
		logger.Error("failed to load signer backend", "error", err)
		os.Exit(1)
	}

	registry := clientreg.NewRegistry()
	registry.Seed(cfg.SeedEntries())
	if n := registry.Len(); n > 0 {
		logger.Info("client configs preloaded", "count", n)
	}

	metrics := bridgeapi.NewMetrics(prometheus.DefaultRegisterer)
	orchestrator, err := bridgeapi.NewOrchestrator(bridgeapi.OrchestratorConfig{
		Registry: registry,
		Backend:  backend,
		Metrics:  metrics,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("failed to build orchestrator", "error", err)
		os.Exit(1)
	}
	queue, err := bridgeapi.NewQueue(bridgeapi.QueueConfig{
		Router:     bridgeapi.NewRouter(orchestrator),
		MaxPending: cfg.MaxPending,
		Metrics:    metrics,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("failed to build dispatch queue", "error", err)
		os.Exit(1)
	}
	defer queue.Close()

	server, err := bridgeapi.NewLineServer(bridgeapi.LineServerConfig{Queue: queue, Logger: logger})
	if err != nil {
		logger.Error("failed to build line server", "error", err)
		os.Exit(1)
	}

	group, groupCtx := errgroup.WithContext(ctx)

	if cfg.MetricsAddr != "" {
		group.Go(func() error { return serveMetrics(groupCtx, cfg.MetricsAddr, logger) })
	}

	if cfg.Listen != "" {
		listener, err := linesock.Listen(cfg.Listen)
		if err != nil {
			logger.Error("failed to listen", "endpoint", cfg.Listen, "error", err)
			os.Exit(1)
		}
		sockSrv, err := linesock.NewServer(listener, server, logger)
		if err != nil {
			logger.Error("failed to build socket server", "error", err)
			os.Exit(1)
		}
		logger.Info("socket transport listening", "endpoint", cfg.Listen)
		group.Go(func() error { return sockSrv.Serve(groupCtx) })
	}

	// stdio 循环单独跑：scanner 阻塞在 stdin 上无法被 ctx 打断，
	// 收到信号时直接放弃它退出。
	stdioErr := make(chan error, 1)
	go func() { stdioErr <- server.Serve(groupCtx, os.Stdin, os.Stdout) }()

	logger.Info("signer bridge ready")

	select {
	case err := <-stdioErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("stdio transport failed", "error", err)
		}
		if cfg.Listen != "" {
			// stdin 已到 EOF，socket transport 继续服务直到收到信号。
			<-ctx.Done()
		}
	case <-ctx.Done():
	}
	stop()

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("bridge exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutting down")
}

func configureBackend(cfg config.Config, logger *slog.Logger) (bridgeapi.Backend, error) {
	if cfg.StubBackend {
		logger.Warn("using stub signer backend")
		return stub.New(), nil
	}
	path := cfg.SignerLibrary
	if path == "" {
		resolved, err := signerlib.ResolvePath(cfg.SignerDir)
		if err != nil {
			return nil, err
		}
		path = resolved
	}
	lib, err := signerlib.Open(path)
	if err != nil {
		return nil, err
	}
	logger.Info("signer library loaded", "path", lib.Path())
	return lib, nil
}

func serveMetrics(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
