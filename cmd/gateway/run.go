package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"multi-rpc-gateway/pkg/config"
	"multi-rpc-gateway/pkg/ethws"
	"multi-rpc-gateway/pkg/gateway"
	"multi-rpc-gateway/pkg/monitor"
	"multi-rpc-gateway/pkg/queue"
	"multi-rpc-gateway/pkg/storage"
)

func newRunCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Monitor the endpoint pool, follow heads and export metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := f.load()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			err = run(ctx, cfg, logger)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("gateway stopped with error", zap.Error(err))
				return err
			}
			return nil
		},
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var (
		eventQueue monitor.EventQueue
		journal    monitor.Journal
	)
	if cfg.PostgresDSN != "" {
		pg, err := storage.NewPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer pg.Close()
		repo := storage.NewJournalRepo(pg.DB())
		if err := repo.MustHaveMigrations(ctx); err != nil {
			return err
		}
		journal = repo
	}
	if cfg.Redis.Addr != "" {
		q, err := queue.NewRedisStreams(cfg.Redis)
		if err != nil {
			return err
		}
		defer q.Close()
		eventQueue = q
	}
	sink := monitor.NewSink(eventQueue, journal, logger, monitor.DefaultSinkBuffer)

	feed := gateway.NewHeadFeed()
	gw, err := buildGateway(ctx, cfg, logger,
		gateway.WithMetrics(reg),
		gateway.WithObserver(sink),
	)
	if err != nil {
		return err
	}
	defer gw.Close()

	deps := monitor.Deps{
		Router:       gw,
		Feed:         feed,
		PollInterval: cfg.Heads.PollInterval,
		Sink:         sink,
		Logger:       logger,
	}
	if cfg.Heads.WSURL != "" {
		deps.Heads = ethws.New(cfg.Heads.WSURL, logger)
	}

	srv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           metricsMux(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("gateway started",
		zap.Stringer("network", gw.Network()),
		zap.Int("endpoints", len(gw.Entries())),
		zap.String("metrics", cfg.MetricsAddr))
	return monitor.New(deps).Run(ctx)
}

func metricsMux(reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}
