package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/geocoder89/yardsale/internal/clock"
	"github.com/geocoder89/yardsale/internal/config"
	"github.com/geocoder89/yardsale/internal/db"
	"github.com/geocoder89/yardsale/internal/observability"
	"github.com/geocoder89/yardsale/internal/queue/outbox"
	"github.com/geocoder89/yardsale/internal/queue/redisclient"
	"github.com/geocoder89/yardsale/internal/queue/worker"
	"github.com/geocoder89/yardsale/internal/repo/postgres"
	"github.com/geocoder89/yardsale/internal/service/lifecycle"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.ServiceName+"-worker", cfg.OTelEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}
	defer func() {
		tctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		_ = shutdownTracer(tctx)
	}()

	pool, err := db.NewPool(ctx, cfg.DBURL, 4)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)
	clk := clock.System{}

	deps := map[string]worker.Pinger{"postgres": pool}

	var publisher lifecycle.Publisher = outbox.NewLogPublisher(log)

	rdb, err := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		URL:      os.Getenv("REDIS_URL"),
	})
	if err != nil {
		log.Error("redis config invalid", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	pctx, cancel := config.WithTimeout(2 * time.Second)
	if err := rdb.Ping(pctx); err != nil {
		log.Warn("redis unavailable, domain events will only be logged", "addr", cfg.RedisAddr, "err", err)
	} else {
		publisher = outbox.NewStreamPublisher(rdb.Raw(), cfg.OutboxStream)
		deps["redis"] = rdb
	}
	cancel()

	eventsRepo := postgres.NewEventsRepo(pool, prom)
	favoritesRepo := postgres.NewFavoritesRepo(pool, prom)
	txRunner := postgres.NewTxRunner(pool)

	svc := lifecycle.New(eventsRepo, favoritesRepo, txRunner, publisher, clk, log, prom)

	host, _ := os.Hostname()
	workerID := host + "-" + strconv.Itoa(os.Getpid())

	w := worker.New(worker.Config{
		WorkerID:       workerID,
		PollInterval:   cfg.SweepInterval,
		ReconcileEvery: cfg.ReconcileEvery,
	}, svc, clk, log, observability.NewSweepStats())

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/", w.HealthHandler(deps))

	healthSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WorkerHealthPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("worker health server starting", "port", cfg.WorkerHealthPort)
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("worker health server failed", "err", err)
		}
	}()

	log.Info("worker has started", "worker_id", workerID, "interval", cfg.SweepInterval.String())

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("worker stopped with error", "err", err)
	}

	sctx, scancel := config.WithTimeout(5 * time.Second)
	defer scancel()
	_ = healthSrv.Shutdown(sctx)

	log.Info("worker shutdown complete")
}
