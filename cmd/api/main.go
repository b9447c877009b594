package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/geocoder89/yardsale/internal/auth"
	"github.com/geocoder89/yardsale/internal/cache"
	"github.com/geocoder89/yardsale/internal/clock"
	"github.com/geocoder89/yardsale/internal/config"
	"github.com/geocoder89/yardsale/internal/db"
	httpx "github.com/geocoder89/yardsale/internal/http"
	"github.com/geocoder89/yardsale/internal/http/handlers"
	"github.com/geocoder89/yardsale/internal/observability"
	"github.com/geocoder89/yardsale/internal/queue/outbox"
	"github.com/geocoder89/yardsale/internal/queue/redisclient"
	"github.com/geocoder89/yardsale/internal/repo/postgres"
	"github.com/geocoder89/yardsale/internal/service/events"
	"github.com/geocoder89/yardsale/internal/service/favorites"
	"github.com/geocoder89/yardsale/internal/service/lifecycle"
	"github.com/geocoder89/yardsale/internal/service/nearby"
	"github.com/geocoder89/yardsale/internal/service/validation"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.ServiceName+"-api", cfg.OTelEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}
	defer func() {
		tctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		_ = shutdownTracer(tctx)
	}()

	pool, err := db.NewPool(ctx, cfg.DBURL, 20)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	clk := clock.System{}

	// wire up repositories
	eventsRepo := postgres.NewEventsRepo(pool, prom)
	favoritesRepo := postgres.NewFavoritesRepo(pool, prom)
	usersRepo := postgres.NewUsersRepo(pool, prom)
	txRunner := postgres.NewTxRunner(pool)

	if err := db.EnsureAdminUser(ctx, usersRepo, cfg, log); err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}

	health := map[string]handlers.Pinger{
		"postgres": handlers.PingFunc(pool.Ping),
	}

	// domain events go to a redis stream; without redis they are only logged
	var publisher events.Publisher = outbox.NewLogPublisher(log)

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
		health["redis"] = rdb
	}
	cancel()

	validator := validation.New(usersRepo, eventsRepo, cfg.ConflictRadiusKm)

	router := httpx.NewRouter(httpx.Deps{
		Config:      cfg,
		Log:         log,
		Clock:       clk,
		Prom:        prom,
		Gatherer:    reg,
		Verifier:    auth.NewManager(cfg.JWTSecret, 15*time.Minute),
		Events:      events.New(eventsRepo, validator, publisher, clk, log, prom),
		Nearby:      nearby.New(eventsRepo, clk, prom),
		Favorites:   favorites.New(eventsRepo, favoritesRepo, txRunner, clk, log, prom),
		Maintenance: lifecycle.New(eventsRepo, favoritesRepo, txRunner, publisher, clk, log, prom),
		NearbyCache: cache.New(cfg.NearbyCacheTTL, 2048, clk),
		Health:      health,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("server shutting down")

	sctx, scancel := config.WithTimeout(10 * time.Second)
	defer scancel()

	if err := srv.Shutdown(sctx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return
	}

	log.Info("shutdown complete")
}
