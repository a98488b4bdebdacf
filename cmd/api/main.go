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

	"github.com/geocoder89/postboard/internal/auth"
	"github.com/geocoder89/postboard/internal/config"
	"github.com/geocoder89/postboard/internal/db"
	httpx "github.com/geocoder89/postboard/internal/http"
	"github.com/geocoder89/postboard/internal/observability"
	"github.com/geocoder89/postboard/internal/repo/memory"
	"github.com/geocoder89/postboard/internal/repo/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env, cfg.LogLevel)
	slog.SetDefault(log)

	shutdownTracer, err := observability.InitTracer(context.Background(), observability.TracerConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		Endpoint:    cfg.OTELEndpoint,
		SampleRatio: cfg.OTELSampleRatio,
	})
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	prom := observability.NewProm()

	tokens, err := auth.NewManager(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.AccessTTL())
	if err != nil {
		log.Error("token manager init failed", "err", err)
		os.Exit(1)
	}

	deps, closeStore, err := buildStore(cfg, prom)
	if err != nil {
		log.Error("store init failed", "store", cfg.Store, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	deps.Tokens = tokens
	deps.Prom = prom

	router := httpx.NewRouter(log, cfg, deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.Store)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")
	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

func buildStore(cfg config.Config, prom *observability.Prom) (httpx.Deps, func(), error) {
	if cfg.Store == "memory" {
		store := memory.NewStore()
		return httpx.Deps{
			Users: store.Users(),
			Posts: store.Posts(),
			Votes: store.Votes(),
			Ping:  store.Ping,
		}, func() {}, nil
	}

	pool, err := db.NewPool(context.Background(), cfg.DBURL, cfg.DBMaxConns)
	if err != nil {
		return httpx.Deps{}, nil, fmt.Errorf("connect postgres: %w", err)
	}

	if cfg.AutoMigrate {
		ctx, cancel := config.WithTimeout(30 * time.Second)
		defer cancel()

		if err := db.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return httpx.Deps{}, nil, fmt.Errorf("ensure schema: %w", err)
		}
	}

	return httpx.Deps{
		Users: postgres.NewUsersRepo(pool, prom),
		Posts: postgres.NewPostsRepo(pool, prom),
		Votes: postgres.NewVotesRepo(pool, prom),
		Ping:  pool.Ping,
	}, pool.Close, nil
}
