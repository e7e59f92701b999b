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

	"github.com/geocoder89/postline/internal/config"
	"github.com/geocoder89/postline/internal/db"
	httpx "github.com/geocoder89/postline/internal/http"
	"github.com/geocoder89/postline/internal/observability"
	"github.com/geocoder89/postline/internal/redisclient"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if cfg.JWTSecret == "" {
		log.Error("JWT_SECRET must be set")
		os.Exit(1)
	}

	// tracing is opt-in via OTLP_ENDPOINT
	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(context.Background(), "postline", cfg.OTLPEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			ctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdownTracer(ctx)
		}()
	}

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connection failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	ctx, cancel := config.WithTimeout(10 * time.Second)

	err = db.EnsureSchema(ctx, pool)

	cancel()

	if err != nil {
		log.Error("schema bootstrap failed", "err", err)
		os.Exit(1)
	}

	// redis is optional; without it the feed cache stays in-process
	var rdb *redisclient.Client

	if cfg.RedisAddr != "" {
		rdb = redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		pingCtx, pingCancel := config.WithTimeout(2 * time.Second)

		err = rdb.Ping(pingCtx)

		pingCancel()

		if err != nil {
			log.Warn("redis unreachable, falling back to in-process feed cache", "err", err)
			_ = rdb.Close()
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	registry := prometheus.NewRegistry()

	// set up router with all the wiring
	router := httpx.NewRouter(log, pool, rdb, registry, cfg)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
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

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
