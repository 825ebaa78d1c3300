package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pirela/sistema-guia/internal/cache"
	"github.com/pirela/sistema-guia/internal/config"
	"github.com/pirela/sistema-guia/internal/infra"
	"github.com/pirela/sistema-guia/internal/repository"
	"github.com/pirela/sistema-guia/internal/router"
	"github.com/pirela/sistema-guia/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Request cache shared by every read path. The sweeper evicts hung
	// in-flight fetches so one stuck call never blocks a key forever.
	reqCache := cache.New(cache.Config{
		TTL:            time.Duration(cfg.CacheTTLSeconds) * time.Second,
		MinInterval:    time.Duration(cfg.CacheMinIntervalMs) * time.Millisecond,
		MaxRetries:     cfg.CacheMaxRetries,
		RetryDelay:     time.Duration(cfg.CacheRetryDelayMs) * time.Millisecond,
		InFlightMaxAge: time.Duration(cfg.CacheSweepIntervalSec) * time.Second,
	})
	reqCache.StartSweeper(ctx, time.Duration(cfg.CacheSweepIntervalSec)*time.Second)

	// Worker pool for async tasks (novedad alert emails). Handlers are wired
	// here, at the composition root, with full access to infrastructure.
	mailer := infra.NewMailer(cfg)
	dispatcher := worker.NewDispatcher(rdb)
	usuarioRepo := repository.NewUsuarioRepository(db)
	handlers := map[string]worker.Handler{
		"alerta_novedad": worker.NewAlertaWorker(mailer, usuarioRepo),
	}
	worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, handlers)

	r := router.New(cfg, db, reqCache, dispatcher)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("sistema-guia backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
