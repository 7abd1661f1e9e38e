package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"merygarcia/internal/config"
	"merygarcia/internal/infra"
	"merygarcia/internal/repository"
	"merygarcia/internal/router"
	"merygarcia/internal/service"
	"merygarcia/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(cfg)

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

	// ── Exchange rate ────────────────────────────────────────────────────────
	dolarCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	dolarClient := infra.NewDolarClient(cfg.DolarAPIURL)
	tipoCambioSvc := service.NewTipoCambioService(
		repository.NewTipoCambioRepository(db), dolarClient, dolarCB, rdb, cfg.TipoCambioTTL(),
	)
	worker.StartTipoCambioCron(ctx, tipoCambioSvc, dolarCB, cfg.TipoCambioRefresh())

	// ── Async receipts ───────────────────────────────────────────────────────
	// Worker handlers are wired here (composition root) so that the pool
	// has full access to all infrastructure dependencies.
	dispatcher := worker.NewDispatcher(rdb)
	comandaRepo := repository.NewComandaRepository(db)
	comprobanteRepo := repository.NewComprobanteRepository(db)
	mailer := infra.NewMailer(cfg)

	worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, map[string]worker.JobHandler{
		worker.QueueComprobante: worker.NewComprobanteWorker(comandaRepo, comprobanteRepo, dispatcher, cfg.PDFStoragePath, cfg.NombreNegocio),
		worker.QueueEmail:       worker.NewEmailWorker(mailer, comprobanteRepo),
	})
	worker.StartRetryCron(ctx, worker.RetryCronConfig{ComprobanteRepo: comprobanteRepo, Queue: dispatcher})

	r := router.New(ctx, cfg, db, rdb, dolarCB, tipoCambioSvc, dispatcher)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("%s caja backend listening on :%d", cfg.NombreNegocio, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel() // stop workers and crons before closing connections
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	if err := rdb.Close(); err != nil {
		log.Warn().Err(err).Msg("redis close")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server exited")
}

// setupLogger: pretty console output in development, JSON in production.
func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Env == "production" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}
