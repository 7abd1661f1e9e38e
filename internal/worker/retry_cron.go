package worker

// retry_cron.go
// Background goroutine that re-enqueues receipts left in estado='error'
// once their next_retry_at has passed.

import (
	"context"
	"time"

	"merygarcia/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second

	// MaxComprobanteRetries caps how many renders a receipt gets in total.
	MaxComprobanteRetries = 5
)

// ComprobanteEnqueuer is the slice of Dispatcher the retry cron needs.
type ComprobanteEnqueuer interface {
	EnqueueComprobante(ctx context.Context, comandaID uuid.UUID) error
}

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	ComprobanteRepo repository.ComprobanteRepository
	Queue           ComprobanteEnqueuer
}

// StartRetryCron ticks every 30s until ctx is done.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg, time.Now())
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig, now time.Time) int {
	comprobantes, err := cfg.ComprobanteRepo.ListParaReintento(ctx, now, MaxComprobanteRetries)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query pending retries")
		return 0
	}

	enqueued := 0
	for i := range comprobantes {
		comp := &comprobantes[i]
		if err := cfg.Queue.EnqueueComprobante(ctx, comp.ComandaID); err != nil {
			log.Error().Err(err).Str("comanda_id", comp.ComandaID.String()).Msg("retry_cron: enqueue failed")
			continue
		}
		// Pending until the worker reports back; keeps the next tick from re-enqueueing.
		comp.Estado = "pendiente"
		comp.NextRetryAt = nil
		if err := cfg.ComprobanteRepo.Update(ctx, comp); err != nil {
			log.Error().Err(err).Str("comprobante_id", comp.ID.String()).Msg("retry_cron: update failed")
		}
		enqueued++
	}
	if enqueued > 0 {
		log.Info().Int("count", enqueued).Msg("retry_cron: comprobantes re-enqueued")
	}
	return enqueued
}

// computeRetryBackoff returns 1m, 2m, 4m, ... capped at 30m.
func computeRetryBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := time.Minute << (attempt - 1)
	if d > 30*time.Minute || d <= 0 {
		return 30 * time.Minute
	}
	return d
}
