package worker

import (
	"context"
	"time"

	"merygarcia/internal/infra"

	"github.com/rs/zerolog/log"
)

// Refrescador fetches and stores a fresh exchange rate.
type Refrescador interface {
	Refrescar(ctx context.Context) error
}

// StartTipoCambioCron refreshes the exchange rate every interval. Ticks are
// skipped while the provider's breaker is open.
func StartTipoCambioCron(ctx context.Context, svc Refrescador, cb *infra.CircuitBreaker, interval time.Duration) {
	if interval <= 0 {
		log.Warn().Msg("tipo_cambio_cron: disabled (interval <= 0)")
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Info().Dur("interval", interval).Msg("tipo_cambio_cron: started")
		refrescar(ctx, svc, cb)

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("tipo_cambio_cron: shutting down")
				return
			case <-ticker.C:
				refrescar(ctx, svc, cb)
			}
		}
	}()
}

func refrescar(ctx context.Context, svc Refrescador, cb *infra.CircuitBreaker) {
	if cb != nil && cb.State() == infra.CBOpen {
		log.Debug().Msg("tipo_cambio_cron: circuit breaker is open, skipping tick")
		return
	}
	tctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := svc.Refrescar(tctx); err != nil {
		log.Warn().Err(err).Msg("tipo_cambio_cron: refresh failed")
	}
}
