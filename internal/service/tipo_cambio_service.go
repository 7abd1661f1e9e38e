package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"merygarcia/internal/dto"
	"merygarcia/internal/infra"
	"merygarcia/internal/model"
	"merygarcia/internal/repository"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	tipoCambioCacheKey = "tipo_cambio:actual"
	fuenteDolarAPI     = "dolarapi"
	fuenteManual       = "manual"
)

// Cotizador is the exchange-rate provider. *infra.DolarClient satisfies it.
type Cotizador interface {
	Cotizacion(ctx context.Context) (*infra.Cotizacion, error)
}

type TipoCambioService interface {
	// Actual returns the current snapshot. Vigente=false means the provider is
	// unreachable and the last known rate is older than the TTL.
	Actual(ctx context.Context) (*dto.TipoCambioResponse, error)
	// Refrescar fetches a quote from the provider and stores it.
	Refrescar(ctx context.Context) error
	EstablecerManual(ctx context.Context, usuarioID uuid.UUID, req dto.EstablecerTipoCambioRequest) (*dto.TipoCambioResponse, error)
	Historial(ctx context.Context, limit int) ([]dto.TipoCambioResponse, error)
}

type tipoCambioService struct {
	repo      repository.TipoCambioRepository
	proveedor Cotizador
	cb        *infra.CircuitBreaker
	rdb       *redis.Client // optional
	l1        *gocache.Cache
	ttl       time.Duration
	now       func() time.Time
}

// snapshot is what both cache levels hold.
type snapshot struct {
	Venta   decimal.Decimal `json:"venta"`
	Compra  decimal.Decimal `json:"compra"`
	Fuente  string          `json:"fuente"`
	ValidAt time.Time       `json:"valid_at"`
}

func NewTipoCambioService(
	repo repository.TipoCambioRepository,
	proveedor Cotizador,
	cb *infra.CircuitBreaker,
	rdb *redis.Client,
	ttl time.Duration,
) TipoCambioService {
	if cb == nil {
		cb = infra.NewCircuitBreaker(infra.DefaultCBConfig())
	}
	return &tipoCambioService{
		repo:      repo,
		proveedor: proveedor,
		cb:        cb,
		rdb:       rdb,
		l1:        gocache.New(ttl, 2*ttl),
		ttl:       ttl,
		now:       time.Now,
	}
}

func (s *tipoCambioService) Actual(ctx context.Context) (*dto.TipoCambioResponse, error) {
	// 1. in-process cache
	if v, ok := s.l1.Get(tipoCambioCacheKey); ok {
		snap := v.(snapshot)
		return snapshotToResponse(snap, true), nil
	}

	// 2. Redis
	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, tipoCambioCacheKey).Bytes(); err == nil {
			var snap snapshot
			if json.Unmarshal(raw, &snap) == nil && s.fresco(snap) {
				s.l1.Set(tipoCambioCacheKey, snap, s.restante(snap))
				return snapshotToResponse(snap, true), nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("tipo_cambio: redis unavailable, skipping cache")
		}
	}

	// 3. last persisted quote, if still within TTL
	ultimo, err := s.repo.Ultimo(ctx)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if ultimo != nil && err == nil {
		snap := rowToSnapshot(ultimo)
		if s.fresco(snap) {
			s.cachear(ctx, snap)
			return snapshotToResponse(snap, true), nil
		}
	} else {
		ultimo = nil
	}

	// 4. provider
	snap, provErr := s.consultarProveedor(ctx)
	if provErr == nil {
		return snapshotToResponse(*snap, true), nil
	}
	log.Warn().Err(provErr).Msg("tipo_cambio: provider unavailable")

	// 5. stale quote, flagged
	if ultimo != nil {
		return snapshotToResponse(rowToSnapshot(ultimo), false), nil
	}
	return nil, fmt.Errorf("%w: %v", ErrTipoCambio, provErr)
}

func (s *tipoCambioService) Refrescar(ctx context.Context) error {
	snap, err := s.consultarProveedor(ctx)
	if err != nil {
		return err
	}
	log.Info().Str("venta", snap.Venta.String()).Msg("tipo_cambio: refreshed")
	return nil
}

func (s *tipoCambioService) EstablecerManual(ctx context.Context, usuarioID uuid.UUID, req dto.EstablecerTipoCambioRequest) (*dto.TipoCambioResponse, error) {
	if !req.Venta.IsPositive() {
		return nil, campoInvalido("venta", "debe ser mayor a 0")
	}
	compra := req.Venta
	if req.Compra != nil {
		if !req.Compra.IsPositive() {
			return nil, campoInvalido("compra", "debe ser mayor a 0")
		}
		compra = *req.Compra
	}
	row := &model.TipoCambio{
		ID:        uuid.New(),
		Venta:     req.Venta,
		Compra:    compra,
		Fuente:    fuenteManual,
		ValidAt:   s.now(),
		UsuarioID: &usuarioID,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, err
	}
	snap := rowToSnapshot(row)
	s.cachear(ctx, snap)
	log.Info().Str("venta", row.Venta.String()).Str("usuario_id", usuarioID.String()).Msg("tipo_cambio: manual override")
	return snapshotToResponse(snap, true), nil
}

func (s *tipoCambioService) Historial(ctx context.Context, limit int) ([]dto.TipoCambioResponse, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}
	rows, err := s.repo.Historial(ctx, limit)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.TipoCambioResponse, 0, len(rows))
	for i := range rows {
		snap := rowToSnapshot(&rows[i])
		resp = append(resp, *snapshotToResponse(snap, s.fresco(snap)))
	}
	return resp, nil
}

// consultarProveedor fetches through the circuit breaker, persists and caches.
func (s *tipoCambioService) consultarProveedor(ctx context.Context) (*snapshot, error) {
	if s.proveedor == nil {
		return nil, errors.New("sin proveedor de cotizacion")
	}
	var cot *infra.Cotizacion
	err := s.cb.Execute(func() error {
		var e error
		cot, e = s.proveedor.Cotizacion(ctx)
		return e
	})
	if err != nil {
		return nil, err
	}

	row := &model.TipoCambio{
		ID:      uuid.New(),
		Venta:   cot.Venta,
		Compra:  cot.Compra,
		Fuente:  fuenteDolarAPI,
		ValidAt: s.now(),
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("persistir tipo de cambio: %w", err)
	}
	snap := rowToSnapshot(row)
	s.cachear(ctx, snap)
	return &snap, nil
}

func (s *tipoCambioService) cachear(ctx context.Context, snap snapshot) {
	exp := s.restante(snap)
	if exp <= 0 {
		return
	}
	s.l1.Set(tipoCambioCacheKey, snap, exp)
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, tipoCambioCacheKey, raw, exp).Err(); err != nil {
		log.Warn().Err(err).Msg("tipo_cambio: could not write redis cache")
	}
}

func (s *tipoCambioService) fresco(snap snapshot) bool { return s.restante(snap) > 0 }

func (s *tipoCambioService) restante(snap snapshot) time.Duration {
	return s.ttl - s.now().Sub(snap.ValidAt)
}

func rowToSnapshot(r *model.TipoCambio) snapshot {
	return snapshot{Venta: r.Venta, Compra: r.Compra, Fuente: r.Fuente, ValidAt: r.ValidAt}
}

func snapshotToResponse(s snapshot, vigente bool) *dto.TipoCambioResponse {
	return &dto.TipoCambioResponse{
		Venta:   s.Venta,
		Compra:  s.Compra,
		Fuente:  s.Fuente,
		ValidAt: s.ValidAt.UTC().Format(time.RFC3339),
		Vigente: vigente,
	}
}
