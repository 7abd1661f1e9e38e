package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"merygarcia/internal/borrador"
	"merygarcia/internal/calculo"
	"merygarcia/internal/dto"
	"merygarcia/internal/moneda"
	"merygarcia/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// BorradorService drives a comanda form session. Every mutation loads the
// draft, applies the change through the borrador state machine and stores it
// back; the response always carries the full recalculated breakdown.
type BorradorService interface {
	Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearBorradorRequest) (*dto.BorradorResponse, error)
	Obtener(ctx context.Context, id, usuarioID uuid.UUID) (*dto.BorradorResponse, error)
	Descartar(ctx context.Context, id, usuarioID uuid.UUID) error

	AgregarItem(ctx context.Context, id, usuarioID uuid.UUID, req dto.ItemComandaRequest) (*dto.BorradorResponse, error)
	EditarItem(ctx context.Context, id, usuarioID uuid.UUID, idx int, req dto.ItemComandaRequest) (*dto.BorradorResponse, error)
	QuitarItem(ctx context.Context, id, usuarioID uuid.UUID, idx int) (*dto.BorradorResponse, error)

	AgregarPago(ctx context.Context, id, usuarioID uuid.UUID, req dto.PagoComandaRequest) (*dto.BorradorResponse, error)
	EditarPago(ctx context.Context, id, usuarioID uuid.UUID, idx int, req dto.PagoComandaRequest) (*dto.BorradorResponse, error)
	QuitarPago(ctx context.Context, id, usuarioID uuid.UUID, idx int) (*dto.BorradorResponse, error)

	AplicarSena(ctx context.Context, id, usuarioID uuid.UUID, req dto.AplicarSenaRequest) (*dto.BorradorResponse, error)
	QuitarSena(ctx context.Context, id, usuarioID uuid.UUID) (*dto.BorradorResponse, error)

	// Guardar persists the draft as a comanda and deletes it.
	Guardar(ctx context.Context, id, usuarioID uuid.UUID, req dto.GuardarBorradorRequest) (*dto.ComandaResponse, error)
}

type borradorService struct {
	repo       repository.BorradorRepository
	clientes   repository.ClienteRepository
	comandas   ComandaService
	tipoCambio TipoCambioService
	resolutor  *resolutor
	opts       ComandaOpciones
	now        func() time.Time
}

func NewBorradorService(
	repo repository.BorradorRepository,
	clientes repository.ClienteRepository,
	productos repository.ProductoRepository,
	comandas ComandaService,
	tipoCambio TipoCambioService,
	opts ComandaOpciones,
) BorradorService {
	return &borradorService{
		repo:       repo,
		clientes:   clientes,
		comandas:   comandas,
		tipoCambio: tipoCambio,
		resolutor:  &resolutor{productos: productos, ajustes: opts.Ajustes},
		opts:       opts,
		now:        time.Now,
	}
}

// Crear opens a session with the current rate frozen into it. Without any
// rate the draft still works for single-currency content.
func (s *borradorService) Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearBorradorRequest) (*dto.BorradorResponse, error) {
	tipo, err := calculo.ParseTipo(req.Tipo)
	if err != nil {
		return nil, campoInvalido("tipo", err.Error())
	}
	tasa, vigente := decimal.Zero, false
	if s.tipoCambio != nil {
		if tc, err := s.tipoCambio.Actual(ctx); err == nil {
			tasa, vigente = tc.Venta, tc.Vigente
		} else {
			log.Warn().Err(err).Msg("borrador: opened without exchange rate")
		}
	}
	b := borrador.Nuevo(usuarioID, tipo, tasa, s.now())
	b.TipoCambioVigente = vigente && tasa.IsPositive()
	if err := s.repo.Save(ctx, b); err != nil {
		return nil, err
	}
	return s.toResponse(b), nil
}

func (s *borradorService) Obtener(ctx context.Context, id, usuarioID uuid.UUID) (*dto.BorradorResponse, error) {
	b, err := s.cargar(ctx, id, usuarioID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(b), nil
}

func (s *borradorService) Descartar(ctx context.Context, id, usuarioID uuid.UUID) error {
	if _, err := s.cargar(ctx, id, usuarioID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// ── Items ─────────────────────────────────────────────────────────────────────

func (s *borradorService) AgregarItem(ctx context.Context, id, usuarioID uuid.UUID, req dto.ItemComandaRequest) (*dto.BorradorResponse, error) {
	return s.mutar(ctx, id, usuarioID, func(b *borrador.Borrador) error {
		l, err := s.linea(ctx, b, req)
		if err != nil {
			return err
		}
		return b.AgregarItem(l)
	})
}

func (s *borradorService) EditarItem(ctx context.Context, id, usuarioID uuid.UUID, idx int, req dto.ItemComandaRequest) (*dto.BorradorResponse, error) {
	return s.mutar(ctx, id, usuarioID, func(b *borrador.Borrador) error {
		l, err := s.linea(ctx, b, req)
		if err != nil {
			return err
		}
		return b.EditarItem(idx, l)
	})
}

func (s *borradorService) QuitarItem(ctx context.Context, id, usuarioID uuid.UUID, idx int) (*dto.BorradorResponse, error) {
	return s.mutar(ctx, id, usuarioID, func(b *borrador.Borrador) error { return b.QuitarItem(idx) })
}

// ── Pagos ─────────────────────────────────────────────────────────────────────

func (s *borradorService) AgregarPago(ctx context.Context, id, usuarioID uuid.UUID, req dto.PagoComandaRequest) (*dto.BorradorResponse, error) {
	return s.mutar(ctx, id, usuarioID, func(b *borrador.Borrador) error {
		p, err := s.pago(b, req)
		if err != nil {
			return err
		}
		return b.AgregarPago(p)
	})
}

func (s *borradorService) EditarPago(ctx context.Context, id, usuarioID uuid.UUID, idx int, req dto.PagoComandaRequest) (*dto.BorradorResponse, error) {
	return s.mutar(ctx, id, usuarioID, func(b *borrador.Borrador) error {
		p, err := s.pago(b, req)
		if err != nil {
			return err
		}
		return b.EditarPago(idx, p)
	})
}

func (s *borradorService) QuitarPago(ctx context.Context, id, usuarioID uuid.UUID, idx int) (*dto.BorradorResponse, error) {
	return s.mutar(ctx, id, usuarioID, func(b *borrador.Borrador) error { return b.QuitarPago(idx) })
}

// ── Seña ──────────────────────────────────────────────────────────────────────

func (s *borradorService) AplicarSena(ctx context.Context, id, usuarioID uuid.UUID, req dto.AplicarSenaRequest) (*dto.BorradorResponse, error) {
	return s.mutar(ctx, id, usuarioID, func(b *borrador.Borrador) error {
		campos := map[string]string{}
		sena := s.resolutor.sena(b.Tipo, &dto.SenaRequest{Monto: req.Monto, Moneda: req.Moneda}, campos)
		if err := validacion(campos); err != nil {
			return err
		}
		cid, err := uuid.Parse(req.ClienteID)
		if err != nil {
			return campoInvalido("cliente_id", "uuid invalido")
		}
		c, err := s.clientes.FindByID(ctx, cid)
		if err != nil || !c.Activo {
			return campoInvalido("cliente_id", "cliente inexistente o inactivo")
		}
		if saldo := saldoSena(c, sena.Moneda); saldo.LessThan(sena.Monto) {
			return campoInvalido("monto", fmt.Sprintf("saldo insuficiente (%s disponible)", moneda.Format(saldo, sena.Moneda)))
		}
		sena.ClienteID = cid
		return b.AplicarSena(*sena)
	})
}

func (s *borradorService) QuitarSena(ctx context.Context, id, usuarioID uuid.UUID) (*dto.BorradorResponse, error) {
	return s.mutar(ctx, id, usuarioID, func(b *borrador.Borrador) error { return b.QuitarSena() })
}

// ── Guardar ───────────────────────────────────────────────────────────────────
//   conciliado → enviando → (Registrar) → guardado → deleted
//                    └──── on failure ───→ back to its editable state

func (s *borradorService) Guardar(ctx context.Context, id, usuarioID uuid.UUID, req dto.GuardarBorradorRequest) (*dto.ComandaResponse, error) {
	b, err := s.cargar(ctx, id, usuarioID)
	if err != nil {
		return nil, err
	}
	if len(b.Lineas) == 0 {
		return nil, campoInvalido("items", "se requiere al menos un item")
	}
	if b.Sena != nil && req.ClienteID != nil && *req.ClienteID != "" && *req.ClienteID != b.Sena.ClienteID.String() {
		return nil, campoInvalido("cliente_id", "no coincide con el cliente de la seña")
	}
	des := b.Calcular()
	if des.RequiereTipoCambio || (!b.TipoCambioVigente && requiereConversion(des, b.Sena)) {
		return nil, ErrTipoCambio
	}
	if err := b.IniciarEnvio(s.opts.PermitirSobrepago); err != nil {
		if b.Estado == borrador.Enviando || b.Estado == borrador.Guardado {
			return nil, fmt.Errorf("borrador %s: %w", b.Estado, ErrEstadoInvalido)
		}
		return nil, errorConciliacion(des)
	}
	if err := s.repo.Save(ctx, b); err != nil {
		return nil, err
	}

	resp, regErr := s.comandas.Registrar(ctx, usuarioID, s.registrarRequest(b, req))
	if regErr != nil {
		if err := b.FallarEnvio(); err == nil {
			if err := s.repo.Save(ctx, b); err != nil {
				log.Error().Err(err).Str("borrador_id", id.String()).Msg("borrador: could not restore after failed save")
			}
		}
		return nil, regErr
	}

	if err := b.MarcarGuardado(); err != nil {
		log.Warn().Err(err).Str("borrador_id", id.String()).Str("estado", string(b.Estado)).Msg("borrador: saved from unexpected state")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		log.Warn().Err(err).Str("borrador_id", id.String()).Msg("borrador: saved but could not delete draft")
	}
	return resp, nil
}

func (s *borradorService) registrarRequest(b *borrador.Borrador, h dto.GuardarBorradorRequest) dto.RegistrarComandaRequest {
	req := dto.RegistrarComandaRequest{
		Tipo:          string(b.Tipo),
		Numero:        h.Numero,
		Fecha:         h.Fecha,
		UnidadNegocio: h.UnidadNegocio,
		ClienteID:     h.ClienteID,
		ClienteNombre: h.ClienteNombre,
		ResponsableID: h.ResponsableID,
		Observaciones: h.Observaciones,
		Items:         make([]dto.ItemComandaRequest, 0, len(b.Lineas)),
		Pagos:         make([]dto.PagoComandaRequest, 0, len(b.Pagos)),
	}
	if b.TipoCambio.IsPositive() {
		tasa := b.TipoCambio
		req.TipoCambio = &tasa
	}
	for _, l := range b.Lineas {
		req.Items = append(req.Items, lineaARequest(b.Tipo, l))
	}
	for _, p := range b.Pagos {
		req.Pagos = append(req.Pagos, pagoARequest(p))
	}
	if b.Sena != nil {
		req.Sena = &dto.SenaRequest{Monto: b.Sena.Monto, Moneda: string(b.Sena.Moneda)}
		if req.ClienteID == nil || *req.ClienteID == "" {
			cid := b.Sena.ClienteID.String()
			req.ClienteID = &cid
		}
	}
	return req
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// cargar only hands a draft to the user who opened it; anyone else gets
// ErrNoEncontrado.
func (s *borradorService) cargar(ctx context.Context, id, usuarioID uuid.UUID) (*borrador.Borrador, error) {
	b, err := s.repo.Find(ctx, id)
	if errors.Is(err, repository.ErrBorradorNoEncontrado) {
		return nil, fmt.Errorf("borrador %s: %w", id, ErrNoEncontrado)
	}
	if err != nil {
		return nil, err
	}
	if b.UsuarioID != usuarioID {
		log.Warn().Str("borrador_id", id.String()).Str("usuario_id", usuarioID.String()).Msg("borrador: access by another user")
		return nil, fmt.Errorf("borrador %s: %w", id, ErrNoEncontrado)
	}
	return b, nil
}

func (s *borradorService) mutar(ctx context.Context, id, usuarioID uuid.UUID, fn func(b *borrador.Borrador) error) (*dto.BorradorResponse, error) {
	b, err := s.cargar(ctx, id, usuarioID)
	if err != nil {
		return nil, err
	}
	if err := fn(b); err != nil {
		if errors.Is(err, borrador.ErrIndiceInvalido) {
			return nil, campoInvalido("indice", err.Error())
		}
		return nil, err
	}
	b.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, b); err != nil {
		return nil, err
	}
	return s.toResponse(b), nil
}

func (s *borradorService) linea(ctx context.Context, b *borrador.Borrador, req dto.ItemComandaRequest) (borrador.Linea, error) {
	campos := map[string]string{}
	l := s.resolutor.linea(ctx, b.Tipo, "item", req, campos)
	return l, validacion(campos)
}

func (s *borradorService) pago(b *borrador.Borrador, req dto.PagoComandaRequest) (borrador.Pago, error) {
	campos := map[string]string{}
	p := s.resolutor.pago(b.Tipo, "pago", req, campos)
	return p, validacion(campos)
}

func (s *borradorService) toResponse(b *borrador.Borrador) *dto.BorradorResponse {
	resp := &dto.BorradorResponse{
		ID:         b.ID.String(),
		Tipo:       string(b.Tipo),
		Estado:     string(b.Estado),
		TipoCambio: b.TipoCambio,
		Items:      make([]dto.ItemComandaRequest, 0, len(b.Lineas)),
		Pagos:      make([]dto.PagoComandaRequest, 0, len(b.Pagos)),
		Desglose:   *desgloseToResponse(b.Calcular(), s.opts.PermitirSobrepago),
	}
	for _, l := range b.Lineas {
		resp.Items = append(resp.Items, lineaARequest(b.Tipo, l))
	}
	for _, p := range b.Pagos {
		resp.Pagos = append(resp.Pagos, pagoARequest(p))
	}
	if b.Sena != nil {
		resp.Sena = &dto.AplicarSenaRequest{
			ClienteID: b.Sena.ClienteID.String(),
			Monto:     b.Sena.Monto,
			Moneda:    string(b.Sena.Moneda),
		}
	}
	return resp
}
