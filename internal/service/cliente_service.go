package service

import (
	"context"
	"strings"

	"merygarcia/internal/dto"
	"merygarcia/internal/model"
	"merygarcia/internal/moneda"
	"merygarcia/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type ClienteService interface {
	Crear(ctx context.Context, req dto.CrearClienteRequest) (*dto.ClienteResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error)
	Listar(ctx context.Context, filter dto.ClienteFilter) (*dto.ClienteListResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
	// RegistrarSena adds a deposit to the client's balance in that currency.
	RegistrarSena(ctx context.Context, id uuid.UUID, req dto.RegistrarSenaRequest) (*dto.ClienteResponse, error)
}

type clienteService struct {
	repo repository.ClienteRepository
}

func NewClienteService(repo repository.ClienteRepository) ClienteService {
	return &clienteService{repo: repo}
}

func (s *clienteService) Crear(ctx context.Context, req dto.CrearClienteRequest) (*dto.ClienteResponse, error) {
	nombre := strings.TrimSpace(req.Nombre)
	if nombre == "" {
		return nil, campoInvalido("nombre", "requerido")
	}
	c := &model.Cliente{
		ID:       uuid.New(),
		Nombre:   nombre,
		Telefono: req.Telefono,
		Email:    req.Email,
		DNI:      req.DNI,
		SenaARS:  decimal.Zero,
		SenaUSD:  decimal.Zero,
		Activo:   true,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return clienteToResponse(c), nil
}

func (s *clienteService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "cliente")
	}
	return clienteToResponse(c), nil
}

func (s *clienteService) Listar(ctx context.Context, filter dto.ClienteFilter) (*dto.ClienteListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	clientes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ClienteResponse, 0, len(clientes))
	for i := range clientes {
		data = append(data, *clienteToResponse(&clientes[i]))
	}
	return &dto.ClienteListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *clienteService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "cliente")
	}
	if req.Nombre != nil {
		c.Nombre = strings.TrimSpace(*req.Nombre)
	}
	if req.Telefono != nil {
		c.Telefono = req.Telefono
	}
	if req.Email != nil {
		c.Email = req.Email
	}
	if req.DNI != nil {
		c.DNI = req.DNI
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return clienteToResponse(c), nil
}

func (s *clienteService) Desactivar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return noEncontrado(err, "cliente")
	}
	return s.repo.SoftDelete(ctx, id)
}

func (s *clienteService) RegistrarSena(ctx context.Context, id uuid.UUID, req dto.RegistrarSenaRequest) (*dto.ClienteResponse, error) {
	mon, err := moneda.Parse(req.Moneda)
	if err != nil {
		return nil, campoInvalido("moneda", err.Error())
	}
	if !req.Monto.IsPositive() {
		return nil, campoInvalido("monto", "debe ser mayor a 0")
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "cliente")
	}
	if !c.Activo {
		return nil, campoInvalido("cliente_id", "cliente inactivo")
	}
	if err := s.repo.AjustarSenaTx(ctx, nil, id, string(mon), req.Monto); err != nil {
		return nil, err
	}
	if mon == moneda.USD {
		c.SenaUSD = c.SenaUSD.Add(req.Monto)
	} else {
		c.SenaARS = c.SenaARS.Add(req.Monto)
	}
	log.Info().Str("cliente_id", id.String()).Str("monto", moneda.Format(req.Monto, mon)).Msg("seña registrada")
	return clienteToResponse(c), nil
}

func clienteToResponse(c *model.Cliente) *dto.ClienteResponse {
	return &dto.ClienteResponse{
		ID:       c.ID.String(),
		Nombre:   c.Nombre,
		Telefono: c.Telefono,
		Email:    c.Email,
		DNI:      c.DNI,
		SenaARS:  c.SenaARS,
		SenaUSD:  c.SenaUSD,
		Activo:   c.Activo,
	}
}
