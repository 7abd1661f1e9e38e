package service

import (
	"context"
	"strings"

	"merygarcia/internal/dto"
	"merygarcia/internal/model"
	"merygarcia/internal/repository"

	"github.com/google/uuid"
)

// PersonalService manages the staff that can be named responsible for a comanda.
type PersonalService interface {
	Crear(ctx context.Context, req dto.CrearPersonalRequest) (*dto.PersonalResponse, error)
	Listar(ctx context.Context, unidadNegocio string) ([]dto.PersonalResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
	Reactivar(ctx context.Context, id uuid.UUID) error
}

type personalService struct {
	repo repository.PersonalRepository
}

func NewPersonalService(repo repository.PersonalRepository) PersonalService {
	return &personalService{repo: repo}
}

func (s *personalService) Crear(ctx context.Context, req dto.CrearPersonalRequest) (*dto.PersonalResponse, error) {
	p := &model.Personal{
		ID:            uuid.New(),
		Nombre:        strings.TrimSpace(req.Nombre),
		UnidadNegocio: req.UnidadNegocio,
		ComisionPct:   req.ComisionPct,
		Activo:        true,
	}
	if p.Nombre == "" {
		return nil, campoInvalido("nombre", "requerido")
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return personalToResponse(p), nil
}

func (s *personalService) Listar(ctx context.Context, unidadNegocio string) ([]dto.PersonalResponse, error) {
	rows, err := s.repo.List(ctx, unidadNegocio)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.PersonalResponse, 0, len(rows))
	for i := range rows {
		resp = append(resp, *personalToResponse(&rows[i]))
	}
	return resp, nil
}

func (s *personalService) Desactivar(ctx context.Context, id uuid.UUID) error {
	return s.setActivo(ctx, id, false)
}

func (s *personalService) Reactivar(ctx context.Context, id uuid.UUID) error {
	return s.setActivo(ctx, id, true)
}

func (s *personalService) setActivo(ctx context.Context, id uuid.UUID, activo bool) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return noEncontrado(err, "personal")
	}
	return s.repo.SetActivo(ctx, id, activo)
}

func personalToResponse(p *model.Personal) *dto.PersonalResponse {
	return &dto.PersonalResponse{
		ID:            p.ID.String(),
		Nombre:        p.Nombre,
		UnidadNegocio: p.UnidadNegocio,
		ComisionPct:   p.ComisionPct,
		Activo:        p.Activo,
	}
}
