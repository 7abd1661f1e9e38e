package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"merygarcia/internal/dto"
	"merygarcia/internal/model"
	"merygarcia/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ComprobanteService exposes the PDF receipt of a comanda.
type ComprobanteService interface {
	Obtener(ctx context.Context, comandaID uuid.UUID) (*dto.ComprobanteResponse, error)
	// RutaPDF returns the absolute path of a rendered receipt.
	RutaPDF(ctx context.Context, comandaID uuid.UUID) (string, error)
	// Reintentar re-enqueues a receipt that is not emitido yet.
	Reintentar(ctx context.Context, comandaID uuid.UUID) (*dto.ComprobanteResponse, error)
}

type comprobanteService struct {
	repo        repository.ComprobanteRepository
	queue       ComprobanteQueue
	storagePath string
}

func NewComprobanteService(repo repository.ComprobanteRepository, queue ComprobanteQueue, storagePath string) ComprobanteService {
	return &comprobanteService{repo: repo, queue: queue, storagePath: storagePath}
}

func (s *comprobanteService) Obtener(ctx context.Context, comandaID uuid.UUID) (*dto.ComprobanteResponse, error) {
	comp, err := s.repo.FindByComandaID(ctx, comandaID)
	if err != nil {
		return nil, noEncontrado(err, "comprobante")
	}
	return comprobanteToResponse(comp), nil
}

func (s *comprobanteService) RutaPDF(ctx context.Context, comandaID uuid.UUID) (string, error) {
	comp, err := s.repo.FindByComandaID(ctx, comandaID)
	if err != nil {
		return "", noEncontrado(err, "comprobante")
	}
	if comp.Estado != "emitido" || comp.PDFPath == nil || *comp.PDFPath == "" {
		return "", fmt.Errorf("PDF no disponible, comprobante en estado %q: %w", comp.Estado, ErrEstadoInvalido)
	}
	if filepath.IsAbs(*comp.PDFPath) {
		return *comp.PDFPath, nil
	}
	return filepath.Join(s.storagePath, *comp.PDFPath), nil
}

func (s *comprobanteService) Reintentar(ctx context.Context, comandaID uuid.UUID) (*dto.ComprobanteResponse, error) {
	comp, err := s.repo.FindByComandaID(ctx, comandaID)
	if err != nil {
		return nil, noEncontrado(err, "comprobante")
	}
	if comp.Estado == "emitido" {
		return nil, fmt.Errorf("comprobante ya emitido: %w", ErrEstadoInvalido)
	}
	if err := s.queue.EnqueueComprobante(ctx, comandaID); err != nil {
		return nil, err
	}
	comp.Estado = "pendiente"
	comp.NextRetryAt = nil
	if err := s.repo.Update(ctx, comp); err != nil {
		return nil, err
	}
	log.Info().Str("comanda_id", comandaID.String()).Int("intentos", comp.RetryCount).Msg("comprobante re-enqueued manually")
	return comprobanteToResponse(comp), nil
}

func comprobanteToResponse(c *model.Comprobante) *dto.ComprobanteResponse {
	resp := &dto.ComprobanteResponse{
		ID:           c.ID.String(),
		ComandaID:    c.ComandaID.String(),
		Estado:       c.Estado,
		EmailEnviado: c.EmailEnviado,
		Intentos:     c.RetryCount,
		UltimoError:  c.LastError,
		CreatedAt:    c.CreatedAt.Format(time.RFC3339),
	}
	if c.NextRetryAt != nil {
		t := c.NextRetryAt.UTC().Format(time.RFC3339)
		resp.ProximoIntento = &t
	}
	if c.Estado == "emitido" && c.PDFPath != nil && *c.PDFPath != "" {
		u := "/v1/comandas/" + c.ComandaID.String() + "/comprobante/pdf"
		resp.PDFUrl = &u
	}
	return resp
}
