package worker

// comprobante_worker.go
// Renders the PDF receipt of a saved comanda and, when the client has an
// e-mail address, queues its delivery.

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"merygarcia/internal/infra"
	"merygarcia/internal/model"
	"merygarcia/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ComprobanteJobPayload is the job envelope sent to QueueComprobante.
type ComprobanteJobPayload struct {
	ComandaID string `json:"comanda_id"`
}

// EmailEnqueuer is the slice of Dispatcher the receipt worker needs.
type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, payload EmailJobPayload) error
}

type ComprobanteWorker struct {
	comandaRepo     repository.ComandaRepository
	comprobanteRepo repository.ComprobanteRepository
	emails          EmailEnqueuer
	pdfStoragePath  string
	negocio         string
}

func NewComprobanteWorker(
	comandaRepo repository.ComandaRepository,
	comprobanteRepo repository.ComprobanteRepository,
	emails EmailEnqueuer,
	pdfStoragePath, negocio string,
) *ComprobanteWorker {
	return &ComprobanteWorker{
		comandaRepo:     comandaRepo,
		comprobanteRepo: comprobanteRepo,
		emails:          emails,
		pdfStoragePath:  pdfStoragePath,
		negocio:         negocio,
	}
}

// Process handles a single comprobante job:
//  1. Load the comanda with items and payments
//  2. Render the PDF under pdfStoragePath
//  3. Mark the Comprobante row emitido (or error, with retry schedule)
//  4. Queue the e-mail when the client has one
func (w *ComprobanteWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ComprobanteJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("comprobante_worker: invalid payload")
		return nil // not retryable
	}
	comandaID, err := uuid.Parse(payload.ComandaID)
	if err != nil {
		log.Error().Str("comanda_id", payload.ComandaID).Msg("comprobante_worker: invalid comanda_id")
		return nil
	}

	comanda, err := w.comandaRepo.FindByID(ctx, comandaID)
	if err != nil {
		return fmt.Errorf("comprobante_worker: load comanda %s: %w", comandaID, err)
	}

	comp, err := w.comprobanteRepo.FindByComandaID(ctx, comandaID)
	if err != nil {
		return fmt.Errorf("comprobante_worker: load comprobante %s: %w", comandaID, err)
	}

	path, genErr := infra.GenerateComprobantePDF(comanda, w.negocio, w.pdfStoragePath)
	if genErr != nil {
		w.marcarError(ctx, comp, genErr)
		return genErr
	}

	rel, err := filepath.Rel(w.pdfStoragePath, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	comp.Estado = "emitido"
	comp.PDFPath = &rel
	comp.LastError = nil
	comp.NextRetryAt = nil
	if err := w.comprobanteRepo.Update(ctx, comp); err != nil {
		return fmt.Errorf("comprobante_worker: update comprobante: %w", err)
	}
	log.Info().Str("comanda_id", comandaID.String()).Str("numero", comanda.Numero).Msg("comprobante_worker: PDF generated")

	if w.emails != nil && comanda.Cliente != nil && comanda.Cliente.Email != nil && *comanda.Cliente.Email != "" && !comp.EmailEnviado {
		job := EmailJobPayload{
			ComandaID: comandaID.String(),
			ToEmail:   *comanda.Cliente.Email,
			Subject:   fmt.Sprintf("%s - Comanda %s", w.negocio, comanda.Numero),
			Body:      fmt.Sprintf("Hola %s, adjuntamos el comprobante de tu comanda %s. ¡Gracias!", comanda.ClienteNombre, comanda.Numero),
			PDFPath:   path,
		}
		if err := w.emails.EnqueueEmail(ctx, job); err != nil {
			log.Warn().Err(err).Str("comanda_id", comandaID.String()).Msg("comprobante_worker: could not enqueue email")
		}
	}
	return nil
}

func (w *ComprobanteWorker) marcarError(ctx context.Context, comp *model.Comprobante, cause error) {
	comp.Estado = "error"
	comp.RetryCount++
	msg := cause.Error()
	comp.LastError = &msg
	next := time.Now().Add(computeRetryBackoff(comp.RetryCount))
	comp.NextRetryAt = &next
	if err := w.comprobanteRepo.Update(ctx, comp); err != nil {
		log.Error().Err(err).Str("comprobante_id", comp.ID.String()).Msg("comprobante_worker: could not record failure")
	}
}
