package worker

// email_worker.go
// Sends PDF receipts to client e-mails via SMTP.

import (
	"context"
	"encoding/json"
	"errors"

	"merygarcia/internal/infra"
	"merygarcia/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	ComandaID string `json:"comanda_id"`
	ToEmail   string `json:"to_email"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	PDFPath   string `json:"pdf_path"`
}

type EmailWorker struct {
	mailer          *infra.Mailer
	comprobanteRepo repository.ComprobanteRepository
}

func NewEmailWorker(mailer *infra.Mailer, comprobanteRepo repository.ComprobanteRepository) *EmailWorker {
	return &EmailWorker{mailer: mailer, comprobanteRepo: comprobanteRepo}
}

// Process sends an email with the PDF receipt as attachment and flags the
// comprobante as delivered.
func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return nil
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email, skipping")
		return nil
	}
	if !w.mailer.Enabled() {
		log.Warn().Str("to", payload.ToEmail).Msg("email_worker: SMTP not configured, skipping")
		return nil
	}

	if err := w.mailer.SendComprobante(payload.ToEmail, payload.Subject, payload.Body, payload.PDFPath); err != nil {
		return errors.Join(errors.New("email_worker: send failed"), err)
	}
	log.Info().Str("to", payload.ToEmail).Str("comanda_id", payload.ComandaID).Msg("email_worker: comprobante sent")

	if id, err := uuid.Parse(payload.ComandaID); err == nil && w.comprobanteRepo != nil {
		if comp, err := w.comprobanteRepo.FindByComandaID(ctx, id); err == nil {
			comp.EmailEnviado = true
			_ = w.comprobanteRepo.Update(ctx, comp)
		}
	}
	return nil
}
