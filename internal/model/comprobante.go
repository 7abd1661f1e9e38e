package model

import (
	"time"

	"github.com/google/uuid"
)

// Comprobante tracks the PDF receipt generated for a Comanda.
// Estado: "pendiente" | "emitido" | "error"
type Comprobante struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ComandaID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Estado    string    `gorm:"type:varchar(20);not null;default:'pendiente'"`
	// PDFPath is relative to PDF_STORAGE_PATH
	PDFPath      *string `gorm:"column:pdf_path"`
	EmailEnviado bool    `gorm:"not null;default:false"`
	// Retry fields, used by the retry cron to re-enqueue failed renders
	RetryCount  int        `gorm:"not null;default:0"`
	NextRetryAt *time.Time `gorm:"column:next_retry_at"`
	LastError   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
