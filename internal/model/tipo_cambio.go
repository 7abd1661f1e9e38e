package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TipoCambio is one observed USD sell/buy quote in ARS per USD.
// Rows are immutable; the newest one is the current rate.
// Fuente: "dolarapi" | "manual"
type TipoCambio struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Venta     decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	Compra    decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	Fuente    string          `gorm:"type:varchar(20);not null"`
	ValidAt   time.Time       `gorm:"not null;index"`
	UsuarioID *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt time.Time
}

func (TipoCambio) TableName() string { return "tipos_cambio" }
