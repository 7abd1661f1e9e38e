package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cliente holds contact data and the deposit (seña) balances, one per currency.
type Cliente struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre    string    `gorm:"index;not null"`
	Telefono  *string
	Email     *string
	DNI       *string         `gorm:"column:dni;uniqueIndex"`
	SenaARS   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0;column:sena_ars"`
	SenaUSD   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0;column:sena_usd"`
	Activo    bool            `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
