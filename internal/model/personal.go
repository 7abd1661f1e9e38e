package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Personal is a staff member that can be named responsible for a comanda.
type Personal struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre        string          `gorm:"not null"`
	UnidadNegocio string          `gorm:"type:varchar(20);not null;index"`
	ComisionPct   decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	Activo        bool            `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Personal) TableName() string { return "personal" }
