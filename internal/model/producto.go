package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producto is a catalog service or product. Precio is USD-denominated.
// EsPrecioCongelado=true means the ARS price PrecioFijoARS is authoritative
// and the item is never converted.
// UnidadNegocio: "tatuajes" | "estilismo" | "formacion"
type Producto struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre            string    `gorm:"index;not null"`
	Descripcion       *string
	UnidadNegocio     string           `gorm:"type:varchar(20);not null;index"`
	Precio            decimal.Decimal  `gorm:"type:decimal(14,2);not null"`
	EsPrecioCongelado bool             `gorm:"not null;default:false"`
	PrecioFijoARS     *decimal.Decimal `gorm:"type:decimal(14,2);column:precio_fijo_ars"`
	Activo            bool             `gorm:"not null;default:true"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
