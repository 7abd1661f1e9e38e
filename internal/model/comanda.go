package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Comanda is a saved transaction record. Numero is unique per Tipo.
// Tipo: "ingreso" | "egreso"
// Estado: "registrada" | "anulada"
// Unidad is the unit of account the totals are expressed in ("ARS" | "USD").
type Comanda struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Numero        string     `gorm:"type:varchar(30);not null;uniqueIndex:idx_comanda_tipo_numero"`
	Tipo          string     `gorm:"type:varchar(10);not null;uniqueIndex:idx_comanda_tipo_numero"`
	Fecha         time.Time  `gorm:"not null;index"`
	UnidadNegocio string     `gorm:"type:varchar(20);not null;index"`
	ClienteID     *uuid.UUID `gorm:"type:uuid;index"`
	ClienteNombre string     `gorm:"not null"`
	ResponsableID *uuid.UUID `gorm:"type:uuid"`
	UsuarioID     uuid.UUID  `gorm:"type:uuid;not null"`
	Unidad        string     `gorm:"type:varchar(3);not null"`
	// TipoCambio is the rate snapshot every conversion of this comanda used
	TipoCambio            decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	ModoPrecioFijo        bool            `gorm:"not null;default:false"`
	SubtotalBase          decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	TotalDescuentos       decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	SubtotalConDescuentos decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	SenaAplicada          decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	// SenaMoneda/SenaConsumida record what was taken from the client balance,
	// in the balance's own currency, so Anular can give it back.
	SenaMoneda           *string          `gorm:"type:varchar(3)"`
	SenaConsumida        *decimal.Decimal `gorm:"type:decimal(14,2)"`
	DescuentosMetodoPago decimal.Decimal  `gorm:"type:decimal(14,2);not null;default:0"`
	RecargosMetodoPago   decimal.Decimal  `gorm:"type:decimal(14,2);not null;default:0"`
	TotalAPagar          decimal.Decimal  `gorm:"type:decimal(14,2);not null"`
	TotalCobrado         decimal.Decimal  `gorm:"type:decimal(14,2);not null"`
	Balance              decimal.Decimal  `gorm:"type:decimal(14,2);not null"`
	Observaciones        *string
	Estado               string `gorm:"type:varchar(20);not null;default:'registrada'"`
	MotivoAnulacion      *string
	CreatedAt            time.Time
	UpdatedAt            time.Time

	Items       []ComandaItem `gorm:"foreignKey:ComandaID"`
	Pagos       []ComandaPago `gorm:"foreignKey:ComandaID"`
	Cliente     *Cliente      `gorm:"foreignKey:ClienteID"`
	Responsable *Personal     `gorm:"foreignKey:ResponsableID"`
}

// ComandaItem is an immutable line of a Comanda. PrecioUnitario and Subtotal
// are in the comanda's Unidad; PrecioOriginal/MonedaOriginal keep the price as
// entered (a USD list price stays visible after an ARS conversion).
type ComandaItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ComandaID      uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductoID     *uuid.UUID      `gorm:"type:uuid"`
	Nombre         string          `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	PrecioOriginal decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	MonedaOriginal string          `gorm:"type:varchar(3);not null;default:'USD'"`
	PrecioFijoARS  bool            `gorm:"not null;default:false;column:precio_fijo_ars"`
	Cantidad       int             `gorm:"not null"`
	DescuentoPct   decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	// Subtotal is expressed in the comanda's Unidad
	Subtotal decimal.Decimal `gorm:"type:decimal(14,2);not null"`

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

// ComandaPago stores one payment instrument as booked.
// Moneda is the booked currency; MonedaOriginal is what the client handed over.
type ComandaPago struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ComandaID      uuid.UUID       `gorm:"type:uuid;index;not null"`
	Metodo         string          `gorm:"type:varchar(20);not null"`
	Moneda         string          `gorm:"type:varchar(3);not null"`
	MonedaOriginal string          `gorm:"type:varchar(3);not null"`
	Monto          decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	AjustePct      decimal.Decimal `gorm:"type:decimal(6,2);not null;default:0"`
	MontoFinal     decimal.Decimal `gorm:"type:decimal(14,2);not null"`
}
