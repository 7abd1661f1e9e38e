package calculo

import (
	"fmt"

	"merygarcia/internal/moneda"

	"github.com/shopspring/decimal"
)

// TipoTransaccion distinguishes income comandas from expense comandas.
type TipoTransaccion string

const (
	Ingreso TipoTransaccion = "ingreso"
	Egreso  TipoTransaccion = "egreso"
)

func ParseTipo(s string) (TipoTransaccion, error) {
	switch TipoTransaccion(s) {
	case Ingreso, Egreso:
		return TipoTransaccion(s), nil
	}
	return "", fmt.Errorf("tipo de transaccion desconocido: %q", s)
}

// TipoPrecio is the tag of an Item.
type TipoPrecio int

const (
	// PrecioNormal items are priced in USD and follow the transaction's unit of account.
	PrecioNormal TipoPrecio = iota
	// PrecioFijoARS items carry an ARS amount that is never converted.
	// Income calls it "precio congelado", expense calls it "monto fijo ARS".
	PrecioFijoARS
)

func (t TipoPrecio) String() string {
	switch t {
	case PrecioNormal:
		return "normal"
	case PrecioFijoARS:
		return "fijo_ars"
	default:
		return "desconocido"
	}
}

// Item is one line of a comanda. Build it with NuevoItem or NuevoItemPrecioFijo
// so the price denomination is fixed at construction.
type Item struct {
	Nombre         string
	Precio         TipoPrecio
	PrecioUnitario decimal.Decimal
	Cantidad       int
	DescuentoPct   decimal.Decimal
}

func NuevoItem(nombre string, precioUSD decimal.Decimal, cantidad int, descuentoPct decimal.Decimal) Item {
	return Item{Nombre: nombre, Precio: PrecioNormal, PrecioUnitario: precioUSD, Cantidad: cantidad, DescuentoPct: descuentoPct}
}

func NuevoItemPrecioFijo(nombre string, precioARS decimal.Decimal, cantidad int, descuentoPct decimal.Decimal) Item {
	return Item{Nombre: nombre, Precio: PrecioFijoARS, PrecioUnitario: precioARS, Cantidad: cantidad, DescuentoPct: descuentoPct}
}

func (i Item) EsPrecioFijo() bool { return i.Precio == PrecioFijoARS }

// MetodoPago enumerates the payment instruments accepted at the till.
type MetodoPago string

const (
	Efectivo      MetodoPago = "efectivo"
	Tarjeta       MetodoPago = "tarjeta"
	Transferencia MetodoPago = "transferencia"
	GiftCard      MetodoPago = "giftcard"
	QR            MetodoPago = "qr"
)

func ParseMetodoPago(s string) (MetodoPago, error) {
	switch MetodoPago(s) {
	case Efectivo, Tarjeta, Transferencia, GiftCard, QR:
		return MetodoPago(s), nil
	}
	return "", fmt.Errorf("metodo de pago desconocido: %q", s)
}

// Pago is a payment instrument. AjustePct is a surcharge when positive and a
// discount when negative.
type Pago struct {
	Metodo    MetodoPago
	Moneda    moneda.Moneda
	Monto     decimal.Decimal
	AjustePct decimal.Decimal
}

// MontoFinal = Monto × (1 + AjustePct/100), in the payment's own currency.
func (p Pago) MontoFinal() decimal.Decimal {
	return p.Monto.Add(p.ajuste())
}

func (p Pago) ajuste() decimal.Decimal {
	return p.Monto.Mul(p.AjustePct).Div(cien)
}

// Sena is a deposit previously paid by the client.
type Sena struct {
	Monto  decimal.Decimal
	Moneda moneda.Moneda
}

// Transaccion is the snapshot of a comanda being entered.
type Transaccion struct {
	Tipo       TipoTransaccion
	Items      []Item
	Pagos      []Pago
	Sena       *Sena
	TipoCambio decimal.Decimal
}

// EstadoBalance classifies Desglose.Balance against the tolerance.
type EstadoBalance string

const (
	Conciliado EstadoBalance = "conciliado"
	Sobrepago  EstadoBalance = "sobrepago"
	Faltante   EstadoBalance = "faltante"
)

// ItemCalculado is an Item expressed in the unit of account.
type ItemCalculado struct {
	Nombre         string
	PrecioFijo     bool
	PrecioUnitario decimal.Decimal
	Cantidad       int
	Bruto          decimal.Decimal
	DescuentoPct   decimal.Decimal
	DescuentoMonto decimal.Decimal
	Subtotal       decimal.Decimal
	Convertido     bool
}

// PagoCalculado is a Pago after the unit-of-account policy was applied.
// Moneda is the currency the payment is booked in; MonedaOriginal is what
// the caller supplied.
type PagoCalculado struct {
	Metodo             MetodoPago
	Moneda             moneda.Moneda
	MonedaOriginal     moneda.Moneda
	Monto              decimal.Decimal
	AjustePct          decimal.Decimal
	AjusteMonto        decimal.Decimal
	MontoFinal         decimal.Decimal
	MontoFinalEnUnidad decimal.Decimal
}

// EquivalenteARS carries display-only ARS figures for a USD breakdown.
type EquivalenteARS struct {
	SubtotalConDescuentos decimal.Decimal
	TotalAPagar           decimal.Decimal
	TotalCobrado          decimal.Decimal
	Balance               decimal.Decimal
}

// Desglose is the reconciled financial breakdown of a Transaccion.
type Desglose struct {
	Tipo           TipoTransaccion
	Unidad         moneda.Moneda
	ModoPrecioFijo bool
	TipoCambio     decimal.Decimal

	Items []ItemCalculado
	Pagos []PagoCalculado

	SubtotalBase          decimal.Decimal
	TotalDescuentos       decimal.Decimal
	SubtotalConDescuentos decimal.Decimal
	SenaAplicada          decimal.Decimal
	DescuentosMetodoPago  decimal.Decimal
	RecargosMetodoPago    decimal.Decimal
	TotalAPagar           decimal.Decimal
	TotalCobrado          decimal.Decimal
	Balance               decimal.Decimal
	Estado                EstadoBalance

	// RequiereTipoCambio is set when some amount needed a conversion and the
	// rate was not valid. Those amounts are missing from the totals.
	RequiereTipoCambio bool
	Equivalente        *EquivalenteARS
}
