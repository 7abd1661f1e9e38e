// Package moneda converts amounts between ARS and USD using a single sell rate
// and formats them for display the way receipts and screens show them.
package moneda

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Moneda is the currency of an amount. Only ARS and USD exist in this domain.
type Moneda string

const (
	ARS Moneda = "ARS"
	USD Moneda = "USD"
)

// ErrTipoCambioInvalido is returned by any conversion attempted without a usable rate.
var ErrTipoCambioInvalido = errors.New("tipo de cambio no disponible")

// Parse accepts "ars", "ARS", "usd", "USD" (surrounding spaces ignored).
func Parse(s string) (Moneda, error) {
	switch Moneda(strings.ToUpper(strings.TrimSpace(s))) {
	case ARS:
		return ARS, nil
	case USD:
		return USD, nil
	default:
		return "", fmt.Errorf("moneda desconocida: %q", s)
	}
}

func (m Moneda) Valida() bool { return m == ARS || m == USD }

func (m Moneda) String() string { return string(m) }

// Conversor holds an exchange-rate snapshot (ARS per USD).
// The zero value is an invalid converter: every conversion fails and
// FormatDual degrades to USD-only output.
type Conversor struct {
	tasa decimal.Decimal
}

func NewConversor(tasaVenta decimal.Decimal) Conversor {
	return Conversor{tasa: tasaVenta}
}

// Valido reports whether the rate is usable for arithmetic.
func (c Conversor) Valido() bool { return c.tasa.IsPositive() }

func (c Conversor) Tasa() decimal.Decimal { return c.tasa }

// ToUSD returns ars / tasa.
func (c Conversor) ToUSD(ars decimal.Decimal) (decimal.Decimal, error) {
	if !c.Valido() {
		return decimal.Zero, ErrTipoCambioInvalido
	}
	return ars.Div(c.tasa), nil
}

// ToARS returns usd × tasa.
func (c Conversor) ToARS(usd decimal.Decimal) (decimal.Decimal, error) {
	if !c.Valido() {
		return decimal.Zero, ErrTipoCambioInvalido
	}
	return usd.Mul(c.tasa), nil
}

// Convertir moves monto from one currency to the other. Same-currency
// conversions never need the rate.
func (c Conversor) Convertir(monto decimal.Decimal, desde, hacia Moneda) (decimal.Decimal, error) {
	switch {
	case desde == hacia:
		return monto, nil
	case desde == USD && hacia == ARS:
		return c.ToARS(monto)
	case desde == ARS && hacia == USD:
		return c.ToUSD(monto)
	default:
		return decimal.Zero, fmt.Errorf("conversion %s→%s no soportada", desde, hacia)
	}
}

// ── Formatting ────────────────────────────────────────────────────────────────

// es-AR grouping: "." for thousands, "," for decimals.
const patronARS = "#.###,##"

func formatear(monto decimal.Decimal) string {
	return humanize.FormatFloat(patronARS, monto.Round(2).InexactFloat64())
}

// FormatARS renders an ARS amount without any conversion ("$ 50.000,00").
// Used for fixed-ARS amounts, whose nominal value is authoritative.
func FormatARS(ars decimal.Decimal) string {
	return "$ " + formatear(ars)
}

// FormatUSD renders a USD amount ("US$ 100,00").
func FormatUSD(usd decimal.Decimal) string {
	return "US$ " + formatear(usd)
}

// Format renders monto in its own currency.
func Format(monto decimal.Decimal, m Moneda) string {
	if m == ARS {
		return FormatARS(monto)
	}
	return FormatUSD(monto)
}

// FormatDual renders a USD amount followed by its ARS equivalent.
// Without a valid rate only the USD part is shown.
func (c Conversor) FormatDual(usd decimal.Decimal) string {
	ars, err := c.ToARS(usd)
	if err != nil {
		return FormatUSD(usd)
	}
	return fmt.Sprintf("%s (≈ %s)", FormatUSD(usd), FormatARS(ars))
}
