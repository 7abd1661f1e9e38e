// Package calculo turns a comanda's items, discounts, deposit and payment
// instruments into a reconciled breakdown. Everything here is a pure function
// of its input: no I/O, no shared state.
package calculo

import (
	"merygarcia/internal/moneda"

	"github.com/shopspring/decimal"
)

var (
	cien = decimal.NewFromInt(100)

	// Tolerancia is the largest |balance| still considered reconciled.
	Tolerancia = decimal.New(1, -2)
)

// Calcular computes the breakdown of t.
//
// A single fixed-ARS item switches the whole transaction to ARS: USD prices
// are converted with the rate, fixed prices are taken as-is and every payment
// is booked in ARS. Without fixed items the unit of account is USD and ARS
// figures are produced for display only.
//
// TotalAPagar is SubtotalConDescuentos minus the applied deposit and the
// negative payment adjustments (DescuentosMetodoPago), plus the positive ones
// (RecargosMetodoPago): a card surcharge raises the amount payable.
func Calcular(t Transaccion) Desglose {
	conv := moneda.NewConversor(t.TipoCambio)
	fijo := tienePrecioFijo(t.Items)
	unidad := moneda.USD
	if fijo {
		unidad = moneda.ARS
	}

	d := Desglose{
		Tipo:           t.Tipo,
		Unidad:         unidad,
		ModoPrecioFijo: fijo,
		TipoCambio:     t.TipoCambio,
		Items:          make([]ItemCalculado, 0, len(t.Items)),
		Pagos:          make([]PagoCalculado, 0, len(t.Pagos)),
	}

	for _, it := range t.Items {
		ic, err := calcularItem(it, unidad, conv)
		if err != nil {
			d.RequiereTipoCambio = true
			continue
		}
		d.Items = append(d.Items, ic)
		d.SubtotalBase = d.SubtotalBase.Add(ic.Bruto)
		d.TotalDescuentos = d.TotalDescuentos.Add(ic.DescuentoMonto)
	}
	d.SubtotalConDescuentos = d.SubtotalBase.Sub(d.TotalDescuentos)

	if t.Sena != nil {
		sena, err := conv.Convertir(t.Sena.Monto, t.Sena.Moneda, unidad)
		if err != nil {
			d.RequiereTipoCambio = true
		} else {
			// A deposit larger than the bill is only consumed up to the bill.
			d.SenaAplicada = decimal.Min(sena, d.SubtotalConDescuentos)
		}
	}

	for _, p := range t.Pagos {
		pc, ajuste, err := calcularPago(p, unidad, fijo, conv)
		if err != nil {
			d.RequiereTipoCambio = true
			continue
		}
		d.Pagos = append(d.Pagos, pc)
		if ajuste.IsNegative() {
			d.DescuentosMetodoPago = d.DescuentosMetodoPago.Add(ajuste.Neg())
		} else {
			d.RecargosMetodoPago = d.RecargosMetodoPago.Add(ajuste)
		}
		d.TotalCobrado = d.TotalCobrado.Add(pc.MontoFinalEnUnidad)
	}

	d.TotalAPagar = d.SubtotalConDescuentos.
		Sub(d.SenaAplicada).
		Sub(d.DescuentosMetodoPago).
		Add(d.RecargosMetodoPago)
	d.Balance = d.TotalCobrado.Sub(d.TotalAPagar)
	d.Estado = clasificarBalance(d.Balance)

	if unidad == moneda.USD && conv.Valido() {
		d.Equivalente = equivalenteARS(d, conv)
	}
	return d
}

// Conciliado reports |Balance| < Tolerancia with every amount accounted for.
func (d Desglose) Conciliado() bool {
	return !d.RequiereTipoCambio && d.Estado == Conciliado
}

// Guardable reports whether a comanda with this breakdown may be persisted.
// Underpayment always blocks; overpayment blocks only when not allowed.
func (d Desglose) Guardable(permitirSobrepago bool) bool {
	if d.RequiereTipoCambio {
		return false
	}
	switch d.Estado {
	case Conciliado:
		return true
	case Sobrepago:
		return permitirSobrepago
	default:
		return false
	}
}

// Redondear returns a copy with every monetary figure rounded to cents.
func (d Desglose) Redondear() Desglose {
	r := d
	r.Items = make([]ItemCalculado, len(d.Items))
	for i, it := range d.Items {
		it.PrecioUnitario = it.PrecioUnitario.Round(2)
		it.Bruto = it.Bruto.Round(2)
		it.DescuentoMonto = it.DescuentoMonto.Round(2)
		it.Subtotal = it.Subtotal.Round(2)
		r.Items[i] = it
	}
	r.Pagos = make([]PagoCalculado, len(d.Pagos))
	for i, p := range d.Pagos {
		p.Monto = p.Monto.Round(2)
		p.AjusteMonto = p.AjusteMonto.Round(2)
		p.MontoFinal = p.MontoFinal.Round(2)
		p.MontoFinalEnUnidad = p.MontoFinalEnUnidad.Round(2)
		r.Pagos[i] = p
	}
	r.SubtotalBase = d.SubtotalBase.Round(2)
	r.TotalDescuentos = d.TotalDescuentos.Round(2)
	r.SubtotalConDescuentos = d.SubtotalConDescuentos.Round(2)
	r.SenaAplicada = d.SenaAplicada.Round(2)
	r.DescuentosMetodoPago = d.DescuentosMetodoPago.Round(2)
	r.RecargosMetodoPago = d.RecargosMetodoPago.Round(2)
	r.TotalAPagar = d.TotalAPagar.Round(2)
	r.TotalCobrado = d.TotalCobrado.Round(2)
	r.Balance = d.Balance.Round(2)
	if d.Equivalente != nil {
		r.Equivalente = &EquivalenteARS{
			SubtotalConDescuentos: d.Equivalente.SubtotalConDescuentos.Round(2),
			TotalAPagar:           d.Equivalente.TotalAPagar.Round(2),
			TotalCobrado:          d.Equivalente.TotalCobrado.Round(2),
			Balance:               d.Equivalente.Balance.Round(2),
		}
	}
	return r
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func tienePrecioFijo(items []Item) bool {
	for _, it := range items {
		if it.EsPrecioFijo() {
			return true
		}
	}
	return false
}

func calcularItem(it Item, unidad moneda.Moneda, conv moneda.Conversor) (ItemCalculado, error) {
	precio := it.PrecioUnitario
	convertido := false
	switch it.Precio {
	case PrecioFijoARS:
		// Nominal ARS value is authoritative; never converted.
	case PrecioNormal:
		if unidad == moneda.ARS {
			ars, err := conv.ToARS(precio)
			if err != nil {
				return ItemCalculado{}, err
			}
			precio = ars
			convertido = true
		}
	}

	pct := clampPct(it.DescuentoPct)
	bruto := precio.Mul(decimal.NewFromInt(int64(it.Cantidad)))
	descuento := bruto.Mul(pct).Div(cien)
	return ItemCalculado{
		Nombre:         it.Nombre,
		PrecioFijo:     it.EsPrecioFijo(),
		PrecioUnitario: precio,
		Cantidad:       it.Cantidad,
		Bruto:          bruto,
		DescuentoPct:   pct,
		DescuentoMonto: descuento,
		Subtotal:       bruto.Sub(descuento),
		Convertido:     convertido,
	}, nil
}

// calcularPago applies the unit-of-account policy to p and returns the booked
// payment plus its adjustment expressed in the unit.
func calcularPago(p Pago, unidad moneda.Moneda, fijo bool, conv moneda.Conversor) (PagoCalculado, decimal.Decimal, error) {
	booked := p
	if fijo && p.Moneda != moneda.ARS {
		ars, err := conv.Convertir(p.Monto, p.Moneda, moneda.ARS)
		if err != nil {
			return PagoCalculado{}, decimal.Zero, err
		}
		booked.Monto = ars
		booked.Moneda = moneda.ARS
	}

	final := booked.MontoFinal()
	finalEnUnidad, err := conv.Convertir(final, booked.Moneda, unidad)
	if err != nil {
		return PagoCalculado{}, decimal.Zero, err
	}
	ajuste := booked.ajuste()
	ajusteEnUnidad, err := conv.Convertir(ajuste, booked.Moneda, unidad)
	if err != nil {
		return PagoCalculado{}, decimal.Zero, err
	}

	return PagoCalculado{
		Metodo:             p.Metodo,
		Moneda:             booked.Moneda,
		MonedaOriginal:     p.Moneda,
		Monto:              booked.Monto,
		AjustePct:          p.AjustePct,
		AjusteMonto:        ajuste,
		MontoFinal:         final,
		MontoFinalEnUnidad: finalEnUnidad,
	}, ajusteEnUnidad, nil
}

func clampPct(pct decimal.Decimal) decimal.Decimal {
	if pct.IsNegative() {
		return decimal.Zero
	}
	if pct.GreaterThan(cien) {
		return cien
	}
	return pct
}

func clasificarBalance(b decimal.Decimal) EstadoBalance {
	switch {
	case b.Abs().LessThan(Tolerancia):
		return Conciliado
	case b.IsPositive():
		return Sobrepago
	default:
		return Faltante
	}
}

func equivalenteARS(d Desglose, conv moneda.Conversor) *EquivalenteARS {
	aARS := func(usd decimal.Decimal) decimal.Decimal {
		ars, _ := conv.ToARS(usd)
		return ars
	}
	return &EquivalenteARS{
		SubtotalConDescuentos: aARS(d.SubtotalConDescuentos),
		TotalAPagar:           aARS(d.TotalAPagar),
		TotalCobrado:          aARS(d.TotalCobrado),
		Balance:               aARS(d.Balance),
	}
}
