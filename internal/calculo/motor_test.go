package calculo

import (
	"testing"

	"merygarcia/internal/moneda"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal, msg ...interface{}) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s, got %s %v", want, got.String(), msg)
}

// ── Scenarios ─────────────────────────────────────────────────────────────────

func TestCalcular_ItemSimpleConciliado(t *testing.T) {
	des := Calcular(Transaccion{
		Tipo:       Ingreso,
		Items:      []Item{NuevoItem("Tatuaje chico", d("100"), 1, decimal.Zero)},
		Pagos:      []Pago{{Metodo: Efectivo, Moneda: moneda.USD, Monto: d("100")}},
		TipoCambio: d("1000"),
	})

	assert.Equal(t, moneda.USD, des.Unidad)
	assert.False(t, des.ModoPrecioFijo)
	assertDec(t, "100", des.SubtotalBase)
	assertDec(t, "100", des.TotalAPagar)
	assertDec(t, "100", des.TotalCobrado)
	assertDec(t, "0", des.Balance)
	assert.Equal(t, Conciliado, des.Estado)
	assert.True(t, des.Guardable(false))
	require.NotNil(t, des.Equivalente)
	assertDec(t, "100000", des.Equivalente.TotalAPagar)
}

func TestCalcular_DescuentoPorItem(t *testing.T) {
	des := Calcular(Transaccion{
		Tipo:       Ingreso,
		Items:      []Item{NuevoItem("Corte", d("100"), 1, d("10"))},
		Pagos:      []Pago{{Metodo: Efectivo, Moneda: moneda.USD, Monto: d("90")}},
		TipoCambio: d("1000"),
	})

	require.Len(t, des.Items, 1)
	assertDec(t, "10", des.Items[0].DescuentoMonto)
	assertDec(t, "10", des.TotalDescuentos)
	assertDec(t, "90", des.SubtotalConDescuentos)
	assertDec(t, "90", des.TotalAPagar)
	assert.True(t, des.Conciliado())
}

func TestCalcular_PrecioFijoCambiaUnidadAARS(t *testing.T) {
	des := Calcular(Transaccion{
		Tipo:  Ingreso,
		Items: []Item{NuevoItemPrecioFijo("Curso", d("50000"), 1, decimal.Zero)},
		Pagos: []Pago{
			{Metodo: Efectivo, Moneda: moneda.USD, Monto: d("20")},
			{Metodo: Transferencia, Moneda: moneda.ARS, Monto: d("30000")},
		},
		TipoCambio: d("1000"),
	})

	assert.Equal(t, moneda.ARS, des.Unidad)
	assert.True(t, des.ModoPrecioFijo)
	assertDec(t, "50000", des.SubtotalBase)
	assert.False(t, des.Items[0].Convertido)
	for _, p := range des.Pagos {
		assert.Equal(t, moneda.ARS, p.Moneda)
	}
	assert.Equal(t, moneda.USD, des.Pagos[0].MonedaOriginal)
	assertDec(t, "20000", des.Pagos[0].Monto)
	assertDec(t, "50000", des.TotalCobrado)
	assert.True(t, des.Conciliado())
	assert.Nil(t, des.Equivalente)
}

func TestCalcular_PrecioFijoIndependienteDelTipoCambio(t *testing.T) {
	base := Transaccion{
		Tipo:  Ingreso,
		Items: []Item{NuevoItemPrecioFijo("Curso", d("50000"), 1, decimal.Zero)},
	}
	a := base
	a.TipoCambio = d("1000")
	b := base
	b.TipoCambio = d("1500")

	assertDec(t, "50000", Calcular(a).TotalAPagar)
	assertDec(t, "50000", Calcular(b).TotalAPagar)
}

func TestCalcular_PrecioFijoConItemNormal(t *testing.T) {
	des := Calcular(Transaccion{
		Tipo: Ingreso,
		Items: []Item{
			NuevoItemPrecioFijo("Curso", d("50000"), 1, decimal.Zero),
			NuevoItem("Insumo", d("10"), 2, decimal.Zero),
		},
		TipoCambio: d("1000"),
	})

	assertDec(t, "70000", des.SubtotalBase)
	assert.True(t, des.Items[1].Convertido)
	assertDec(t, "10000", des.Items[1].PrecioUnitario)
}

func TestCalcular_SenaEnUSD(t *testing.T) {
	des := Calcular(Transaccion{
		Tipo:       Ingreso,
		Items:      []Item{NuevoItem("Tatuaje", d("100"), 1, decimal.Zero)},
		Sena:       &Sena{Monto: d("20"), Moneda: moneda.USD},
		Pagos:      []Pago{{Metodo: Tarjeta, Moneda: moneda.USD, Monto: d("80")}},
		TipoCambio: d("1000"),
	})

	assertDec(t, "20", des.SenaAplicada)
	assertDec(t, "80", des.TotalAPagar)
	assertDec(t, "80000", des.Equivalente.TotalAPagar)
	assert.True(t, des.Conciliado())
}

func TestCalcular_SenaEnARSConvertida(t *testing.T) {
	des := Calcular(Transaccion{
		Tipo:       Ingreso,
		Items:      []Item{NuevoItem("Tatuaje", d("100"), 1, decimal.Zero)},
		Sena:       &Sena{Monto: d("20000"), Moneda: moneda.ARS},
		TipoCambio: d("1000"),
	})
	assertDec(t, "20", des.SenaAplicada)
	assertDec(t, "80", des.TotalAPagar)
}

func TestCalcular_SenaMayorAlTotalSeLimita(t *testing.T) {
	des := Calcular(Transaccion{
		Tipo:       Ingreso,
		Items:      []Item{NuevoItem("Retoque", d("30"), 1, decimal.Zero)},
		Sena:       &Sena{Monto: d("50"), Moneda: moneda.USD},
		TipoCambio: d("1000"),
	})
	assertDec(t, "30", des.SenaAplicada)
	assertDec(t, "0", des.TotalAPagar)
	assert.True(t, des.Conciliado())
}

func TestCalcular_Sobrepago(t *testing.T) {
	des := Calcular(Transaccion{
		Tipo:       Ingreso,
		Items:      []Item{NuevoItem("Tatuaje", d("100"), 1, decimal.Zero)},
		Pagos:      []Pago{{Metodo: Efectivo, Moneda: moneda.USD, Monto: d("110")}},
		TipoCambio: d("1000"),
	})
	assertDec(t, "10", des.Balance)
	assert.Equal(t, Sobrepago, des.Estado)
	assert.True(t, des.Guardable(true))
	assert.False(t, des.Guardable(false))
}

func TestCalcular_Faltante(t *testing.T) {
	des := Calcular(Transaccion{
		Tipo:       Ingreso,
		Items:      []Item{NuevoItem("Tatuaje", d("100"), 1, decimal.Zero)},
		Pagos:      []Pago{{Metodo: Efectivo, Moneda: moneda.USD, Monto: d("90")}},
		TipoCambio: d("1000"),
	})
	assertDec(t, "-10", des.Balance)
	assert.Equal(t, Faltante, des.Estado)
	assert.False(t, des.Guardable(true))
}

// ── Payment adjustments ───────────────────────────────────────────────────────

func TestCalcular_DescuentoEfectivoReduceTotal(t *testing.T) {
	des := Calcular(Transaccion{
		Tipo:       Ingreso,
		Items:      []Item{NuevoItem("Tatuaje", d("100"), 1, decimal.Zero)},
		Pagos:      []Pago{{Metodo: Efectivo, Moneda: moneda.USD, Monto: d("100"), AjustePct: d("-10")}},
		TipoCambio: d("1000"),
	})
	assertDec(t, "90", des.Pagos[0].MontoFinal)
	assertDec(t, "10", des.DescuentosMetodoPago)
	assertDec(t, "90", des.TotalAPagar)
	assert.True(t, des.Conciliado())
}

func TestCalcular_RecargoTarjetaAumentaTotal(t *testing.T) {
	des := Calcular(Transaccion{
		Tipo:       Ingreso,
		Items:      []Item{NuevoItem("Tatuaje", d("100"), 1, decimal.Zero)},
		Pagos:      []Pago{{Metodo: Tarjeta, Moneda: moneda.USD, Monto: d("100"), AjustePct: d("10")}},
		TipoCambio: d("1000"),
	})
	assertDec(t, "110", des.Pagos[0].MontoFinal)
	assertDec(t, "10", des.RecargosMetodoPago)
	assertDec(t, "110", des.TotalAPagar)
	assert.True(t, des.Conciliado())
}

func TestCalcular_PagoARSEnModoUSD(t *testing.T) {
	des := Calcular(Transaccion{
		Tipo:  Ingreso,
		Items: []Item{NuevoItem("Tatuaje", d("100"), 1, decimal.Zero)},
		Pagos: []Pago{
			{Metodo: Efectivo, Moneda: moneda.USD, Monto: d("50")},
			{Metodo: QR, Moneda: moneda.ARS, Monto: d("50000")},
		},
		TipoCambio: d("1000"),
	})
	assert.Equal(t, moneda.ARS, des.Pagos[1].Moneda)
	assertDec(t, "50", des.Pagos[1].MontoFinalEnUnidad)
	assert.True(t, des.Conciliado())
}

// ── Missing rate ──────────────────────────────────────────────────────────────

func TestCalcular_SinTipoCambioSoloUSD(t *testing.T) {
	des := Calcular(Transaccion{
		Tipo:  Ingreso,
		Items: []Item{NuevoItem("Tatuaje", d("100"), 1, decimal.Zero)},
		Pagos: []Pago{{Metodo: Efectivo, Moneda: moneda.USD, Monto: d("100")}},
	})
	assert.False(t, des.RequiereTipoCambio)
	assert.Nil(t, des.Equivalente)
	assert.True(t, des.Conciliado())
}

func TestCalcular_SinTipoCambioConversionNecesaria(t *testing.T) {
	des := Calcular(Transaccion{
		Tipo: Ingreso,
		Items: []Item{
			NuevoItemPrecioFijo("Curso", d("50000"), 1, decimal.Zero),
			NuevoItem("Insumo", d("10"), 1, decimal.Zero),
		},
		Pagos: []Pago{{Metodo: Efectivo, Moneda: moneda.ARS, Monto: d("50000")}},
	})
	assert.True(t, des.RequiereTipoCambio)
	assert.False(t, des.Conciliado())
	assert.False(t, des.Guardable(true))
	assertDec(t, "50000", des.SubtotalBase)
}

// ── Properties ────────────────────────────────────────────────────────────────

func TestPropiedad_DescuentoAcotado(t *testing.T) {
	precios := []string{"0", "0.01", "1", "99.99", "1234.5"}
	pcts := []string{"0", "0.5", "33.333", "50", "99.99", "100", "150", "-5"}
	for _, p := range precios {
		for _, pct := range pcts {
			for cant := 1; cant <= 3; cant++ {
				des := Calcular(Transaccion{Items: []Item{NuevoItem("x", d(p), cant, d(pct))}})
				ic := des.Items[0]
				assert.False(t, ic.DescuentoMonto.IsNegative(), "precio=%s pct=%s", p, pct)
				assert.True(t, ic.DescuentoMonto.LessThanOrEqual(ic.Bruto), "precio=%s pct=%s", p, pct)
				assert.False(t, ic.Subtotal.IsNegative(), "precio=%s pct=%s", p, pct)
			}
		}
	}
}

func TestPropiedad_PrecioFijoFuerzaPagosEnARS(t *testing.T) {
	for _, tipo := range []TipoTransaccion{Ingreso, Egreso} {
		des := Calcular(Transaccion{
			Tipo:  tipo,
			Items: []Item{NuevoItemPrecioFijo("Alquiler", d("80000"), 1, decimal.Zero)},
			Pagos: []Pago{
				{Metodo: Efectivo, Moneda: moneda.USD, Monto: d("10")},
				{Metodo: Transferencia, Moneda: moneda.ARS, Monto: d("70000")},
			},
			TipoCambio: d("1000"),
		})
		for _, p := range des.Pagos {
			assert.Equal(t, moneda.ARS, p.Moneda, "tipo=%s", tipo)
		}
		assertDec(t, "80000", des.Items[0].PrecioUnitario)
	}
}

func TestPropiedad_BalanceEsCobradoMenosAPagar(t *testing.T) {
	des := Calcular(Transaccion{
		Tipo:       Ingreso,
		Items:      []Item{NuevoItem("a", d("33.33"), 3, d("7")), NuevoItem("b", d("12"), 1, decimal.Zero)},
		Sena:       &Sena{Monto: d("5"), Moneda: moneda.USD},
		Pagos:      []Pago{{Metodo: Tarjeta, Moneda: moneda.USD, Monto: d("50"), AjustePct: d("5")}},
		TipoCambio: d("1234.5"),
	})
	assert.True(t, des.Balance.Equal(des.TotalCobrado.Sub(des.TotalAPagar)))
}

func TestPropiedad_Idempotente(t *testing.T) {
	tx := Transaccion{
		Tipo:       Ingreso,
		Items:      []Item{NuevoItem("a", d("33.33"), 3, d("7")), NuevoItemPrecioFijo("b", d("9000"), 1, d("10"))},
		Sena:       &Sena{Monto: d("5"), Moneda: moneda.USD},
		Pagos:      []Pago{{Metodo: GiftCard, Moneda: moneda.USD, Monto: d("50")}},
		TipoCambio: d("1100"),
	}
	assert.Equal(t, Calcular(tx), Calcular(tx))
}

func TestRedondear(t *testing.T) {
	des := Calcular(Transaccion{
		Tipo:       Ingreso,
		Items:      []Item{NuevoItem("a", d("10"), 1, decimal.Zero)},
		Pagos:      []Pago{{Metodo: QR, Moneda: moneda.ARS, Monto: d("3333")}},
		TipoCambio: d("1000"),
	}).Redondear()
	assertDec(t, "3.33", des.TotalCobrado)
	assertDec(t, "-6.67", des.Balance)
}
