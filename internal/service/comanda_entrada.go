package service

// comanda_entrada.go
// Turns request lines, payments and deposits into the inputs the pricing
// engine works on. Shared by ComandaService and BorradorService.

import (
	"context"
	"fmt"
	"strings"

	"merygarcia/internal/borrador"
	"merygarcia/internal/calculo"
	"merygarcia/internal/dto"
	"merygarcia/internal/moneda"
	"merygarcia/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AjustesPago are the default payment adjustments applied on income when a
// payment does not carry its own ajuste_pct.
type AjustesPago struct {
	RecargoTarjetaPct    decimal.Decimal
	DescuentoEfectivoPct decimal.Decimal
}

type resolutor struct {
	productos repository.ProductoRepository
	ajustes   AjustesPago
}

// linea resolves one item. Errors are recorded in campos under prefijo.
func (r *resolutor) linea(ctx context.Context, tipo calculo.TipoTransaccion, prefijo string, req dto.ItemComandaRequest, campos map[string]string) borrador.Linea {
	l := borrador.Linea{
		Nombre:       strings.TrimSpace(req.Nombre),
		Precio:       req.Precio,
		Cantidad:     req.Cantidad,
		DescuentoPct: req.DescuentoPct,
	}
	if l.Cantidad < 1 {
		campos[prefijo+".cantidad"] = "debe ser al menos 1"
	}
	if l.DescuentoPct.IsNegative() || l.DescuentoPct.GreaterThan(decimal.NewFromInt(100)) {
		campos[prefijo+".descuento_pct"] = "debe estar entre 0 y 100"
	}

	if req.ProductoID != nil && *req.ProductoID != "" {
		pid, err := uuid.Parse(*req.ProductoID)
		if err != nil {
			campos[prefijo+".producto_id"] = "uuid invalido"
			return l
		}
		p, err := r.productos.FindByID(ctx, pid)
		if err != nil || !p.Activo {
			campos[prefijo+".producto_id"] = "producto inexistente o inactivo"
			return l
		}
		l.ProductoID = &pid
		l.Nombre = p.Nombre
		l.Precio = p.Precio
		if p.EsPrecioCongelado && p.PrecioFijoARS != nil {
			l.Precio = *p.PrecioFijoARS
			l.PrecioFijoARS = true
		}
		return l
	}

	if l.Nombre == "" {
		campos[prefijo+".nombre"] = "requerido"
	}
	if l.Precio.IsNegative() {
		campos[prefijo+".precio"] = "no puede ser negativo"
	}

	switch tipo {
	case calculo.Ingreso:
		if req.EsMontoFijoARS {
			campos[prefijo+".es_monto_fijo_ars"] = "solo aplica a egresos"
		}
		if req.EsPrecioCongelado {
			if req.PrecioFijoARS == nil || !req.PrecioFijoARS.IsPositive() {
				campos[prefijo+".precio_fijo_ars"] = "requerido para precio congelado"
				return l
			}
			l.Precio = *req.PrecioFijoARS
			l.PrecioFijoARS = true
		}
	case calculo.Egreso:
		if req.EsPrecioCongelado {
			campos[prefijo+".es_precio_congelado"] = "solo aplica a ingresos"
		}
		l.PrecioFijoARS = req.EsMontoFijoARS
	}
	return l
}

func (r *resolutor) pago(tipo calculo.TipoTransaccion, prefijo string, req dto.PagoComandaRequest, campos map[string]string) borrador.Pago {
	var p borrador.Pago
	metodo, err := calculo.ParseMetodoPago(req.Metodo)
	if err != nil {
		campos[prefijo+".metodo"] = err.Error()
	}
	mon, err := moneda.Parse(req.Moneda)
	if err != nil {
		campos[prefijo+".moneda"] = err.Error()
	}
	if !req.Monto.IsPositive() {
		campos[prefijo+".monto"] = "debe ser mayor a 0"
	}
	p = borrador.Pago{Metodo: metodo, Moneda: mon, Monto: req.Monto}

	switch {
	case req.AjustePct != nil:
		p.AjustePct = *req.AjustePct
		if tipo == calculo.Egreso && !p.AjustePct.IsZero() {
			campos[prefijo+".ajuste_pct"] = "los egresos no llevan ajuste por medio de pago"
		}
		if p.AjustePct.LessThan(decimal.NewFromInt(-100)) || p.AjustePct.GreaterThan(decimal.NewFromInt(100)) {
			campos[prefijo+".ajuste_pct"] = "debe estar entre -100 y 100"
		}
	case tipo == calculo.Ingreso && metodo == calculo.Tarjeta:
		p.AjustePct = r.ajustes.RecargoTarjetaPct
	case tipo == calculo.Ingreso && metodo == calculo.Efectivo:
		p.AjustePct = r.ajustes.DescuentoEfectivoPct.Neg()
	}
	return p
}

// sena validates a deposit request. The client is attached by the caller.
func (r *resolutor) sena(tipo calculo.TipoTransaccion, req *dto.SenaRequest, campos map[string]string) *borrador.Sena {
	if req == nil {
		return nil
	}
	if tipo == calculo.Egreso {
		campos["sena"] = "los egresos no admiten seña"
		return nil
	}
	mon, err := moneda.Parse(req.Moneda)
	if err != nil {
		campos["sena.moneda"] = err.Error()
	}
	if !req.Monto.IsPositive() {
		campos["sena.monto"] = "debe ser mayor a 0"
	}
	return &borrador.Sena{Monto: req.Monto, Moneda: mon}
}

// entrada resolves a whole request body into a draft-shaped value.
func (r *resolutor) entrada(
	ctx context.Context,
	tipo calculo.TipoTransaccion,
	tasa decimal.Decimal,
	items []dto.ItemComandaRequest,
	pagos []dto.PagoComandaRequest,
	sena *dto.SenaRequest,
	campos map[string]string,
) *borrador.Borrador {
	b := &borrador.Borrador{
		Tipo:       tipo,
		TipoCambio: tasa,
		Lineas:     make([]borrador.Linea, 0, len(items)),
		Pagos:      make([]borrador.Pago, 0, len(pagos)),
	}
	for i, it := range items {
		b.Lineas = append(b.Lineas, r.linea(ctx, tipo, fmt.Sprintf("items[%d]", i), it, campos))
	}
	for i, p := range pagos {
		b.Pagos = append(b.Pagos, r.pago(tipo, fmt.Sprintf("pagos[%d]", i), p, campos))
	}
	b.Sena = r.sena(tipo, sena, campos)
	return b
}

// ── Draft → request ───────────────────────────────────────────────────────────

func lineaARequest(tipo calculo.TipoTransaccion, l borrador.Linea) dto.ItemComandaRequest {
	req := dto.ItemComandaRequest{
		Nombre:       l.Nombre,
		Precio:       l.Precio,
		Cantidad:     l.Cantidad,
		DescuentoPct: l.DescuentoPct,
	}
	if l.ProductoID != nil {
		pid := l.ProductoID.String()
		req.ProductoID = &pid
	}
	if l.PrecioFijoARS {
		if tipo == calculo.Egreso {
			req.EsMontoFijoARS = true
		} else {
			precio := l.Precio
			req.EsPrecioCongelado = true
			req.PrecioFijoARS = &precio
		}
	}
	return req
}

func pagoARequest(p borrador.Pago) dto.PagoComandaRequest {
	ajuste := p.AjustePct
	return dto.PagoComandaRequest{
		Metodo:    string(p.Metodo),
		Moneda:    string(p.Moneda),
		Monto:     p.Monto,
		AjustePct: &ajuste,
	}
}
