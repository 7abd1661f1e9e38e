package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"merygarcia/internal/borrador"
	"merygarcia/internal/calculo"
	"merygarcia/internal/dto"
	"merygarcia/internal/model"
	"merygarcia/internal/moneda"
	"merygarcia/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ComprobanteQueue receives saved comandas whose receipt must be rendered.
// *worker.Dispatcher satisfies it.
type ComprobanteQueue interface {
	EnqueueComprobante(ctx context.Context, comandaID uuid.UUID) error
}

type ComandaService interface {
	// Calcular previews the breakdown without persisting anything.
	Calcular(ctx context.Context, req dto.CalcularComandaRequest) (*dto.DesgloseResponse, error)
	Registrar(ctx context.Context, usuarioID uuid.UUID, req dto.RegistrarComandaRequest) (*dto.ComandaResponse, error)
	SiguienteNumero(ctx context.Context, tipo string) (*dto.SiguienteNumeroResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ComandaResponse, error)
	Listar(ctx context.Context, filter dto.ComandaFilter) (*dto.ComandaListResponse, error)
	Anular(ctx context.Context, id uuid.UUID, motivo string) error
}

// ComandaOpciones are the business policies read from config.
type ComandaOpciones struct {
	PermitirSobrepago bool
	Ajustes           AjustesPago
}

type comandaService struct {
	repo         repository.ComandaRepository
	clientes     repository.ClienteRepository
	personal     repository.PersonalRepository
	comprobantes repository.ComprobanteRepository
	tipoCambio   TipoCambioService
	queue        ComprobanteQueue
	resolutor    *resolutor
	opts         ComandaOpciones
	now          func() time.Time
}

func NewComandaService(
	repo repository.ComandaRepository,
	clientes repository.ClienteRepository,
	productos repository.ProductoRepository,
	personal repository.PersonalRepository,
	comprobantes repository.ComprobanteRepository,
	tipoCambio TipoCambioService,
	queue ComprobanteQueue,
	opts ComandaOpciones,
) ComandaService {
	return &comandaService{
		repo:         repo,
		clientes:     clientes,
		personal:     personal,
		comprobantes: comprobantes,
		tipoCambio:   tipoCambio,
		queue:        queue,
		resolutor:    &resolutor{productos: productos, ajustes: opts.Ajustes},
		opts:         opts,
		now:          time.Now,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── Calcular ──────────────────────────────────────────────────────────────────

func (s *comandaService) Calcular(ctx context.Context, req dto.CalcularComandaRequest) (*dto.DesgloseResponse, error) {
	tipo, err := calculo.ParseTipo(req.Tipo)
	if err != nil {
		return nil, campoInvalido("tipo", err.Error())
	}
	tasa, _ := s.tasa(ctx, req.TipoCambio)

	campos := map[string]string{}
	b := s.resolutor.entrada(ctx, tipo, tasa, req.Items, req.Pagos, req.Sena, campos)
	if err := validacion(campos); err != nil {
		return nil, err
	}
	return desgloseToResponse(b.Calcular(), s.opts.PermitirSobrepago), nil
}

// ── Registrar ─────────────────────────────────────────────────────────────────
//   1. Validate header (responsable, cliente, fecha) and resolve lines/payments
//   2. Resolve the rate (request snapshot or current) and run the engine
//   3. Block on missing rate, unreconciled balance or duplicate number
//   4. BEGIN TX: comanda + items + pagos, consume deposit, pending comprobante
//   5. COMMIT, then enqueue the receipt (best-effort)

func (s *comandaService) Registrar(ctx context.Context, usuarioID uuid.UUID, req dto.RegistrarComandaRequest) (*dto.ComandaResponse, error) {
	campos := map[string]string{}

	tipo, err := calculo.ParseTipo(req.Tipo)
	if err != nil {
		return nil, campoInvalido("tipo", err.Error())
	}

	numero := strings.TrimSpace(req.Numero)
	if numero == "" {
		campos["numero"] = "requerido"
	}

	fecha := s.now()
	if req.Fecha != nil && *req.Fecha != "" {
		f, err := time.ParseInLocation("2006-01-02", *req.Fecha, time.Local)
		if err != nil {
			campos["fecha"] = "formato esperado AAAA-MM-DD"
		} else {
			fecha = f
		}
	}

	var responsableID *uuid.UUID
	if rid, err := uuid.Parse(req.ResponsableID); err != nil {
		campos["responsable_id"] = "requerido"
	} else if p, err := s.personal.FindByID(ctx, rid); err != nil || !p.Activo {
		campos["responsable_id"] = "responsable inexistente o inactivo"
	} else {
		responsableID = &rid
	}

	var cliente *model.Cliente
	if req.ClienteID != nil && *req.ClienteID != "" {
		cid, err := uuid.Parse(*req.ClienteID)
		if err != nil {
			campos["cliente_id"] = "uuid invalido"
		} else if c, err := s.clientes.FindByID(ctx, cid); err != nil || !c.Activo {
			campos["cliente_id"] = "cliente inexistente o inactivo"
		} else {
			cliente = c
		}
	}
	clienteNombre := strings.TrimSpace(req.ClienteNombre)
	if clienteNombre == "" && cliente != nil {
		clienteNombre = cliente.Nombre
	}
	if clienteNombre == "" && campos["cliente_id"] == "" {
		campos["cliente_nombre"] = "requerido"
	}

	if len(req.Items) == 0 {
		campos["items"] = "se requiere al menos un item"
	}

	tasa, vigente := s.tasa(ctx, req.TipoCambio)
	b := s.resolutor.entrada(ctx, tipo, tasa, req.Items, req.Pagos, req.Sena, campos)

	if b.Sena != nil {
		switch {
		case cliente == nil:
			campos["sena"] = "la seña requiere un cliente"
		case saldoSena(cliente, b.Sena.Moneda).LessThan(b.Sena.Monto):
			campos["sena.monto"] = fmt.Sprintf("saldo insuficiente (%s disponible)",
				moneda.Format(saldoSena(cliente, b.Sena.Moneda), b.Sena.Moneda))
		default:
			b.Sena.ClienteID = cliente.ID
		}
	}

	if err := validacion(campos); err != nil {
		return nil, err
	}

	des := b.Calcular()
	if des.RequiereTipoCambio || (!vigente && requiereConversion(des, b.Sena)) {
		return nil, ErrTipoCambio
	}
	if !des.Guardable(s.opts.PermitirSobrepago) {
		return nil, errorConciliacion(des)
	}

	existe, err := s.repo.ExisteNumero(ctx, string(tipo), numero)
	if err != nil {
		return nil, err
	}
	if existe {
		return nil, fmt.Errorf("%w: %s", ErrNumeroDuplicado, numero)
	}

	des = des.Redondear()
	comanda := model.Comanda{
		ID:                    uuid.New(),
		Numero:                numero,
		Tipo:                  string(tipo),
		Fecha:                 fecha,
		UnidadNegocio:         req.UnidadNegocio,
		ClienteNombre:         clienteNombre,
		ResponsableID:         responsableID,
		UsuarioID:             usuarioID,
		Unidad:                string(des.Unidad),
		TipoCambio:            des.TipoCambio,
		ModoPrecioFijo:        des.ModoPrecioFijo,
		SubtotalBase:          des.SubtotalBase,
		TotalDescuentos:       des.TotalDescuentos,
		SubtotalConDescuentos: des.SubtotalConDescuentos,
		SenaAplicada:          des.SenaAplicada,
		DescuentosMetodoPago:  des.DescuentosMetodoPago,
		RecargosMetodoPago:    des.RecargosMetodoPago,
		TotalAPagar:           des.TotalAPagar,
		TotalCobrado:          des.TotalCobrado,
		Balance:               des.Balance,
		Observaciones:         req.Observaciones,
		Estado:                "registrada",
	}
	if cliente != nil {
		comanda.ClienteID = &cliente.ID
	}
	for i, l := range b.Lineas {
		original := moneda.USD
		if l.PrecioFijoARS {
			original = moneda.ARS
		}
		comanda.Items = append(comanda.Items, model.ComandaItem{
			ID:             uuid.New(),
			ComandaID:      comanda.ID,
			ProductoID:     l.ProductoID,
			Nombre:         l.Nombre,
			PrecioUnitario: des.Items[i].PrecioUnitario,
			PrecioOriginal: l.Precio.Round(2),
			MonedaOriginal: string(original),
			PrecioFijoARS:  l.PrecioFijoARS,
			Cantidad:       l.Cantidad,
			DescuentoPct:   l.DescuentoPct,
			Subtotal:       des.Items[i].Subtotal,
		})
	}
	for _, p := range des.Pagos {
		comanda.Pagos = append(comanda.Pagos, model.ComandaPago{
			ID:             uuid.New(),
			ComandaID:      comanda.ID,
			Metodo:         string(p.Metodo),
			Moneda:         string(p.Moneda),
			MonedaOriginal: string(p.MonedaOriginal),
			Monto:          p.Monto,
			AjustePct:      p.AjustePct,
			MontoFinal:     p.MontoFinal,
		})
	}

	var consumida decimal.Decimal
	if b.Sena != nil && des.SenaAplicada.IsPositive() {
		consumida = senaConsumida(des, *b.Sena)
		mon := string(b.Sena.Moneda)
		comanda.SenaMoneda = &mon
		comanda.SenaConsumida = &consumida
	}

	comp := &model.Comprobante{ID: uuid.New(), ComandaID: comanda.ID, Estado: "pendiente"}
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, &comanda); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s", ErrNumeroDuplicado, numero)
			}
			return err
		}
		if consumida.IsPositive() {
			bloqueado, err := s.clientes.FindByIDForUpdateTx(ctx, tx, cliente.ID)
			if err != nil {
				return err
			}
			if !bloqueado.Activo {
				return campoInvalido("cliente_id", "cliente inexistente o inactivo")
			}
			err = s.clientes.AjustarSenaTx(ctx, tx, cliente.ID, string(b.Sena.Moneda), consumida.Neg())
			if errors.Is(err, repository.ErrSaldoInsuficiente) {
				return campoInvalido("sena.monto", err.Error())
			}
			if err != nil {
				return err
			}
		}
		return s.comprobantes.CreateTx(ctx, tx, comp)
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().
		Str("comanda_id", comanda.ID.String()).
		Str("numero", comanda.Numero).
		Str("tipo", comanda.Tipo).
		Str("total", moneda.Format(comanda.TotalAPagar, des.Unidad)).
		Msg("comanda registrada")

	if s.queue != nil {
		if err := s.queue.EnqueueComprobante(ctx, comanda.ID); err != nil {
			// Hand it to the retry cron.
			log.Warn().Err(err).Str("comanda_id", comanda.ID.String()).Msg("could not enqueue comprobante")
			msg := err.Error()
			ahora := s.now()
			comp.Estado = "error"
			comp.LastError = &msg
			comp.NextRetryAt = &ahora
			if err := s.comprobantes.Update(ctx, comp); err != nil {
				log.Error().Err(err).Str("comanda_id", comanda.ID.String()).Msg("could not flag comprobante for retry")
			}
		}
	}

	if cliente != nil {
		comanda.Cliente = cliente
	}
	return comandaToResponse(&comanda), nil
}

// ── SiguienteNumero ───────────────────────────────────────────────────────────

func (s *comandaService) SiguienteNumero(ctx context.Context, tipo string) (*dto.SiguienteNumeroResponse, error) {
	t, err := calculo.ParseTipo(tipo)
	if err != nil {
		return nil, campoInvalido("tipo", err.Error())
	}
	prefijo := "ING-"
	if t == calculo.Egreso {
		prefijo = "EGR-"
	}
	ultimo, err := s.repo.MaxSecuencia(ctx, string(t), prefijo)
	if err != nil {
		return nil, err
	}
	return &dto.SiguienteNumeroResponse{Tipo: string(t), Numero: fmt.Sprintf("%s%05d", prefijo, ultimo+1)}, nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *comandaService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ComandaResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "comanda")
	}
	return comandaToResponse(c), nil
}

func (s *comandaService) Listar(ctx context.Context, filter dto.ComandaFilter) (*dto.ComandaListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	if filter.Estado == "" {
		filter.Estado = "registrada"
	}
	comandas, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ComandaResponse, 0, len(comandas))
	for i := range comandas {
		data = append(data, *comandaToResponse(&comandas[i]))
	}
	return &dto.ComandaListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// ── Anular ────────────────────────────────────────────────────────────────────
// Marks the comanda anulada and gives the consumed deposit back to the client.

func (s *comandaService) Anular(ctx context.Context, id uuid.UUID, motivo string) error {
	if len(strings.TrimSpace(motivo)) < 5 {
		return campoInvalido("motivo", "minimo 5 caracteres")
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return noEncontrado(err, "comanda")
	}
	if c.Estado == "anulada" {
		return fmt.Errorf("la comanda ya esta anulada: %w", ErrEstadoInvalido)
	}

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		// the guarded update decides the race; only its winner refunds
		if err := s.repo.AnularTx(ctx, tx, id, motivo); err != nil {
			if errors.Is(err, repository.ErrComandaYaAnulada) {
				return fmt.Errorf("la comanda ya esta anulada: %w", ErrEstadoInvalido)
			}
			return err
		}
		if c.ClienteID != nil && c.SenaMoneda != nil && c.SenaConsumida != nil && c.SenaConsumida.IsPositive() {
			return s.clientes.AjustarSenaTx(ctx, tx, *c.ClienteID, *c.SenaMoneda, *c.SenaConsumida)
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Info().Str("comanda_id", id.String()).Str("numero", c.Numero).Msg("comanda anulada")
	return nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// tasa returns the request snapshot when present, else the current rate.
// vigente is false when only a stale rate (or none) is available.
func (s *comandaService) tasa(ctx context.Context, pedida *decimal.Decimal) (decimal.Decimal, bool) {
	if pedida != nil && pedida.IsPositive() {
		return *pedida, true
	}
	if s.tipoCambio == nil {
		return decimal.Zero, false
	}
	tc, err := s.tipoCambio.Actual(ctx)
	if err != nil {
		return decimal.Zero, false
	}
	return tc.Venta, tc.Vigente
}

func saldoSena(c *model.Cliente, m moneda.Moneda) decimal.Decimal {
	if m == moneda.USD {
		return c.SenaUSD
	}
	return c.SenaARS
}

// senaConsumida is the applied deposit expressed back in the deposit's own
// currency, never more than what the client offered.
func senaConsumida(des calculo.Desglose, sena borrador.Sena) decimal.Decimal {
	aplicada := des.SenaAplicada
	if sena.Moneda != des.Unidad {
		conv := moneda.NewConversor(des.TipoCambio)
		if v, err := conv.Convertir(aplicada, des.Unidad, sena.Moneda); err == nil {
			aplicada = v
		}
	}
	return decimal.Min(aplicada.Round(2), sena.Monto)
}

// requiereConversion reports whether any figure of des went through the rate.
func requiereConversion(des calculo.Desglose, sena *borrador.Sena) bool {
	for _, it := range des.Items {
		if it.Convertido {
			return true
		}
	}
	for _, p := range des.Pagos {
		// in fixed-ARS mode a USD payment is booked as ARS
		if p.Moneda != des.Unidad || p.MonedaOriginal != des.Unidad {
			return true
		}
	}
	return sena != nil && sena.Moneda != des.Unidad
}

func errorConciliacion(des calculo.Desglose) error {
	return fmt.Errorf("%w: balance %s (%s)", ErrConciliacion, moneda.Format(des.Balance, des.Unidad), des.Estado)
}

func desgloseToResponse(des calculo.Desglose, permitirSobrepago bool) *dto.DesgloseResponse {
	guardable := des.Guardable(permitirSobrepago)
	d := des.Redondear()
	resp := &dto.DesgloseResponse{
		Tipo:                  string(d.Tipo),
		Unidad:                string(d.Unidad),
		ModoPrecioFijo:        d.ModoPrecioFijo,
		TipoCambio:            d.TipoCambio,
		Items:                 make([]dto.ItemDesgloseResponse, 0, len(d.Items)),
		Pagos:                 make([]dto.PagoDesgloseResponse, 0, len(d.Pagos)),
		SubtotalBase:          d.SubtotalBase,
		TotalDescuentos:       d.TotalDescuentos,
		SubtotalConDescuentos: d.SubtotalConDescuentos,
		SenaAplicada:          d.SenaAplicada,
		DescuentosMetodoPago:  d.DescuentosMetodoPago,
		RecargosMetodoPago:    d.RecargosMetodoPago,
		TotalAPagar:           d.TotalAPagar,
		TotalCobrado:          d.TotalCobrado,
		Balance:               d.Balance,
		Estado:                string(d.Estado),
		RequiereTipoCambio:    d.RequiereTipoCambio,
		Guardable:             guardable,
	}
	for _, it := range d.Items {
		resp.Items = append(resp.Items, dto.ItemDesgloseResponse{
			Nombre:         it.Nombre,
			PrecioFijo:     it.PrecioFijo,
			PrecioUnitario: it.PrecioUnitario,
			Cantidad:       it.Cantidad,
			Bruto:          it.Bruto,
			DescuentoPct:   it.DescuentoPct,
			DescuentoMonto: it.DescuentoMonto,
			Subtotal:       it.Subtotal,
			Convertido:     it.Convertido,
		})
	}
	for _, p := range d.Pagos {
		resp.Pagos = append(resp.Pagos, dto.PagoDesgloseResponse{
			Metodo:             string(p.Metodo),
			Moneda:             string(p.Moneda),
			MonedaOriginal:     string(p.MonedaOriginal),
			Monto:              p.Monto,
			AjustePct:          p.AjustePct,
			AjusteMonto:        p.AjusteMonto,
			MontoFinal:         p.MontoFinal,
			MontoFinalEnUnidad: p.MontoFinalEnUnidad,
		})
	}
	if d.Equivalente != nil {
		resp.Equivalente = &dto.EquivalenteARSResponse{
			SubtotalConDescuentos: d.Equivalente.SubtotalConDescuentos,
			TotalAPagar:           d.Equivalente.TotalAPagar,
			TotalCobrado:          d.Equivalente.TotalCobrado,
			Balance:               d.Equivalente.Balance,
		}
	}

	texto := func(v decimal.Decimal) string { return moneda.Format(v, d.Unidad) }
	if d.Unidad == moneda.USD {
		texto = moneda.NewConversor(d.TipoCambio).FormatDual
	}
	resp.TotalAPagarTexto = texto(d.TotalAPagar)
	resp.TotalCobradoTexto = texto(d.TotalCobrado)
	resp.BalanceTexto = texto(d.Balance)
	return resp
}

func comandaToResponse(c *model.Comanda) *dto.ComandaResponse {
	resp := &dto.ComandaResponse{
		ID:                    c.ID.String(),
		Numero:                c.Numero,
		Tipo:                  c.Tipo,
		Fecha:                 c.Fecha.Format("2006-01-02"),
		UnidadNegocio:         c.UnidadNegocio,
		ClienteNombre:         c.ClienteNombre,
		Unidad:                c.Unidad,
		TipoCambio:            c.TipoCambio,
		ModoPrecioFijo:        c.ModoPrecioFijo,
		Items:                 make([]dto.ComandaItemResponse, 0, len(c.Items)),
		Pagos:                 make([]dto.ComandaPagoResponse, 0, len(c.Pagos)),
		SubtotalBase:          c.SubtotalBase,
		TotalDescuentos:       c.TotalDescuentos,
		SubtotalConDescuentos: c.SubtotalConDescuentos,
		SenaAplicada:          c.SenaAplicada,
		DescuentosMetodoPago:  c.DescuentosMetodoPago,
		RecargosMetodoPago:    c.RecargosMetodoPago,
		TotalAPagar:           c.TotalAPagar,
		TotalCobrado:          c.TotalCobrado,
		Balance:               c.Balance,
		Estado:                c.Estado,
		Observaciones:         c.Observaciones,
		CreatedAt:             c.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if c.ClienteID != nil {
		id := c.ClienteID.String()
		resp.ClienteID = &id
	}
	if c.ResponsableID != nil {
		id := c.ResponsableID.String()
		resp.ResponsableID = &id
	}
	for _, it := range c.Items {
		item := dto.ComandaItemResponse{
			Nombre:         it.Nombre,
			PrecioUnitario: it.PrecioUnitario,
			PrecioOriginal: it.PrecioOriginal,
			MonedaOriginal: it.MonedaOriginal,
			PrecioFijoARS:  it.PrecioFijoARS,
			Cantidad:       it.Cantidad,
			DescuentoPct:   it.DescuentoPct,
			Subtotal:       it.Subtotal,
		}
		if it.ProductoID != nil {
			pid := it.ProductoID.String()
			item.ProductoID = &pid
		}
		resp.Items = append(resp.Items, item)
	}
	for _, p := range c.Pagos {
		resp.Pagos = append(resp.Pagos, dto.ComandaPagoResponse{
			Metodo:         p.Metodo,
			Moneda:         p.Moneda,
			MonedaOriginal: p.MonedaOriginal,
			Monto:          p.Monto,
			AjustePct:      p.AjustePct,
			MontoFinal:     p.MontoFinal,
		})
	}
	return resp
}
