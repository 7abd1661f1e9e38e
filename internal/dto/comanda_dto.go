package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ItemComandaRequest is one line. On income, es_precio_congelado with
// precio_fijo_ars fixes the ARS price; on expense, es_monto_fijo_ars means
// precio is already ARS. When producto_id is set the catalog supplies
// name, price and the frozen flag.
type ItemComandaRequest struct {
	ProductoID        *string          `json:"producto_id"         validate:"omitempty,uuid"`
	Nombre            string           `json:"nombre"              validate:"max=120"`
	Precio            decimal.Decimal  `json:"precio"              validate:"min=0"`
	Cantidad          int              `json:"cantidad"            validate:"required,min=1"`
	DescuentoPct      decimal.Decimal  `json:"descuento_pct"       validate:"min=0,max=100"`
	EsPrecioCongelado bool             `json:"es_precio_congelado"`
	PrecioFijoARS     *decimal.Decimal `json:"precio_fijo_ars"`
	EsMontoFijoARS    bool             `json:"es_monto_fijo_ars"`
}

// PagoComandaRequest: a nil ajuste_pct takes the configured default for the method.
type PagoComandaRequest struct {
	Metodo    string           `json:"metodo"     validate:"required,oneof=efectivo tarjeta transferencia giftcard qr"`
	Moneda    string           `json:"moneda"     validate:"required,oneof=ARS USD ars usd"`
	Monto     decimal.Decimal  `json:"monto"      validate:"gt=0"`
	AjustePct *decimal.Decimal `json:"ajuste_pct"`
}

type SenaRequest struct {
	Monto  decimal.Decimal `json:"monto"  validate:"gt=0"`
	Moneda string          `json:"moneda" validate:"required,oneof=ARS USD ars usd"`
}

// CalcularComandaRequest is the preview input. TipoCambio overrides the
// current snapshot (the form sends the rate it opened with).
type CalcularComandaRequest struct {
	Tipo       string               `json:"tipo"        validate:"required,oneof=ingreso egreso"`
	Items      []ItemComandaRequest `json:"items"       validate:"dive"`
	Pagos      []PagoComandaRequest `json:"pagos"       validate:"dive"`
	Sena       *SenaRequest         `json:"sena"`
	TipoCambio *decimal.Decimal     `json:"tipo_cambio"`
}

type RegistrarComandaRequest struct {
	Tipo          string               `json:"tipo"           validate:"required,oneof=ingreso egreso"`
	Numero        string               `json:"numero"         validate:"required,max=30"`
	Fecha         *string              `json:"fecha"          validate:"omitempty,datetime=2006-01-02"`
	UnidadNegocio string               `json:"unidad_negocio" validate:"required,oneof=tatuajes estilismo formacion"`
	ClienteID     *string              `json:"cliente_id"     validate:"omitempty,uuid"`
	ClienteNombre string               `json:"cliente_nombre" validate:"max=120"`
	ResponsableID string               `json:"responsable_id" validate:"required,uuid"`
	Items         []ItemComandaRequest `json:"items"          validate:"required,min=1,dive"`
	Pagos         []PagoComandaRequest `json:"pagos"          validate:"dive"`
	Sena          *SenaRequest         `json:"sena"`
	TipoCambio    *decimal.Decimal     `json:"tipo_cambio"`
	Observaciones *string              `json:"observaciones"  validate:"omitempty,max=500"`
}

type AnularComandaRequest struct {
	Motivo string `json:"motivo" validate:"required,min=5"`
}

// ─── Filter / List ──────────────────────────────────────────────────────────

// ComandaFilter is bound from the query string of GET /v1/comandas.
type ComandaFilter struct {
	Tipo          string `form:"tipo"           validate:"omitempty,oneof=ingreso egreso"`
	UnidadNegocio string `form:"unidad_negocio" validate:"omitempty,oneof=tatuajes estilismo formacion"`
	Estado        string `form:"estado,default=registrada"` // registrada | anulada | all
	ClienteID     string `form:"cliente_id"     validate:"omitempty,uuid"`
	Desde         string `form:"desde"          validate:"omitempty,datetime=2006-01-02"`
	Hasta         string `form:"hasta"          validate:"omitempty,datetime=2006-01-02"`
	Page          int    `form:"page,default=1"   validate:"min=1"`
	Limit         int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemDesgloseResponse struct {
	Nombre         string          `json:"nombre"`
	PrecioFijo     bool            `json:"precio_fijo"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Cantidad       int             `json:"cantidad"`
	Bruto          decimal.Decimal `json:"bruto"`
	DescuentoPct   decimal.Decimal `json:"descuento_pct"`
	DescuentoMonto decimal.Decimal `json:"descuento_monto"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Convertido     bool            `json:"convertido"`
}

type PagoDesgloseResponse struct {
	Metodo             string          `json:"metodo"`
	Moneda             string          `json:"moneda"`
	MonedaOriginal     string          `json:"moneda_original"`
	Monto              decimal.Decimal `json:"monto"`
	AjustePct          decimal.Decimal `json:"ajuste_pct"`
	AjusteMonto        decimal.Decimal `json:"ajuste_monto"`
	MontoFinal         decimal.Decimal `json:"monto_final"`
	MontoFinalEnUnidad decimal.Decimal `json:"monto_final_en_unidad"`
}

type EquivalenteARSResponse struct {
	SubtotalConDescuentos decimal.Decimal `json:"subtotal_con_descuentos"`
	TotalAPagar           decimal.Decimal `json:"total_a_pagar"`
	TotalCobrado          decimal.Decimal `json:"total_cobrado"`
	Balance               decimal.Decimal `json:"balance"`
}

// DesgloseResponse is the rounded breakdown plus display strings.
type DesgloseResponse struct {
	Tipo                  string                  `json:"tipo"`
	Unidad                string                  `json:"unidad"`
	ModoPrecioFijo        bool                    `json:"modo_precio_fijo"`
	TipoCambio            decimal.Decimal         `json:"tipo_cambio"`
	Items                 []ItemDesgloseResponse  `json:"items"`
	Pagos                 []PagoDesgloseResponse  `json:"pagos"`
	SubtotalBase          decimal.Decimal         `json:"subtotal_base"`
	TotalDescuentos       decimal.Decimal         `json:"total_descuentos"`
	SubtotalConDescuentos decimal.Decimal         `json:"subtotal_con_descuentos"`
	SenaAplicada          decimal.Decimal         `json:"sena_aplicada"`
	DescuentosMetodoPago  decimal.Decimal         `json:"descuentos_metodo_pago"`
	RecargosMetodoPago    decimal.Decimal         `json:"recargos_metodo_pago"`
	TotalAPagar           decimal.Decimal         `json:"total_a_pagar"`
	TotalCobrado          decimal.Decimal         `json:"total_cobrado"`
	Balance               decimal.Decimal         `json:"balance"`
	Estado                string                  `json:"estado"`
	RequiereTipoCambio    bool                    `json:"requiere_tipo_cambio"`
	Guardable             bool                    `json:"guardable"`
	Equivalente           *EquivalenteARSResponse `json:"equivalente_ars,omitempty"`
	// Display strings, es-AR format
	TotalAPagarTexto  string `json:"total_a_pagar_texto"`
	TotalCobradoTexto string `json:"total_cobrado_texto"`
	BalanceTexto      string `json:"balance_texto"`
}

// ComandaItemResponse: precio_unitario and subtotal are in the comanda's unidad.
type ComandaItemResponse struct {
	ProductoID     *string         `json:"producto_id"`
	Nombre         string          `json:"nombre"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	PrecioOriginal decimal.Decimal `json:"precio_original"`
	MonedaOriginal string          `json:"moneda_original"`
	PrecioFijoARS  bool            `json:"precio_fijo_ars"`
	Cantidad       int             `json:"cantidad"`
	DescuentoPct   decimal.Decimal `json:"descuento_pct"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type ComandaPagoResponse struct {
	Metodo         string          `json:"metodo"`
	Moneda         string          `json:"moneda"`
	MonedaOriginal string          `json:"moneda_original"`
	Monto          decimal.Decimal `json:"monto"`
	AjustePct      decimal.Decimal `json:"ajuste_pct"`
	MontoFinal     decimal.Decimal `json:"monto_final"`
}

type ComandaResponse struct {
	ID                    string                `json:"id"`
	Numero                string                `json:"numero"`
	Tipo                  string                `json:"tipo"`
	Fecha                 string                `json:"fecha"`
	UnidadNegocio         string                `json:"unidad_negocio"`
	ClienteID             *string               `json:"cliente_id"`
	ClienteNombre         string                `json:"cliente_nombre"`
	ResponsableID         *string               `json:"responsable_id"`
	Unidad                string                `json:"unidad"`
	TipoCambio            decimal.Decimal       `json:"tipo_cambio"`
	ModoPrecioFijo        bool                  `json:"modo_precio_fijo"`
	Items                 []ComandaItemResponse `json:"items"`
	Pagos                 []ComandaPagoResponse `json:"pagos"`
	SubtotalBase          decimal.Decimal       `json:"subtotal_base"`
	TotalDescuentos       decimal.Decimal       `json:"total_descuentos"`
	SubtotalConDescuentos decimal.Decimal       `json:"subtotal_con_descuentos"`
	SenaAplicada          decimal.Decimal       `json:"sena_aplicada"`
	DescuentosMetodoPago  decimal.Decimal       `json:"descuentos_metodo_pago"`
	RecargosMetodoPago    decimal.Decimal       `json:"recargos_metodo_pago"`
	TotalAPagar           decimal.Decimal       `json:"total_a_pagar"`
	TotalCobrado          decimal.Decimal       `json:"total_cobrado"`
	Balance               decimal.Decimal       `json:"balance"`
	Estado                string                `json:"estado"`
	Observaciones         *string               `json:"observaciones"`
	CreatedAt             string                `json:"created_at"`
}

type ComandaListResponse struct {
	Data  []ComandaResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

type SiguienteNumeroResponse struct {
	Tipo   string `json:"tipo"`
	Numero string `json:"numero"`
}
