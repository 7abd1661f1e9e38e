package dto

import "github.com/shopspring/decimal"

type CrearBorradorRequest struct {
	Tipo string `json:"tipo" validate:"required,oneof=ingreso egreso"`
}

type AplicarSenaRequest struct {
	ClienteID string          `json:"cliente_id" validate:"required,uuid"`
	Monto     decimal.Decimal `json:"monto"      validate:"gt=0"`
	Moneda    string          `json:"moneda"     validate:"required,oneof=ARS USD ars usd"`
}

// GuardarBorradorRequest carries the header fields the draft does not hold.
type GuardarBorradorRequest struct {
	Numero        string  `json:"numero"         validate:"required,max=30"`
	Fecha         *string `json:"fecha"          validate:"omitempty,datetime=2006-01-02"`
	UnidadNegocio string  `json:"unidad_negocio" validate:"required,oneof=tatuajes estilismo formacion"`
	ClienteID     *string `json:"cliente_id"     validate:"omitempty,uuid"`
	ClienteNombre string  `json:"cliente_nombre" validate:"max=120"`
	ResponsableID string  `json:"responsable_id" validate:"required,uuid"`
	Observaciones *string `json:"observaciones"  validate:"omitempty,max=500"`
}

type BorradorResponse struct {
	ID         string               `json:"id"`
	Tipo       string               `json:"tipo"`
	Estado     string               `json:"estado"`
	TipoCambio decimal.Decimal      `json:"tipo_cambio"`
	Items      []ItemComandaRequest `json:"items"`
	Pagos      []PagoComandaRequest `json:"pagos"`
	Sena       *AplicarSenaRequest  `json:"sena"`
	Desglose   DesgloseResponse     `json:"desglose"`
}
