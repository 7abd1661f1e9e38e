package dto

import "github.com/shopspring/decimal"

// EstablecerTipoCambioRequest is a manual override of the provider rate.
type EstablecerTipoCambioRequest struct {
	Venta  decimal.Decimal  `json:"venta"  validate:"gt=0"`
	Compra *decimal.Decimal `json:"compra"`
}

type TipoCambioResponse struct {
	Venta   decimal.Decimal `json:"venta"`
	Compra  decimal.Decimal `json:"compra"`
	Fuente  string          `json:"fuente"`
	ValidAt string          `json:"valid_at"`
	// Vigente is false when the provider is unreachable and the last known rate is older than the TTL
	Vigente bool `json:"vigente"`
}
