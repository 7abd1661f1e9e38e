package dto

import "github.com/shopspring/decimal"

type CrearClienteRequest struct {
	Nombre   string  `json:"nombre"   validate:"required,min=2,max=120"`
	Telefono *string `json:"telefono" validate:"omitempty,max=30"`
	Email    *string `json:"email"    validate:"omitempty,email"`
	DNI      *string `json:"dni"      validate:"omitempty,numeric,min=7,max=9"`
}

type ActualizarClienteRequest struct {
	Nombre   *string `json:"nombre"   validate:"omitempty,min=2,max=120"`
	Telefono *string `json:"telefono" validate:"omitempty,max=30"`
	Email    *string `json:"email"    validate:"omitempty,email"`
	DNI      *string `json:"dni"      validate:"omitempty,numeric,min=7,max=9"`
}

// RegistrarSenaRequest adds a deposit to the client's balance in that currency.
type RegistrarSenaRequest struct {
	Monto  decimal.Decimal `json:"monto"  validate:"gt=0"`
	Moneda string          `json:"moneda" validate:"required,oneof=ARS USD ars usd"`
}

type ClienteFilter struct {
	Nombre string `form:"nombre"`
	Page   int    `form:"page,default=1"  validate:"min=1"`
	Limit  int    `form:"limit,default=20" validate:"min=1,max=100"`
}

type ClienteResponse struct {
	ID       string          `json:"id"`
	Nombre   string          `json:"nombre"`
	Telefono *string         `json:"telefono"`
	Email    *string         `json:"email"`
	DNI      *string         `json:"dni"`
	SenaARS  decimal.Decimal `json:"sena_ars"`
	SenaUSD  decimal.Decimal `json:"sena_usd"`
	Activo   bool            `json:"activo"`
}

type ClienteListResponse struct {
	Data  []ClienteResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
