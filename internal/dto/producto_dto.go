package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearProductoRequest struct {
	Nombre            string           `json:"nombre"              validate:"required,min=2,max=120"`
	Descripcion       *string          `json:"descripcion"`
	UnidadNegocio     string           `json:"unidad_negocio"      validate:"required,oneof=tatuajes estilismo formacion"`
	Precio            decimal.Decimal  `json:"precio"              validate:"min=0"`
	EsPrecioCongelado bool             `json:"es_precio_congelado"`
	PrecioFijoARS     *decimal.Decimal `json:"precio_fijo_ars"`
}

type ActualizarProductoRequest struct {
	Nombre            *string          `json:"nombre"         validate:"omitempty,min=2,max=120"`
	Descripcion       *string          `json:"descripcion"`
	UnidadNegocio     *string          `json:"unidad_negocio" validate:"omitempty,oneof=tatuajes estilismo formacion"`
	Precio            *decimal.Decimal `json:"precio"`
	EsPrecioCongelado *bool            `json:"es_precio_congelado"`
	PrecioFijoARS     *decimal.Decimal `json:"precio_fijo_ars"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductoFilter struct {
	Nombre        string `form:"nombre"`
	UnidadNegocio string `form:"unidad_negocio" validate:"omitempty,oneof=tatuajes estilismo formacion"`
	Page          int    `form:"page,default=1"  validate:"min=1"`
	Limit         int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductoResponse struct {
	ID                string           `json:"id"`
	Nombre            string           `json:"nombre"`
	Descripcion       *string          `json:"descripcion"`
	UnidadNegocio     string           `json:"unidad_negocio"`
	Precio            decimal.Decimal  `json:"precio"`
	EsPrecioCongelado bool             `json:"es_precio_congelado"`
	PrecioFijoARS     *decimal.Decimal `json:"precio_fijo_ars"`
	// PrecioTexto is "US$ x (≈ $ y)" or the frozen ARS price
	PrecioTexto string `json:"precio_texto"`
	Activo      bool   `json:"activo"`
}

type ProductoListResponse struct {
	Data       []ProductoResponse `json:"data"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}
