package dto

import "github.com/shopspring/decimal"

type CrearPersonalRequest struct {
	Nombre        string          `json:"nombre"         validate:"required,min=2,max=100"`
	UnidadNegocio string          `json:"unidad_negocio" validate:"required,oneof=tatuajes estilismo formacion"`
	ComisionPct   decimal.Decimal `json:"comision_pct"   validate:"min=0,max=100"`
}

type PersonalResponse struct {
	ID            string          `json:"id"`
	Nombre        string          `json:"nombre"`
	UnidadNegocio string          `json:"unidad_negocio"`
	ComisionPct   decimal.Decimal `json:"comision_pct"`
	Activo        bool            `json:"activo"`
}
