package dto

type ComprobanteResponse struct {
	ID             string  `json:"id"`
	ComandaID      string  `json:"comanda_id"`
	Estado         string  `json:"estado"` // pendiente | emitido | error
	EmailEnviado   bool    `json:"email_enviado"`
	Intentos       int     `json:"intentos"`
	UltimoError    *string `json:"ultimo_error,omitempty"`
	ProximoIntento *string `json:"proximo_intento,omitempty"`
	PDFUrl         *string `json:"pdf_url,omitempty"`
	CreatedAt      string  `json:"created_at"`
}
