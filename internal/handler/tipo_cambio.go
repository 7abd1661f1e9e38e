package handler

import (
	"net/http"
	"strconv"

	"merygarcia/internal/dto"
	"merygarcia/internal/service"

	"github.com/gin-gonic/gin"
)

type TipoCambioHandler struct{ svc service.TipoCambioService }

func NewTipoCambioHandler(svc service.TipoCambioService) *TipoCambioHandler {
	return &TipoCambioHandler{svc: svc}
}

// Actual godoc
// @Summary Tipo de cambio vigente (USD → ARS)
// @Description vigente=false indica que el proveedor no responde y se usa la ultima cotizacion conocida.
// @Tags tipo-cambio
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.TipoCambioResponse
// @Failure 503 {object} apierror.APIError
// @Router /v1/tipo-cambio [get]
func (h *TipoCambioHandler) Actual(c *gin.Context) {
	resp, err := h.svc.Actual(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Historial godoc
// @Summary Ultimas cotizaciones registradas
// @Tags tipo-cambio
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Cantidad (default 50)"
// @Success 200 {array} dto.TipoCambioResponse
// @Router /v1/tipo-cambio/historial [get]
func (h *TipoCambioHandler) Historial(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	resp, err := h.svc.Historial(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// EstablecerManual godoc
// @Summary Fijar el tipo de cambio manualmente
// @Tags tipo-cambio
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.EstablecerTipoCambioRequest true "Cotizacion"
// @Success 201 {object} dto.TipoCambioResponse
// @Router /v1/tipo-cambio [post]
func (h *TipoCambioHandler) EstablecerManual(c *gin.Context) {
	var req dto.EstablecerTipoCambioRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.EstablecerManual(c.Request.Context(), usuarioActual(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
