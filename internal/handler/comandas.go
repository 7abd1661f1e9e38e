package handler

import (
	"net/http"

	"merygarcia/internal/dto"
	"merygarcia/internal/service"

	"github.com/gin-gonic/gin"
)

type ComandasHandler struct {
	svc          service.ComandaService
	comprobantes service.ComprobanteService
}

func NewComandasHandler(svc service.ComandaService, comprobantes service.ComprobanteService) *ComandasHandler {
	return &ComandasHandler{svc: svc, comprobantes: comprobantes}
}

// Calcular godoc
// @Summary      Previsualizar el desglose de una comanda
// @Description  Corre el motor de calculo sin persistir nada. Usa el tipo de cambio del request o el vigente.
// @Tags         comandas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CalcularComandaRequest true "Items, pagos y seña"
// @Success      200  {object} dto.DesgloseResponse
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/comandas/calcular [post]
func (h *ComandasHandler) Calcular(c *gin.Context) {
	var req dto.CalcularComandaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Calcular(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Registrar godoc
// @Summary      Registrar una comanda
// @Description  Valida, concilia y guarda la comanda en una transaccion; consume la seña del cliente y encola el comprobante PDF.
// @Tags         comandas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.RegistrarComandaRequest true "Comanda completa"
// @Success      201  {object} dto.ComandaResponse
// @Failure      409  {object} apierror.APIError "numero duplicado"
// @Failure      422  {object} apierror.ValidationError
// @Failure      503  {object} apierror.APIError "tipo de cambio no disponible"
// @Router       /v1/comandas [post]
func (h *ComandasHandler) Registrar(c *gin.Context) {
	var req dto.RegistrarComandaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Registrar(c.Request.Context(), usuarioActual(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary      Listar comandas
// @Tags         comandas
// @Produce      json
// @Security     BearerAuth
// @Param        tipo           query string false "ingreso | egreso"
// @Param        unidad_negocio query string false "tatuajes | estilismo | formacion"
// @Param        estado         query string false "registrada | anulada | all"
// @Param        cliente_id     query string false "UUID del cliente"
// @Param        desde          query string false "YYYY-MM-DD"
// @Param        hasta          query string false "YYYY-MM-DD"
// @Param        page           query int    false "Pagina (default 1)"
// @Param        limit          query int    false "Registros por pagina (default 50)"
// @Success      200  {object} dto.ComandaListResponse
// @Router       /v1/comandas [get]
func (h *ComandasHandler) Listar(c *gin.Context) {
	var filter dto.ComandaFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ObtenerPorID godoc
// @Summary      Obtener una comanda
// @Tags         comandas
// @Produce      json
// @Security     BearerAuth
// @Param        id  path string true "UUID de la comanda"
// @Success      200 {object} dto.ComandaResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/comandas/{id} [get]
func (h *ComandasHandler) ObtenerPorID(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SiguienteNumero godoc
// @Summary      Proponer el proximo numero de comanda
// @Tags         comandas
// @Produce      json
// @Security     BearerAuth
// @Param        tipo query string true "ingreso | egreso"
// @Success      200  {object} dto.SiguienteNumeroResponse
// @Router       /v1/comandas/siguiente-numero [get]
func (h *ComandasHandler) SiguienteNumero(c *gin.Context) {
	resp, err := h.svc.SiguienteNumero(c.Request.Context(), c.DefaultQuery("tipo", "ingreso"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Anular godoc
// @Summary      Anular comanda
// @Description  Marca la comanda como anulada y devuelve al cliente la seña consumida.
// @Tags         comandas
// @Accept       json
// @Security     BearerAuth
// @Param        id   path string                   true "UUID de la comanda"
// @Param        body body dto.AnularComandaRequest true "Motivo"
// @Success      204
// @Failure      409  {object} apierror.APIError "ya anulada"
// @Router       /v1/comandas/{id} [delete]
func (h *ComandasHandler) Anular(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.AnularComandaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.Anular(c.Request.Context(), id, req.Motivo); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ── Comprobante ───────────────────────────────────────────────────────────────

// Comprobante godoc
// @Summary      Estado del comprobante PDF de una comanda
// @Tags         comandas
// @Produce      json
// @Security     BearerAuth
// @Param        id  path string true "UUID de la comanda"
// @Success      200 {object} dto.ComprobanteResponse
// @Router       /v1/comandas/{id}/comprobante [get]
func (h *ComandasHandler) Comprobante(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.comprobantes.Obtener(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DescargarPDF godoc
// @Summary      Descargar el comprobante PDF
// @Tags         comandas
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id  path string true "UUID de la comanda"
// @Success      200 {file} binary
// @Failure      409 {object} apierror.APIError "todavia no emitido"
// @Router       /v1/comandas/{id}/comprobante/pdf [get]
func (h *ComandasHandler) DescargarPDF(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	path, err := h.comprobantes.RutaPDF(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.FileAttachment(path, "comprobante_"+id.String()+".pdf")
}

// ReintentarComprobante godoc
// @Summary      Reencolar la generacion del comprobante
// @Tags         comandas
// @Produce      json
// @Security     BearerAuth
// @Param        id  path string true "UUID de la comanda"
// @Success      202 {object} dto.ComprobanteResponse
// @Router       /v1/comandas/{id}/comprobante/reintentar [post]
func (h *ComandasHandler) ReintentarComprobante(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.comprobantes.Reintentar(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}
