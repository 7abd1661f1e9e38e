package handler

import (
	"net/http"

	"merygarcia/internal/dto"
	"merygarcia/internal/service"

	"github.com/gin-gonic/gin"
)

// BorradoresHandler serves the comanda form session. Every mutation answers
// the full draft with its recalculated desglose.
type BorradoresHandler struct{ svc service.BorradorService }

func NewBorradoresHandler(svc service.BorradorService) *BorradoresHandler {
	return &BorradoresHandler{svc: svc}
}

// Crear godoc
// @Summary      Abrir un borrador de comanda
// @Description  Congela el tipo de cambio vigente en el borrador.
// @Tags         borradores
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearBorradorRequest true "Tipo de transaccion"
// @Success      201  {object} dto.BorradorResponse
// @Router       /v1/borradores [post]
func (h *BorradoresHandler) Crear(c *gin.Context) {
	var req dto.CrearBorradorRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), usuarioActual(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Obtener godoc
// @Summary      Obtener un borrador
// @Tags         borradores
// @Produce      json
// @Security     BearerAuth
// @Param        id  path string true "UUID del borrador"
// @Success      200 {object} dto.BorradorResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/borradores/{id} [get]
func (h *BorradoresHandler) Obtener(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), id, usuarioActual(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Descartar godoc
// @Summary      Descartar un borrador
// @Tags         borradores
// @Security     BearerAuth
// @Param        id  path string true "UUID del borrador"
// @Success      204
// @Router       /v1/borradores/{id} [delete]
func (h *BorradoresHandler) Descartar(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Descartar(c.Request.Context(), id, usuarioActual(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AgregarItem godoc
// @Summary      Agregar item
// @Tags         borradores
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "UUID del borrador"
// @Param        body body dto.ItemComandaRequest true "Item"
// @Success      200  {object} dto.BorradorResponse
// @Failure      409  {object} apierror.APIError "borrador enviando o guardado"
// @Router       /v1/borradores/{id}/items [post]
func (h *BorradoresHandler) AgregarItem(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ItemComandaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	h.responder(c)(h.svc.AgregarItem(c.Request.Context(), id, usuarioActual(c), req))
}

// EditarItem godoc
// @Summary      Reemplazar item
// @Tags         borradores
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "UUID del borrador"
// @Param        idx  path int                    true "Indice del item"
// @Param        body body dto.ItemComandaRequest true "Item"
// @Success      200  {object} dto.BorradorResponse
// @Router       /v1/borradores/{id}/items/{idx} [put]
func (h *BorradoresHandler) EditarItem(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	idx, ok := paramIndex(c, "idx")
	if !ok {
		return
	}
	var req dto.ItemComandaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	h.responder(c)(h.svc.EditarItem(c.Request.Context(), id, usuarioActual(c), idx, req))
}

// QuitarItem godoc
// @Summary      Quitar item
// @Tags         borradores
// @Produce      json
// @Security     BearerAuth
// @Param        id  path string true "UUID del borrador"
// @Param        idx path int    true "Indice del item"
// @Success      200 {object} dto.BorradorResponse
// @Router       /v1/borradores/{id}/items/{idx} [delete]
func (h *BorradoresHandler) QuitarItem(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	idx, ok := paramIndex(c, "idx")
	if !ok {
		return
	}
	h.responder(c)(h.svc.QuitarItem(c.Request.Context(), id, usuarioActual(c), idx))
}

// AgregarPago godoc
// @Summary      Agregar pago
// @Tags         borradores
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "UUID del borrador"
// @Param        body body dto.PagoComandaRequest true "Pago"
// @Success      200  {object} dto.BorradorResponse
// @Router       /v1/borradores/{id}/pagos [post]
func (h *BorradoresHandler) AgregarPago(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.PagoComandaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	h.responder(c)(h.svc.AgregarPago(c.Request.Context(), id, usuarioActual(c), req))
}

// EditarPago godoc
// @Summary      Reemplazar pago
// @Tags         borradores
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "UUID del borrador"
// @Param        idx  path int                    true "Indice del pago"
// @Param        body body dto.PagoComandaRequest true "Pago"
// @Success      200  {object} dto.BorradorResponse
// @Router       /v1/borradores/{id}/pagos/{idx} [put]
func (h *BorradoresHandler) EditarPago(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	idx, ok := paramIndex(c, "idx")
	if !ok {
		return
	}
	var req dto.PagoComandaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	h.responder(c)(h.svc.EditarPago(c.Request.Context(), id, usuarioActual(c), idx, req))
}

// QuitarPago godoc
// @Summary      Quitar pago
// @Tags         borradores
// @Produce      json
// @Security     BearerAuth
// @Param        id  path string true "UUID del borrador"
// @Param        idx path int    true "Indice del pago"
// @Success      200 {object} dto.BorradorResponse
// @Router       /v1/borradores/{id}/pagos/{idx} [delete]
func (h *BorradoresHandler) QuitarPago(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	idx, ok := paramIndex(c, "idx")
	if !ok {
		return
	}
	h.responder(c)(h.svc.QuitarPago(c.Request.Context(), id, usuarioActual(c), idx))
}

// AplicarSena godoc
// @Summary      Aplicar seña del cliente
// @Description  Reemplaza la seña aplicada. El saldo del cliente se consume recien al guardar.
// @Tags         borradores
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "UUID del borrador"
// @Param        body body dto.AplicarSenaRequest true "Seña"
// @Success      200  {object} dto.BorradorResponse
// @Router       /v1/borradores/{id}/sena [put]
func (h *BorradoresHandler) AplicarSena(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.AplicarSenaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	h.responder(c)(h.svc.AplicarSena(c.Request.Context(), id, usuarioActual(c), req))
}

// QuitarSena godoc
// @Summary      Quitar seña
// @Tags         borradores
// @Produce      json
// @Security     BearerAuth
// @Param        id  path string true "UUID del borrador"
// @Success      200 {object} dto.BorradorResponse
// @Router       /v1/borradores/{id}/sena [delete]
func (h *BorradoresHandler) QuitarSena(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	h.responder(c)(h.svc.QuitarSena(c.Request.Context(), id, usuarioActual(c)))
}

// Guardar godoc
// @Summary      Guardar el borrador como comanda
// @Description  Solo desde conciliado (o con sobrepago si la politica lo permite). Si falla, el borrador vuelve a ser editable.
// @Tags         borradores
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                     true "UUID del borrador"
// @Param        body body dto.GuardarBorradorRequest true "Cabecera de la comanda"
// @Success      201  {object} dto.ComandaResponse
// @Failure      409  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Failure      503  {object} apierror.APIError
// @Router       /v1/borradores/{id}/guardar [post]
func (h *BorradoresHandler) Guardar(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.GuardarBorradorRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Guardar(c.Request.Context(), id, usuarioActual(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *BorradoresHandler) responder(c *gin.Context) func(*dto.BorradorResponse, error) {
	return func(resp *dto.BorradorResponse, err error) {
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
