package handler

import (
	"net/http"

	"merygarcia/internal/dto"
	"merygarcia/internal/service"

	"github.com/gin-gonic/gin"
)

type PersonalHandler struct{ svc service.PersonalService }

func NewPersonalHandler(svc service.PersonalService) *PersonalHandler {
	return &PersonalHandler{svc: svc}
}

// Crear godoc
// @Summary Alta de responsable
// @Tags personal
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearPersonalRequest true "Responsable"
// @Success 201 {object} dto.PersonalResponse
// @Router /v1/personal [post]
func (h *PersonalHandler) Crear(c *gin.Context) {
	var req dto.CrearPersonalRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary Responsables activos
// @Tags personal
// @Produce json
// @Security BearerAuth
// @Param unidad_negocio query string false "tatuajes | estilismo | formacion"
// @Success 200 {array} dto.PersonalResponse
// @Router /v1/personal [get]
func (h *PersonalHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context(), c.Query("unidad_negocio"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PersonalHandler) Desactivar(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Desactivar(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PersonalHandler) Reactivar(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Reactivar(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
