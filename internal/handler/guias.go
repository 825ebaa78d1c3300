package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pirela/sistema-guia/internal/apierror"
	"github.com/pirela/sistema-guia/internal/dto"
	"github.com/pirela/sistema-guia/internal/infra"
	"github.com/pirela/sistema-guia/internal/repository"
	"github.com/pirela/sistema-guia/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type GuiasHandler struct {
	svc      service.GuiaService
	usuarios repository.UsuarioRepository
}

func NewGuiasHandler(svc service.GuiaService, usuarios repository.UsuarioRepository) *GuiasHandler {
	return &GuiasHandler{svc: svc, usuarios: usuarios}
}

// Crear godoc
// @Summary      Crear guía
// @Description  Registra una guía en estado "asignada" con sus productos y la entrada inicial del historial.
// @Tags         guias
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearGuiaRequest true "Datos de la guía"
// @Success      201 {object} dto.GuiaResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/guias [post]
func (h *GuiasHandler) Crear(c *gin.Context) {
	actor, ok := resolverActor(c, h.usuarios)
	if !ok {
		return
	}
	var req dto.CrearGuiaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), actor, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary      Listar guías
// @Description  Lista paginada con filtros. Los motorizados sólo ven sus propias guías no finalizadas.
// @Tags         guias
// @Produce      json
// @Security     BearerAuth
// @Param        estado        query string false "Estado o 'todas'"
// @Param        motorizado_id query string false "Filtrar por motorizado (solo admin)"
// @Param        busqueda      query string false "Número, cliente o teléfono"
// @Param        page          query int    false "Página (default 1)"
// @Param        limit         query int    false "Registros por página (default 50)"
// @Success      200 {object} dto.GuiaListResponse
// @Router       /v1/guias [get]
func (h *GuiasHandler) Listar(c *gin.Context) {
	actor, ok := resolverActor(c, h.usuarios)
	if !ok {
		return
	}
	var filter dto.GuiaFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), actor, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar guias"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Detalle godoc
// @Summary      Detalle de guía
// @Description  Guía con historial combinado (cambios de estado + novedades por FK) y las transiciones que el actor puede ejecutar.
// @Tags         guias
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la guía"
// @Success      200 {object} dto.GuiaDetalleResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/guias/{id} [get]
func (h *GuiasHandler) Detalle(c *gin.Context) {
	actor, ok := resolverActor(c, h.usuarios)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	resp, err := h.svc.Detalle(c.Request.Context(), actor, id)
	if err != nil {
		h.responderErrorGuia(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CambiarEstado godoc
// @Summary      Cambiar estado de guía
// @Description  Aplica una transición del flujo de estados. Transacción atómica: CAS sobre estado + historial + novedad.
// @Tags         guias
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "UUID de la guía"
// @Param        body body dto.CambiarEstadoRequest true "Nuevo estado y comentario"
// @Success      200 {object} dto.GuiaResponse
// @Failure      403 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError
// @Failure      422 {object} apierror.APIError
// @Router       /v1/guias/{id}/estado [patch]
func (h *GuiasHandler) CambiarEstado(c *gin.Context) {
	actor, ok := resolverActor(c, h.usuarios)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req dto.CambiarEstadoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CambiarEstado(c.Request.Context(), actor, id, req.Estado, req.Comentario)
	if err != nil {
		h.responderErrorGuia(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Reasignar godoc
// @Summary      Reasignar motorizado
// @Description  Cambia el motorizado asignado sin tocar el estado; queda auditado en el historial.
// @Tags         guias
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "UUID de la guía"
// @Param        body body dto.ReasignarRequest true "Nuevo motorizado"
// @Success      200 {object} dto.GuiaResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/guias/{id}/motorizado [patch]
func (h *GuiasHandler) Reasignar(c *gin.Context) {
	actor, ok := resolverActor(c, h.usuarios)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req dto.ReasignarRequest
	if !bindAndValidate(c, &req) {
		return
	}
	motorizadoID, err := uuid.Parse(req.MotorizadoID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("motorizado_id invalido"))
		return
	}
	resp, err := h.svc.ReasignarMotorizado(c.Request.Context(), actor, id, motorizadoID)
	if err != nil {
		h.responderErrorGuia(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *GuiasHandler) Eliminar(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), id); err != nil {
		h.responderErrorGuia(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PDF godoc
// @Summary      Hoja de despacho
// @Description  PDF con todas las guías en estado "asignada", un bloque por guía.
// @Tags         guias
// @Produce      application/pdf
// @Security     BearerAuth
// @Success      200 {file} binary
// @Router       /v1/guias/pdf [get]
func (h *GuiasHandler) PDF(c *gin.Context) {
	guias, err := h.svc.ListarAsignadas(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al generar el PDF"))
		return
	}
	data, err := infra.GenerarPDFGuiasAsignadas(guias, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al generar el PDF"))
		return
	}
	nombre := fmt.Sprintf("guias-asignadas-%s.pdf", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+nombre+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

// responderErrorGuia maps the service sentinels to HTTP statuses.
func (h *GuiasHandler) responderErrorGuia(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrGuiaNoEncontrada):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, service.ErrGuiaAjena),
		errors.Is(err, service.ErrTransicionNoPermitida),
		errors.Is(err, service.ErrUsuarioInactivo):
		c.JSON(http.StatusForbidden, apierror.New(err.Error()))
	case errors.Is(err, service.ErrComentarioRequerido),
		errors.Is(err, service.ErrEstadoInvalido):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
	case errors.Is(err, service.ErrConflictoEstado):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.Is(err, service.ErrMotorizadoInvalido):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
	}
}
