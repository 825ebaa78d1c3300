package handler

import (
	"errors"
	"net/http"

	"github.com/pirela/sistema-guia/internal/apierror"
	"github.com/pirela/sistema-guia/internal/dto"
	"github.com/pirela/sistema-guia/internal/infra"
	"github.com/pirela/sistema-guia/internal/repository"
	"github.com/pirela/sistema-guia/internal/service"

	"github.com/gin-gonic/gin"
)

type ImportacionHandler struct {
	svc      service.ImportacionService
	usuarios repository.UsuarioRepository
}

func NewImportacionHandler(svc service.ImportacionService, usuarios repository.UsuarioRepository) *ImportacionHandler {
	return &ImportacionHandler{svc: svc, usuarios: usuarios}
}

// Importar godoc
// @Summary      Importar orden de Shopify
// @Description  Crea una guía desde una orden de Shopify. Idempotente: reimportar responde 409 con la guía existente.
// @Tags         shopify
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.ImportarOrdenRequest true "Número de orden"
// @Success      201 {object} dto.ImportarOrdenResponse
// @Failure      404 {object} apierror.APIError
// @Failure      409 {object} apierror.ConflictError
// @Router       /v1/shopify/importar [post]
func (h *ImportacionHandler) Importar(c *gin.Context) {
	actor, ok := resolverActor(c, h.usuarios)
	if !ok {
		return
	}
	var req dto.ImportarOrdenRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.Importar(c.Request.Context(), actor, req)
	if err != nil {
		var dup *service.OrdenYaImportadaError
		switch {
		case errors.As(err, &dup):
			c.JSON(http.StatusConflict, apierror.NewConflict(dup.Error(), dup.GuiaID, dup.NumeroGuia))
		case errors.Is(err, infra.ErrOrdenNoEncontrada):
			c.JSON(http.StatusNotFound, apierror.New("Orden no encontrada en Shopify"))
		case errors.Is(err, service.ErrMotorizadoInvalido):
			c.JSON(http.StatusBadRequest, apierror.New("No hay motorizado disponible para asignar la guia"))
		default:
			c.JSON(http.StatusBadGateway, apierror.New("No se pudo consultar Shopify: "+err.Error()))
		}
		return
	}

	c.JSON(http.StatusCreated, dto.ImportarOrdenResponse{
		Guia:    *resp,
		Mensaje: "Orden importada como guia " + resp.NumeroGuia,
	})
}
