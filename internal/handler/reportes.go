package handler

import (
	"net/http"

	"github.com/pirela/sistema-guia/internal/apierror"
	"github.com/pirela/sistema-guia/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportesHandler struct{ svc service.ReporteService }

func NewReportesHandler(svc service.ReporteService) *ReportesHandler {
	return &ReportesHandler{svc: svc}
}

// Resumen godoc
// @Summary      Reportes del dashboard
// @Description  Guías por estado, estadísticas por motorizado (con efectividad) y productos despachados.
// @Tags         reportes
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.ReporteResponse
// @Router       /v1/reportes [get]
func (h *ReportesHandler) Resumen(c *gin.Context) {
	resp, err := h.svc.Resumen(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al generar reportes"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
