package service

import (
	"context"
	"math"
	"time"

	"github.com/pirela/sistema-guia/internal/cache"
	"github.com/pirela/sistema-guia/internal/dto"
	"github.com/pirela/sistema-guia/internal/repository"
)

// ReporteService assembles the dashboard reports. Reads go through the cache:
// the dashboard polls these endpoints and the aggregations are the most
// expensive queries in the system.
type ReporteService interface {
	Resumen(ctx context.Context) (*dto.ReporteResponse, error)
}

type reporteService struct {
	repo  repository.ReporteRepository
	cache *cache.Cache
}

func NewReporteService(repo repository.ReporteRepository, c *cache.Cache) ReporteService {
	return &reporteService{repo: repo, cache: c}
}

const ttlReportes = 60 * time.Second

func (s *reporteService) Resumen(ctx context.Context) (*dto.ReporteResponse, error) {
	return cache.Fetch(ctx, s.cache, "reportes-resumen", ttlReportes, func(ctx context.Context) (*dto.ReporteResponse, error) {
		porEstado, err := s.repo.GuiasPorEstado(ctx)
		if err != nil {
			return nil, err
		}
		motorizados, err := s.repo.EstadisticasMotorizados(ctx)
		if err != nil {
			return nil, err
		}
		for i := range motorizados {
			motorizados[i].Efectividad = efectividad(motorizados[i].GuiasEntregadas, motorizados[i].GuiasAsignadas)
		}
		productos, err := s.repo.ProductosDespachados(ctx)
		if err != nil {
			return nil, err
		}
		return &dto.ReporteResponse{
			GuiasPorEstado:       porEstado,
			Motorizados:          motorizados,
			ProductosDespachados: productos,
		}, nil
	})
}

// efectividad = entregadas / asignadas * 100, redondeada a 2 decimales.
// Sin guías asignadas la efectividad es 0, no NaN.
func efectividad(entregadas, asignadas int64) float64 {
	if asignadas == 0 {
		return 0
	}
	return math.Round(float64(entregadas)/float64(asignadas)*10000) / 100
}
