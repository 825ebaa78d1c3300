package service_test

import (
	"context"
	"testing"

	"github.com/pirela/sistema-guia/internal/cache"
	"github.com/pirela/sistema-guia/internal/dto"
	"github.com/pirela/sistema-guia/internal/repository"
	"github.com/pirela/sistema-guia/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReporteRepo struct {
	motorizados []dto.EstadisticaMotorizadoRow
	llamadas    int
}

func (r *stubReporteRepo) GuiasPorEstado(_ context.Context) ([]dto.GuiasPorEstadoRow, error) {
	r.llamadas++
	return nil, nil
}

func (r *stubReporteRepo) EstadisticasMotorizados(_ context.Context) ([]dto.EstadisticaMotorizadoRow, error) {
	out := make([]dto.EstadisticaMotorizadoRow, len(r.motorizados))
	copy(out, r.motorizados)
	return out, nil
}

func (r *stubReporteRepo) ProductosDespachados(_ context.Context) ([]dto.ProductoDespachadoRow, error) {
	return nil, nil
}

var _ repository.ReporteRepository = (*stubReporteRepo)(nil)

func TestResumenCalculaEfectividad(t *testing.T) {
	repo := &stubReporteRepo{motorizados: []dto.EstadisticaMotorizadoRow{
		{Nombre: "Carlos", GuiasAsignadas: 8, GuiasEntregadas: 6},
		{Nombre: "Pedro", GuiasAsignadas: 3, GuiasEntregadas: 1},
		{Nombre: "Nuevo", GuiasAsignadas: 0, GuiasEntregadas: 0},
	}}
	svc := service.NewReporteService(repo, cache.New(cache.Config{}))

	resp, err := svc.Resumen(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.Motorizados, 3)
	assert.InDelta(t, 75.0, resp.Motorizados[0].Efectividad, 0.001)
	assert.InDelta(t, 33.33, resp.Motorizados[1].Efectividad, 0.001)
	assert.Zero(t, resp.Motorizados[2].Efectividad, "sin asignadas la efectividad es 0, no NaN")
}

func TestResumenSeSirveDesdeCache(t *testing.T) {
	repo := &stubReporteRepo{}
	svc := service.NewReporteService(repo, cache.New(cache.Config{}))

	_, err := svc.Resumen(context.Background())
	require.NoError(t, err)
	_, err = svc.Resumen(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.llamadas, "la segunda lectura dentro del TTL no toca la base")
}
