package repository

import (
	"context"

	"github.com/pirela/sistema-guia/internal/dto"
	"github.com/pirela/sistema-guia/internal/model"

	"gorm.io/gorm"
)

// ReporteRepository runs the aggregation queries behind the dashboard reports.
// Raw SQL keeps the GROUP BYs explicit; results land directly in DTOs.
type ReporteRepository interface {
	GuiasPorEstado(ctx context.Context) ([]dto.GuiasPorEstadoRow, error)
	EstadisticasMotorizados(ctx context.Context) ([]dto.EstadisticaMotorizadoRow, error)
	ProductosDespachados(ctx context.Context) ([]dto.ProductoDespachadoRow, error)
}

type reporteRepo struct{ db *gorm.DB }

func NewReporteRepository(db *gorm.DB) ReporteRepository { return &reporteRepo{db: db} }

func (r *reporteRepo) GuiasPorEstado(ctx context.Context) ([]dto.GuiasPorEstadoRow, error) {
	var rows []dto.GuiasPorEstadoRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT estado,
		       COUNT(*)                    AS total_guias,
		       COALESCE(SUM(monto_recaudar), 0) AS monto_total,
		       COALESCE(AVG(monto_recaudar), 0) AS monto_promedio
		  FROM guias
		 WHERE eliminado = false
		 GROUP BY estado
		 ORDER BY total_guias DESC`).Scan(&rows).Error
	return rows, err
}

func (r *reporteRepo) EstadisticasMotorizados(ctx context.Context) ([]dto.EstadisticaMotorizadoRow, error) {
	var rows []dto.EstadisticaMotorizadoRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT u.id          AS motorizado_id,
		       u.nombre      AS nombre,
		       COUNT(g.id)   AS guias_asignadas,
		       COUNT(g.id) FILTER (WHERE g.estado IN (?, ?)) AS guias_entregadas,
		       COUNT(g.id) FILTER (WHERE g.estado = ?)        AS guias_novedad,
		       COALESCE(SUM(g.monto_recaudar) FILTER (WHERE g.estado IN (?, ?)), 0) AS monto_recaudado
		  FROM usuarios u
		  LEFT JOIN guias g
		    ON g.motorizado_asignado = u.id AND g.eliminado = false
		 WHERE u.rol = ? AND u.eliminado = false
		 GROUP BY u.id, u.nombre
		 ORDER BY guias_entregadas DESC`,
		model.EstadoEntregada, model.EstadoFinalizada,
		model.EstadoNovedad,
		model.EstadoEntregada, model.EstadoFinalizada,
		model.RolMotorizado).Scan(&rows).Error
	return rows, err
}

func (r *reporteRepo) ProductosDespachados(ctx context.Context) ([]dto.ProductoDespachadoRow, error) {
	var rows []dto.ProductoDespachadoRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT p.id     AS producto_id,
		       p.nombre AS nombre,
		       SUM(gp.cantidad) AS cantidad_total,
		       COALESCE(SUM(gp.cantidad * gp.precio_unitario), 0) AS monto_total
		  FROM guias_productos gp
		  JOIN guias g    ON g.id = gp.guia_id AND g.eliminado = false
		  JOIN productos p ON p.id = gp.producto_id
		 WHERE g.estado IN (?, ?)
		 GROUP BY p.id, p.nombre
		 ORDER BY cantidad_total DESC`,
		model.EstadoEntregada, model.EstadoFinalizada).Scan(&rows).Error
	return rows, err
}
