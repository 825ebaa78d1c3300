package dto

import "github.com/shopspring/decimal"

type GuiasPorEstadoRow struct {
	Estado        string          `json:"estado"`
	TotalGuias    int64           `json:"total_guias"`
	MontoTotal    decimal.Decimal `json:"monto_total"`
	MontoPromedio decimal.Decimal `json:"monto_promedio"`
}

type EstadisticaMotorizadoRow struct {
	MotorizadoID    string          `json:"motorizado_id"`
	Nombre          string          `json:"nombre"`
	GuiasAsignadas  int64           `json:"guias_asignadas"`
	GuiasEntregadas int64           `json:"guias_entregadas"`
	GuiasNovedad    int64           `json:"guias_novedad"`
	MontoRecaudado  decimal.Decimal `json:"monto_recaudado"`
	// Efectividad = entregadas / asignadas * 100, computed in the service.
	Efectividad float64 `json:"efectividad"`
}

type ProductoDespachadoRow struct {
	ProductoID    string          `json:"producto_id"`
	Nombre        string          `json:"nombre"`
	CantidadTotal int64           `json:"cantidad_total"`
	MontoTotal    decimal.Decimal `json:"monto_total"`
}

type ReporteResponse struct {
	GuiasPorEstado       []GuiasPorEstadoRow        `json:"guias_por_estado"`
	Motorizados          []EstadisticaMotorizadoRow `json:"motorizados"`
	ProductosDespachados []ProductoDespachadoRow    `json:"productos_despachados"`
}
