package repository

import (
	"context"
	"time"

	"github.com/pirela/sistema-guia/internal/dto"
	"github.com/pirela/sistema-guia/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GuiaRepository interface {
	CreateTx(tx *gorm.DB, g *model.Guia) error
	CreateProductosTx(tx *gorm.DB, items []model.GuiaProducto) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Guia, error)
	FindByNumero(ctx context.Context, numero string) (*model.Guia, error)
	List(ctx context.Context, filter dto.GuiaFilter) ([]model.Guia, int64, error)
	ListAsignadas(ctx context.Context) ([]model.Guia, error)
	// UpdateEstadoTx is a compare-and-swap on estado: it only applies when the
	// row still holds estadoActual, closing the concurrent-transition race.
	// Returns the number of rows updated (0 = lost the race or gone).
	UpdateEstadoTx(tx *gorm.DB, id uuid.UUID, estadoActual, estadoNuevo string, fechaEntrega *time.Time) (int64, error)
	UpdateMotorizadoTx(tx *gorm.DB, id uuid.UUID, motorizadoID uuid.UUID) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	NextNumero(tx *gorm.DB) (int64, error)
	ProductosDeGuia(ctx context.Context, guiaID uuid.UUID) ([]model.GuiaProducto, error)
	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type guiaRepo struct{ db *gorm.DB }

func NewGuiaRepository(db *gorm.DB) GuiaRepository { return &guiaRepo{db: db} }

func (r *guiaRepo) DB() *gorm.DB { return r.db }

func (r *guiaRepo) CreateTx(tx *gorm.DB, g *model.Guia) error {
	return tx.Create(g).Error
}

func (r *guiaRepo) CreateProductosTx(tx *gorm.DB, items []model.GuiaProducto) error {
	if len(items) == 0 {
		return nil
	}
	return tx.Create(&items).Error
}

func (r *guiaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Guia, error) {
	var g model.Guia
	err := r.db.WithContext(ctx).Scopes(noEliminados).
		Preload("Motorizado").Preload("Creador").Preload("Productos.Producto").
		First(&g, "id = ?", id).Error
	return &g, err
}

func (r *guiaRepo) FindByNumero(ctx context.Context, numero string) (*model.Guia, error) {
	var g model.Guia
	err := r.db.WithContext(ctx).Scopes(noEliminados).
		Where("numero_guia = ?", numero).First(&g).Error
	return &g, err
}

func (r *guiaRepo) List(ctx context.Context, filter dto.GuiaFilter) ([]model.Guia, int64, error) {
	var guias []model.Guia
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Guia{}).Scopes(noEliminados)

	if filter.Estado != "" && filter.Estado != "todas" {
		q = q.Where("estado = ?", filter.Estado)
	} else if filter.ExcluirFinalizadas {
		// La vista de motorizados nunca muestra guías cerradas.
		q = q.Where("estado <> ?", model.EstadoFinalizada)
	}
	if filter.MotorizadoID != "" {
		q = q.Where("motorizado_asignado = ?", filter.MotorizadoID)
	}
	if filter.Busqueda != "" {
		like := "%" + filter.Busqueda + "%"
		q = q.Where("numero_guia ILIKE ? OR nombre_cliente ILIKE ? OR telefono_cliente ILIKE ?", like, like, like)
	}
	if filter.Desde != "" {
		q = q.Where("fecha_asignacion >= ?", filter.Desde)
	}
	if filter.Hasta != "" {
		q = q.Where("fecha_asignacion <= ?", filter.Hasta)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Motorizado").Preload("Productos.Producto").
		Order("fecha_asignacion DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&guias).Error
	return guias, total, err
}

func (r *guiaRepo) ListAsignadas(ctx context.Context) ([]model.Guia, error) {
	var guias []model.Guia
	err := r.db.WithContext(ctx).Scopes(noEliminados).
		Where("estado = ?", model.EstadoAsignada).
		Preload("Motorizado").Preload("Productos.Producto").
		Order("fecha_asignacion ASC").
		Find(&guias).Error
	return guias, err
}

func (r *guiaRepo) UpdateEstadoTx(tx *gorm.DB, id uuid.UUID, estadoActual, estadoNuevo string, fechaEntrega *time.Time) (int64, error) {
	updates := map[string]interface{}{"estado": estadoNuevo}
	if fechaEntrega != nil {
		updates["fecha_entrega"] = *fechaEntrega
	}
	res := tx.Model(&model.Guia{}).
		Where("id = ? AND estado = ? AND eliminado = false", id, estadoActual).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *guiaRepo) UpdateMotorizadoTx(tx *gorm.DB, id uuid.UUID, motorizadoID uuid.UUID) error {
	return tx.Model(&model.Guia{}).
		Where("id = ? AND eliminado = false", id).
		Update("motorizado_asignado", motorizadoID).Error
}

func (r *guiaRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Guia{}).Where("id = ?", id).
		Update("eliminado", true).Error
}

func (r *guiaRepo) NextNumero(tx *gorm.DB) (int64, error) {
	// PostgreSQL sequence keeps numbering atomic under concurrent creation.
	var num int64
	err := tx.Raw("SELECT nextval('guias_numero_seq')").Scan(&num).Error
	return num, err
}

func (r *guiaRepo) ProductosDeGuia(ctx context.Context, guiaID uuid.UUID) ([]model.GuiaProducto, error) {
	var items []model.GuiaProducto
	err := r.db.WithContext(ctx).Where("guia_id = ?", guiaID).
		Preload("Producto").Find(&items).Error
	return items, err
}
