package repository

import (
	"context"

	"github.com/pirela/sistema-guia/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductoRepository interface {
	Create(ctx context.Context, p *model.Producto) error
	CreateTx(tx *gorm.DB, p *model.Producto) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error)
	FindBySKU(ctx context.Context, sku string) (*model.Producto, error)
	FindBySKUTx(tx *gorm.DB, sku string) (*model.Producto, error)
	// FindByNombreNormalizado matches on the derived normalized column —
	// the import path's fallback when the incoming item has no known SKU.
	FindByNombreNormalizadoTx(tx *gorm.DB, nombre string) (*model.Producto, error)
	List(ctx context.Context, busqueda string, incluirInactivos bool) ([]model.Producto, error)
	Update(ctx context.Context, p *model.Producto) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Reactivar(ctx context.Context, id uuid.UUID) error
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) Create(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productoRepo) CreateTx(tx *gorm.DB, p *model.Producto) error {
	return tx.Create(p).Error
}

func (r *productoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).Scopes(noEliminados).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *productoRepo) FindBySKU(ctx context.Context, sku string) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).Scopes(noEliminados).
		Where("codigo_sku = ?", sku).First(&p).Error
	return &p, err
}

func (r *productoRepo) FindBySKUTx(tx *gorm.DB, sku string) (*model.Producto, error) {
	var p model.Producto
	err := tx.Scopes(noEliminados).Where("codigo_sku = ?", sku).First(&p).Error
	return &p, err
}

func (r *productoRepo) FindByNombreNormalizadoTx(tx *gorm.DB, nombre string) (*model.Producto, error) {
	var p model.Producto
	err := tx.Scopes(noEliminados).Where("nombre_normalizado = ?", nombre).First(&p).Error
	return &p, err
}

func (r *productoRepo) List(ctx context.Context, busqueda string, incluirInactivos bool) ([]model.Producto, error) {
	var productos []model.Producto
	q := r.db.WithContext(ctx).Scopes(noEliminados)
	if !incluirInactivos {
		q = q.Where("activo = true")
	}
	if busqueda != "" {
		like := "%" + busqueda + "%"
		q = q.Where("nombre ILIKE ? OR codigo_sku ILIKE ?", like, like)
	}
	err := q.Order("nombre ASC").Find(&productos).Error
	return productos, err
}

func (r *productoRepo) Update(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productoRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Producto{}).Where("id = ?", id).
		Updates(map[string]interface{}{"eliminado": true, "activo": false}).Error
}

func (r *productoRepo) Reactivar(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Producto{}).
		Where("id = ? AND eliminado = false", id).
		Update("activo", true).Error
}
