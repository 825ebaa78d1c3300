package repository

import (
	"context"

	"github.com/pirela/sistema-guia/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NovedadRepository interface {
	CreateTx(tx *gorm.DB, n *model.Novedad) error
	ListByGuia(ctx context.Context, guiaID uuid.UUID) ([]model.Novedad, error)
	CountByGuia(ctx context.Context, guiaID uuid.UUID) (int64, error)
	UltimaByGuia(ctx context.Context, guiaID uuid.UUID) (*model.Novedad, error)
}

type novedadRepo struct{ db *gorm.DB }

func NewNovedadRepository(db *gorm.DB) NovedadRepository { return &novedadRepo{db: db} }

func (r *novedadRepo) CreateTx(tx *gorm.DB, n *model.Novedad) error {
	return tx.Create(n).Error
}

func (r *novedadRepo) ListByGuia(ctx context.Context, guiaID uuid.UUID) ([]model.Novedad, error) {
	var novedades []model.Novedad
	err := r.db.WithContext(ctx).
		Where("guia_id = ?", guiaID).
		Preload("Usuario").
		Order("fecha_creacion DESC").
		Find(&novedades).Error
	return novedades, err
}

func (r *novedadRepo) CountByGuia(ctx context.Context, guiaID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Novedad{}).
		Where("guia_id = ?", guiaID).Count(&total).Error
	return total, err
}

func (r *novedadRepo) UltimaByGuia(ctx context.Context, guiaID uuid.UUID) (*model.Novedad, error) {
	var n model.Novedad
	err := r.db.WithContext(ctx).
		Where("guia_id = ?", guiaID).
		Order("fecha_creacion DESC").
		First(&n).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}
