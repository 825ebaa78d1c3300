package repository

import (
	"context"

	"github.com/pirela/sistema-guia/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HistorialRepository appends and reads the audit trail. There is no update
// or delete on purpose: the trail is append-only.
type HistorialRepository interface {
	CreateTx(tx *gorm.DB, h *model.HistorialEstado) error
	ListByGuia(ctx context.Context, guiaID uuid.UUID) ([]model.HistorialEstado, error)
	CountByGuia(ctx context.Context, guiaID uuid.UUID) (int64, error)
}

type historialRepo struct{ db *gorm.DB }

func NewHistorialRepository(db *gorm.DB) HistorialRepository { return &historialRepo{db: db} }

func (r *historialRepo) CreateTx(tx *gorm.DB, h *model.HistorialEstado) error {
	return tx.Create(h).Error
}

func (r *historialRepo) ListByGuia(ctx context.Context, guiaID uuid.UUID) ([]model.HistorialEstado, error) {
	var entradas []model.HistorialEstado
	err := r.db.WithContext(ctx).
		Where("guia_id = ?", guiaID).
		Preload("Usuario").
		Order("fecha_cambio DESC").
		Find(&entradas).Error
	return entradas, err
}

func (r *historialRepo) CountByGuia(ctx context.Context, guiaID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.HistorialEstado{}).
		Where("guia_id = ?", guiaID).Count(&total).Error
	return total, err
}
