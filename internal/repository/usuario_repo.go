package repository

import (
	"context"

	"github.com/pirela/sistema-guia/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UsuarioRepository defines the data access contract for users.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
type UsuarioRepository interface {
	Create(ctx context.Context, u *model.Usuario) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Usuario, error)
	FindByUsername(ctx context.Context, username string) (*model.Usuario, error)
	List(ctx context.Context, rol string, incluirInactivos bool) ([]model.Usuario, error)
	Update(ctx context.Context, u *model.Usuario) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Desactivar(ctx context.Context, id uuid.UUID) error
	Reactivar(ctx context.Context, id uuid.UUID) error
	// FirstMotorizadoActivo picks the default courier for imports that do not
	// name one.
	FirstMotorizadoActivo(ctx context.Context) (*model.Usuario, error)
	// EmailsAdministradores feeds the novedad alert worker.
	EmailsAdministradores(ctx context.Context) ([]string, error)
}

type usuarioRepo struct{ db *gorm.DB }

func NewUsuarioRepository(db *gorm.DB) UsuarioRepository { return &usuarioRepo{db: db} }

func (r *usuarioRepo) Create(ctx context.Context, u *model.Usuario) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *usuarioRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Usuario, error) {
	var u model.Usuario
	err := r.db.WithContext(ctx).Scopes(noEliminados).First(&u, "id = ?", id).Error
	return &u, err
}

func (r *usuarioRepo) FindByUsername(ctx context.Context, username string) (*model.Usuario, error) {
	var u model.Usuario
	err := r.db.WithContext(ctx).Scopes(noEliminados).
		Where("username = ? AND activo = true", username).First(&u).Error
	return &u, err
}

func (r *usuarioRepo) List(ctx context.Context, rol string, incluirInactivos bool) ([]model.Usuario, error) {
	var usuarios []model.Usuario
	q := r.db.WithContext(ctx).Scopes(noEliminados)
	if !incluirInactivos {
		q = q.Where("activo = true")
	}
	if rol != "" {
		q = q.Where("rol = ?", rol)
	}
	err := q.Order("nombre ASC").Find(&usuarios).Error
	return usuarios, err
}

func (r *usuarioRepo) Update(ctx context.Context, u *model.Usuario) error {
	return r.db.WithContext(ctx).Save(u).Error
}

func (r *usuarioRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Usuario{}).Where("id = ?", id).
		Updates(map[string]interface{}{"eliminado": true, "activo": false}).Error
}

func (r *usuarioRepo) Desactivar(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Usuario{}).Where("id = ?", id).
		Update("activo", false).Error
}

func (r *usuarioRepo) Reactivar(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Usuario{}).
		Where("id = ? AND eliminado = false", id).
		Update("activo", true).Error
}

func (r *usuarioRepo) FirstMotorizadoActivo(ctx context.Context) (*model.Usuario, error) {
	var u model.Usuario
	err := r.db.WithContext(ctx).Scopes(soloActivos).
		Where("rol = ?", model.RolMotorizado).
		Order("created_at ASC").First(&u).Error
	return &u, err
}

func (r *usuarioRepo) EmailsAdministradores(ctx context.Context) ([]string, error) {
	var emails []string
	err := r.db.WithContext(ctx).Model(&model.Usuario{}).Scopes(soloActivos).
		Where("rol = ? AND email IS NOT NULL", model.RolAdministrador).
		Pluck("email", &emails).Error
	return emails, err
}
