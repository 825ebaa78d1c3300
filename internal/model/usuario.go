package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles del sistema.
const (
	RolAdministrador = "administrador"
	RolMotorizado    = "motorizado"
)

// Usuario stores system users with role-based access.
// Rol: "administrador" | "motorizado"
// Rows are never deleted physically — Eliminado=true hides them from all reads.
type Usuario struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Nombre       string    `gorm:"not null"`
	Email        *string
	PasswordHash string `gorm:"not null"`
	Rol          string `gorm:"type:varchar(20);not null"`
	Activo       bool   `gorm:"not null;default:true"`
	Eliminado    bool   `gorm:"not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Usuario) TableName() string { return "usuarios" }
