package model

import (
	"time"

	"github.com/google/uuid"
)

// Tipos de entrada del historial. Las reasignaciones de motorizado quedan
// auditadas con su propio tipo en lugar de mutar la guía en silencio.
const (
	HistorialCambioEstado = "cambio_estado"
	HistorialReasignacion = "reasignacion"
)

// HistorialEstado is the append-only audit trail of a guide.
// EstadoAnterior is NULL only for the first entry of a guide.
// UsuarioID NULL means the entry was written by the system (import).
// Rows are never updated or deleted.
type HistorialEstado struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	GuiaID         uuid.UUID  `gorm:"type:uuid;index;not null"`
	Tipo           string     `gorm:"type:varchar(20);not null;default:'cambio_estado'"`
	EstadoAnterior *string    `gorm:"type:varchar(20)"`
	EstadoNuevo    string     `gorm:"type:varchar(20);not null"`
	UsuarioID      *uuid.UUID `gorm:"type:uuid"`
	Comentario     *string
	FechaCambio    time.Time `gorm:"not null;index"`

	Usuario *Usuario `gorm:"foreignKey:UsuarioID"`
}

func (HistorialEstado) TableName() string { return "historial_estado" }
