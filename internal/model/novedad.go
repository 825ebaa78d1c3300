package model

import (
	"time"

	"github.com/google/uuid"
)

// Novedad is a free-text incident note tied to a guide. When the note was
// written as part of a state transition it points at the historial entry via
// HistorialEstadoID, so display code joins by FK instead of guessing by
// timestamp proximity.
type Novedad struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	GuiaID            uuid.UUID  `gorm:"type:uuid;index;not null"`
	UsuarioID         uuid.UUID  `gorm:"type:uuid;not null"`
	HistorialEstadoID *uuid.UUID `gorm:"type:uuid;index"`
	Comentario        string     `gorm:"not null"`
	FechaCreacion     time.Time  `gorm:"not null;index"`

	Usuario *Usuario `gorm:"foreignKey:UsuarioID"`
}

func (Novedad) TableName() string { return "novedades" }
