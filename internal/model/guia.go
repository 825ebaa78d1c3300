package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Estados de una guía. El ciclo de vida completo y las transiciones legales
// por rol viven en service (tabla de transiciones); el modelo sólo declara
// la enumeración.
const (
	EstadoPendiente  = "pendiente"
	EstadoAsignada   = "asignada"
	EstadoEnRuta     = "en_ruta"
	EstadoEntregada  = "entregada"
	EstadoRechazada  = "rechazada"
	EstadoCancelada  = "cancelada"
	EstadoFinalizada = "finalizada"
	EstadoNovedad    = "novedad"
)

// Estados returns every legal estado value (used for validation and reports).
func Estados() []string {
	return []string{
		EstadoPendiente, EstadoAsignada, EstadoEnRuta, EstadoEntregada,
		EstadoRechazada, EstadoCancelada, EstadoFinalizada, EstadoNovedad,
	}
}

// EstadoValido reports whether s is one of the 8 enumerated estados.
func EstadoValido(s string) bool {
	for _, e := range Estados() {
		if e == s {
			return true
		}
	}
	return false
}

// Guia is a delivery order assigned to a motorizado and tracked through the
// status workflow. FechaEntrega is set iff the guide reached "entregada".
type Guia struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NumeroGuia         string    `gorm:"column:numero_guia;uniqueIndex;not null"`
	NombreCliente      string    `gorm:"not null"`
	TelefonoCliente    string    `gorm:"not null"`
	Direccion          string    `gorm:"not null"`
	Referencia         *string
	Observacion        *string
	MontoRecaudar      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Estado             string          `gorm:"type:varchar(20);not null;index;default:'pendiente'"`
	MotorizadoAsignado uuid.UUID       `gorm:"type:uuid;index;not null"`
	CreadoPor          uuid.UUID       `gorm:"type:uuid;not null"`
	FechaAsignacion    time.Time       `gorm:"not null"`
	FechaEntrega       *time.Time
	Eliminado          bool `gorm:"not null;default:false"`
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Motorizado *Usuario       `gorm:"foreignKey:MotorizadoAsignado"`
	Creador    *Usuario       `gorm:"foreignKey:CreadoPor"`
	Productos  []GuiaProducto `gorm:"foreignKey:GuiaID"`
}

func (Guia) TableName() string { return "guias" }

// GuiaProducto is an immutable line item: what was promised for the guide at
// creation time, priced at that moment.
type GuiaProducto struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	GuiaID         uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;index;not null"`
	Cantidad       int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

func (GuiaProducto) TableName() string { return "guias_productos" }
