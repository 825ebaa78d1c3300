package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producto is a catalog item referenced by guide line items.
// CodigoSKU is optional but unique when present (Shopify imports always set it).
// NombreNormalizado holds the diacritics-stripped, case-folded form of Nombre
// used for duplicate detection during order import.
type Producto struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CodigoSKU         *string   `gorm:"column:codigo_sku;uniqueIndex"`
	Nombre            string    `gorm:"index;not null"`
	NombreNormalizado string    `gorm:"index;not null"`
	Descripcion       *string
	Precio            decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Activo            bool            `gorm:"not null;default:true"`
	Eliminado         bool            `gorm:"not null;default:false"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (Producto) TableName() string { return "productos" }
