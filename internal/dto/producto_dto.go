package dto

import "github.com/shopspring/decimal"

type CrearProductoRequest struct {
	CodigoSKU   *string         `json:"codigo_sku"`
	Nombre      string          `json:"nombre" validate:"required"`
	Descripcion *string         `json:"descripcion"`
	Precio      decimal.Decimal `json:"precio" validate:"required,min=0"`
}

type ActualizarProductoRequest struct {
	CodigoSKU   *string          `json:"codigo_sku"`
	Nombre      *string          `json:"nombre"`
	Descripcion *string          `json:"descripcion"`
	Precio      *decimal.Decimal `json:"precio" validate:"omitempty,min=0"`
	Activo      *bool            `json:"activo"`
}

type ProductoResponse struct {
	ID          string          `json:"id"`
	CodigoSKU   *string         `json:"codigo_sku"`
	Nombre      string          `json:"nombre"`
	Descripcion *string         `json:"descripcion,omitempty"`
	Precio      decimal.Decimal `json:"precio"`
	Activo      bool            `json:"activo"`
}
