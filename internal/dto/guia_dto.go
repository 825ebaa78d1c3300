package dto

import "github.com/shopspring/decimal"

// GuiaFilter binds the list-view query string. Estado "todas" means no estado
// filter; ExcluirFinalizadas is forced for motorizado callers.
type GuiaFilter struct {
	Estado             string `form:"estado"`
	MotorizadoID       string `form:"motorizado_id"`
	Busqueda           string `form:"busqueda"`
	Desde              string `form:"desde"`
	Hasta              string `form:"hasta"`
	Page               int    `form:"page"`
	Limit              int    `form:"limit"`
	ExcluirFinalizadas bool   `form:"-"`
}

type GuiaProductoRequest struct {
	ProductoID string `json:"producto_id" validate:"required,uuid"`
	Cantidad   int    `json:"cantidad" validate:"required,min=1"`
}

type CrearGuiaRequest struct {
	NombreCliente      string                `json:"nombre_cliente" validate:"required"`
	TelefonoCliente    string                `json:"telefono_cliente" validate:"required"`
	Direccion          string                `json:"direccion" validate:"required"`
	Referencia         *string               `json:"referencia"`
	Observacion        *string               `json:"observacion"`
	MontoRecaudar      decimal.Decimal       `json:"monto_recaudar" validate:"min=0"`
	MotorizadoAsignado string                `json:"motorizado_asignado" validate:"required,uuid"`
	Productos          []GuiaProductoRequest `json:"productos" validate:"required,min=1,dive"`
}

// CambiarEstadoRequest drives the workflow endpoint. Comentario is mandatory
// when entering or leaving "novedad"; the service enforces it.
type CambiarEstadoRequest struct {
	Estado     string `json:"estado" validate:"required"`
	Comentario string `json:"comentario"`
}

type ReasignarRequest struct {
	MotorizadoID string `json:"motorizado_id" validate:"required,uuid"`
}

type GuiaProductoResponse struct {
	ProductoID     string          `json:"producto_id"`
	Nombre         string          `json:"nombre"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type GuiaResponse struct {
	ID                 string                 `json:"id"`
	NumeroGuia         string                 `json:"numero_guia"`
	NombreCliente      string                 `json:"nombre_cliente"`
	TelefonoCliente    string                 `json:"telefono_cliente"`
	Direccion          string                 `json:"direccion"`
	Referencia         *string                `json:"referencia,omitempty"`
	Observacion        *string                `json:"observacion,omitempty"`
	MontoRecaudar      decimal.Decimal        `json:"monto_recaudar"`
	Estado             string                 `json:"estado"`
	MotorizadoAsignado string                 `json:"motorizado_asignado"`
	MotorizadoNombre   string                 `json:"motorizado_nombre,omitempty"`
	CreadoPor          string                 `json:"creado_por"`
	FechaAsignacion    string                 `json:"fecha_asignacion"`
	FechaEntrega       *string                `json:"fecha_entrega,omitempty"`
	Productos          []GuiaProductoResponse `json:"productos,omitempty"`
	CantidadNovedades  int64                  `json:"cantidad_novedades"`
}

type GuiaListResponse struct {
	Data  []GuiaResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// HistorialEntryResponse is one row of the combined audit view: a state
// change with its linked novedad (joined by FK), or a standalone novedad.
type HistorialEntryResponse struct {
	ID             string           `json:"id"`
	Tipo           string           `json:"tipo"`
	EstadoAnterior *string          `json:"estado_anterior"`
	EstadoNuevo    string           `json:"estado_nuevo"`
	UsuarioID      *string          `json:"usuario_id"`
	UsuarioNombre  string           `json:"usuario_nombre,omitempty"`
	Comentario     *string          `json:"comentario,omitempty"`
	Novedad        *NovedadResponse `json:"novedad,omitempty"`
	Fecha          string           `json:"fecha"`
}

type NovedadResponse struct {
	ID            string `json:"id"`
	UsuarioID     string `json:"usuario_id"`
	UsuarioNombre string `json:"usuario_nombre,omitempty"`
	Comentario    string `json:"comentario"`
	FechaCreacion string `json:"fecha_creacion"`
}

// GuiaDetalleResponse is the detail view: the guide plus its audit trail and
// the transitions the requesting actor may perform next (single source of
// truth for UI action buttons).
type GuiaDetalleResponse struct {
	Guia                   GuiaResponse             `json:"guia"`
	Historial              []HistorialEntryResponse `json:"historial"`
	Novedades              []NovedadResponse        `json:"novedades"`
	TransicionesPermitidas []string                 `json:"transiciones_permitidas"`
}
