package service

import "errors"

// Errores del flujo de guías. Handlers map these to HTTP statuses with
// errors.Is; none of them implies a partial write — validation failures are
// rejected before the transaction opens and the transaction rolls back whole.
var (
	ErrGuiaNoEncontrada      = errors.New("guía no encontrada")
	ErrTransicionNoPermitida = errors.New("transición no permitida para el rol")
	ErrComentarioRequerido   = errors.New("el cambio de estado requiere un comentario")
	ErrConflictoEstado       = errors.New("la guía cambió de estado, recargue e intente de nuevo")
	ErrUsuarioInactivo       = errors.New("usuario inactivo")
	ErrGuiaAjena             = errors.New("la guía no está asignada a este motorizado")
	ErrMotorizadoInvalido    = errors.New("el motorizado no existe o no está activo")
	ErrOrdenYaImportada      = errors.New("esta orden ya fue importada")
	ErrEstadoInvalido        = errors.New("estado inválido")
)
