package service

import (
	"strings"

	"github.com/pirela/sistema-guia/internal/model"
)

// transiciones is the single source of truth for the guide workflow:
// rol → estado actual → estados alcanzables. Every view that offers state
// buttons consumes TransicionesPermitidas instead of re-encoding the table.
//
// Motorizados advance their own deliveries; administradores resolve
// novedades, cancel and close. Nobody moves a guide out of "entregada" or
// "finalizada".
var transiciones = map[string]map[string][]string{
	model.RolMotorizado: {
		model.EstadoAsignada: {model.EstadoEnRuta, model.EstadoNovedad},
		model.EstadoEnRuta:   {model.EstadoEntregada, model.EstadoRechazada, model.EstadoNovedad},
	},
	model.RolAdministrador: {
		model.EstadoPendiente: {model.EstadoCancelada, model.EstadoFinalizada},
		model.EstadoAsignada:  {model.EstadoNovedad, model.EstadoCancelada, model.EstadoFinalizada},
		model.EstadoEnRuta:    {model.EstadoNovedad, model.EstadoCancelada, model.EstadoFinalizada},
		model.EstadoNovedad: {
			model.EstadoAsignada, model.EstadoEnRuta,
			model.EstadoCancelada, model.EstadoRechazada, model.EstadoFinalizada,
		},
		model.EstadoRechazada: {model.EstadoCancelada, model.EstadoFinalizada},
		model.EstadoCancelada: {model.EstadoFinalizada},
	},
}

// TransicionesPermitidas returns the estados an actor with the given rol may
// move a guide to from estadoActual. The returned slice is a copy.
func TransicionesPermitidas(rol, estadoActual string) []string {
	porEstado, ok := transiciones[rol]
	if !ok {
		return nil
	}
	destinos := porEstado[estadoActual]
	out := make([]string, len(destinos))
	copy(out, destinos)
	return out
}

// transicionPermitida reports whether (estadoActual → estadoNuevo) appears in
// the table for rol.
func transicionPermitida(rol, estadoActual, estadoNuevo string) bool {
	for _, destino := range transiciones[rol][estadoActual] {
		if destino == estadoNuevo {
			return true
		}
	}
	return false
}

// comentarioObligatorio: entering or leaving "novedad" always demands an
// explanation.
func comentarioObligatorio(estadoActual, estadoNuevo string) bool {
	return estadoActual == model.EstadoNovedad || estadoNuevo == model.EstadoNovedad
}

// comentarioValido rejects empty and whitespace-only comments.
func comentarioValido(comentario string) bool {
	return strings.TrimSpace(comentario) != ""
}
