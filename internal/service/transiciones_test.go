package service_test

import (
	"testing"

	"github.com/pirela/sistema-guia/internal/model"
	"github.com/pirela/sistema-guia/internal/service"

	"github.com/stretchr/testify/assert"
)

func TestTransicionesPermitidasPorRol(t *testing.T) {
	// Motorizado: sólo avanza sus entregas.
	assert.ElementsMatch(t,
		[]string{model.EstadoEnRuta, model.EstadoNovedad},
		service.TransicionesPermitidas(model.RolMotorizado, model.EstadoAsignada))
	assert.ElementsMatch(t,
		[]string{model.EstadoEntregada, model.EstadoRechazada, model.EstadoNovedad},
		service.TransicionesPermitidas(model.RolMotorizado, model.EstadoEnRuta))

	// Administrador: resuelve novedades y cierra.
	assert.ElementsMatch(t,
		[]string{model.EstadoAsignada, model.EstadoEnRuta, model.EstadoCancelada, model.EstadoRechazada, model.EstadoFinalizada},
		service.TransicionesPermitidas(model.RolAdministrador, model.EstadoNovedad))
	assert.ElementsMatch(t,
		[]string{model.EstadoFinalizada},
		service.TransicionesPermitidas(model.RolAdministrador, model.EstadoCancelada))
}

func TestEstadosTerminalesSinSalida(t *testing.T) {
	for _, rol := range []string{model.RolAdministrador, model.RolMotorizado} {
		assert.Empty(t, service.TransicionesPermitidas(rol, model.EstadoEntregada))
		assert.Empty(t, service.TransicionesPermitidas(rol, model.EstadoFinalizada))
	}
}

func TestTransicionesRolDesconocidoVacias(t *testing.T) {
	assert.Empty(t, service.TransicionesPermitidas("auditor", model.EstadoAsignada))
}

func TestTransicionesDevuelveCopia(t *testing.T) {
	a := service.TransicionesPermitidas(model.RolMotorizado, model.EstadoAsignada)
	a[0] = "mutado"
	b := service.TransicionesPermitidas(model.RolMotorizado, model.EstadoAsignada)
	assert.NotContains(t, b, "mutado")
}
