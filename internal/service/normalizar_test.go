package service_test

import (
	"testing"

	"github.com/pirela/sistema-guia/internal/service"

	"github.com/stretchr/testify/assert"
)

func TestNormalizarNombre(t *testing.T) {
	casos := []struct {
		entrada  string
		esperado string
	}{
		{"Café Premium 250g", "cafe premium 250g"},
		{"CAFÉ  PREMIUM   250G", "cafe premium 250g"},
		{"Panela Orgánica", "panela organica"},
		{"  Té verde (importado) ", "te verde importado"},
		{"Ñame, Año & Señal", "name ano senal"},
		{"producto-con-guiones", "productoconguiones"},
		{"", ""},
		{"   \t\n  ", ""},
		{"123", "123"},
	}
	for _, tc := range casos {
		assert.Equal(t, tc.esperado, service.NormalizarNombre(tc.entrada), "entrada: %q", tc.entrada)
	}
}

func TestNormalizarNombreColapsaVariantesAlMismoKey(t *testing.T) {
	variantes := []string{
		"Café Premium 250g.",
		"cafe premium 250g",
		"CAFE  PREMIUM  250G",
		"Café    Premium\t250g",
	}
	base := service.NormalizarNombre(variantes[0])
	for _, v := range variantes[1:] {
		assert.Equal(t, base, service.NormalizarNombre(v))
	}
}
