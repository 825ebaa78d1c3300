package service

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var quitarDiacriticos = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// NormalizarNombre produces the canonical form used to match incoming order
// items against the product catalog: diacritics stripped, case folded,
// punctuation removed, whitespace collapsed. "Café  Premium 250g." and
// "cafe premium 250g" collapse to the same key.
func NormalizarNombre(nombre string) string {
	s, _, err := transform.String(quitarDiacriticos, nombre)
	if err != nil {
		s = nombre
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		default:
			// puntuación: se descarta
		}
	}
	return strings.TrimSpace(b.String())
}
