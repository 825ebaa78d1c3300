package infra

// pdf.go — Print-ready dispatch sheet for guides in "asignada" state.
// One block per guide: número, motorizado, cliente, teléfono, dirección,
// productos (nombre x cantidad) y monto a recaudar. The sheet is what the
// couriers carry on the route, so blocks never split across pages.

import (
	"bytes"
	"fmt"
	"time"

	"github.com/pirela/sistema-guia/internal/model"

	"github.com/go-pdf/fpdf"
)

const bloqueAltoMin = 58.0 // mm reserved per guide block before page break

// GenerarPDFGuiasAsignadas renders the dispatch sheet and returns the PDF
// bytes ready to stream.
func GenerarPDFGuiasAsignadas(guias []model.Guia, generadoEn time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.SetAutoPageBreak(true, 14)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	contentW := pageW - 24

	// ── Encabezado ────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, "Guías Asignadas", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, generadoEn.Format("02/01/2006 15:04"), "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Total: %d guías", len(guias)), "", 1, "C", false, 0, "")
	pdf.Ln(3)

	for _, g := range guias {
		if pdf.GetY()+bloqueAltoMin > pageH-14 {
			pdf.AddPage()
		}

		startY := pdf.GetY()

		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(contentW*0.6, 6, "Guía "+g.NumeroGuia, "", 0, "L", false, 0, "")
		motorizado := ""
		if g.Motorizado != nil {
			motorizado = g.Motorizado.Nombre
		}
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(contentW*0.4, 6, "Motorizado: "+motorizado, "", 1, "R", false, 0, "")

		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(contentW, 5, "Cliente: "+g.NombreCliente+"   Tel: "+g.TelefonoCliente, "", 1, "L", false, 0, "")
		pdf.MultiCell(contentW, 5, "Dirección: "+g.Direccion, "", "L", false)
		if g.Referencia != nil && *g.Referencia != "" {
			pdf.MultiCell(contentW, 5, "Referencia: "+*g.Referencia, "", "L", false)
		}

		pdf.Ln(1)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(contentW*0.7, 5, "Producto", "B", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.3, 5, "Cantidad", "B", 1, "R", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		for _, item := range g.Productos {
			nombre := ""
			if item.Producto != nil {
				nombre = item.Producto.Nombre
			}
			if len(nombre) > 60 {
				nombre = nombre[:59] + "…"
			}
			pdf.CellFormat(contentW*0.7, 5, nombre, "", 0, "L", false, 0, "")
			pdf.CellFormat(contentW*0.3, 5, fmt.Sprintf("x%d", item.Cantidad), "", 1, "R", false, 0, "")
		}

		pdf.Ln(1)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(contentW, 6, "Monto a recaudar: $"+g.MontoRecaudar.StringFixed(2), "", 1, "R", false, 0, "")

		// Marco del bloque
		pdf.Rect(12, startY-1, contentW, pdf.GetY()-startY+2, "D")
		pdf.Ln(4)
	}

	if len(guias) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(contentW, 8, "No hay guías en estado asignada.", "", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render: %w", err)
	}
	return buf.Bytes(), nil
}
