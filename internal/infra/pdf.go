package infra

// pdf.go: comprobante of a saved comanda, rendered with go-pdf/fpdf on
// 80mm thermal-receipt paper. Money is printed in the comanda's unit of
// account; in USD mode the ARS equivalent at the recorded rate is added.
//
// The output file is saved to storagePath/comanda_{tipo}_{numero}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"merygarcia/internal/model"
	"merygarcia/internal/moneda"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// GenerateComprobantePDF writes the receipt of c and returns its path.
// storagePath is created if needed.
func GenerateComprobantePDF(c *model.Comanda, negocio, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("comanda_%s_%s.pdf", c.Tipo, sanitizeFileName(c.Numero))
	filePath := filepath.Join(storagePath, fileName)

	unidad := moneda.Moneda(c.Unidad)
	conv := moneda.NewConversor(c.TipoCambio)
	money := func(d decimal.Decimal) string { return moneda.Format(d, unidad) }

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 80, Ht: 200},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(true, 4)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, tr(negocio), "", 1, "C", false, 0, "")

	titulo := "Comprobante de ingreso"
	if c.Tipo == "egreso" {
		titulo = "Comprobante de egreso"
	}
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, tr(titulo), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, tr("Comanda N° "+c.Numero), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, c.Fecha.Format("02/01/2006"), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4, tr("Cliente: "+c.ClienteNombre), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4, tr("Unidad: "+c.UnidadNegocio), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4, "Tipo de cambio: "+moneda.FormatARS(c.TipoCambio), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Items ─────────────────────────────────────────────────────────────────
	col1 := contentW * 0.50
	col2 := contentW * 0.14
	col3 := contentW * 0.36

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Detalle", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Cant", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, it := range c.Items {
		nombre := it.Nombre
		if len([]rune(nombre)) > 24 {
			nombre = string([]rune(nombre)[:23]) + "."
		}
		if it.DescuentoPct.IsPositive() {
			nombre += " (-" + it.DescuentoPct.String() + "%)"
		}
		pdf.CellFormat(col1, 5, tr(nombre), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprintf("x%d", it.Cantidad), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, money(it.Subtotal), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Totals ────────────────────────────────────────────────────────────────
	linea := func(label string, monto decimal.Decimal) {
		pdf.CellFormat(col1+col2, 5, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, money(monto), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "", 7)
	linea("Subtotal:", c.SubtotalBase)
	if !c.TotalDescuentos.IsZero() {
		linea("Descuentos:", c.TotalDescuentos.Neg())
	}
	if !c.SenaAplicada.IsZero() {
		linea("Seña:", c.SenaAplicada.Neg())
	}
	if !c.DescuentosMetodoPago.IsZero() {
		linea("Desc. medio de pago:", c.DescuentosMetodoPago.Neg())
	}
	if !c.RecargosMetodoPago.IsZero() {
		linea("Recargo medio de pago:", c.RecargosMetodoPago)
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, money(c.TotalAPagar), "", 1, "R", false, 0, "")
	if unidad == moneda.USD && conv.Valido() {
		ars, _ := conv.ToARS(c.TotalAPagar)
		pdf.SetFont("Helvetica", "", 7)
		pdf.CellFormat(contentW, 4, "Equivale a "+moneda.FormatARS(ars), "", 1, "R", false, 0, "")
	}

	// ── Payments ──────────────────────────────────────────────────────────────
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 7)
	for _, p := range c.Pagos {
		label := "Pago (" + p.Metodo + ")"
		if p.MonedaOriginal != p.Moneda {
			label += " orig. " + p.MonedaOriginal
		}
		pdf.CellFormat(col1+col2, 4, tr(label+":"), "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 4, moneda.Format(p.MontoFinal, moneda.Moneda(p.Moneda)), "", 1, "R", false, 0, "")
	}
	if c.Balance.IsPositive() {
		pdf.CellFormat(col1+col2, 4, "Vuelto:", "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 4, money(c.Balance), "", 1, "R", false, 0, "")
	}

	// ── Footer ────────────────────────────────────────────────────────────────
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, tr("¡Gracias por elegirnos!"), "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}

func sanitizeFileName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
