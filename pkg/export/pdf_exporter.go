package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PageMarker is the text stamped on every generated page, used to tell pages apart after
// extraction.
func PageMarker(page int) string {
	return fmt.Sprintf("page-marker-%d", page)
}

// PDFExporter renders simple multi-page documents for seeding the PDF folder and for tests.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// RenderPages creates an A4 document with the given number of pages. Each page carries the
// title, a "Page N of M" line and its PageMarker.
func (e *PDFExporter) RenderPages(pages int, title string) ([]byte, error) {
	if pages < 1 {
		return nil, fmt.Errorf("pdf requires at least one page")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.SetTitle(title, false)

	for page := 1; page <= pages; page++ {
		pdf.AddPage()
		if title != "" {
			pdf.SetFont("Arial", "B", 16)
			pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
			pdf.Ln(4)
		}
		pdf.SetFont("Arial", "", 12)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d of %d", page, pages), "", 1, "", false, 0, "")
		pdf.CellFormat(0, 8, PageMarker(page), "", 1, "", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
