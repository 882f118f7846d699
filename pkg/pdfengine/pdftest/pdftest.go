// Package pdftest provides PDF fixtures and an independent reader for asserting on
// extracted pages.
package pdftest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pdf "github.com/ledongthuc/pdf"

	"github.com/noah-isme/pdf-page-api/pkg/export"
)

// Pages renders a document with n pages, each stamped with export.PageMarker.
func Pages(t testing.TB, n int) []byte {
	t.Helper()
	data, err := export.NewPDFExporter().RenderPages(n, "Fixture")
	if err != nil {
		t.Fatalf("render fixture: %v", err)
	}
	return data
}

// WriteFile stores an n-page fixture as dir/name and returns its size in bytes.
func WriteFile(t testing.TB, dir, name string, n int) int64 {
	t.Helper()
	data := Pages(t, n)
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return int64(len(data))
}

// NumPages counts pages with ledongthuc/pdf rather than pdfcpu.
func NumPages(t testing.TB, data []byte) int {
	t.Helper()
	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open pdf: %v", err)
	}
	return doc.NumPage()
}

// Text returns the plain text of every page.
func Text(t testing.TB, data []byte) string {
	t.Helper()
	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open pdf: %v", err)
	}
	var builder strings.Builder
	for i := 1; i <= doc.NumPage(); i++ {
		p := doc.Page(i)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			t.Fatalf("page %d text: %v", i, err)
		}
		builder.WriteString(content)
		builder.WriteString("\n")
	}
	return builder.String()
}
