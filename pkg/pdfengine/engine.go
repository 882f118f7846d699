// Package pdfengine loads PDF documents and copies single pages out of them using pdfcpu.
package pdfengine

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var (
	// ErrParse marks input pdfcpu could not read or validate.
	ErrParse = errors.New("parse pdf")
	// ErrPageRange is returned for page numbers outside [1, PageCount].
	ErrPageRange = errors.New("page out of range")
)

func init() {
	// pdfcpu otherwise writes a config.yml under the user's config dir on first use.
	api.DisableConfigDir()
}

// Document is a parsed PDF.
type Document interface {
	PageCount() int
	ExtractPage(page int) ([]byte, error)
}

// Engine parses PDFs. pdfcpu mutates its configuration while running, so every Load gets
// a fresh one.
type Engine struct {
	validationMode int
}

// New returns an engine using relaxed validation.
func New() *Engine {
	return &Engine{validationMode: model.ValidationRelaxed}
}

func (e *Engine) config() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = e.validationMode
	return conf
}

// Load reads and validates data. The returned document must not be shared between goroutines.
func (e *Engine) Load(data []byte) (doc Document, err error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrParse)
	}
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("%w: %v", ErrParse, r)
		}
	}()

	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), e.config())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return &document{ctx: ctx}, nil
}

// PageCount is a convenience for callers that only need the number of pages.
func (e *Engine) PageCount(data []byte) (int, error) {
	doc, err := e.Load(data)
	if err != nil {
		return 0, err
	}
	return doc.PageCount(), nil
}

type document struct {
	ctx *model.Context
}

func (d *document) PageCount() int {
	return d.ctx.PageCount
}

// ExtractPage copies the 1-based page into a new single-page document and serializes it.
func (d *document) ExtractPage(page int) (out []byte, err error) {
	if page < 1 || page > d.ctx.PageCount {
		return nil, fmt.Errorf("%w: %d of %d", ErrPageRange, page, d.ctx.PageCount)
	}
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("extract page %d: %v", page, r)
		}
	}()

	reader, err := api.ExtractPage(d.ctx, page)
	if err != nil {
		return nil, fmt.Errorf("extract page %d: %w", page, err)
	}
	out, err = io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("serialize page %d: %w", page, err)
	}
	return out, nil
}
