package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/pdf-page-api/internal/dto"
	"github.com/noah-isme/pdf-page-api/internal/models"
	appErrors "github.com/noah-isme/pdf-page-api/pkg/errors"
	"github.com/noah-isme/pdf-page-api/pkg/pdfengine"
	"github.com/noah-isme/pdf-page-api/pkg/storage"
)

type pdfStore interface {
	Stat(filename string) (os.FileInfo, error)
	Open(filename string) (*os.File, os.FileInfo, error)
	ReadAll(filename string, limit int64) ([]byte, os.FileInfo, error)
}

type pdfEngine interface {
	Load(data []byte) (pdfengine.Document, error)
}

type accessRecorder interface {
	RecordPageAccess(ctx context.Context, access models.PageAccess) (*models.PDFMetadata, error)
}

// PDFServiceConfig tunes extraction.
type PDFServiceConfig struct {
	// MaxExtractBytes bounds the file size loaded into memory for extraction. Zero disables the bound.
	MaxExtractBytes int64
}

// PDFFile is an open whole-file response. The caller closes Content.
type PDFFile struct {
	Name    string
	Size    int64
	ModTime time.Time
	Content io.ReadSeekCloser
}

// ExtractedPage is a serialized single-page document.
type ExtractedPage struct {
	Filename  string
	Page      int
	PageCount int
	Data      []byte
	Cached    bool
}

// PDFService serves whole files and single extracted pages.
type PDFService struct {
	store     pdfStore
	engine    pdfEngine
	recorder  accessRecorder
	cache     *PageCacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    PDFServiceConfig
	now       func() time.Time
}

// NewPDFService constructs a PDFService. cache and metrics may be nil.
func NewPDFService(store pdfStore, engine pdfEngine, recorder accessRecorder, cache *PageCacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, config PDFServiceConfig) *PDFService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxExtractBytes < 0 {
		config.MaxExtractBytes = 0
	}
	return &PDFService{
		store:     store,
		engine:    engine,
		recorder:  recorder,
		cache:     cache,
		metrics:   metrics,
		validator: ensureValidator(validate),
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

// OpenFile opens a whole PDF for streaming. It never touches access metadata.
func (s *PDFService) OpenFile(ctx context.Context, req dto.FileRequest) (*PDFFile, error) {
	if strings.TrimSpace(req.Filename) == "" {
		return nil, appErrors.ErrMissingFilename
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrInvalidFilename)
	}

	file, info, err := s.store.Open(req.Filename)
	if err != nil {
		return nil, mapStoreError(err)
	}
	s.metrics.RecordFileDownload()
	return &PDFFile{Name: req.Filename, Size: info.Size(), ModTime: info.ModTime(), Content: file}, nil
}

// ExtractPage validates the request, records the access and returns page req.Page as a new
// single-page document. The access is recorded once the page is known to be in range and
// before extraction runs, so a failed extraction still leaves a log entry.
func (s *PDFService) ExtractPage(ctx context.Context, req dto.PageRequest, ip string) (*ExtractedPage, error) {
	page, err := s.parsePageRequest(req)
	if err != nil {
		return nil, err
	}
	filename := req.Filename
	logger := s.logger.With(zap.String("filename", filename), zap.Int("page", page))

	info, err := s.store.Stat(filename)
	if err != nil {
		if mapped := mapStoreError(err); errors.Is(mapped, appErrors.ErrPDFNotFound) {
			s.metrics.RecordPageExtraction(ExtractionNotFound, 0)
			return nil, mapped
		}
		return nil, s.extractionFailure(logger, "stat", err)
	}

	cacheKey := PageCacheKey(filename, info.Size(), info.ModTime(), page)
	if cached, ok := s.cache.Get(ctx, cacheKey); ok {
		if err := s.record(ctx, filename, page, ip, cached.PageCount, info.Size()); err != nil {
			return nil, s.extractionFailure(logger, "record", err)
		}
		s.metrics.RecordPageExtraction(ExtractionCacheHit, 0)
		return &ExtractedPage{Filename: PageFilename(filename, page), Page: page, PageCount: cached.PageCount, Data: cached.Data, Cached: true}, nil
	}

	start := time.Now()
	data, info, err := s.store.ReadAll(filename, s.config.MaxExtractBytes)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrFileTooLarge):
			s.metrics.RecordPageExtraction(ExtractionTooLarge, 0)
			return nil, appErrors.WrapAs(err, appErrors.ErrFileTooLarge)
		case errors.Is(err, storage.ErrFileNotFound):
			s.metrics.RecordPageExtraction(ExtractionNotFound, 0)
			return nil, appErrors.ErrPDFNotFound
		}
		return nil, s.extractionFailure(logger, "read", err)
	}

	doc, err := s.engine.Load(data)
	if err != nil {
		return nil, s.extractionFailure(logger, "parse", err)
	}
	pageCount := doc.PageCount()
	if page < 1 || page > pageCount {
		s.metrics.RecordPageExtraction(ExtractionInvalidPage, 0)
		return nil, appErrors.ErrInvalidPage
	}

	if err := s.record(ctx, filename, page, ip, pageCount, info.Size()); err != nil {
		return nil, s.extractionFailure(logger, "record", err)
	}

	out, err := doc.ExtractPage(page)
	if err != nil {
		return nil, s.extractionFailure(logger, "extract", err)
	}
	s.metrics.RecordPageExtraction(ExtractionSuccess, time.Since(start))

	if s.cache.Enabled() {
		s.cache.StoreAsync(PageCacheKey(filename, info.Size(), info.ModTime(), page), models.CachedPage{PageCount: pageCount, Data: out})
	}

	return &ExtractedPage{Filename: PageFilename(filename, page), Page: page, PageCount: pageCount, Data: out}, nil
}

// PageFilename names an extracted page: the source name without its .pdf extension, then
// "-page-N.pdf".
func PageFilename(filename string, page int) string {
	base := filename
	if ext := filepath.Ext(filename); strings.EqualFold(ext, ".pdf") {
		base = strings.TrimSuffix(filename, ext)
	}
	return base + "-page-" + strconv.Itoa(page) + ".pdf"
}

func (s *PDFService) parsePageRequest(req dto.PageRequest) (int, error) {
	if strings.TrimSpace(req.Filename) == "" || strings.TrimSpace(req.Page) == "" {
		return 0, appErrors.ErrMissingPageParams
	}
	if err := s.validator.Struct(req); err != nil {
		if failedTag(err, TagPDFFilename) {
			return 0, appErrors.WrapAs(err, appErrors.ErrInvalidFilename)
		}
		return 0, appErrors.WrapAs(err, appErrors.ErrMissingPageParams)
	}
	page, err := strconv.Atoi(strings.TrimSpace(req.Page))
	if err != nil {
		// An integer too large for int can never be in range.
		if errors.Is(err, strconv.ErrRange) {
			return 0, appErrors.WrapAs(err, appErrors.ErrInvalidPage)
		}
		return 0, appErrors.WrapAs(err, appErrors.ErrMissingPageParams)
	}
	return page, nil
}

func (s *PDFService) record(ctx context.Context, filename string, page int, ip string, pageCount int, size int64) error {
	if s.recorder == nil {
		return errors.New("metadata recorder not configured")
	}
	_, err := s.recorder.RecordPageAccess(ctx, models.PageAccess{
		Filename:  filename,
		Page:      page,
		IP:        ip,
		PageCount: pageCount,
		Size:      size,
		At:        s.now().UTC(),
	})
	return err
}

func (s *PDFService) extractionFailure(logger *zap.Logger, stage string, err error) error {
	logger.Error("page extraction failed", zap.String("stage", stage), zap.Error(err))
	s.metrics.RecordPageExtraction(ExtractionFailed, 0)
	return appErrors.WrapAs(err, appErrors.ErrExtraction)
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, storage.ErrInvalidFilename):
		return appErrors.WrapAs(err, appErrors.ErrInvalidFilename)
	case errors.Is(err, storage.ErrFileNotFound):
		return appErrors.ErrPDFNotFound
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open pdf")
	}
}
