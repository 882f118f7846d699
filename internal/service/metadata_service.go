package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/pdf-page-api/internal/dto"
	"github.com/noah-isme/pdf-page-api/internal/models"
	"github.com/noah-isme/pdf-page-api/internal/repository"
	appErrors "github.com/noah-isme/pdf-page-api/pkg/errors"
	"github.com/noah-isme/pdf-page-api/pkg/export"
)

type metadataRepository interface {
	RecordPageAccess(ctx context.Context, access models.PageAccess) (*models.PDFMetadata, error)
	GetByFilename(ctx context.Context, filename string) (*models.PDFMetadata, error)
	List(ctx context.Context, filter models.MetadataFilter) ([]models.PDFMetadata, error)
	Count(ctx context.Context) (int, error)
}

// MetadataService records page-level accesses and serves the stored records.
type MetadataService struct {
	repo      metadataRepository
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewMetadataService constructs a MetadataService instance.
func NewMetadataService(repo metadataRepository, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *MetadataService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetadataService{
		repo:      repo,
		metrics:   metrics,
		validator: ensureValidator(validate),
		logger:    logger,
		now:       time.Now,
	}
}

// RecordPageAccess upserts the record for the file and appends one access log entry.
// Both the scalar fields and the entry are stamped with the same instant.
func (s *MetadataService) RecordPageAccess(ctx context.Context, access models.PageAccess) (*models.PDFMetadata, error) {
	if access.At.IsZero() {
		access.At = s.now().UTC()
	}
	start := time.Now()
	meta, err := s.repo.RecordPageAccess(ctx, access)
	s.metrics.ObserveDBQuery("record_page_access", time.Since(start))
	if err != nil {
		return nil, err
	}
	s.logger.Debug("page access recorded",
		zap.String("filename", access.Filename),
		zap.Int("page", access.Page),
		zap.String("ip", access.IP),
		zap.Int("access_count", meta.AccessCount),
	)
	return meta, nil
}

// Get returns one record with its access log.
func (s *MetadataService) Get(ctx context.Context, filename string) (*models.PDFMetadata, error) {
	if err := s.validator.Var(filename, "required,"+TagPDFFilename); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidFilename.Code, appErrors.ErrInvalidFilename.Status, appErrors.ErrInvalidFilename.Message)
	}
	start := time.Now()
	meta, err := s.repo.GetByFilename(ctx, filename)
	s.metrics.ObserveDBQuery("get_pdf_metadata", time.Since(start))
	if err != nil {
		if errors.Is(err, repository.ErrMetadataNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "metadata not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load metadata")
	}
	return meta, nil
}

// List pages through tracked files ordered by most recent access.
func (s *MetadataService) List(ctx context.Context, req dto.MetadataListRequest) (*dto.MetadataListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pagination parameters")
	}
	if req.Limit == 0 {
		req.Limit = 50
	}

	start := time.Now()
	items, err := s.repo.List(ctx, models.MetadataFilter{Limit: req.Limit, Offset: req.Offset})
	s.metrics.ObserveDBQuery("list_pdf_metadata", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list metadata")
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count metadata")
	}
	return &dto.MetadataListResponse{Items: items, Total: total, Limit: req.Limit, Offset: req.Offset}, nil
}

// Stats combines process counters with the number of tracked files.
func (s *MetadataService) Stats(ctx context.Context) (*models.ServiceStats, error) {
	stats := s.metrics.Snapshot()
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count metadata")
	}
	stats.TrackedFiles = total
	return &stats, nil
}

// AccessLogDataset flattens one file's access log into rows for CSV export, oldest first.
func (s *MetadataService) AccessLogDataset(ctx context.Context, filename string) (*export.Dataset, error) {
	meta, err := s.Get(ctx, filename)
	if err != nil {
		return nil, err
	}
	dataset := &export.Dataset{
		Headers: []string{"filename", "page", "ip", "accessed_at"},
		Rows:    make([][]string, 0, len(meta.AccessLog)),
	}
	for _, entry := range meta.AccessLog {
		dataset.Rows = append(dataset.Rows, []string{
			meta.Filename,
			strconv.Itoa(entry.Page),
			entry.IP,
			entry.AccessedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return dataset, nil
}
