package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/pdf-page-api/internal/models"
	appErrors "github.com/noah-isme/pdf-page-api/pkg/errors"
	"github.com/noah-isme/pdf-page-api/pkg/jobs"
)

// JobTypeCacheFill identifies queued page cache writes.
const JobTypeCacheFill = "page_cache_fill"

// PageCacheRepository abstracts persistence for cached pages.
type PageCacheRepository interface {
	Get(ctx context.Context, key string) (*models.CachedPage, error)
	Set(ctx context.Context, key string, page models.CachedPage, ttl time.Duration) error
}

type cacheFill struct {
	Key  string
	Page models.CachedPage
}

// PageCacheService wraps the page cache with metrics and moves writes off the request path.
type PageCacheService struct {
	repo    PageCacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
	queue   *jobs.Queue
}

// NewPageCacheService constructs a cache service.
func NewPageCacheService(repo PageCacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *PageCacheService {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageCacheService{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

// UseQueue routes StoreAsync through q.
func (s *PageCacheService) UseQueue(q *jobs.Queue) {
	if s != nil {
		s.queue = q
	}
}

// Enabled indicates whether caching is active.
func (s *PageCacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// PageCacheKey identifies one page of one version of a file. Size and modification time stand
// in for a content hash.
func PageCacheKey(filename string, size int64, modTime time.Time, page int) string {
	return fmt.Sprintf("pdfpage:%s:%d:%d:%d", filename, size, modTime.UnixNano(), page)
}

// Get returns the cached page. Lookup failures are logged and reported as a miss.
func (s *PageCacheService) Get(ctx context.Context, key string) (*models.CachedPage, bool) {
	if !s.Enabled() {
		return nil, false
	}
	start := time.Now()
	page, err := s.repo.Get(ctx, key)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("page cache get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	s.metrics.RecordCacheOperation(true, duration)
	return page, true
}

// Store writes the page synchronously.
func (s *PageCacheService) Store(ctx context.Context, key string, page models.CachedPage) error {
	if !s.Enabled() {
		return nil
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, page, s.ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("page cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// StoreAsync hands the write to the queue. Without a queue, or when the queue is saturated,
// the write is dropped.
func (s *PageCacheService) StoreAsync(key string, page models.CachedPage) {
	if !s.Enabled() || s.queue == nil {
		return
	}
	if err := s.queue.TryEnqueue(jobs.Job{Type: JobTypeCacheFill, Payload: cacheFill{Key: key, Page: page}}); err != nil {
		s.logger.Debug("page cache fill skipped", zap.String("key", key), zap.Error(err))
	}
}

// HandleJob is the queue handler for cache fills.
func (s *PageCacheService) HandleJob(ctx context.Context, job jobs.Job) error {
	fill, ok := job.Payload.(cacheFill)
	if !ok {
		s.logger.Error("unexpected cache job payload", zap.String("type", job.Type))
		return nil
	}
	return s.Store(ctx, fill.Key, fill.Page)
}
