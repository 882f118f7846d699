package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/pdf-page-api/internal/models"
)

// Extraction outcomes used as the result label.
const (
	ExtractionSuccess     = "success"
	ExtractionCacheHit    = "cache_hit"
	ExtractionInvalidPage = "invalid_page"
	ExtractionNotFound    = "not_found"
	ExtractionTooLarge    = "too_large"
	ExtractionFailed      = "failed"
)

// MetricsService encapsulates Prometheus instrumentation and keeps counters for the stats endpoint.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	pageExtractions    *prometheus.CounterVec
	extractionDuration prometheus.Observer
	fileDownloads      prometheus.Counter
	cacheLatency       prometheus.Observer
	cacheWrite         prometheus.Observer
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	dbQueryDuration    *prometheus.HistogramVec

	startedAt            time.Time
	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	extractionCount      uint64
	downloadCount        uint64
	dbQueryCount         uint64
	dbQueryDurationTotal uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	pageExtractions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pdf_page_extractions_total",
		Help: "Single-page requests by outcome",
	}, []string{"result"})

	extractionDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pdf_page_extraction_seconds",
		Help:    "Time spent parsing a PDF and copying one page out of it",
		Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	})

	fileDownloads := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pdf_file_downloads_total",
		Help: "Whole-file PDF responses",
	})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "page_cache_latency_seconds",
		Help:    "Latency for page cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "page_cache_write_seconds",
		Help:    "Latency for page cache writes",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "page_cache_hits_total",
		Help: "Total page cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "page_cache_misses_total",
		Help: "Total page cache misses",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, pageExtractions, extractionDuration, fileDownloads,
		cacheLatency, cacheWrite, cacheHits, cacheMisses, dbQueryDuration, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		pageExtractions:    pageExtractions,
		extractionDuration: extractionDuration,
		fileDownloads:      fileDownloads,
		cacheLatency:       cacheLatency,
		cacheWrite:         cacheWrite,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
		dbQueryDuration:    dbQueryDuration,
		startedAt:          time.Now().UTC(),
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
}

// RecordPageExtraction counts a single-page request by outcome. A zero duration skips the histogram.
func (m *MetricsService) RecordPageExtraction(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.pageExtractions.WithLabelValues(result).Inc()
	if duration > 0 {
		m.extractionDuration.Observe(duration.Seconds())
	}
	if result == ExtractionSuccess || result == ExtractionCacheHit {
		atomic.AddUint64(&m.extractionCount, 1)
	}
}

// RecordFileDownload counts a whole-file response.
func (m *MetricsService) RecordFileDownload() {
	if m == nil {
		return
	}
	m.fileDownloads.Inc()
	atomic.AddUint64(&m.downloadCount, 1)
}

// RecordCacheOperation records cache hit/miss metrics.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
		return
	}
	m.cacheMisses.Inc()
	atomic.AddUint64(&m.cacheMissCount, 1)
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
	atomic.AddUint64(&m.dbQueryCount, 1)
	atomic.AddUint64(&m.dbQueryDurationTotal, uint64(duration.Nanoseconds()))
}

// Snapshot returns aggregated counters for the admin stats endpoint.
func (m *MetricsService) Snapshot() models.ServiceStats {
	if m == nil {
		return models.ServiceStats{GeneratedAt: time.Now().UTC()}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	dbCount := atomic.LoadUint64(&m.dbQueryCount)
	dbDuration := atomic.LoadUint64(&m.dbQueryDurationTotal)

	var cacheRatio float64
	if total := hits + misses; total > 0 {
		cacheRatio = float64(hits) / float64(total)
	}

	var avgDBMs float64
	if dbCount > 0 {
		avgDBMs = float64(dbDuration) / float64(dbCount) / float64(time.Millisecond)
	}

	now := time.Now().UTC()
	return models.ServiceStats{
		RequestsTotal:            atomic.LoadUint64(&m.requestCount),
		PagesServed:              atomic.LoadUint64(&m.extractionCount),
		FilesServed:              atomic.LoadUint64(&m.downloadCount),
		CacheHits:                hits,
		CacheMisses:              misses,
		CacheHitRatio:            cacheRatio,
		DBQueryCount:             dbCount,
		AverageDBQueryDurationMs: avgDBMs,
		Goroutines:               runtime.NumGoroutine(),
		Uptime:                   now.Sub(m.startedAt).Round(time.Second).String(),
		GeneratedAt:              now,
	}
}
