package handler

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/pdf-page-api/internal/dto"
	"github.com/noah-isme/pdf-page-api/internal/models"
	"github.com/noah-isme/pdf-page-api/internal/repository"
	"github.com/noah-isme/pdf-page-api/internal/service"
	"github.com/noah-isme/pdf-page-api/pkg/export"
	"github.com/noah-isme/pdf-page-api/pkg/lifecycle"
	"github.com/noah-isme/pdf-page-api/pkg/pdfengine"
	"github.com/noah-isme/pdf-page-api/pkg/pdfengine/pdftest"
	"github.com/noah-isme/pdf-page-api/pkg/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memoryMetadataRepo struct {
	mu      sync.Mutex
	records map[string]*models.PDFMetadata
}

func newMemoryMetadataRepo() *memoryMetadataRepo {
	return &memoryMetadataRepo{records: make(map[string]*models.PDFMetadata)}
}

func (m *memoryMetadataRepo) RecordPageAccess(ctx context.Context, access models.PageAccess) (*models.PDFMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meta, ok := m.records[access.Filename]
	if !ok {
		meta = &models.PDFMetadata{Filename: access.Filename, CreatedAt: access.At}
		m.records[access.Filename] = meta
	}
	meta.PageCount = access.PageCount
	meta.Size = access.Size
	meta.LastAccessed = access.At
	meta.LastAccessedPage = access.Page
	meta.LastAccessedIP = access.IP
	meta.AccessCount++
	meta.AccessLog = append(meta.AccessLog, access.Entry())
	meta.UpdatedAt = access.At
	copied := *meta
	copied.AccessLog = append(models.AccessLog(nil), meta.AccessLog...)
	return &copied, nil
}

func (m *memoryMetadataRepo) GetByFilename(ctx context.Context, filename string) (*models.PDFMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meta, ok := m.records[filename]
	if !ok {
		return nil, repository.ErrMetadataNotFound
	}
	copied := *meta
	return &copied, nil
}

func (m *memoryMetadataRepo) List(ctx context.Context, filter models.MetadataFilter) ([]models.PDFMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]models.PDFMetadata, 0, len(m.records))
	for _, meta := range m.records {
		item := *meta
		item.AccessLog = nil
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Filename < items[j].Filename })
	return items, nil
}

func (m *memoryMetadataRepo) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records), nil
}

type routerFixture struct {
	router *gin.Engine
	repo   *memoryMetadataRepo
	gate   *lifecycle.Gate
	auth   *service.AuthService
	size   int64
}

func newRouterFixture(t *testing.T, secret string) *routerFixture {
	t.Helper()
	store, err := storage.NewPDFStore(t.TempDir())
	require.NoError(t, err)
	size := pdftest.WriteFile(t, store.BaseDir(), "sample.pdf", 5)

	logger := zap.NewNop()
	validate := service.NewValidator()
	metrics := service.NewMetricsService()
	repo := newMemoryMetadataRepo()
	metadataSvc := service.NewMetadataService(repo, metrics, validate, logger)
	pdfSvc := service.NewPDFService(store, pdfengine.New(), metadataSvc, nil, metrics, validate, logger, service.PDFServiceConfig{})
	auth := service.NewAuthService(validate, logger, service.AuthConfig{Secret: secret, TokenTTL: time.Hour})

	gate := lifecycle.NewGate("database")
	gate.Open()

	router := NewRouter(RouterConfig{
		Logger:   logger,
		Gate:     gate,
		Metrics:  metrics,
		Auth:     auth,
		PDF:      NewPDFHandler(pdfSvc),
		Metadata: NewMetadataHandler(metadataSvc),
	})
	return &routerFixture{router: router, repo: repo, gate: gate, auth: auth, size: size}
}

func (f *routerFixture) get(t *testing.T, target string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *routerFixture) adminHeaders(t *testing.T) map[string]string {
	t.Helper()
	issued, err := f.auth.IssueToken(dto.IssueTokenRequest{Subject: "ops"})
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + issued.Token}
}

func TestRootAndHello(t *testing.T) {
	f := newRouterFixture(t, "")

	rec := f.get(t, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"PDF page API is running"}`, rec.Body.String())

	rec = f.get(t, "/api/hello", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"greeting":"Hello from the PDF page API"}`, rec.Body.String())

	assert.Equal(t, http.StatusOK, f.get(t, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, f.get(t, "/ready", nil).Code)
}

func TestGetPDFStreamsWholeFileWithoutRecording(t *testing.T) {
	f := newRouterFixture(t, "")

	rec := f.get(t, "/pdf?filename=sample.pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename="sample.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, f.size, int64(rec.Body.Len()))
	assert.Equal(t, 5, pdftest.NumPages(t, rec.Body.Bytes()))

	count, err := f.repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGetPDFErrors(t *testing.T) {
	f := newRouterFixture(t, "")

	rec := f.get(t, "/pdf", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Missing 'filename' query parameter"}`, rec.Body.String())

	rec = f.get(t, "/pdf?filename=missing.pdf", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"PDF not found"}`, rec.Body.String())

	rec = f.get(t, "/pdf?filename=..%2Fsecret.pdf", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid filename"}`, rec.Body.String())
}

func TestGetPageExtractsAndRecords(t *testing.T) {
	f := newRouterFixture(t, "")

	rec := f.get(t, "/pdf/page?filename=sample.pdf&page=2", map[string]string{"X-Forwarded-For": "10.0.0.1, 172.16.0.1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename="sample-page-2.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "5", rec.Header().Get("X-Page-Count"))
	require.Equal(t, 1, pdftest.NumPages(t, rec.Body.Bytes()))
	assert.Contains(t, pdftest.Text(t, rec.Body.Bytes()), export.PageMarker(2))

	meta, err := f.repo.GetByFilename(context.Background(), "sample.pdf")
	require.NoError(t, err)
	assert.Equal(t, 5, meta.PageCount)
	assert.Equal(t, f.size, meta.Size)
	assert.Equal(t, 2, meta.LastAccessedPage)
	assert.Equal(t, "10.0.0.1", meta.LastAccessedIP)
	require.Len(t, meta.AccessLog, 1)
	assert.Equal(t, 2, meta.AccessLog[0].Page)
	assert.Equal(t, "10.0.0.1", meta.AccessLog[0].IP)
}

func TestGetPageErrors(t *testing.T) {
	f := newRouterFixture(t, "")

	cases := []struct {
		target string
		status int
		body   string
	}{
		{"/pdf/page?filename=sample.pdf", http.StatusBadRequest, `{"error":"Missing 'filename' or 'page' query parameter"}`},
		{"/pdf/page?page=1", http.StatusBadRequest, `{"error":"Missing 'filename' or 'page' query parameter"}`},
		{"/pdf/page?filename=sample.pdf&page=0", http.StatusBadRequest, `{"error":"Invalid page number"}`},
		{"/pdf/page?filename=sample.pdf&page=6", http.StatusBadRequest, `{"error":"Invalid page number"}`},
		{"/pdf/page?filename=sample.pdf&page=99999999999999999999", http.StatusBadRequest, `{"error":"Invalid page number"}`},
		{"/pdf/page?filename=missing.pdf&page=1", http.StatusNotFound, `{"error":"PDF not found"}`},
	}
	for _, tc := range cases {
		rec := f.get(t, tc.target, nil)
		assert.Equal(t, tc.status, rec.Code, tc.target)
		assert.JSONEq(t, tc.body, rec.Body.String(), tc.target)
	}

	count, err := f.repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGetPageWaitsForInitialization(t *testing.T) {
	f := newRouterFixture(t, "")
	f.router = NewRouter(RouterConfig{
		Gate: lifecycle.NewGate("database"),
		PDF:  NewPDFHandler(nil),
	})

	rec := f.get(t, "/pdf/page?filename=sample.pdf&page=1", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"Service initializing"}`, rec.Body.String())

	rec = f.get(t, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	assert.Equal(t, http.StatusOK, f.get(t, "/", nil).Code)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	f := newRouterFixture(t, "secret")
	require.Equal(t, http.StatusOK, f.get(t, "/pdf/page?filename=sample.pdf&page=3", map[string]string{"X-Forwarded-For": "10.0.0.9"}).Code)

	assert.Equal(t, http.StatusUnauthorized, f.get(t, "/admin/pdf-metadata", nil).Code)

	headers := f.adminHeaders(t)
	rec := f.get(t, "/admin/pdf-metadata", headers)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data []models.PDFMetadata   `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "sample.pdf", list.Data[0].Filename)
	assert.EqualValues(t, 1, list.Meta["total"])

	rec = f.get(t, "/admin/pdf-metadata/sample.pdf", headers)
	require.Equal(t, http.StatusOK, rec.Code)
	var one struct {
		Data models.PDFMetadata `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &one))
	assert.Equal(t, 3, one.Data.LastAccessedPage)
	require.Len(t, one.Data.AccessLog, 1)

	rec = f.get(t, "/admin/pdf-metadata/other.pdf", headers)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.get(t, "/admin/pdf-metadata/sample.pdf/access-log.csv", headers)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))
	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"sample.pdf", "3", "10.0.0.9"}, records[1][:3])

	rec = f.get(t, "/admin/stats", headers)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		Data models.ServiceStats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Data.TrackedFiles)
	assert.Equal(t, uint64(1), stats.Data.PagesServed)
}

func TestAdminRoutesAbsentWithoutSecret(t *testing.T) {
	f := newRouterFixture(t, "")
	assert.Equal(t, http.StatusNotFound, f.get(t, "/admin/pdf-metadata", nil).Code)
}
