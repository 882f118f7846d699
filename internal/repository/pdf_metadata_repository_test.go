package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pdf-page-api/internal/models"
)

var metadataRowColumns = []string{"filename", "page_count", "size", "last_accessed", "last_accessed_page", "last_accessed_ip", "access_count", "created_at", "updated_at", "access_log"}

func newMetadataRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestPDFMetadataRepositoryRecordPageAccess(t *testing.T) {
	db, mock, cleanup := newMetadataRepoMock(t)
	defer cleanup()

	repo := NewPDFMetadataRepository(db, 0)
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(metadataRowColumns).
		AddRow("sample.pdf", 5, 2048, at, 2, "10.0.0.1", 1, at, at, []byte(`[{"page":2,"ip":"10.0.0.1","accessedAt":"2024-05-01T10:00:00Z"}]`))

	mock.ExpectQuery(`INSERT INTO pdf_metadata .* ON CONFLICT \(filename\) DO UPDATE SET .*access_log = CASE .*pdf_metadata\.access_log \|\| EXCLUDED\.access_log.* RETURNING`).
		WithArgs("sample.pdf", 5, int64(2048), at, 2, "10.0.0.1", `[{"page":2,"ip":"10.0.0.1","accessedAt":"2024-05-01T10:00:00Z"}]`, 0).
		WillReturnRows(rows)

	meta, err := repo.RecordPageAccess(context.Background(), models.PageAccess{
		Filename:  "sample.pdf",
		Page:      2,
		IP:        "10.0.0.1",
		PageCount: 5,
		Size:      2048,
		At:        at,
	})
	require.NoError(t, err)
	require.Equal(t, "sample.pdf", meta.Filename)
	require.Equal(t, 5, meta.PageCount)
	require.Equal(t, int64(2048), meta.Size)
	require.Equal(t, 2, meta.LastAccessedPage)
	require.Equal(t, "10.0.0.1", meta.LastAccessedIP)
	require.Equal(t, 1, meta.AccessCount)
	require.Len(t, meta.AccessLog, 1)
	require.Equal(t, models.AccessLogEntry{Page: 2, IP: "10.0.0.1", AccessedAt: at}, meta.AccessLog[0])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPDFMetadataRepositoryRecordKeepsNewestAccess(t *testing.T) {
	db, mock, cleanup := newMetadataRepoMock(t)
	defer cleanup()

	repo := NewPDFMetadataRepository(db, 0)
	newer := time.Date(2024, 5, 1, 10, 0, 1, 0, time.UTC)
	older := newer.Add(-time.Second)
	rows := sqlmock.NewRows(metadataRowColumns).
		AddRow("sample.pdf", 5, 2048, newer, 4, "10.0.0.2", 2, older, older,
			[]byte(`[{"page":4,"ip":"10.0.0.2","accessedAt":"2024-05-01T10:00:01Z"},{"page":2,"ip":"10.0.0.1","accessedAt":"2024-05-01T10:00:00Z"}]`))

	mock.ExpectQuery(`last_accessed = GREATEST\(pdf_metadata\.last_accessed, EXCLUDED\.last_accessed\),\s+` +
		`last_accessed_page = CASE WHEN EXCLUDED\.last_accessed >= pdf_metadata\.last_accessed\s+THEN EXCLUDED\.last_accessed_page ELSE pdf_metadata\.last_accessed_page END,\s+` +
		`last_accessed_ip = CASE WHEN EXCLUDED\.last_accessed >= pdf_metadata\.last_accessed\s+THEN EXCLUDED\.last_accessed_ip ELSE pdf_metadata\.last_accessed_ip END`).
		WithArgs("sample.pdf", 5, int64(2048), older, 2, "10.0.0.1", `[{"page":2,"ip":"10.0.0.1","accessedAt":"2024-05-01T10:00:00Z"}]`, 0).
		WillReturnRows(rows)

	meta, err := repo.RecordPageAccess(context.Background(), models.PageAccess{
		Filename:  "sample.pdf",
		Page:      2,
		IP:        "10.0.0.1",
		PageCount: 5,
		Size:      2048,
		At:        older,
	})
	require.NoError(t, err)
	require.Equal(t, newer, meta.LastAccessed)
	require.Equal(t, 4, meta.LastAccessedPage)
	for _, entry := range meta.AccessLog {
		require.False(t, entry.AccessedAt.After(meta.LastAccessed))
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPDFMetadataRepositoryRecordPassesRetentionCap(t *testing.T) {
	db, mock, cleanup := newMetadataRepoMock(t)
	defer cleanup()

	repo := NewPDFMetadataRepository(db, 100)
	at := time.Now().UTC()
	rows := sqlmock.NewRows(metadataRowColumns).
		AddRow("sample.pdf", 3, 10, at, 1, "", 100, at, at, []byte(`[]`))

	mock.ExpectQuery(regexp.QuoteMeta("WITH ORDINALITY")).
		WithArgs("sample.pdf", 3, int64(10), at, 1, "", sqlmock.AnyArg(), 100).
		WillReturnRows(rows)

	meta, err := repo.RecordPageAccess(context.Background(), models.PageAccess{Filename: "sample.pdf", Page: 1, PageCount: 3, Size: 10, At: at})
	require.NoError(t, err)
	require.Equal(t, 100, meta.AccessCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPDFMetadataRepositoryRecordError(t *testing.T) {
	db, mock, cleanup := newMetadataRepoMock(t)
	defer cleanup()

	repo := NewPDFMetadataRepository(db, -5)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO pdf_metadata")).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.RecordPageAccess(context.Background(), models.PageAccess{Filename: "sample.pdf", Page: 1, PageCount: 1, Size: 1})
	require.Error(t, err)
	require.Contains(t, err.Error(), "record page access for sample.pdf")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPDFMetadataRepositoryGetByFilename(t *testing.T) {
	db, mock, cleanup := newMetadataRepoMock(t)
	defer cleanup()

	repo := NewPDFMetadataRepository(db, 0)
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(metadataRowColumns).
		AddRow("sample.pdf", 5, 2048, at, 3, "10.0.0.2", 2, at, at, []byte(`[{"page":2,"ip":"10.0.0.1","accessedAt":"2024-05-01T09:00:00Z"},{"page":3,"ip":"10.0.0.2","accessedAt":"2024-05-01T10:00:00Z"}]`))
	mock.ExpectQuery(regexp.QuoteMeta("FROM pdf_metadata WHERE filename = $1")).
		WithArgs("sample.pdf").
		WillReturnRows(rows)

	meta, err := repo.GetByFilename(context.Background(), "sample.pdf")
	require.NoError(t, err)
	require.Len(t, meta.AccessLog, 2)
	require.Equal(t, 2, meta.AccessLog[0].Page)
	require.Equal(t, 3, meta.AccessLog[1].Page)

	mock.ExpectQuery(regexp.QuoteMeta("FROM pdf_metadata WHERE filename = $1")).
		WithArgs("missing.pdf").
		WillReturnRows(sqlmock.NewRows(metadataRowColumns))

	_, err = repo.GetByFilename(context.Background(), "missing.pdf")
	require.ErrorIs(t, err, ErrMetadataNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPDFMetadataRepositoryListAndCount(t *testing.T) {
	db, mock, cleanup := newMetadataRepoMock(t)
	defer cleanup()

	repo := NewPDFMetadataRepository(db, 0)
	at := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"filename", "page_count", "size", "last_accessed", "last_accessed_page", "last_accessed_ip", "access_count", "created_at", "updated_at"}).
		AddRow("b.pdf", 2, 20, at, 1, "10.0.0.3", 4, at, at).
		AddRow("a.pdf", 9, 90, at.Add(-time.Minute), 9, "", 1, at, at)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY last_accessed DESC, filename ASC LIMIT $1 OFFSET $2")).
		WithArgs(50, 0).
		WillReturnRows(rows)

	items, err := repo.List(context.Background(), models.MetadataFilter{Limit: 1000, Offset: -1})
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "b.pdf", items[0].Filename)
	require.Nil(t, items[0].AccessLog)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM pdf_metadata")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	total, err := repo.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessLogScan(t *testing.T) {
	var log models.AccessLog
	require.NoError(t, log.Scan(nil))
	require.Empty(t, log)

	require.NoError(t, log.Scan(`[{"page":1,"ip":"","accessedAt":"2024-05-01T10:00:00Z"}]`))
	require.Len(t, log, 1)

	require.Error(t, log.Scan(42))
}
