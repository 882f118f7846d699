package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pdf-page-api/internal/models"
)

// ErrMetadataNotFound is returned when no record exists for a filename.
var ErrMetadataNotFound = errors.New("pdf metadata not found")

const metadataColumns = `filename, page_count, size, last_accessed, last_accessed_page, last_accessed_ip,
       jsonb_array_length(access_log) AS access_count, created_at, updated_at`

// recordAccessQuery inserts the first record for a filename or, on conflict, overwrites the
// scalar fields and appends to access_log in the same row update. last_accessed never moves
// backwards when an older access commits after a newer one. $8 caps the log length; zero
// keeps every entry.
const recordAccessQuery = `INSERT INTO pdf_metadata
	(filename, page_count, size, last_accessed, last_accessed_page, last_accessed_ip, access_log, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $4, $4)
	ON CONFLICT (filename) DO UPDATE SET
		page_count = EXCLUDED.page_count,
		size = EXCLUDED.size,
		last_accessed = GREATEST(pdf_metadata.last_accessed, EXCLUDED.last_accessed),
		last_accessed_page = CASE WHEN EXCLUDED.last_accessed >= pdf_metadata.last_accessed
			THEN EXCLUDED.last_accessed_page ELSE pdf_metadata.last_accessed_page END,
		last_accessed_ip = CASE WHEN EXCLUDED.last_accessed >= pdf_metadata.last_accessed
			THEN EXCLUDED.last_accessed_ip ELSE pdf_metadata.last_accessed_ip END,
		access_log = CASE
			WHEN $8::int > 0 AND jsonb_array_length(pdf_metadata.access_log || EXCLUDED.access_log) > $8::int THEN (
				SELECT COALESCE(jsonb_agg(t.entry ORDER BY t.pos), '[]'::jsonb)
				FROM jsonb_array_elements(pdf_metadata.access_log || EXCLUDED.access_log) WITH ORDINALITY AS t(entry, pos)
				WHERE t.pos > jsonb_array_length(pdf_metadata.access_log || EXCLUDED.access_log) - $8::int
			)
			ELSE pdf_metadata.access_log || EXCLUDED.access_log
		END,
		updated_at = EXCLUDED.updated_at
	RETURNING ` + metadataColumns + `, access_log`

// PDFMetadataRepository persists per-file access metadata in PostgreSQL.
type PDFMetadataRepository struct {
	db            *sqlx.DB
	maxLogEntries int
}

// NewPDFMetadataRepository constructs the repository. maxLogEntries <= 0 keeps the full history.
func NewPDFMetadataRepository(db *sqlx.DB, maxLogEntries int) *PDFMetadataRepository {
	if maxLogEntries < 0 {
		maxLogEntries = 0
	}
	return &PDFMetadataRepository{db: db, maxLogEntries: maxLogEntries}
}

// RecordPageAccess upserts the record for access.Filename and appends one log entry in a
// single statement, so concurrent calls never lose an append.
func (r *PDFMetadataRepository) RecordPageAccess(ctx context.Context, access models.PageAccess) (*models.PDFMetadata, error) {
	if access.At.IsZero() {
		access.At = time.Now().UTC()
	}
	entry, err := json.Marshal(models.AccessLog{access.Entry()})
	if err != nil {
		return nil, fmt.Errorf("marshal access entry: %w", err)
	}

	var meta models.PDFMetadata
	if err := r.db.GetContext(ctx, &meta, recordAccessQuery,
		access.Filename,
		access.PageCount,
		access.Size,
		access.At,
		access.Page,
		access.IP,
		string(entry),
		r.maxLogEntries,
	); err != nil {
		return nil, fmt.Errorf("record page access for %s: %w", access.Filename, err)
	}
	return &meta, nil
}

// GetByFilename returns the record including its full access log.
func (r *PDFMetadataRepository) GetByFilename(ctx context.Context, filename string) (*models.PDFMetadata, error) {
	query := `SELECT ` + metadataColumns + `, access_log FROM pdf_metadata WHERE filename = $1`
	var meta models.PDFMetadata
	if err := r.db.GetContext(ctx, &meta, query, filename); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMetadataNotFound
		}
		return nil, fmt.Errorf("get pdf metadata %s: %w", filename, err)
	}
	return &meta, nil
}

// List returns records ordered by most recent access, without their logs.
func (r *PDFMetadataRepository) List(ctx context.Context, filter models.MetadataFilter) ([]models.PDFMetadata, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + metadataColumns + ` FROM pdf_metadata ORDER BY last_accessed DESC, filename ASC LIMIT $1 OFFSET $2`
	items := make([]models.PDFMetadata, 0)
	if err := r.db.SelectContext(ctx, &items, query, limit, offset); err != nil {
		return nil, fmt.Errorf("list pdf metadata: %w", err)
	}
	return items, nil
}

// Count returns the number of tracked files.
func (r *PDFMetadataRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM pdf_metadata`); err != nil {
		return 0, fmt.Errorf("count pdf metadata: %w", err)
	}
	return total, nil
}
