package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AccessLogEntry records one page-level access. Entries have no identity of their own.
type AccessLogEntry struct {
	Page       int       `json:"page"`
	IP         string    `json:"ip"`
	AccessedAt time.Time `json:"accessedAt"`
}

// AccessLog is the chronological, append-only history stored as a JSONB array.
type AccessLog []AccessLogEntry

// Value marshals the log to JSON for persistence.
func (l AccessLog) Value() (driver.Value, error) {
	if l == nil {
		l = AccessLog{}
	}
	data, err := json.Marshal([]AccessLogEntry(l))
	if err != nil {
		return nil, fmt.Errorf("marshal access log: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSONB array into the log.
func (l *AccessLog) Scan(value interface{}) error {
	if value == nil {
		*l = AccessLog{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for AccessLog", value)
	}
	if len(data) == 0 {
		*l = AccessLog{}
		return nil
	}
	entries := make([]AccessLogEntry, 0)
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("unmarshal access log: %w", err)
	}
	*l = entries
	return nil
}

// PDFMetadata is the per-file access record, keyed by filename.
type PDFMetadata struct {
	Filename         string    `db:"filename" json:"filename"`
	PageCount        int       `db:"page_count" json:"pageCount"`
	Size             int64     `db:"size" json:"size"`
	LastAccessed     time.Time `db:"last_accessed" json:"lastAccessed"`
	LastAccessedPage int       `db:"last_accessed_page" json:"lastAccessedPage"`
	LastAccessedIP   string    `db:"last_accessed_ip" json:"lastAccessedIP"`
	AccessCount      int       `db:"access_count" json:"accessCount"`
	AccessLog        AccessLog `db:"access_log" json:"accessLog,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}

// PageAccess is the input to a metadata upsert.
type PageAccess struct {
	Filename  string
	Page      int
	IP        string
	PageCount int
	Size      int64
	At        time.Time
}

// Entry returns the log entry this access appends.
func (a PageAccess) Entry() AccessLogEntry {
	return AccessLogEntry{Page: a.Page, IP: a.IP, AccessedAt: a.At}
}

// MetadataFilter pages through metadata listings.
type MetadataFilter struct {
	Limit  int
	Offset int
}

// CachedPage is an extracted single-page document kept in the page cache.
type CachedPage struct {
	PageCount int
	Data      []byte
}

// ServiceStats summarises process-level counters for operators.
type ServiceStats struct {
	TrackedFiles             int       `json:"trackedFiles"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	PagesServed              uint64    `json:"pagesServed"`
	FilesServed              uint64    `json:"filesServed"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	DBQueryCount             uint64    `json:"dbQueryCount"`
	AverageDBQueryDurationMs float64   `json:"averageDbQueryDurationMs"`
	Goroutines               int       `json:"goroutines"`
	Uptime                   string    `json:"uptime"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
