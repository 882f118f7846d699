package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/pdf-page-api/internal/models"
	appErrors "github.com/noah-isme/pdf-page-api/pkg/errors"
)

const (
	fieldPageCount = "page_count"
	fieldData      = "data"
)

// PageCacheRepository stores extracted pages in Redis hashes.
type PageCacheRepository struct {
	client *redis.Client
}

// NewPageCacheRepository constructs a cache repository. A nil client turns every lookup into a miss.
func NewPageCacheRepository(client *redis.Client) *PageCacheRepository {
	return &PageCacheRepository{client: client}
}

// Get returns the cached page or appErrors.ErrCacheMiss.
func (r *PageCacheRepository) Get(ctx context.Context, key string) (*models.CachedPage, error) {
	if r.client == nil {
		return nil, appErrors.ErrCacheMiss
	}

	values, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis hgetall %s: %w", key, err)
	}
	data, ok := values[fieldData]
	if !ok || len(data) == 0 {
		return nil, appErrors.ErrCacheMiss
	}
	pageCount, err := strconv.Atoi(values[fieldPageCount])
	if err != nil || pageCount < 1 {
		return nil, appErrors.ErrCacheMiss
	}

	return &models.CachedPage{PageCount: pageCount, Data: []byte(data)}, nil
}

// Set stores the page and its TTL atomically.
func (r *PageCacheRepository) Set(ctx context.Context, key string, page models.CachedPage, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fieldPageCount, page.PageCount, fieldData, page.Data)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *PageCacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
