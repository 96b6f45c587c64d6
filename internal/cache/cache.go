// Package cache stores fetched articles so repeated fetches of the same
// source URL skip the backend round trip.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ppiankov/symmetry/internal/model"
)

// Cache defines the byte-level store behind the article cache
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// ArticleKey generates a cache key from a source URL
func ArticleKey(sourceURL string) string {
	hash := sha256.Sum256([]byte(sourceURL))
	return "symmetry:v1:article:" + hex.EncodeToString(hash[:])
}

// New builds the cache described by settings: redis when a URL is given,
// otherwise memory in front of disk. Returns nil when caching is disabled.
func New(settings model.CacheSettings) (Cache, error) {
	if !settings.Enabled {
		return nil, nil
	}
	if settings.RedisURL != "" {
		return NewRedisCache(settings.RedisURL, settings.DiskTTL)
	}
	return NewLayeredCache(settings.MemoryTTL, settings.DiskDir, settings.DiskTTL), nil
}

// ArticleStore is a typed view over a Cache for article fetch results
type ArticleStore struct {
	cache Cache
	ttl   time.Duration
}

// NewArticleStore wraps c. A nil cache yields a store that never hits.
func NewArticleStore(c Cache, ttl time.Duration) *ArticleStore {
	return &ArticleStore{cache: c, ttl: ttl}
}

// Get returns the cached article for sourceURL
func (s *ArticleStore) Get(ctx context.Context, sourceURL string) (*model.ArticleFetchResult, bool) {
	if s == nil || s.cache == nil {
		return nil, false
	}

	data, ok := s.cache.Get(ctx, ArticleKey(sourceURL))
	if !ok {
		return nil, false
	}

	var article model.ArticleFetchResult
	if err := json.Unmarshal(data, &article); err != nil {
		_ = s.cache.Delete(ctx, ArticleKey(sourceURL))
		return nil, false
	}
	return &article, true
}

// Put stores article under sourceURL
func (s *ArticleStore) Put(ctx context.Context, sourceURL string, article *model.ArticleFetchResult) error {
	if s == nil || s.cache == nil || article == nil {
		return nil
	}

	data, err := json.Marshal(article)
	if err != nil {
		return fmt.Errorf("marshal article: %w", err)
	}
	return s.cache.Set(ctx, ArticleKey(sourceURL), data, s.ttl)
}
