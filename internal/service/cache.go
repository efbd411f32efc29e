package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"estatescout/internal/model"
	"estatescout/internal/repository"
)

// SearchCache stores completed search results keyed by a stable hash of
// normalized criteria. Entries are valid for a fixed window and only when
// they hold at least as many candidates as the request asks for.
type SearchCache struct {
	store repository.Store
	ttl   time.Duration
	now   func() time.Time
}

// NewSearchCache creates a search cache with the given freshness window.
func NewSearchCache(store repository.Store, ttl time.Duration) *SearchCache {
	return &SearchCache{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// CacheKey builds a stable hash over normalized criteria: location and
// requirements lowercased and trimmed, bedrooms as string, max price as
// integer.
func CacheKey(criteria model.SearchCriteria) string {
	normalized := fmt.Sprintf("%s|%d|%s|%s",
		strings.ToLower(strings.TrimSpace(criteria.Location)),
		criteria.MaxPrice,
		strings.TrimSpace(criteria.Bedrooms),
		strings.ToLower(strings.TrimSpace(criteria.Requirements)),
	)
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Get returns a prefix of the cached candidates sized to the request, or a
// miss if the entry is absent, stale, or holds too few candidates.
func (c *SearchCache) Get(ctx context.Context, criteria model.SearchCriteria, count int) ([]model.Property, bool) {
	key := CacheKey(criteria)

	entry, err := c.store.GetSearchCache(ctx, key)
	if err != nil {
		log.Printf("⚠️ Cache lookup failed: %v", err)
		return nil, false
	}
	if entry == nil {
		return nil, false
	}
	if c.now().Sub(entry.CreatedAt) > c.ttl {
		log.Printf("🕐 Cache entry expired for key %s", key[:12])
		return nil, false
	}
	if len(entry.Results) < count {
		log.Printf("📉 Cache entry too small (%d < %d) for key %s", len(entry.Results), count, key[:12])
		return nil, false
	}

	log.Printf("✅ Cache hit for key %s (%d stored, %d requested)", key[:12], len(entry.Results), count)
	results := make([]model.Property, count)
	copy(results, entry.Results[:count])
	return results, true
}

// Put upserts the full candidate list for the criteria, refreshing the
// timestamp and bumping the usage counter.
func (c *SearchCache) Put(ctx context.Context, criteria model.SearchCriteria, results []model.Property) error {
	entry := &model.SearchCacheEntry{
		Key:       CacheKey(criteria),
		Criteria:  criteria,
		Results:   append(model.PropertyList{}, results...),
		CreatedAt: c.now(),
	}
	return c.store.SaveSearchCache(ctx, entry)
}
