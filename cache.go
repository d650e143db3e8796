package fitpress

import (
	"context"
	"sync"
	"time"

	"github.com/eringen/fitpress/content"
)

// TaxonomySource loads categories and tags.
type TaxonomySource interface {
	ListCategories(ctx context.Context) ([]content.Category, error)
	ListTags(ctx context.Context) ([]content.Tag, error)
}

// TaxonomyCache is an in-memory TTL cache of categories and tags for
// sidebars and the public taxonomy endpoints. Admin writes invalidate it.
type TaxonomyCache struct {
	mu         sync.RWMutex
	categories []content.Category
	tags       []content.Tag
	fetched    time.Time
	loaded     bool
	ttl        time.Duration
	source     TaxonomySource
}

// NewTaxonomyCache creates a TaxonomyCache backed by src.
func NewTaxonomyCache(src TaxonomySource, ttl time.Duration) *TaxonomyCache {
	return &TaxonomyCache{source: src, ttl: ttl}
}

func (c *TaxonomyCache) valid() bool {
	return c.loaded && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *TaxonomyCache) Invalidate() {
	c.mu.Lock()
	c.categories = nil
	c.tags = nil
	c.loaded = false
	c.mu.Unlock()
}

func (c *TaxonomyCache) load(ctx context.Context) error {
	if c.valid() {
		return nil
	}
	categories, err := c.source.ListCategories(ctx)
	if err != nil {
		return err
	}
	tags, err := c.source.ListTags(ctx)
	if err != nil {
		return err
	}
	c.categories = categories
	c.tags = tags
	c.fetched = time.Now()
	c.loaded = true
	return nil
}

// ensureLoaded returns cached data after ensuring the cache is fresh.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *TaxonomyCache) ensureLoaded(ctx context.Context) ([]content.Category, []content.Tag, error) {
	c.mu.RLock()
	if c.valid() {
		categories, tags := c.categories, c.tags
		c.mu.RUnlock()
		return categories, tags, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return nil, nil, err
	}
	return c.categories, c.tags, nil
}

// Categories returns all categories with published post counts.
func (c *TaxonomyCache) Categories(ctx context.Context) ([]content.Category, error) {
	categories, _, err := c.ensureLoaded(ctx)
	return categories, err
}

// Tags returns all tags with published post counts.
func (c *TaxonomyCache) Tags(ctx context.Context) ([]content.Tag, error) {
	_, tags, err := c.ensureLoaded(ctx)
	return tags, err
}
