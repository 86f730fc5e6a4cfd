package viewer

import (
	"context"
	"sync"

	"inkwell/api/internal/sitemap"
)

// Cache holds the sitemap for the lifetime of a session. It is fetched at most
// once; later changes on the server are not observed.
type Cache struct {
	fetcher Fetcher

	mu     sync.RWMutex
	loaded bool
	doc    sitemap.Sitemap
	err    error
}

func NewCache(fetcher Fetcher) *Cache {
	return &Cache{fetcher: fetcher}
}

// Load fetches the sitemap on the first call and returns that outcome on
// every later call, including a failure.
func (c *Cache) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return c.err
	}
	c.doc, c.err = c.fetcher.FetchSitemap(ctx)
	c.loaded = true
	return c.err
}

func (c *Cache) Posts() []sitemap.Post {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.doc.Posts
}

func (c *Cache) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.doc.Categories
}

func (c *Cache) Post(slug string) (sitemap.Post, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx := c.doc.PostIndex(slug)
	if idx < 0 {
		return sitemap.Post{}, false
	}
	return c.doc.Posts[idx], true
}

// IsCategory reports whether name is "all" or a stored category.
func (c *Cache) IsCategory(name string) bool {
	if name == sitemap.All {
		return true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.doc.CategoryIndex(name) >= 0
}
