// Package viewer is the reading side of the content: it loads the published
// sitemap once per session and projects category listings, search results,
// pages and related posts from it.
package viewer

import (
	"github.com/rs/zerolog"
)

// Session bundles the per-reader state: the sitemap cache, the projector
// reading from it and the controller driving both.
type Session struct {
	Cache      *Cache
	Projector  *Projector
	Controller *Controller
}

func NewSession(fetcher Fetcher, logger zerolog.Logger, opts ...ProjectorOption) *Session {
	cache := NewCache(fetcher)
	projector := NewProjector(cache, fetcher, logger, opts...)
	return &Session{
		Cache:      cache,
		Projector:  projector,
		Controller: NewController(cache, projector, logger),
	}
}
