package spacetravelling

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/singleflight"
)

// Generator renders the HTML of a route.
type Generator func(ctx context.Context, path string) ([]byte, error)

// PageCache keeps generated snapshots in memory in front of the Store.
// Snapshots older than ttl are still served, but trigger a background
// regeneration. A zero ttl keeps snapshots forever.
type PageCache struct {
	mu       sync.RWMutex
	pages    map[string]Page
	ttl      time.Duration
	store    *Store
	generate Generator
	group    singleflight.Group
	logger   echo.Logger
	now      func() time.Time
}

// NewPageCache creates a PageCache backed by the given Store.
func NewPageCache(s *Store, ttl time.Duration, gen Generator, logger echo.Logger) *PageCache {
	return &PageCache{
		pages:    make(map[string]Page),
		ttl:      ttl,
		store:    s,
		generate: gen,
		logger:   logger,
		now:      time.Now,
	}
}

func (c *PageCache) stale(p Page) bool {
	return c.ttl > 0 && c.now().Sub(p.GeneratedAt) >= c.ttl
}

// Lookup returns the snapshot of path if one has been generated.
func (c *PageCache) Lookup(path string) (Page, bool, error) {
	c.mu.RLock()
	p, ok := c.pages[path]
	c.mu.RUnlock()

	if !ok {
		var err error
		p, err = c.store.GetPage(path)
		if errors.Is(err, ErrPageNotFound) {
			return Page{}, false, nil
		}
		if err != nil {
			return Page{}, false, err
		}
		c.mu.Lock()
		c.pages[path] = p
		c.mu.Unlock()
	}

	if c.stale(p) {
		go c.revalidate(path)
	}
	return p, true, nil
}

// revalidate regenerates path. A snapshot whose document is gone from the CMS
// is dropped.
func (c *PageCache) revalidate(path string) {
	_, err := c.Generate(context.Background(), path)
	if isNotFound(err) {
		err = c.Invalidate(path)
	}
	if err != nil && c.logger != nil {
		c.logger.Errorf("revalidate %s: %v", path, err)
	}
}

// Generate renders path, persists the snapshot and caches it. Concurrent
// calls for the same path share one render.
func (c *PageCache) Generate(ctx context.Context, path string) (Page, error) {
	v, err, _ := c.group.Do(path, func() (interface{}, error) {
		html, err := c.generate(ctx, path)
		if err != nil {
			return Page{}, err
		}
		p := Page{Path: path, HTML: html, GeneratedAt: c.now()}
		if err := c.store.SavePage(p); err != nil {
			return Page{}, err
		}
		c.mu.Lock()
		c.pages[path] = p
		c.mu.Unlock()
		return p, nil
	})
	if err != nil {
		return Page{}, err
	}
	return v.(Page), nil
}

// Invalidate drops path from memory and storage so it is generated again on
// the next request.
func (c *PageCache) Invalidate(path string) error {
	c.mu.Lock()
	delete(c.pages, path)
	c.mu.Unlock()
	return c.store.DeletePage(path)
}

// InvalidateAll drops every snapshot.
func (c *PageCache) InvalidateAll() error {
	c.mu.Lock()
	c.pages = make(map[string]Page)
	c.mu.Unlock()
	return c.store.DeleteAll()
}
