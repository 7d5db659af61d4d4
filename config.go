package spacetravelling

import (
	"fmt"
	"time"
)

// AppendMode selects what "load more" appends from a fetched page.
type AppendMode string

const (
	// AppendFirst appends only the first result of each fetched page, which
	// is how the listing has always behaved.
	AppendFirst AppendMode = "first"
	// AppendPage appends every result of the fetched page.
	AppendPage AppendMode = "page"
)

// ParseAppendMode validates a configured append mode.
func ParseAppendMode(s string) (AppendMode, error) {
	switch AppendMode(s) {
	case AppendFirst, AppendPage:
		return AppendMode(s), nil
	case "":
		return AppendFirst, nil
	}
	return "", fmt.Errorf("spacetravelling: unknown append mode %q (want %q or %q)", s, AppendFirst, AppendPage)
}

// SiteConfig holds all configuration for a spacetravelling site.
// Boolean capabilities are off at their zero value; the CLI turns them on
// by default.
type SiteConfig struct {
	Name        string // Site name (default "Spacetravelling")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags

	Addr         string // Listen address (default ":3000")
	DatabasePath string // SQLite page store (default "data/pages.db")

	PrismicEndpoint string // Required: e.g. https://repo.cdn.prismic.io/api/v2
	PrismicToken    string // Optional access token

	ListingPageSize int        // Posts on the first listing page (default 1)
	PathsPageSize   int        // Post paths generated at build time (default 20)
	FeedLimit       int        // Max posts in RSS and sitemap (default 100)
	AppendMode      AppendMode // "first" (default) or "page"

	Siblings   bool          // Resolve previous/next navigation on post pages
	Fallback   bool          // Serve a placeholder for post paths not generated yet
	Revalidate time.Duration // Snapshot lifetime; 0 keeps snapshots forever

	SessionSecret string // Required to serve: preview cookie secret
	CookieSecure  bool   // Set true for HTTPS

	Comments CommentsConfig
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Spacetravelling"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/pages.db"
	}
	if c.ListingPageSize <= 0 {
		c.ListingPageSize = 1
	}
	if c.PathsPageSize <= 0 {
		c.PathsPageSize = 20
	}
	if c.FeedLimit <= 0 {
		c.FeedLimit = 100
	}
	if c.AppendMode == "" {
		c.AppendMode = AppendFirst
	}
	if c.Comments.Repo == "" {
		c.Comments.Repo = "baastos/desafio-ignite-adicionando-feature-ao-blog"
	}
	if c.Comments.IssueTerm == "" {
		c.Comments.IssueTerm = "pathname"
	}
	if c.Comments.Label == "" {
		c.Comments.Label = "blog-comment"
	}
	if c.Comments.Theme == "" {
		c.Comments.Theme = "github-dark"
	}
}

// WithDefaults returns a copy of c with unset fields filled in.
func (c SiteConfig) WithDefaults() SiteConfig {
	c.setDefaults()
	return c
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithCMS replaces the Prismic client built from PrismicEndpoint.
func WithCMS(cms CMS) Option {
	return func(a *App) {
		a.CMS = cms
	}
}
