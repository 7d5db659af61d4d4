// Package spacetravelling is a blog front-end for posts authored in the
// Prismic headless CMS, built with Go, Echo, and templ.
//
// Pages are generated ahead of time into a SQLite page store by Build and
// served from there; post paths that were not generated are rendered on
// first request behind a loading placeholder. Editors can preview drafts
// through a cookie session carrying a Prismic preview ref.
//
// Users provide their own templ components via the ViewFuncs struct.
package spacetravelling

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/baastos/spacetravelling/prismic"
)

// ViewFuncs holds user-provided templ components that the framework calls
// when rendering pages.
type ViewFuncs struct {
	Home        func(page HomePage) templ.Component
	PostItems   func(posts []PostSummary, nextPage string) templ.Component
	Post        func(page PostPage) templ.Component
	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// App is the central application. It wires together the CMS client, page
// store, cache, handlers, middleware, and user-provided templates.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	CMS     CMS
	Service *Service
	Store   *Store
	Cache   *PageCache
	Views   ViewFuncs

	previewLimiter *RateLimiter
	customRoutes   []func(*App)
	staticDir      string
	initialized    bool
}

// New creates an App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: "public",
	}
	a.Echo.HideBanner = true

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Init opens the page store, connects the CMS client and registers
// middleware and routes. Start calls it; Build and tests may call it
// directly.
func (a *App) Init() error {
	if a.initialized {
		return nil
	}
	if a.CMS == nil {
		if a.Config.PrismicEndpoint == "" {
			return fmt.Errorf("spacetravelling: PrismicEndpoint is required")
		}
		client, err := prismic.New(a.Config.PrismicEndpoint, prismic.WithAccessToken(a.Config.PrismicToken))
		if err != nil {
			return fmt.Errorf("spacetravelling: init cms: %w", err)
		}
		a.CMS = client
	}
	a.Service = NewService(a.CMS, a.Config)

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("spacetravelling: init store: %w", err)
	}
	a.Store = store
	a.Cache = NewPageCache(a.Store, a.Config.Revalidate, a.generatePage, a.Echo.Logger)

	a.previewLimiter = NewRateLimiter(10, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.initialized = true
	return nil
}

// Start initializes the app and serves until the server is shut down.
func (a *App) Start() error {
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("spacetravelling: SessionSecret is required")
	}
	if err := a.Init(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Framework assets first, then the user's static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/spacetravelling.js", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	e.GET("/public/spacetravelling.css", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	e.Static("/public", a.staticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	e.GET("/", a.handleHome)
	e.GET("/posts/more/", a.handleLoadMore)
	e.GET("/post/:slug/", a.handlePost)
	e.GET("/post/", handleListingRedirect)

	e.GET("/api/preview/", a.handlePreview)
	e.GET("/api/exit-preview/", handleExitPreview)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.previewLimiter != nil {
		a.previewLimiter.Stop()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
