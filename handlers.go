package spacetravelling

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/baastos/spacetravelling/prismic"
)

const (
	feedPath    = "/feed.xml"
	sitemapPath = "/sitemap.xml"
)

var errUnknownRoute = errors.New("spacetravelling: no generator for route")

// generatePage renders the published version of a route for the page cache.
func (a *App) generatePage(ctx context.Context, path string) ([]byte, error) {
	if path == "/" {
		listing, err := a.Service.Listing(ctx)
		if err != nil {
			return nil, err
		}
		return RenderBytes(ctx, a.Views.Home(HomePage{Posts: listing.Posts, NextPage: listing.NextPage}))
	}
	if uid, ok := postUID(path); ok {
		page, err := a.Service.PostPage(ctx, uid, "", DetailOptions{Siblings: a.Config.Siblings})
		if err != nil {
			return nil, err
		}
		return RenderBytes(ctx, a.Views.Post(page))
	}
	switch path {
	case feedPath, sitemapPath:
		posts, err := a.Service.AllPosts(ctx, a.Config.FeedLimit)
		if err != nil {
			return nil, err
		}
		if path == feedPath {
			return a.renderRSS(posts)
		}
		return a.renderSitemap(posts)
	}
	return nil, fmt.Errorf("%w: %s", errUnknownRoute, path)
}

// serveSnapshot serves the stored snapshot of path, generating it first if
// there is none.
func (a *App) serveSnapshot(c echo.Context, path string) error {
	p, ok, err := a.Cache.Lookup(path)
	if err != nil {
		return err
	}
	if !ok {
		p, err = a.Cache.Generate(context.WithoutCancel(c.Request().Context()), path)
		if err != nil {
			return err
		}
	}
	return ServePage(c, p)
}

func (a *App) handleHome(c echo.Context) error {
	return a.serveSnapshot(c, "/")
}

// handleLoadMore follows a listing cursor and returns the new entries
// followed by the replacement "load more" control, if any.
func (a *App) handleLoadMore(c echo.Context) error {
	cursor := c.QueryParam("cursor")
	if cursor == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing cursor")
	}
	feed := NewFeed(Listing{NextPage: cursor}, a.Config.AppendMode, a.CMS)
	added, err := feed.LoadMore(c.Request().Context())
	if errors.Is(err, prismic.ErrForeignCursor) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid cursor")
	}
	if err != nil {
		return err
	}
	return Render(c, a.Views.PostItems(added, feed.Cursor()))
}

func (a *App) detailOptions(c echo.Context) DetailOptions {
	return DetailOptions{
		Preview:  previewRef(c) != "",
		Siblings: a.Config.Siblings,
		Fallback: a.Config.Fallback,
	}
}

// handlePost serves a post page. Preview requests are always rendered fresh.
// Otherwise the generated snapshot is served; a path without one gets the
// loading placeholder, whose script requests ?partial=post to generate it.
func (a *App) handlePost(c echo.Context) error {
	slug := c.Param("slug")
	ctx := c.Request().Context()
	opts := a.detailOptions(c)

	if ref := previewRef(c); ref != "" {
		page, err := a.Service.PostPage(ctx, slug, ref, opts)
		if isNotFound(err) {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		if err != nil {
			return err
		}
		c.Response().Header().Set("Cache-Control", "no-store")
		return Render(c, a.Views.Post(page))
	}

	path := PostPath(slug)
	p, ok, err := a.Cache.Lookup(path)
	if err != nil {
		return err
	}
	if ok {
		return ServePage(c, p)
	}

	if opts.Fallback && c.QueryParam("partial") != "post" {
		c.Response().Header().Set("Cache-Control", "no-store")
		return Render(c, a.Views.Post(PostPage{UID: slug, IsFallback: true}))
	}

	p, err = a.Cache.Generate(context.WithoutCancel(ctx), path)
	if isNotFound(err) {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	}
	if err != nil {
		return err
	}
	return ServePage(c, p)
}

func (a *App) handleSitemap(c echo.Context) error {
	return a.serveSnapshot(c, sitemapPath)
}

func (a *App) handleFeed(c echo.Context) error {
	return a.serveSnapshot(c, feedPath)
}

// handleRobots generates robots.txt from the site URL.
func (a *App) handleRobots(c echo.Context) error {
	body := fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /api/\n\nSitemap: %s/sitemap.xml\n", a.Config.URL)
	return c.String(http.StatusOK, body)
}

func handleListingRedirect(c echo.Context) error {
	return c.Redirect(http.StatusMovedPermanently, "/")
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
