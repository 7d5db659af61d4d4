package spacetravelling

import (
	"bytes"
	"context"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// RenderBytes renders a component into memory, for snapshots.
func RenderBytes(ctx context.Context, cmp templ.Component) ([]byte, error) {
	var buf bytes.Buffer
	if err := cmp.Render(ctx, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ServePage writes a stored snapshot with the content type of its route.
func ServePage(c echo.Context, p Page) error {
	c.Response().Header().Set("Last-Modified", p.GeneratedAt.UTC().Format(http.TimeFormat))
	switch p.Path {
	case feedPath:
		return c.Blob(http.StatusOK, "application/rss+xml; charset=utf-8", p.HTML)
	case sitemapPath:
		return c.Blob(http.StatusOK, "application/xml; charset=utf-8", p.HTML)
	}
	return c.HTMLBlob(http.StatusOK, p.HTML)
}
