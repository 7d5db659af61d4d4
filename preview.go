package spacetravelling

import (
	"net/http"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/baastos/spacetravelling/prismic"
)

const (
	previewSessionName = "preview_session"
	previewRefKey      = "ref"
)

// handlePreview enters preview mode. Prismic calls it with the preview ref in
// token and, when previewing a single document, its ID in documentId.
func (a *App) handlePreview(c echo.Context) error {
	if !a.previewLimiter.Allow(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many preview requests. Try again later.")
	}
	token := c.QueryParam("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing preview token")
	}

	redirect := "/"
	if id := c.QueryParam("documentId"); id != "" {
		doc, err := a.CMS.GetByID(c.Request().Context(), id, prismic.QueryOptions{Ref: token})
		switch {
		case isNotFound(err):
		case err != nil:
			return err
		default:
			redirect = ResolvePath(doc)
		}
	}

	if err := setPreviewSession(c, token); err != nil {
		return err
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Redirect(http.StatusTemporaryRedirect, redirect)
}

// handleExitPreview clears the preview session.
func handleExitPreview(c echo.Context) error {
	if err := clearPreviewSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusTemporaryRedirect, "/")
}

// previewRef returns the preview ref of the current session, or "".
func previewRef(c echo.Context) string {
	sess, err := session.Get(previewSessionName, c)
	if err != nil {
		return ""
	}
	ref, _ := sess.Values[previewRefKey].(string)
	return ref
}

// IsPreview reports whether the request belongs to a preview session.
func IsPreview(c echo.Context) bool {
	return previewRef(c) != ""
}

func setPreviewSession(c echo.Context, ref string) error {
	sess, err := session.Get(previewSessionName, c)
	if err != nil {
		return err
	}
	sess.Values[previewRefKey] = ref
	return sess.Save(c.Request(), c.Response())
}

func clearPreviewSession(c echo.Context) error {
	// A cookie that no longer decodes still yields a fresh session to expire.
	sess, err := session.Get(previewSessionName, c)
	if sess == nil {
		return err
	}
	delete(sess.Values, previewRefKey)
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}
