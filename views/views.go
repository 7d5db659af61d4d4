// Package views renders the site's pages. The pages are embedded html/template
// files wrapped with templ.FromGoHTML in place of generated templ code, so
// they plug into the engine's ViewFuncs as templ components. Post bodies are
// rendered by the richtext component and spliced back with templ.ToGoHTML.
package views

import (
	"context"
	"embed"
	"html/template"
	"time"

	"github.com/a-h/templ"

	"github.com/baastos/spacetravelling"
	"github.com/baastos/spacetravelling/richtext"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"postPath":    spacetravelling.PostPath,
	"loadMoreURL": spacetravelling.LoadMoreURL,
	"partialURL":  partialURL,
	"isoDate":     isoDate,
	"richtext": func(rt richtext.RichText) (template.HTML, error) {
		return templ.ToGoHTML(context.Background(), richtext.Component(rt))
	},
}

var templates = template.Must(template.New("views").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))

// page is the data every full-page template receives.
type page struct {
	Site   spacetravelling.SiteConfig
	Meta   spacetravelling.PageMeta
	JSONLD template.JS
	Data   any
}

type status struct {
	Heading string
	Message string
}

// Views renders every page of the site for one configuration.
type Views struct {
	cfg spacetravelling.SiteConfig
}

// New returns the views for cfg. Unset configuration falls back to defaults.
func New(cfg spacetravelling.SiteConfig) *Views {
	return &Views{cfg: cfg.WithDefaults()}
}

// Default wires the site's views into the engine.
func Default(cfg spacetravelling.SiteConfig) spacetravelling.ViewFuncs {
	v := New(cfg)
	return spacetravelling.ViewFuncs{
		Home:        v.Home,
		PostItems:   v.PostItems,
		Post:        v.Post,
		NotFound:    v.NotFound,
		ServerError: v.ServerError,
	}
}

func (v *Views) render(name string, meta spacetravelling.PageMeta, jsonLD string, data any) templ.Component {
	return templ.FromGoHTML(templates.Lookup(name), page{
		Site:   v.cfg,
		Meta:   meta,
		JSONLD: template.JS(jsonLD),
		Data:   data,
	})
}

// Home renders the listing.
func (v *Views) Home(p spacetravelling.HomePage) templ.Component {
	meta := spacetravelling.PageMeta{
		Title:       "Home | " + v.cfg.Name,
		Description: v.cfg.Description,
		URL:         spacetravelling.BuildURL(v.cfg.URL),
		OGType:      "website",
	}
	return v.render("home", meta, spacetravelling.WebsiteJsonLD(v.cfg), p)
}

// PostItems renders listing entries and the next "load more" control
// without the surrounding page.
func (v *Views) PostItems(posts []spacetravelling.PostSummary, nextPage string) templ.Component {
	return templ.FromGoHTML(templates.Lookup("post-items"), spacetravelling.HomePage{
		Posts:    posts,
		NextPage: nextPage,
	})
}

// Post renders a post page, or its loading placeholder.
func (v *Views) Post(p spacetravelling.PostPage) templ.Component {
	if p.IsFallback {
		meta := spacetravelling.PageMeta{
			Title:  "Carregando... | " + v.cfg.Name,
			URL:    spacetravelling.BuildURL(v.cfg.URL, "post", p.UID),
			OGType: "article",
		}
		return v.render("post", meta, "", p)
	}
	meta := spacetravelling.PageMeta{
		Title:       p.Post.Title + " | " + v.cfg.Name,
		Description: p.Post.Subtitle,
		URL:         spacetravelling.BuildURL(v.cfg.URL, "post", p.Post.UID),
		OGType:      "article",
		Image:       p.Post.BannerURL,
	}
	return v.render("post", meta, spacetravelling.BlogPostingJsonLD(p.Post, v.cfg), p)
}

// NotFound renders the 404 page.
func (v *Views) NotFound() templ.Component {
	meta := spacetravelling.PageMeta{Title: "Página não encontrada | " + v.cfg.Name, OGType: "website"}
	return v.render("status", meta, "", status{
		Heading: "404",
		Message: "Página não encontrada.",
	})
}

// ServerError renders the 500 page.
func (v *Views) ServerError() templ.Component {
	meta := spacetravelling.PageMeta{Title: "Erro | " + v.cfg.Name, OGType: "website"}
	return v.render("status", meta, "", status{
		Heading: "Algo deu errado",
		Message: "Não foi possível carregar esta página. Tente novamente em instantes.",
	})
}

// partialURL is the URL the placeholder page fetches to generate the post.
func partialURL(uid string) string {
	return spacetravelling.PostPath(uid) + "?partial=post"
}

func isoDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
