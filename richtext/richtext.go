// Package richtext renders Prismic structured text as plain text or HTML.
// The HTML renderer is exposed as a templ component.
package richtext

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/a-h/templ"
)

// Block types.
const (
	Paragraph    = "paragraph"
	Heading1     = "heading1"
	Heading2     = "heading2"
	Heading3     = "heading3"
	Heading4     = "heading4"
	Heading5     = "heading5"
	Heading6     = "heading6"
	Preformatted = "preformatted"
	ListItem     = "list-item"
	OListItem    = "o-list-item"
	Image        = "image"
	Embed        = "embed"
)

// Span types.
const (
	Strong    = "strong"
	Em        = "em"
	Hyperlink = "hyperlink"
	Label     = "label"
)

// RichText is an ordered sequence of blocks.
type RichText []Block

// Block is one structured-text node. Text-bearing blocks use Text and Spans;
// image blocks use URL, Alt and Dimensions; embeds use OEmbed.
type Block struct {
	Type       string      `json:"type"`
	Text       string      `json:"text,omitempty"`
	Spans      []Span      `json:"spans,omitempty"`
	URL        string      `json:"url,omitempty"`
	Alt        string      `json:"alt,omitempty"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
	OEmbed     *OEmbed     `json:"oembed,omitempty"`
}

// Span marks up Text between Start and End, counted in UTF-16 code units.
type Span struct {
	Start int       `json:"start"`
	End   int       `json:"end"`
	Type  string    `json:"type"`
	Data  *SpanData `json:"data,omitempty"`
}

// SpanData carries hyperlink targets and label names.
type SpanData struct {
	LinkType string `json:"link_type,omitempty"`
	URL      string `json:"url,omitempty"`
	Target   string `json:"target,omitempty"`
	Label    string `json:"label,omitempty"`
}

type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type OEmbed struct {
	Type         string `json:"type"`
	EmbedURL     string `json:"embed_url"`
	ProviderName string `json:"provider_name"`
	HTML         string `json:"html"`
}

// AsText joins the text of every block with a single space.
func AsText(rt RichText) string {
	parts := make([]string, 0, len(rt))
	for _, b := range rt {
		if b.Text != "" || isTextBlock(b.Type) {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, " ")
}

// AsHTML returns the HTML representation of rt.
func AsHTML(rt RichText) string {
	var buf bytes.Buffer
	Render(&buf, rt)
	return buf.String()
}

// Component returns a templ.Component that renders rt as HTML.
func Component(rt RichText) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		Render(&buf, rt)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// Render writes the HTML representation of rt to buf. Consecutive list items
// are grouped into a single <ul> or <ol>.
func Render(buf *bytes.Buffer, rt RichText) {
	imageCount := 0
	inList := false
	inOrderedList := false

	flushList := func() {
		if inList {
			buf.WriteString("</ul>")
			inList = false
		}
	}
	flushOrderedList := func() {
		if inOrderedList {
			buf.WriteString("</ol>")
			inOrderedList = false
		}
	}

	for _, b := range rt {
		switch b.Type {
		case ListItem:
			flushOrderedList()
			if !inList {
				buf.WriteString("<ul>")
				inList = true
			}
			buf.WriteString("<li>")
			buf.WriteString(FormatSpans(b.Text, b.Spans))
			buf.WriteString("</li>")
			continue
		case OListItem:
			flushList()
			if !inOrderedList {
				buf.WriteString("<ol>")
				inOrderedList = true
			}
			buf.WriteString("<li>")
			buf.WriteString(FormatSpans(b.Text, b.Spans))
			buf.WriteString("</li>")
			continue
		}

		flushList()
		flushOrderedList()

		switch b.Type {
		case Heading1, Heading2, Heading3, Heading4, Heading5, Heading6:
			tag := "h" + b.Type[len(b.Type)-1:]
			buf.WriteString("<" + tag + ">")
			buf.WriteString(FormatSpans(b.Text, b.Spans))
			buf.WriteString("</" + tag + ">")
		case Preformatted:
			buf.WriteString("<pre>")
			buf.WriteString(html.EscapeString(b.Text))
			buf.WriteString("</pre>")
		case Image:
			src := SafeURL(b.URL)
			if src == "" {
				continue
			}
			imageCount++
			loadAttr := `loading="lazy"`
			if imageCount == 1 {
				loadAttr = `fetchpriority="high"`
			}
			buf.WriteString(`<p class="block-img"><img ` + loadAttr + ` src="` + src + `" alt="` + html.EscapeString(b.Alt) + `"`)
			if b.Dimensions != nil && b.Dimensions.Width > 0 && b.Dimensions.Height > 0 {
				buf.WriteString(` width="` + strconv.Itoa(b.Dimensions.Width) + `" height="` + strconv.Itoa(b.Dimensions.Height) + `"`)
			}
			buf.WriteString(` decoding="async"/></p>`)
		case Embed:
			if b.OEmbed == nil {
				continue
			}
			// Embed markup is authored in the CMS and passed through as-is.
			buf.WriteString(`<div data-oembed="` + html.EscapeString(b.OEmbed.EmbedURL) +
				`" data-oembed-type="` + html.EscapeString(b.OEmbed.Type) +
				`" data-oembed-provider="` + html.EscapeString(strings.ToLower(b.OEmbed.ProviderName)) + `">`)
			buf.WriteString(b.OEmbed.HTML)
			buf.WriteString("</div>")
		default:
			buf.WriteString("<p>")
			buf.WriteString(FormatSpans(b.Text, b.Spans))
			buf.WriteString("</p>")
		}
	}
	flushList()
	flushOrderedList()
}

// FormatSpans escapes text and applies its spans. Overlapping spans are
// split at every boundary so the output is always well nested.
func FormatSpans(text string, spans []Span) string {
	units := utf16.Encode([]rune(text))
	n := len(units)

	bounds := map[int]struct{}{0: {}, n: {}}
	valid := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.Start < 0 || s.End > n || s.Start >= s.End {
			continue
		}
		valid = append(valid, s)
		bounds[s.Start] = struct{}{}
		bounds[s.End] = struct{}{}
	}
	// Outer spans (earlier start, later end) open first.
	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].Start != valid[j].Start {
			return valid[i].Start < valid[j].Start
		}
		return valid[i].End > valid[j].End
	})

	cuts := make([]int, 0, len(bounds))
	for b := range bounds {
		cuts = append(cuts, b)
	}
	sort.Ints(cuts)

	var out strings.Builder
	for i := 0; i+1 < len(cuts); i++ {
		from, to := cuts[i], cuts[i+1]
		seg := formatText(string(utf16.Decode(units[from:to])))
		var open, closing []string
		for _, s := range valid {
			if s.Start <= from && s.End >= to {
				o, c := spanTags(s)
				if o == "" {
					continue
				}
				open = append(open, o)
				closing = append([]string{c}, closing...)
			}
		}
		out.WriteString(strings.Join(open, ""))
		out.WriteString(seg)
		out.WriteString(strings.Join(closing, ""))
	}
	return out.String()
}

func spanTags(s Span) (string, string) {
	switch s.Type {
	case Strong:
		return "<strong>", "</strong>"
	case Em:
		return "<em>", "</em>"
	case Label:
		if s.Data == nil || s.Data.Label == "" {
			return "", ""
		}
		return `<span class="` + html.EscapeString(s.Data.Label) + `">`, "</span>"
	case Hyperlink:
		if s.Data == nil {
			return "", ""
		}
		href := SafeURL(s.Data.URL)
		if href == "" {
			return "", ""
		}
		attrs := ""
		if s.Data.Target != "" {
			attrs = ` target="` + html.EscapeString(s.Data.Target) + `" rel="noopener noreferrer"`
		}
		return `<a href="` + href + `"` + attrs + `>`, "</a>"
	}
	return "", ""
}

// formatText escapes s and turns line breaks into <br />.
func formatText(s string) string {
	return strings.ReplaceAll(html.EscapeString(s), "\n", "<br />")
}

func isTextBlock(t string) bool {
	switch t {
	case Image, Embed:
		return false
	}
	return true
}

// SafeURL validates and sanitizes a URL for use in HTML attributes.
func SafeURL(raw string) string {
	val := strings.TrimSpace(raw)
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}
