package spacetravelling

import (
	"encoding/json"
	"math"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/goodsign/monday"

	"github.com/baastos/spacetravelling/richtext"
)

// WordsPerMinute is the reading speed used for reading-time estimates.
const WordsPerMinute = 200

// displayLocation is the zone dates are rendered in.
var displayLocation = time.UTC

// ReadingTime estimates the minutes needed to read content. Words are counted
// by splitting each heading and the plain text of each body on single spaces.
func ReadingTime(content []ContentBlock) int {
	words := 0
	for _, block := range content {
		words += len(strings.Split(block.Heading, " "))
		words += len(strings.Split(richtext.AsText(block.Body), " "))
	}
	return int(math.Ceil(float64(words) / WordsPerMinute))
}

// FormatDate renders t as "dd MMM yyyy" in Brazilian Portuguese, e.g.
// "25 mar 2021". A nil time renders as an empty string.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return monday.Format(t.In(displayLocation), "02 Jan 2006", monday.LocalePtBR)
}

// FormatEdited renders the "edited" annotation timestamp, e.g.
// "25 mar 2021, às 19:25".
func FormatEdited(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatDate(t) + ", às " + t.In(displayLocation).Format("15:04")
}

// IsEdited reports whether a post was republished after its first publication.
func IsEdited(p Post) bool {
	if p.FirstPublicationDate == nil || p.LastPublicationDate == nil {
		return false
	}
	return p.LastPublicationDate.After(*p.FirstPublicationDate)
}

// PostPath is the route of a post page.
func PostPath(uid string) string {
	return "/post/" + url.PathEscape(uid) + "/"
}

// postUID extracts the UID from a path built by PostPath.
func postUID(p string) (string, bool) {
	rest, ok := strings.CutPrefix(p, "/post/")
	if !ok {
		return "", false
	}
	rest = strings.TrimSuffix(rest, "/")
	if rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	uid, err := url.PathUnescape(rest)
	if err != nil {
		return "", false
	}
	return uid, true
}

// LoadMoreURL is the route that follows a listing cursor.
func LoadMoreURL(cursor string) string {
	return "/posts/more/?cursor=" + url.QueryEscape(cursor)
}

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// WebsiteJsonLD returns a JSON-LD string for a WebSite schema using SiteConfig.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     cfg.Name,
		"url":      BuildURL(cfg.URL),
	}
	if cfg.Description != "" {
		data["description"] = cfg.Description
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// BlogPostingJsonLD returns a JSON-LD string for a BlogPosting schema.
func BlogPostingJsonLD(post Post, cfg SiteConfig) string {
	postURL := BuildURL(cfg.URL, "post", post.UID)
	data := map[string]interface{}{
		"@context":    "https://schema.org",
		"@type":       "BlogPosting",
		"headline":    post.Title,
		"description": post.Subtitle,
		"url":         postURL,
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if post.FirstPublicationDate != nil {
		data["datePublished"] = post.FirstPublicationDate.UTC().Format(time.RFC3339)
	}
	if IsEdited(post) {
		data["dateModified"] = post.LastPublicationDate.UTC().Format(time.RFC3339)
	}
	if post.BannerURL != "" {
		data["image"] = post.BannerURL
	}
	if post.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  post.Author,
		}
	}
	if cfg.Name != "" {
		data["publisher"] = map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
