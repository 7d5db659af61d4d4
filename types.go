package spacetravelling

import (
	"time"

	"github.com/baastos/spacetravelling/richtext"
)

// PostSummary is a listing entry. FormattedDate is display-only; the raw
// FirstPublicationDate is kept for any further formatting or comparison.
type PostSummary struct {
	UID                  string
	FirstPublicationDate *time.Time
	FormattedDate        string
	Title                string
	Subtitle             string
	Author               string
}

// Post is a full post document.
type Post struct {
	UID                  string
	FirstPublicationDate *time.Time
	LastPublicationDate  *time.Time
	Title                string
	Subtitle             string
	BannerURL            string
	Author               string
	Content              []ContentBlock
}

// ContentBlock is one section of a post: a heading and its rich-text body.
type ContentBlock struct {
	Heading string            `json:"heading"`
	Body    richtext.RichText `json:"body"`
}

// Listing is the first page of the post list. An empty NextPage means there
// are no further pages.
type Listing struct {
	Posts    []PostSummary
	NextPage string
}

// Sibling links to the post published immediately before or after another.
type Sibling struct {
	Title string
	Href  string
}

// Pagination holds the neighbours of a post; nil when there is none.
type Pagination struct {
	Prev *Sibling
	Next *Sibling
}

// DetailOptions selects the optional capabilities of the post page.
type DetailOptions struct {
	Preview  bool // render the exit-preview link
	Siblings bool // resolve previous/next navigation
	Fallback bool // serve a placeholder for paths not generated yet
}

// HomePage is the view model of the listing route.
type HomePage struct {
	Posts    []PostSummary
	NextPage string
}

// PostPage is the view model of the detail route. When IsFallback is set only
// UID is populated and the page renders as a loading placeholder.
type PostPage struct {
	UID           string
	Post          Post
	FormattedDate string
	EditedAt      string
	ReadingTime   int
	Pagination    Pagination
	Preview       bool
	IsFallback    bool
}

// CommentsConfig configures the utterances comment widget.
type CommentsConfig struct {
	Repo      string
	IssueTerm string
	Label     string
	Theme     string
}

// PageMeta carries per-page metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
}
