package spacetravelling

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/baastos/spacetravelling/prismic"
)

var (
	// ErrLoadInFlight is returned when LoadMore is called while a previous
	// call has not completed.
	ErrLoadInFlight = errors.New("spacetravelling: load more already in flight")
	// ErrFeedExhausted is returned when LoadMore is called after the last page.
	ErrFeedExhausted = errors.New("spacetravelling: no more posts")
)

// FeedState is the state of the listing's "load more" control.
type FeedState int

const (
	FeedIdle      FeedState = iota // a next page exists and no fetch is running
	FeedLoading                    // a fetch is running
	FeedExhausted                  // the cursor was null; the control is gone
)

func (s FeedState) String() string {
	switch s {
	case FeedIdle:
		return "idle"
	case FeedLoading:
		return "loading"
	case FeedExhausted:
		return "exhausted"
	}
	return fmt.Sprintf("FeedState(%d)", int(s))
}

// PageFetcher follows a listing cursor.
type PageFetcher interface {
	FetchPage(ctx context.Context, cursor string) (*prismic.Response, error)
}

// Feed is the incrementally loaded post list. Only an idle feed may start a
// fetch; the response moves it back to idle or, on a null cursor, to
// exhausted. A failed fetch returns it to idle and is not retried.
type Feed struct {
	mu      sync.Mutex
	state   FeedState
	cursor  string
	posts   []PostSummary
	mode    AppendMode
	fetcher PageFetcher
}

// NewFeed starts a feed from the first listing page.
func NewFeed(l Listing, mode AppendMode, fetcher PageFetcher) *Feed {
	f := &Feed{
		cursor:  l.NextPage,
		posts:   append([]PostSummary(nil), l.Posts...),
		mode:    mode,
		fetcher: fetcher,
	}
	if f.cursor == "" {
		f.state = FeedExhausted
	}
	return f
}

// LoadMore fetches the page behind the current cursor and appends its posts
// according to the feed's AppendMode. It returns the appended posts.
func (f *Feed) LoadMore(ctx context.Context) ([]PostSummary, error) {
	f.mu.Lock()
	switch f.state {
	case FeedLoading:
		f.mu.Unlock()
		return nil, ErrLoadInFlight
	case FeedExhausted:
		f.mu.Unlock()
		return nil, ErrFeedExhausted
	}
	f.state = FeedLoading
	cursor := f.cursor
	f.mu.Unlock()

	resp, err := f.fetcher.FetchPage(ctx, cursor)
	var added []PostSummary
	if err == nil {
		added, err = f.pick(resp.Results)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = FeedIdle
		return nil, fmt.Errorf("load more: %w", err)
	}
	f.posts = append(f.posts, added...)
	f.cursor = resp.NextPage
	if f.cursor == "" {
		f.state = FeedExhausted
	} else {
		f.state = FeedIdle
	}
	return added, nil
}

func (f *Feed) pick(docs []prismic.Document) ([]PostSummary, error) {
	if f.mode != AppendPage && len(docs) > 1 {
		docs = docs[:1]
	}
	return summariesFromDocuments(docs)
}

// State returns the current state.
func (f *Feed) State() FeedState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Cursor returns the cursor of the next page, or "" once exhausted.
func (f *Feed) Cursor() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cursor
}

// Posts returns a copy of every post loaded so far.
func (f *Feed) Posts() []PostSummary {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]PostSummary(nil), f.posts...)
}
