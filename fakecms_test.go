package spacetravelling_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/baastos/spacetravelling/prismic"
)

const fakeEndpoint = "https://spacetravelling.cdn.prismic.io/api/v2"

func fakeCursor(page, pageSize int) string {
	return fmt.Sprintf("%s/documents/search?page=%d&pageSize=%d", fakeEndpoint, page, pageSize)
}

type fakeQuery struct {
	Preds []prismic.Predicate
	Opts  prismic.QueryOptions
}

// fakeCMS serves an in-memory repository of post documents, newest first.
type fakeCMS struct {
	mu       sync.Mutex
	docs     []prismic.Document
	previews map[string][]prismic.Document
	queries  []fakeQuery
	fetches  []string
	err      error
}

func newFakeCMS(docs ...prismic.Document) *fakeCMS {
	return &fakeCMS{docs: docs, previews: map[string][]prismic.Document{}}
}

func (f *fakeCMS) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries) + len(f.fetches)
}

func (f *fakeCMS) recorded() []fakeQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.queries)
}

// remove deletes the post with uid, as unpublishing it would.
func (f *fakeCMS) remove(uid string) {
	f.mu.Lock()
	f.docs = slices.DeleteFunc(f.docs, func(d prismic.Document) bool { return d.UID == uid })
	f.mu.Unlock()
}

func (f *fakeCMS) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

var datePred = regexp.MustCompile(`^\[date\.(after|before)\([^,]+, (\d+)\)\]$`)
var atPred = regexp.MustCompile(`^\[at\(([^,]+), "(.*)"\)\]$`)

func (f *fakeCMS) Query(ctx context.Context, preds []prismic.Predicate, opts prismic.QueryOptions) (*prismic.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, fakeQuery{Preds: preds, Opts: opts})
	if f.err != nil {
		return nil, f.err
	}

	docs := f.docs
	if p, ok := f.previews[opts.Ref]; ok {
		docs = p
	}
	var matched []prismic.Document
	for _, d := range docs {
		if matches(d, preds) {
			matched = append(matched, d)
		}
	}
	if len(opts.Orderings) > 0 && !opts.Orderings[0].Desc {
		slices.Reverse(matched)
	}
	return paginate(matched, opts.Page, opts.PageSize), nil
}

func matches(d prismic.Document, preds []prismic.Predicate) bool {
	for _, p := range preds {
		if m := datePred.FindStringSubmatch(string(p)); m != nil {
			ms, _ := strconv.ParseInt(m[2], 10, 64)
			t := time.UnixMilli(ms)
			if d.FirstPublicationDate == nil {
				return false
			}
			if m[1] == "after" && !d.FirstPublicationDate.After(t) {
				return false
			}
			if m[1] == "before" && !d.FirstPublicationDate.Before(t) {
				return false
			}
			continue
		}
		if m := atPred.FindStringSubmatch(string(p)); m != nil {
			var got string
			switch {
			case m[1] == prismic.PathType:
				got = d.Type
			case m[1] == prismic.PathID:
				got = d.ID
			case strings.HasSuffix(m[1], ".uid"):
				got = d.UID
			}
			if got != m[2] {
				return false
			}
		}
	}
	return true
}

func paginate(docs []prismic.Document, page, size int) *prismic.Response {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	start := min((page-1)*size, len(docs))
	end := min(start+size, len(docs))
	resp := &prismic.Response{
		Page:             page,
		ResultsPerPage:   size,
		ResultsSize:      end - start,
		TotalResultsSize: len(docs),
		TotalPages:       (len(docs) + size - 1) / size,
		Results:          slices.Clone(docs[start:end]),
	}
	if end < len(docs) {
		resp.NextPage = fakeCursor(page+1, size)
	}
	return resp
}

func (f *fakeCMS) first(ctx context.Context, pred prismic.Predicate, opts prismic.QueryOptions) (*prismic.Document, error) {
	opts.PageSize = 1
	resp, err := f.Query(ctx, []prismic.Predicate{pred}, opts)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, prismic.ErrNotFound
	}
	return &resp.Results[0], nil
}

func (f *fakeCMS) GetByUID(ctx context.Context, docType, uid string, opts prismic.QueryOptions) (*prismic.Document, error) {
	return f.first(ctx, prismic.At(prismic.UIDPath(docType), uid), opts)
}

func (f *fakeCMS) GetByID(ctx context.Context, id string, opts prismic.QueryOptions) (*prismic.Document, error) {
	return f.first(ctx, prismic.At(prismic.PathID, id), opts)
}

func (f *fakeCMS) FetchPage(ctx context.Context, cursor string) (*prismic.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, cursor)
	if f.err != nil {
		return nil, f.err
	}
	if !strings.HasPrefix(cursor, fakeEndpoint+"/") {
		return nil, prismic.ErrForeignCursor
	}
	u, err := url.Parse(cursor)
	if err != nil {
		return nil, err
	}
	page, _ := strconv.Atoi(u.Query().Get("page"))
	size, _ := strconv.Atoi(u.Query().Get("pageSize"))
	return paginate(f.docs, page, size), nil
}

func mustTime(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

// postDoc builds a post document with one content block of body text.
func postDoc(id, uid, title, published string, body string) prismic.Document {
	data, err := json.Marshal(map[string]any{
		"title":    title,
		"subtitle": "Subtítulo de " + title,
		"author":   "Joseph Oliveira",
		"banner":   map[string]string{"url": "https://images.prismic.io/spacetravelling/" + uid + ".png"},
		"content": []map[string]any{{
			"heading": "Introdução",
			"body": []map[string]any{{
				"type":  "paragraph",
				"text":  body,
				"spans": []any{},
			}},
		}},
	})
	if err != nil {
		panic(err)
	}
	first := mustTime(published)
	return prismic.Document{
		ID:                   id,
		UID:                  uid,
		Type:                 "post",
		FirstPublicationDate: first,
		LastPublicationDate:  first,
		Data:                 data,
	}
}

// threePosts returns a repository of three posts, newest first.
func threePosts() []prismic.Document {
	return []prismic.Document{
		postDoc("ID3", "post-tres", "Terceiro post", "2021-06-20T12:00:00Z", "Lorem ipsum dolor sit amet"),
		postDoc("ID2", "post-dois", "Segundo post", "2021-06-10T00:00:00Z", "Consectetur adipiscing elit"),
		postDoc("ID1", "post-um", "Primeiro post", "2021-03-25T19:25:28Z", "Sed do eiusmod tempor"),
	}
}
