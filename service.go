package spacetravelling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/baastos/spacetravelling/prismic"
)

// postType is the CMS custom type of blog posts.
const postType = "post"

// CMS is the subset of the Prismic client the site depends on.
type CMS interface {
	Query(ctx context.Context, preds []prismic.Predicate, opts prismic.QueryOptions) (*prismic.Response, error)
	GetByUID(ctx context.Context, docType, uid string, opts prismic.QueryOptions) (*prismic.Document, error)
	GetByID(ctx context.Context, id string, opts prismic.QueryOptions) (*prismic.Document, error)
	FetchPage(ctx context.Context, cursor string) (*prismic.Response, error)
}

var summaryFields = []string{"post.title", "post.subtitle", "post.author"}

// maxPageSize is the largest page the CMS API serves.
const maxPageSize = 100

var newestFirst = []prismic.Ordering{{Path: prismic.PathFirstPublicationDate, Desc: true}}

// Service shapes CMS documents into the site's view models.
type Service struct {
	cms             CMS
	listingPageSize int
	pathsPageSize   int
	now             func() time.Time
}

// NewService returns a Service reading from cms.
func NewService(cms CMS, cfg SiteConfig) *Service {
	return &Service{
		cms:             cms,
		listingPageSize: cfg.ListingPageSize,
		pathsPageSize:   cfg.PathsPageSize,
		now:             time.Now,
	}
}

// Listing fetches the first page of posts.
func (s *Service) Listing(ctx context.Context) (Listing, error) {
	resp, err := s.cms.Query(ctx, []prismic.Predicate{prismic.At(prismic.PathType, postType)}, prismic.QueryOptions{
		PageSize:  s.listingPageSize,
		Fetch:     summaryFields,
		Orderings: newestFirst,
	})
	if err != nil {
		return Listing{}, fmt.Errorf("query listing: %w", err)
	}
	posts, err := summariesFromDocuments(resp.Results)
	if err != nil {
		return Listing{}, err
	}
	return Listing{Posts: posts, NextPage: resp.NextPage}, nil
}

// PostPaths returns the UIDs of the posts generated at build time.
func (s *Service) PostPaths(ctx context.Context) ([]string, error) {
	resp, err := s.cms.Query(ctx, []prismic.Predicate{prismic.At(prismic.PathType, postType)}, prismic.QueryOptions{
		PageSize:  s.pathsPageSize,
		Orderings: newestFirst,
	})
	if err != nil {
		return nil, fmt.Errorf("query post paths: %w", err)
	}
	uids := make([]string, 0, len(resp.Results))
	for _, doc := range resp.Results {
		if doc.UID != "" {
			uids = append(uids, doc.UID)
		}
	}
	return uids, nil
}

// AllPosts collects up to limit posts, newest first, for the feed and the
// sitemap. It queries pages of up to 100 posts and follows the cursor of that
// query until the list is exhausted or limit is reached.
func (s *Service) AllPosts(ctx context.Context, limit int) ([]PostSummary, error) {
	if limit <= 0 {
		return nil, nil
	}
	resp, err := s.cms.Query(ctx, []prismic.Predicate{prismic.At(prismic.PathType, postType)}, prismic.QueryOptions{
		PageSize:  min(limit, maxPageSize),
		Fetch:     summaryFields,
		Orderings: newestFirst,
	})
	if err != nil {
		return nil, fmt.Errorf("query all posts: %w", err)
	}
	var posts []PostSummary
	for {
		page, err := summariesFromDocuments(resp.Results)
		if err != nil {
			return nil, err
		}
		posts = append(posts, page...)
		if len(posts) >= limit || resp.NextPage == "" || len(resp.Results) == 0 {
			break
		}
		if resp, err = s.cms.FetchPage(ctx, resp.NextPage); err != nil {
			return nil, fmt.Errorf("fetch posts page: %w", err)
		}
	}
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

// Post fetches a post by UID. A non-empty ref reads preview content.
func (s *Service) Post(ctx context.Context, uid, ref string) (Post, error) {
	doc, err := s.cms.GetByUID(ctx, postType, uid, prismic.QueryOptions{Ref: ref})
	if err != nil {
		return Post{}, fmt.Errorf("get post %q: %w", uid, err)
	}
	return postFromDocument(doc)
}

// Siblings resolves the posts published immediately before and after post.
// Both queries run concurrently and must succeed. A post without a
// publication date is anchored at the current time.
func (s *Service) Siblings(ctx context.Context, post Post) (Pagination, error) {
	anchor := s.now()
	if post.FirstPublicationDate != nil {
		anchor = *post.FirstPublicationDate
	}

	var pag Pagination
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		next, err := s.sibling(gctx, prismic.DateAfter(prismic.PathFirstPublicationDate, anchor), false)
		pag.Next = next
		return err
	})
	g.Go(func() error {
		prev, err := s.sibling(gctx, prismic.DateBefore(prismic.PathFirstPublicationDate, anchor), true)
		pag.Prev = prev
		return err
	})
	if err := g.Wait(); err != nil {
		return Pagination{}, fmt.Errorf("query siblings of %q: %w", post.UID, err)
	}
	return pag, nil
}

func (s *Service) sibling(ctx context.Context, date prismic.Predicate, desc bool) (*Sibling, error) {
	resp, err := s.cms.Query(ctx, []prismic.Predicate{prismic.At(prismic.PathType, postType), date}, prismic.QueryOptions{
		PageSize:  1,
		Fetch:     []string{"post.title"},
		Orderings: []prismic.Ordering{{Path: prismic.PathFirstPublicationDate, Desc: desc}},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	doc := resp.Results[0]
	var data struct {
		Title string `json:"title"`
	}
	if err := doc.DecodeData(&data); err != nil {
		return nil, err
	}
	return &Sibling{Title: data.Title, Href: PostPath(doc.UID)}, nil
}

// PostPage fetches a post and everything its page displays.
func (s *Service) PostPage(ctx context.Context, uid, ref string, opts DetailOptions) (PostPage, error) {
	post, err := s.Post(ctx, uid, ref)
	if err != nil {
		return PostPage{}, err
	}
	page := PostPage{
		UID:           post.UID,
		Post:          post,
		FormattedDate: FormatDate(post.FirstPublicationDate),
		ReadingTime:   ReadingTime(post.Content),
		Preview:       opts.Preview,
	}
	if IsEdited(post) {
		page.EditedAt = FormatEdited(post.LastPublicationDate)
	}
	if opts.Siblings {
		page.Pagination, err = s.Siblings(ctx, post)
		if err != nil {
			return PostPage{}, err
		}
	}
	return page, nil
}

// ResolvePath maps a CMS document to the route that displays it.
func ResolvePath(doc *prismic.Document) string {
	if doc != nil && doc.Type == postType && doc.UID != "" {
		return PostPath(doc.UID)
	}
	return "/"
}

type summaryData struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Author   string `json:"author"`
}

type postData struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Author   string `json:"author"`
	Banner   struct {
		URL string `json:"url"`
	} `json:"banner"`
	Content []ContentBlock `json:"content"`
}

func summaryFromDocument(doc *prismic.Document) (PostSummary, error) {
	var data summaryData
	if err := doc.DecodeData(&data); err != nil {
		return PostSummary{}, err
	}
	return PostSummary{
		UID:                  doc.UID,
		FirstPublicationDate: doc.FirstPublicationDate,
		FormattedDate:        FormatDate(doc.FirstPublicationDate),
		Title:                data.Title,
		Subtitle:             data.Subtitle,
		Author:               data.Author,
	}, nil
}

func summariesFromDocuments(docs []prismic.Document) ([]PostSummary, error) {
	posts := make([]PostSummary, 0, len(docs))
	for i := range docs {
		p, err := summaryFromDocument(&docs[i])
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func postFromDocument(doc *prismic.Document) (Post, error) {
	var data postData
	if err := doc.DecodeData(&data); err != nil {
		return Post{}, err
	}
	return Post{
		UID:                  doc.UID,
		FirstPublicationDate: doc.FirstPublicationDate,
		LastPublicationDate:  doc.LastPublicationDate,
		Title:                data.Title,
		Subtitle:             data.Subtitle,
		BannerURL:            data.Banner.URL,
		Author:               data.Author,
		Content:              data.Content,
	}, nil
}

// isNotFound reports whether err means the CMS has no such document.
func isNotFound(err error) bool {
	return errors.Is(err, prismic.ErrNotFound)
}
