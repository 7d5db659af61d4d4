package spacetravelling_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baastos/spacetravelling"
	"github.com/baastos/spacetravelling/prismic"
)

func newTestService(cms spacetravelling.CMS) *spacetravelling.Service {
	return spacetravelling.NewService(cms, spacetravelling.SiteConfig{}.WithDefaults())
}

func TestListingQueriesFirstPage(t *testing.T) {
	cms := newFakeCMS(threePosts()...)
	s := newTestService(cms)

	l, err := s.Listing(context.Background())
	require.NoError(t, err)
	require.Len(t, l.Posts, 1)
	assert.Equal(t, "post-tres", l.Posts[0].UID)
	assert.Equal(t, "Terceiro post", l.Posts[0].Title)
	assert.Equal(t, "Subtítulo de Terceiro post", l.Posts[0].Subtitle)
	assert.Equal(t, "Joseph Oliveira", l.Posts[0].Author)
	assert.Equal(t, "20 jun 2021", l.Posts[0].FormattedDate)
	assert.Equal(t, mustTime("2021-06-20T12:00:00Z"), l.Posts[0].FirstPublicationDate)
	assert.Equal(t, fakeCursor(2, 1), l.NextPage)

	q := cms.recorded()
	require.Len(t, q, 1)
	assert.Equal(t, []prismic.Predicate{`[at(document.type, "post")]`}, q[0].Preds)
	assert.Equal(t, 1, q[0].Opts.PageSize)
	assert.Equal(t, []string{"post.title", "post.subtitle", "post.author"}, q[0].Opts.Fetch)
	assert.Equal(t, []prismic.Ordering{{Path: prismic.PathFirstPublicationDate, Desc: true}}, q[0].Opts.Orderings)
}

func TestListingWithoutFurtherPages(t *testing.T) {
	cms := newFakeCMS(threePosts()[:1]...)
	l, err := newTestService(cms).Listing(context.Background())
	require.NoError(t, err)
	assert.Len(t, l.Posts, 1)
	assert.Empty(t, l.NextPage)
}

func TestPostPaths(t *testing.T) {
	cms := newFakeCMS(threePosts()...)
	uids, err := newTestService(cms).PostPaths(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"post-tres", "post-dois", "post-um"}, uids)
	assert.Equal(t, 20, cms.recorded()[0].Opts.PageSize)
}

func TestAllPostsUsesOneQuery(t *testing.T) {
	cms := newFakeCMS(threePosts()...)
	s := newTestService(cms)

	posts, err := s.AllPosts(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "post-um", posts[2].UID)
	assert.Equal(t, 1, cms.calls())
	assert.Equal(t, 100, cms.recorded()[0].Opts.PageSize)
	assert.Equal(t, []string{"post.title", "post.subtitle", "post.author"}, cms.recorded()[0].Opts.Fetch)

	posts, err = s.AllPosts(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
	assert.Equal(t, 2, cms.calls())
	assert.Equal(t, 2, cms.recorded()[1].Opts.PageSize)
}

func TestAllPostsFollowsQueryCursor(t *testing.T) {
	docs := make([]prismic.Document, 150)
	for i := range docs {
		uid := "post-" + strconv.Itoa(i)
		docs[i] = postDoc("ID"+strconv.Itoa(i), uid, "Post "+strconv.Itoa(i), "2021-03-25T19:25:28Z", "texto")
	}
	cms := newFakeCMS(docs...)

	posts, err := newTestService(cms).AllPosts(context.Background(), 120)
	require.NoError(t, err)
	require.Len(t, posts, 120)
	assert.Equal(t, "post-119", posts[119].UID)
	assert.Equal(t, 2, cms.calls())
	assert.Equal(t, []string{fakeCursor(2, 100)}, cms.fetches)
}

func TestSiblingsQueriesAroundPublicationDate(t *testing.T) {
	cms := newFakeCMS(threePosts()...)
	s := newTestService(cms)

	pag, err := s.Siblings(context.Background(), spacetravelling.Post{
		UID:                  "post-dois",
		FirstPublicationDate: mustTime("2021-06-10T00:00:00Z"),
	})
	require.NoError(t, err)
	require.NotNil(t, pag.Next)
	require.NotNil(t, pag.Prev)
	assert.Equal(t, spacetravelling.Sibling{Title: "Terceiro post", Href: "/post/post-tres/"}, *pag.Next)
	assert.Equal(t, spacetravelling.Sibling{Title: "Primeiro post", Href: "/post/post-um/"}, *pag.Prev)

	var after, before *fakeQuery
	for _, q := range cms.recorded() {
		q := q
		require.Len(t, q.Preds, 2)
		assert.Equal(t, prismic.Predicate(`[at(document.type, "post")]`), q.Preds[0])
		assert.Equal(t, 1, q.Opts.PageSize)
		switch q.Preds[1] {
		case `[date.after(document.first_publication_date, 1623283200000)]`:
			after = &q
		case `[date.before(document.first_publication_date, 1623283200000)]`:
			before = &q
		}
	}
	require.NotNil(t, after)
	require.NotNil(t, before)
	assert.False(t, after.Opts.Orderings[0].Desc)
	assert.True(t, before.Opts.Orderings[0].Desc)
}

func TestSiblingsAtEdgesAreNil(t *testing.T) {
	cms := newFakeCMS(threePosts()...)
	s := newTestService(cms)

	pag, err := s.Siblings(context.Background(), spacetravelling.Post{
		UID:                  "post-tres",
		FirstPublicationDate: mustTime("2021-06-20T12:00:00Z"),
	})
	require.NoError(t, err)
	assert.Nil(t, pag.Next)
	require.NotNil(t, pag.Prev)
	assert.Equal(t, "Segundo post", pag.Prev.Title)
}

func TestSiblingsWithoutDateAnchorAtNow(t *testing.T) {
	cms := newFakeCMS(threePosts()...)
	s := newTestService(cms)

	start := time.Now().UnixMilli()
	pag, err := s.Siblings(context.Background(), spacetravelling.Post{UID: "rascunho"})
	end := time.Now().UnixMilli()
	require.NoError(t, err)
	assert.Nil(t, pag.Next)
	require.NotNil(t, pag.Prev)
	assert.Equal(t, "post-tres", strings.TrimSuffix(strings.TrimPrefix(pag.Prev.Href, "/post/"), "/"))

	for _, q := range cms.recorded() {
		p := string(q.Preds[1])
		i := strings.LastIndex(p, ", ")
		ms, err := strconv.ParseInt(strings.TrimSuffix(p[i+2:], ")]"), 10, 64)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, ms, start)
		assert.LessOrEqual(t, ms, end)
	}
}

func TestSiblingsFailureFailsPage(t *testing.T) {
	cms := newFakeCMS(threePosts()...)
	boom := errors.New("timeout")
	cms.setErr(boom)

	_, err := newTestService(cms).Siblings(context.Background(), spacetravelling.Post{
		UID:                  "post-dois",
		FirstPublicationDate: mustTime("2021-06-10T00:00:00Z"),
	})
	assert.ErrorIs(t, err, boom)
}

func TestPostPage(t *testing.T) {
	docs := threePosts()
	edited := mustTime("2021-06-12T15:04:00Z")
	docs[1].LastPublicationDate = edited
	cms := newFakeCMS(docs...)
	s := newTestService(cms)

	page, err := s.PostPage(context.Background(), "post-dois", "", spacetravelling.DetailOptions{Siblings: true})
	require.NoError(t, err)
	assert.Equal(t, "post-dois", page.UID)
	assert.Equal(t, "Segundo post", page.Post.Title)
	assert.Equal(t, "https://images.prismic.io/spacetravelling/post-dois.png", page.Post.BannerURL)
	assert.Equal(t, "10 jun 2021", page.FormattedDate)
	assert.Equal(t, "12 jun 2021, às 15:04", page.EditedAt)
	assert.Equal(t, 1, page.ReadingTime)
	require.Len(t, page.Post.Content, 1)
	assert.Equal(t, "Introdução", page.Post.Content[0].Heading)
	assert.NotNil(t, page.Pagination.Next)
	assert.NotNil(t, page.Pagination.Prev)
	assert.False(t, page.Preview)
	assert.Equal(t, edited, page.Post.LastPublicationDate)
}

func TestPostPageWithoutSiblings(t *testing.T) {
	cms := newFakeCMS(threePosts()...)
	page, err := newTestService(cms).PostPage(context.Background(), "post-um", "", spacetravelling.DetailOptions{Preview: true})
	require.NoError(t, err)
	assert.Empty(t, page.EditedAt)
	assert.True(t, page.Preview)
	assert.Nil(t, page.Pagination.Next)
	assert.Nil(t, page.Pagination.Prev)
	assert.Len(t, cms.recorded(), 1)
}

func TestPostPageNotFound(t *testing.T) {
	cms := newFakeCMS(threePosts()...)
	_, err := newTestService(cms).PostPage(context.Background(), "nao-existe", "", spacetravelling.DetailOptions{})
	assert.ErrorIs(t, err, prismic.ErrNotFound)
}

func TestPostReadsPreviewRef(t *testing.T) {
	cms := newFakeCMS(threePosts()...)
	draft := postDoc("ID1", "post-um", "Primeiro post (rascunho)", "2021-03-25T19:25:28Z", "texto novo")
	cms.previews["preview-ref"] = []prismic.Document{draft}

	post, err := newTestService(cms).Post(context.Background(), "post-um", "preview-ref")
	require.NoError(t, err)
	assert.Equal(t, "Primeiro post (rascunho)", post.Title)
	assert.Equal(t, "preview-ref", cms.recorded()[0].Opts.Ref)
}

func TestResolvePath(t *testing.T) {
	doc := threePosts()[0]
	assert.Equal(t, "/post/post-tres/", spacetravelling.ResolvePath(&doc))
	assert.Equal(t, "/", spacetravelling.ResolvePath(&prismic.Document{Type: "page", UID: "sobre"}))
	assert.Equal(t, "/", spacetravelling.ResolvePath(nil))
}
