// Package prismic is a small client for the Prismic REST API v2: it resolves
// the master ref, runs predicate searches, fetches single documents and
// follows the opaque next_page cursors returned by the search endpoint.
package prismic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a single-document lookup matches nothing.
	ErrNotFound = errors.New("prismic: document not found")
	// ErrForeignCursor is returned when a cursor does not point at the
	// client's own API endpoint.
	ErrForeignCursor = errors.New("prismic: cursor does not belong to this repository")
	// ErrNoMasterRef is returned when the API descriptor lists no master ref.
	ErrNoMasterRef = errors.New("prismic: api has no master ref")
)

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("prismic: api returned %d", e.StatusCode)
	}
	return fmt.Sprintf("prismic: api returned %d: %s", e.StatusCode, e.Message)
}

// QueryOptions tunes a search. A zero Ref means the current master ref.
type QueryOptions struct {
	Ref       string
	PageSize  int
	Page      int
	Fetch     []string
	Orderings []Ordering
}

// Client talks to a single Prismic repository.
type Client struct {
	endpoint *url.URL
	token    string
	http     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAccessToken sets the token sent with every request.
func WithAccessToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New returns a client for the API endpoint, e.g.
// "https://my-repo.cdn.prismic.io/api/v2".
func New(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("prismic: parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("prismic: endpoint %q must be an absolute http(s) URL", endpoint)
	}
	c := &Client{
		endpoint: u,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type apiDescriptor struct {
	Refs []struct {
		ID          string `json:"id"`
		Ref         string `json:"ref"`
		Label       string `json:"label"`
		IsMasterRef bool   `json:"isMasterRef"`
	} `json:"refs"`
}

// MasterRef returns the ref of the currently published content.
func (c *Client) MasterRef(ctx context.Context) (string, error) {
	u := *c.endpoint
	u.RawQuery = c.withToken(url.Values{}).Encode()
	var api apiDescriptor
	if err := c.getJSON(ctx, u.String(), &api); err != nil {
		return "", err
	}
	for _, r := range api.Refs {
		if r.IsMasterRef {
			return r.Ref, nil
		}
	}
	return "", ErrNoMasterRef
}

// Query runs a predicate search and returns one page of results.
func (c *Client) Query(ctx context.Context, preds []Predicate, opts QueryOptions) (*Response, error) {
	ref := opts.Ref
	if ref == "" {
		var err error
		ref, err = c.MasterRef(ctx)
		if err != nil {
			return nil, err
		}
	}
	q := url.Values{}
	q.Set("ref", ref)
	if len(preds) > 0 {
		q.Set("q", joinPredicates(preds))
	}
	if opts.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(opts.PageSize))
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if len(opts.Fetch) > 0 {
		q.Set("fetch", strings.Join(opts.Fetch, ","))
	}
	if len(opts.Orderings) > 0 {
		q.Set("orderings", joinOrderings(opts.Orderings))
	}
	u := c.endpoint.JoinPath("documents", "search")
	u.RawQuery = c.withToken(q).Encode()

	var resp Response
	if err := c.getJSON(ctx, u.String(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueryFirst runs a search limited to one result and returns it, or
// ErrNotFound when nothing matches.
func (c *Client) QueryFirst(ctx context.Context, preds []Predicate, opts QueryOptions) (*Document, error) {
	opts.PageSize = 1
	opts.Page = 0
	resp, err := c.Query(ctx, preds, opts)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, ErrNotFound
	}
	return &resp.Results[0], nil
}

// GetByUID fetches the document of docType with the given UID.
func (c *Client) GetByUID(ctx context.Context, docType, uid string, opts QueryOptions) (*Document, error) {
	return c.QueryFirst(ctx, []Predicate{At(UIDPath(docType), uid)}, opts)
}

// GetByID fetches a document by its repository ID.
func (c *Client) GetByID(ctx context.Context, id string, opts QueryOptions) (*Document, error) {
	return c.QueryFirst(ctx, []Predicate{At(PathID, id)}, opts)
}

// FetchPage follows a next_page cursor. The cursor is treated as opaque
// apart from checking that it targets this client's endpoint.
func (c *Client) FetchPage(ctx context.Context, cursor string) (*Response, error) {
	u, err := c.checkCursor(cursor)
	if err != nil {
		return nil, err
	}
	if c.token != "" && u.Query().Get("access_token") == "" {
		q := u.Query()
		q.Set("access_token", c.token)
		u.RawQuery = q.Encode()
	}
	var resp Response
	if err := c.getJSON(ctx, u.String(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) checkCursor(cursor string) (*url.URL, error) {
	u, err := url.Parse(cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrForeignCursor, err)
	}
	if u.Scheme != c.endpoint.Scheme || !strings.EqualFold(u.Host, c.endpoint.Host) {
		return nil, ErrForeignCursor
	}
	if !strings.HasPrefix(u.Path, c.endpoint.Path+"/") {
		return nil, ErrForeignCursor
	}
	return u, nil
}

func (c *Client) withToken(q url.Values) url.Values {
	if c.token != "" {
		q.Set("access_token", c.token)
	}
	return q
}

func (c *Client) getJSON(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("prismic: request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return &APIError{StatusCode: res.StatusCode, Message: apiMessage(body)}
	}
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("prismic: decode response: %w", err)
	}
	return nil
}

// apiMessage extracts the "message" or "error" field of an error body.
func apiMessage(body []byte) string {
	var e struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil {
		if e.Message != "" {
			return e.Message
		}
		if e.Error != "" {
			return e.Error
		}
	}
	return strings.TrimSpace(string(body))
}
