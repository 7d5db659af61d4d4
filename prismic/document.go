package prismic

import (
	"encoding/json"
	"fmt"
	"time"
)

// Document is a single CMS document as returned by the search endpoint.
// Data holds the custom-type fields and is decoded by the caller.
type Document struct {
	ID                   string
	UID                  string
	Type                 string
	Href                 string
	Tags                 []string
	Lang                 string
	FirstPublicationDate *time.Time
	LastPublicationDate  *time.Time
	Data                 json.RawMessage
}

type documentJSON struct {
	ID                   string          `json:"id"`
	UID                  string          `json:"uid"`
	Type                 string          `json:"type"`
	Href                 string          `json:"href"`
	Tags                 []string        `json:"tags"`
	Lang                 string          `json:"lang"`
	FirstPublicationDate *string         `json:"first_publication_date"`
	LastPublicationDate  *string         `json:"last_publication_date"`
	Data                 json.RawMessage `json:"data"`
}

// UnmarshalJSON decodes a document, parsing publication timestamps.
func (d *Document) UnmarshalJSON(b []byte) error {
	var raw documentJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	first, err := parseTimestamp(raw.FirstPublicationDate)
	if err != nil {
		return fmt.Errorf("first_publication_date: %w", err)
	}
	last, err := parseTimestamp(raw.LastPublicationDate)
	if err != nil {
		return fmt.Errorf("last_publication_date: %w", err)
	}
	*d = Document{
		ID:                   raw.ID,
		UID:                  raw.UID,
		Type:                 raw.Type,
		Href:                 raw.Href,
		Tags:                 raw.Tags,
		Lang:                 raw.Lang,
		FirstPublicationDate: first,
		LastPublicationDate:  last,
		Data:                 raw.Data,
	}
	return nil
}

// MarshalJSON encodes the document in the API's wire shape.
func (d Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(documentJSON{
		ID:                   d.ID,
		UID:                  d.UID,
		Type:                 d.Type,
		Href:                 d.Href,
		Tags:                 d.Tags,
		Lang:                 d.Lang,
		FirstPublicationDate: formatTimestamp(d.FirstPublicationDate),
		LastPublicationDate:  formatTimestamp(d.LastPublicationDate),
		Data:                 d.Data,
	})
}

// DecodeData unmarshals the document's custom fields into v.
func (d *Document) DecodeData(v any) error {
	if len(d.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(d.Data, v); err != nil {
		return fmt.Errorf("prismic: decode %s data: %w", d.Type, err)
	}
	return nil
}

// Response is one page of search results. NextPage is the opaque cursor of
// the following page; it is empty on the last page.
type Response struct {
	Page             int        `json:"page"`
	ResultsPerPage   int        `json:"results_per_page"`
	ResultsSize      int        `json:"results_size"`
	TotalResultsSize int        `json:"total_results_size"`
	TotalPages       int        `json:"total_pages"`
	NextPage         string     `json:"-"`
	PrevPage         string     `json:"-"`
	Results          []Document `json:"results"`
}

type responseJSON struct {
	Page             int        `json:"page"`
	ResultsPerPage   int        `json:"results_per_page"`
	ResultsSize      int        `json:"results_size"`
	TotalResultsSize int        `json:"total_results_size"`
	TotalPages       int        `json:"total_pages"`
	NextPage         *string    `json:"next_page"`
	PrevPage         *string    `json:"prev_page"`
	Results          []Document `json:"results"`
}

// UnmarshalJSON maps null cursors to empty strings.
func (r *Response) UnmarshalJSON(b []byte) error {
	var raw responseJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*r = Response{
		Page:             raw.Page,
		ResultsPerPage:   raw.ResultsPerPage,
		ResultsSize:      raw.ResultsSize,
		TotalResultsSize: raw.TotalResultsSize,
		TotalPages:       raw.TotalPages,
		Results:          raw.Results,
	}
	if raw.NextPage != nil {
		r.NextPage = *raw.NextPage
	}
	if raw.PrevPage != nil {
		r.PrevPage = *raw.PrevPage
	}
	return nil
}

// MarshalJSON encodes empty cursors as null.
func (r Response) MarshalJSON() ([]byte, error) {
	raw := responseJSON{
		Page:             r.Page,
		ResultsPerPage:   r.ResultsPerPage,
		ResultsSize:      r.ResultsSize,
		TotalResultsSize: r.TotalResultsSize,
		TotalPages:       r.TotalPages,
		Results:          r.Results,
	}
	if r.NextPage != "" {
		raw.NextPage = &r.NextPage
	}
	if r.PrevPage != "" {
		raw.PrevPage = &r.PrevPage
	}
	if raw.Results == nil {
		raw.Results = []Document{}
	}
	return json.Marshal(raw)
}

// The API emits "2021-03-25T19:25:28+0000"; RFC 3339 is accepted as well.
const timestampLayout = "2006-01-02T15:04:05-0700"

func parseTimestamp(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(timestampLayout, *s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, *s)
		if err != nil {
			return nil, err
		}
	}
	return &t, nil
}

func formatTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(timestampLayout)
	return &s
}
