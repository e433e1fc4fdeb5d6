// Package catalog reads host-managed listings from the property catalog API.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"staymap/internal/adapters/upstream"
)

const pageSize = 100

type Client struct {
	base string
	up   *upstream.Client
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("catalog API key is required")
	}
	if _, err := url.Parse(base); err != nil || base == "" {
		return nil, fmt.Errorf("catalog base URL %q is invalid", base)
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		up:   upstream.New("catalog", rps, 0, http.Header{"X-API-Key": {key}}),
	}, nil
}

// listingsPage accepts both the paged envelope and a bare array.
type listingsPage struct {
	Data     []map[string]any `json:"data"`
	NextPage *int             `json:"next_page"`
}

func (p *listingsPage) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '[' {
		return json.Unmarshal(b, &p.Data)
	}
	type alias listingsPage
	return json.Unmarshal(b, (*alias)(p))
}

// ListListings returns one page of raw listing payloads (pages start at 1)
// and whether another page follows.
func (c *Client) ListListings(ctx context.Context, page int) ([]map[string]any, bool, error) {
	if page < 1 {
		page = 1
	}
	u := fmt.Sprintf("%s/listings?page=%d&per_page=%d", c.base, page, pageSize)
	var out listingsPage
	if err := c.up.GetJSON(ctx, "listings", u, &out); err != nil {
		return nil, false, err
	}
	more := out.NextPage != nil && *out.NextPage > page
	if out.NextPage == nil {
		// bare arrays carry no cursor; a full page may have a successor
		more = len(out.Data) == pageSize
	}
	return out.Data, more, nil
}

func (c *Client) GetListing(ctx context.Context, id string) (map[string]any, error) {
	var out map[string]any
	u := fmt.Sprintf("%s/listings/%s", c.base, url.PathEscape(id))
	return out, c.up.GetJSON(ctx, "listing", u, &out)
}
