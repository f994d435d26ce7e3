// Package directory is the client for the remote influencer directory API.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3/client"

	"github.com/FacundoMartinezR/TikTokFinder/internal/model"
)

// ErrUpstream is returned when the directory cannot be reached or answers
// with a non-2xx status.
var ErrUpstream = errors.New("directory upstream error")

const listPath = "/api/tiktokers"

// maxErrorBody caps how much of an upstream error body ends up in errors.
const maxErrorBody = 256

// Query is one directory search request.
type Query struct {
	Filters model.Filters
	Page    int
	PerPage int
}

// Page is one page of directory results plus the server-side total.
type Page struct {
	Results []model.Influencer
	Total   int
}

// Client calls the directory API on behalf of a signed-in user.
type Client struct {
	cc *client.Client
}

// NewClient creates a directory client for baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	cc := client.New().SetBaseURL(baseURL).SetTimeout(timeout)
	return &Client{cc: cc}
}

// List fetches one page of results. cookie is forwarded verbatim so the
// directory sees the caller's session. A response with ok=false yields an
// empty page.
func (c *Client) List(ctx context.Context, cookie string, q Query) (Page, error) {
	resp, err := c.cc.Get(listPath, client.Config{
		Ctx:    ctx,
		Header: cookieHeader(cookie),
		Param:  encodeQuery(q),
	})
	if err != nil {
		return Page{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Close()

	if status := resp.StatusCode(); status < 200 || status > 299 {
		return Page{}, fmt.Errorf("%w: HTTP %d: %s", ErrUpstream, status, truncate(resp.Body()))
	}

	var body listResponse
	if err := resp.JSON(&body); err != nil {
		return Page{}, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	if !body.OK {
		return Page{Results: []model.Influencer{}}, nil
	}

	results := make([]model.Influencer, 0, len(body.Results))
	for _, raw := range body.Results {
		results = append(results, raw.toModel())
	}
	return Page{Results: results, Total: max(int(body.Total), 0)}, nil
}

// Ping reports whether the directory answers HTTP at all. Any status below
// 500 counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.cc.Get(listPath, client.Config{
		Ctx:   ctx,
		Param: map[string]string{"page": "1", "perPage": "1"},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Close()
	if resp.StatusCode() >= 500 {
		return fmt.Errorf("%w: HTTP %d", ErrUpstream, resp.StatusCode())
	}
	return nil
}

// encodeQuery builds the query parameters. Unset filters are sent as empty
// strings; the directory treats those as "no filter".
func encodeQuery(q Query) map[string]string {
	sortBy := q.Filters.SortBy
	if sortBy == "" {
		sortBy = model.SortByFollowers
	}
	return map[string]string{
		"country":      q.Filters.Country,
		"niche":        q.Filters.Niche,
		"minFollowers": optInt(q.Filters.MinFollowers),
		"maxFollowers": optInt(q.Filters.MaxFollowers),
		"sortBy":       sortBy,
		"page":         strconv.Itoa(max(q.Page, 1)),
		"perPage":      strconv.Itoa(q.PerPage),
	}
}

func optInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func cookieHeader(cookie string) map[string]string {
	if cookie == "" {
		return nil
	}
	return map[string]string{"Cookie": cookie}
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return string(b)
}
