// Package freesound is a minimal client for the Freesound APIv2 text
// search and preview download endpoints.
package freesound

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"
)

const (
	DefaultBaseURL = "https://freesound.org/apiv2"

	// DefaultFilter keeps results short enough to slice into frames.
	DefaultFilter = "duration:[0 TO 30]"
)

// storeFields are the metadata fields requested per sound.
const storeFields = "id,name,username,previews,license,tags"

type Client struct {
	token   string
	baseURL string
	httpc   *http.Client
}

type Option func(*Client)

// WithBaseURL points the client at a different API root (tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		token:   token,
		baseURL: DefaultBaseURL,
		httpc:   &http.Client{Timeout: 60 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Previews holds the preview rendition URLs of a sound.
type Previews struct {
	HQOgg string `json:"preview-hq-ogg"`
	LQOgg string `json:"preview-lq-ogg"`
	HQMp3 string `json:"preview-hq-mp3"`
	LQMp3 string `json:"preview-lq-mp3"`
}

type Sound struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Username string   `json:"username"`
	License  string   `json:"license"`
	Tags     []string `json:"tags"`
	Previews Previews `json:"previews"`
}

type searchResponse struct {
	Count   int     `json:"count"`
	Next    string  `json:"next"`
	Results []Sound `json:"results"`
}

// Query describes a single text search.
type Query struct {
	Text     string
	Filter   string // empty means DefaultFilter
	PageSize int
}

// TextSearch runs a text query and returns one page of results.
func (c *Client) TextSearch(ctx context.Context, q Query) ([]Sound, error) {
	if q.PageSize <= 0 {
		q.PageSize = 10
	}
	filter := q.Filter
	if filter == "" {
		filter = DefaultFilter
	}

	params := url.Values{}
	params.Set("query", q.Text)
	params.Set("filter", filter)
	params.Set("fields", storeFields)
	params.Set("group_by_pack", "1")
	params.Set("page_size", strconv.Itoa(q.PageSize))
	params.Set("token", c.token)

	u := c.baseURL + "/search/text/?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("freesound search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpError("search", resp)
	}
	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("freesound search decode: %w", err)
	}
	return sr.Results, nil
}

// DownloadPreview fetches the high quality OGG preview of a sound into
// dir and returns the local path.
func (c *Client) DownloadPreview(ctx context.Context, s Sound, dir string) (string, error) {
	fileURL := s.Previews.HQOgg
	if fileURL == "" {
		return "", fmt.Errorf("sound %d has no hq ogg preview", s.ID)
	}
	parsed, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("sound %d preview url: %w", s.ID, err)
	}
	dest := filepath.Join(dir, path.Base(parsed.Path))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("preview download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", httpError("preview download", resp)
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(dest)
		return "", fmt.Errorf("preview write: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return dest, nil
}

func httpError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("freesound %s: status %d: %s", op, resp.StatusCode, string(body))
}
