package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
)

const (
	DefaultBaseURL  = "https://api.spotify.com"
	DefaultPageSize = 50
)

// BearerSource supplies the Authorization header value for a single request.
type BearerSource interface {
	Bearer() string
}

type ClientConfig struct {
	BaseURL   string
	UserAgent string
	Market    string
	PageSize  int
}

// Client exposes the three catalog operations the pipeline needs. All of them
// are best-effort: failures are logged and reported as empty results.
type Client struct {
	exec      *Executor
	auth      BearerSource
	baseURL   string
	userAgent string
	market    string
	pageSize  int
	logger    *slog.Logger
}

func NewClient(exec *Executor, auth BearerSource, cfg ClientConfig, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PageSize <= 0 || cfg.PageSize > DefaultPageSize {
		cfg.PageSize = DefaultPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		exec:      exec,
		auth:      auth,
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		market:    cfg.Market,
		pageSize:  cfg.PageSize,
		logger:    logger,
	}
}

// ResolveArtist returns the top artist match for name.
func (c *Client) ResolveArtist(ctx context.Context, name string) (Artist, bool) {
	q := url.Values{}
	q.Set("q", name)
	q.Set("type", "artist")
	q.Set("limit", "1")

	var res searchResponse
	if err := c.get(ctx, "/v1/search", q, &res); err != nil {
		c.logger.Warn("resolve artist failed", "name", name, "error", err)
		return Artist{}, false
	}
	if res.Artists == nil || len(res.Artists.Items) == 0 {
		return Artist{}, false
	}
	return res.Artists.Items[0], true
}

// ArtistAlbums returns the first page of an artist's releases.
func (c *Client) ArtistAlbums(ctx context.Context, artistID string) []Album {
	q := url.Values{}
	q.Set("include_groups", "album,single,compilation")
	q.Set("limit", strconv.Itoa(c.pageSize))

	var res page[Album]
	if err := c.get(ctx, "/v1/artists/"+url.PathEscape(artistID)+"/albums", q, &res); err != nil {
		c.logger.Warn("list artist albums failed", "artist_id", artistID, "error", err)
		return nil
	}
	return withIDs(res.Items)
}

// SearchAlbums runs a free-text album search.
func (c *Client) SearchAlbums(ctx context.Context, query string) []Album {
	q := url.Values{}
	q.Set("q", query)
	q.Set("type", "album")
	q.Set("limit", strconv.Itoa(c.pageSize))

	var res searchResponse
	if err := c.get(ctx, "/v1/search", q, &res); err != nil {
		c.logger.Warn("album search failed", "query", query, "error", err)
		return nil
	}
	if res.Albums == nil {
		return nil
	}
	return withIDs(res.Albums.Items)
}

// withIDs drops entries without an id; null array members decode to zero albums.
func withIDs(albums []Album) []Album {
	out := albums[:0]
	for _, a := range albums {
		if a.ID != "" {
			out = append(out, a)
		}
	}
	return out
}

func (c *Client) get(ctx context.Context, path string, q url.Values, target any) error {
	if c.market != "" {
		q.Set("market", c.market)
	}
	u := c.baseURL + path + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	if bearer := c.auth.Bearer(); bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.exec.Execute(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
