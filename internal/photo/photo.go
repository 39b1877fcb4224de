// Package photo finds cover photos for trips through the Unsplash search API.
package photo

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkordes/tripstory/internal/domain"
	"github.com/pkordes/tripstory/internal/provider"
)

// DefaultBaseURL is the Unsplash API root.
const DefaultBaseURL = "https://api.unsplash.com"

// Config configures a Client.
type Config struct {
	AccessKey      string
	BaseURL        string
	Timeout        time.Duration
	BreakerOpenFor time.Duration
}

// Client looks up one landscape travel photo per destination name.
type Client struct {
	key     string
	baseURL string
	caller  *provider.Caller
	logger  *slog.Logger
}

// New constructs a Client.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.BreakerOpenFor == 0 {
		cfg.BreakerOpenFor = 30 * time.Second
	}
	return &Client{
		key:     strings.TrimSpace(cfg.AccessKey),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		caller:  provider.NewCaller("unsplash", cfg.Timeout, cfg.BreakerOpenFor, logger),
		logger:  logger,
	}
}

type searchResponse struct {
	Results []result `json:"results"`
}

type result struct {
	ID   string `json:"id"`
	URLs struct {
		Small   string `json:"small"`
		Regular string `json:"regular"`
	} `json:"urls"`
	User struct {
		Name     string `json:"name"`
		Username string `json:"username"`
	} `json:"user"`
	Links struct {
		HTML string `json:"html"`
	} `json:"links"`
}

// FetchForDestination returns the first landscape photo matching
// "<name> travel", or nil when there is no result or the request fails.
// Failures are logged, never returned.
func (c *Client) FetchForDestination(ctx context.Context, name string) *domain.Photo {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if c.key == "" {
		c.caller.Skip()
		return nil
	}

	params := url.Values{}
	params.Set("query", name+" travel")
	params.Set("per_page", "1")
	params.Set("orientation", "landscape")

	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/search/photos?"+params.Encode(), nil)
	if err != nil {
		c.logger.WarnContext(ctx, "unsplash request build failed", "error", err)
		return nil
	}
	req.Header.Set("Authorization", "Client-ID "+c.key)

	var resp searchResponse
	if err := c.caller.GetJSON(ctx, req, &resp); err != nil {
		c.logger.WarnContext(ctx, "unsplash photo lookup failed", "destination", name, "error", err)
		return nil
	}
	if len(resp.Results) == 0 {
		c.logger.DebugContext(ctx, "unsplash returned no photos", "destination", name)
		return nil
	}

	r := resp.Results[0]
	return &domain.Photo{
		ID:    r.ID,
		URLs:  domain.PhotoURLs{Small: r.URLs.Small, Regular: r.URLs.Regular},
		User:  domain.PhotoUser{Name: r.User.Name, Username: r.User.Username},
		Links: domain.PhotoLinks{HTML: r.Links.HTML},
	}
}
