// Package geocode searches places through the Mapbox geocoding API and falls
// back to a small static list whenever the provider cannot be used.
package geocode

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkordes/tripstory/internal/domain"
	"github.com/pkordes/tripstory/internal/provider"
)

const (
	// DefaultBaseURL is the Mapbox API root.
	DefaultBaseURL = "https://api.mapbox.com"

	defaultLimit = 5
	maxLimit     = 10
	placeTypes   = "place,country,region,postcode,locality"
)

// Config configures a Client.
type Config struct {
	AccessToken string
	BaseURL     string
	Timeout     time.Duration
	// BreakerOpenFor is how long the circuit stays open after tripping.
	BreakerOpenFor time.Duration
}

// Client searches places. Search never fails: provider problems degrade to
// fallback suggestions.
type Client struct {
	token   string
	baseURL string
	caller  *provider.Caller
	logger  *slog.Logger
}

// New constructs a Client. A blank AccessToken makes every search use the
// fallback list without an outbound call.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.BreakerOpenFor == 0 {
		cfg.BreakerOpenFor = 30 * time.Second
	}
	return &Client{
		token:   strings.TrimSpace(cfg.AccessToken),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		caller:  provider.NewCaller("mapbox", cfg.Timeout, cfg.BreakerOpenFor, logger),
		logger:  logger,
	}
}

type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	Text      string    `json:"text"`
	PlaceName string    `json:"place_name"`
	PlaceType []string  `json:"place_type"`
	Center    []float64 `json:"center"`
}

// Search returns up to limit suggestions for query. limit <= 0 means 5 and
// values above 10 are capped. A blank query returns an empty slice.
func (c *Client) Search(ctx context.Context, query string, limit int) []domain.Suggestion {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Suggestion{}
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	if c.token == "" {
		c.caller.Skip()
		c.logger.DebugContext(ctx, "mapbox token not configured, using fallback suggestions")
		return fallback(query)
	}

	params := url.Values{}
	params.Set("access_token", c.token)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("types", placeTypes)
	endpoint := c.baseURL + "/geocoding/v5/mapbox.places/" + url.PathEscape(query) + ".json?" + params.Encode()

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		c.logger.WarnContext(ctx, "mapbox request build failed", "error", err)
		return fallback(query)
	}

	var fc featureCollection
	if err := c.caller.GetJSON(ctx, req, &fc); err != nil {
		c.logger.WarnContext(ctx, "mapbox search failed, using fallback suggestions", "error", err)
		return fallback(query)
	}

	out := make([]domain.Suggestion, 0, len(fc.Features))
	for _, f := range fc.Features {
		out = append(out, f.toSuggestion())
	}
	return out
}

func (f feature) toSuggestion() domain.Suggestion {
	s := domain.Suggestion{
		Name:     f.Text,
		FullName: f.PlaceName,
		Type:     "place",
	}
	if len(f.PlaceType) > 0 && f.PlaceType[0] != "" {
		s.Type = f.PlaceType[0]
	}
	// Mapbox centers are [longitude, latitude].
	if len(f.Center) >= 2 {
		lon, lat := f.Center[0], f.Center[1]
		s.Longitude = &lon
		s.Latitude = &lat
	}
	return s
}

type knownCity struct {
	match    string
	name     string
	fullName string
	lat, lon float64
}

// Only the first matching city is added.
var knownCities = []knownCity{
	{"paris", "Paris", "Paris, France", 48.8566, 2.3522},
	{"tokyo", "Tokyo", "Tokyo, Japan", 35.6762, 139.6503},
	{"new york", "New York", "New York, NY, USA", 40.7128, -74.0060},
	{"london", "London", "London, England, UK", 51.5074, -0.1278},
}

// fallback echoes the query as a suggestion and adds coordinates for a
// well-known city mentioned in it.
func fallback(query string) []domain.Suggestion {
	out := []domain.Suggestion{{Name: query, FullName: query, Type: "place"}}

	lower := strings.ToLower(query)
	for _, city := range knownCities {
		if strings.Contains(lower, city.match) {
			lat, lon := city.lat, city.lon
			out = append(out, domain.Suggestion{
				Name:      city.name,
				FullName:  city.fullName,
				Type:      "place",
				Latitude:  &lat,
				Longitude: &lon,
			})
			break
		}
	}
	return out
}
