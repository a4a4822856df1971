// iTunes Search API implementation of [Catalog]
//
// See https://performance-partners.apple.com/search-api. No authentication is required,
// but Apple throttles aggressive clients, so requests go through a token bucket.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunesub/internal/models"
	"github.com/desertthunder/tunesub/internal/shared"
	"golang.org/x/time/rate"
)

const itunesBaseURL = "https://itunes.apple.com"

// ITunesResult is one song entry from the search endpoint.
type ITunesResult struct {
	TrackID        int64  `json:"trackId"`
	TrackName      string `json:"trackName"`
	ArtistName     string `json:"artistName"`
	CollectionName string `json:"collectionName"`
	PreviewURL     string `json:"previewUrl"`
	TrackViewURL   string `json:"trackViewUrl"`
	ArtworkURL100  string `json:"artworkUrl100"`
}

type itunesResponse struct {
	ResultCount int            `json:"resultCount"`
	Results     []ITunesResult `json:"results"`
}

// ITunesCatalog searches the iTunes catalog for song previews.
type ITunesCatalog struct {
	baseURL    string
	country    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// ITunesOpts configures an [ITunesCatalog].
type ITunesOpts struct {
	BaseURL    string
	Country    string
	RateLimit  float64 // requests per second, default 5
	Burst      int     // default 1
	HTTPClient *http.Client
	Logger     *log.Logger
}

// NewITunesCatalog creates a catalog client.
func NewITunesCatalog(opts ITunesOpts) *ITunesCatalog {
	if opts.BaseURL == "" {
		opts.BaseURL = itunesBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	return &ITunesCatalog{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		country:    opts.Country,
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(opts.RateLimit), opts.Burst),
		logger:     shared.WithLogger(opts.Logger, "component", "itunes"),
	}
}

// SearchCatalog implements [Catalog]. Entries without a track name are dropped;
// entries without a preview are kept with an empty PreviewURL.
func (c *ITunesCatalog) SearchCatalog(ctx context.Context, query string, limit int) ([]models.Candidate, error) {
	results, err := c.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, 0, len(results))
	for _, r := range results {
		if r.TrackName == "" {
			continue
		}
		candidates = append(candidates, models.Candidate{
			Title:      r.TrackName,
			Artist:     r.ArtistName,
			PreviewURL: r.PreviewURL,
			Album:      r.CollectionName,
		})
	}
	return candidates, nil
}

// Search runs a song search and returns the raw results.
func (c *ITunesCatalog) Search(ctx context.Context, query string, limit int) ([]ITunesResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, shared.ErrEmptyQuery
	}
	if limit <= 0 {
		limit = 10
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCatalogUnavailable, err)
	}

	params := url.Values{}
	params.Set("term", query)
	params.Set("media", "music")
	params.Set("entity", "song")
	params.Set("limit", strconv.Itoa(limit))
	if c.country != "" {
		params.Set("country", c.country)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", shared.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", shared.ErrCatalogUnavailable, resp.StatusCode)
	}

	var payload itunesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", shared.ErrCatalogUnavailable, err)
	}

	c.logger.Debug("catalog search", "query", query, "limit", limit, "results", payload.ResultCount)
	return payload.Results, nil
}
