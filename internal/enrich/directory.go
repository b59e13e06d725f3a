// Package enrich cross-references discovered venues against a business
// directory and deduplicates near-identical venues. Enrichment is an
// optional stage: with no directory configured the venues pass through
// unchanged and downstream fields simply remain unset.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// Candidate is one business returned by a directory search.
type Candidate struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
	PriceTier   string  `json:"price"`
}

// Directory looks up businesses by approximate location and name.
type Directory interface {
	Search(ctx context.Context, name string, lat, lng float64) ([]Candidate, error)
}

// DirectoryConfig holds the settings for the HTTP directory client.
type DirectoryConfig struct {
	Endpoint  string
	APIKey    string
	UserAgent string
	Timeout   time.Duration
	QPS       float64
}

// HTTPDirectory implements Directory against a Yelp-style search endpoint.
type HTTPDirectory struct {
	endpoint  string
	apiKey    string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
}

// NewHTTPDirectory builds a directory client, or nil when no endpoint is
// configured so the enrichment stage degrades to a pass-through.
func NewHTTPDirectory(cfg DirectoryConfig) *HTTPDirectory {
	if cfg.Endpoint == "" {
		return nil
	}
	qps := cfg.QPS
	if qps <= 0 {
		qps = 2
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPDirectory{
		endpoint:  cfg.Endpoint,
		apiKey:    cfg.APIKey,
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Limit(qps), 1),
	}
}

type searchResponse struct {
	Businesses []struct {
		ID          string  `json:"id"`
		Name        string  `json:"name"`
		Rating      float64 `json:"rating"`
		ReviewCount int     `json:"review_count"`
		Price       string  `json:"price"`
	} `json:"businesses"`
}

// Search queries the directory for businesses near (lat, lng) matching name.
func (d *HTTPDirectory) Search(ctx context.Context, name string, lat, lng float64) ([]Candidate, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("directory rate limit: %w", err)
	}

	q := url.Values{}
	q.Set("term", name)
	q.Set("latitude", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("longitude", strconv.FormatFloat(lng, 'f', 6, 64))
	q.Set("limit", "5")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("new directory request: %w", err)
	}
	if d.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+d.apiKey)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("directory search returned status %d", resp.StatusCode)
	}
	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode directory response: %w", err)
	}

	candidates := make([]Candidate, 0, len(parsed.Businesses))
	for _, b := range parsed.Businesses {
		candidates = append(candidates, Candidate{
			ID:          b.ID,
			Name:        b.Name,
			Rating:      b.Rating,
			ReviewCount: b.ReviewCount,
			PriceTier:   b.Price,
		})
	}
	return candidates, nil
}
