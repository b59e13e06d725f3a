// Package discovery queries a bounding-area POI service for food venues.
// A fully failed query is fatal: no partial venue list is produced
// downstream, so errors from this package abort the run.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/platewise/menuharvest/internal/venue"
)

// foodAmenities are the POI tags that identify food venues.
const foodAmenities = "restaurant|cafe|fast_food|bar|pub"

// BoundingBox is the fixed geographic area to harvest, in WGS84 degrees.
type BoundingBox struct {
	South float64
	West  float64
	North float64
	East  float64
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("%f,%f,%f,%f", b.South, b.West, b.North, b.East)
}

// Config holds the settings for the POI client.
type Config struct {
	Endpoint  string
	UserAgent string
	Timeout   time.Duration
	QPS       float64
}

// Client issues bounding-box queries against an Overpass-compatible POI
// endpoint. Requests are rate limited and carry the harvester user agent.
type Client struct {
	endpoint  string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
	logger    *zap.Logger
}

// NewClient builds a POI client from config.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	qps := cfg.QPS
	if qps <= 0 {
		qps = 0.5
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint:  cfg.Endpoint,
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Limit(qps), 1),
		logger:    logger,
	}
}

// Result carries the discovered venues plus the raw response body, which the
// caller archives for replay.
type Result struct {
	Venues []venue.Venue
	Raw    []byte
}

type element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"center,omitempty"`
	Tags map[string]string `json:"tags"`
}

type response struct {
	Elements []element `json:"elements"`
}

// FoodVenues queries the bounding box for food-venue elements. Elements
// lacking a name or a resolvable coordinate (point, or centroid of an area)
// are dropped.
func (c *Client) FoodVenues(ctx context.Context, box BoundingBox) (Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Result{}, fmt.Errorf("discovery rate limit: %w", err)
	}

	query := buildQuery(box)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
		strings.NewReader(url.Values{"data": {query}}.Encode()))
	if err != nil {
		return Result{}, fmt.Errorf("new discovery request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("discovery query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("discovery query returned status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return Result{}, fmt.Errorf("read discovery response: %w", err)
	}

	var parsed response
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Result{}, fmt.Errorf("decode discovery response: %w", err)
	}

	venues := make([]venue.Venue, 0, len(parsed.Elements))
	dropped := 0
	for _, el := range parsed.Elements {
		v, ok := venueFromElement(el)
		if !ok {
			dropped++
			continue
		}
		venues = append(venues, v)
	}
	c.logger.Info("Discovery query finished",
		zap.Int("elements", len(parsed.Elements)),
		zap.Int("venues", len(venues)),
		zap.Int("dropped", dropped),
	)
	return Result{Venues: venues, Raw: raw}, nil
}

func buildQuery(box BoundingBox) string {
	bbox := box.String()
	return fmt.Sprintf(`[out:json][timeout:60];
(
  node["amenity"~"%[1]s"](%[2]s);
  way["amenity"~"%[1]s"](%[2]s);
);
out center;`, foodAmenities, bbox)
}

func venueFromElement(el element) (venue.Venue, bool) {
	name := strings.TrimSpace(el.Tags["name"])
	if name == "" {
		return venue.Venue{}, false
	}
	lat, lng := el.Lat, el.Lon
	if lat == 0 && lng == 0 {
		if el.Center == nil {
			return venue.Venue{}, false
		}
		lat, lng = el.Center.Lat, el.Center.Lon
	}
	if lat == 0 && lng == 0 {
		return venue.Venue{}, false
	}

	website := firstTag(el.Tags, "website", "contact:website", "url")
	phone := firstTag(el.Tags, "phone", "contact:phone")

	return venue.Venue{
		ID:      venue.ID(name, lat, lng),
		Name:    name,
		Lat:     lat,
		Lng:     lng,
		Website: website,
		Phone:   phone,
		Source: venue.Provenance{
			DiscoveryID: fmt.Sprintf("%s/%d", el.Type, el.ID),
		},
	}, true
}

func firstTag(tags map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(tags[k]); v != "" {
			return v
		}
	}
	return ""
}
