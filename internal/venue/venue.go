// Package venue defines the canonical venue record, its content-derived
// identity, and the append-only log that persists discovered venues between
// runs.
package venue

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/platewise/menuharvest/internal/match"
)

// Provenance records where a venue's fields came from.
type Provenance struct {
	DiscoveryID string `json:"discovery_id,omitempty"`
	DirectoryID string `json:"directory_id,omitempty"`
}

// Venue is a physical food business discovered from map data, possibly
// enriched from a business directory. Lat/Lng are required; the remaining
// optional fields stay at their zero value when enrichment is skipped.
type Venue struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Lat         float64    `json:"lat"`
	Lng         float64    `json:"lng"`
	Website     string     `json:"website,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Rating      float64    `json:"rating,omitempty"`
	ReviewCount int        `json:"review_count,omitempty"`
	PriceLevel  int        `json:"price_level,omitempty"`
	Source      Provenance `json:"source"`
}

// ID derives the stable venue identifier from the normalized name and
// coordinates rounded to five decimals (about one meter). Identical
// (name, lat, lng) always yields the identical id across re-runs.
func ID(name string, lat, lng float64) string {
	key := fmt.Sprintf("%s|%.5f|%.5f", match.Normalize(name), lat, lng)
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

// PriceLevelFromTier converts a directory price-tier string such as "$$$"
// into a 1-4 level by counting currency-symbol characters. Returns 0 for an
// empty or unrecognized tier.
func PriceLevelFromTier(tier string) int {
	n := 0
	for _, r := range strings.TrimSpace(tier) {
		switch r {
		case '$', '€', '£', '¥':
			n++
		}
	}
	if n == 0 {
		return 0
	}
	if n > 4 {
		n = 4
	}
	return n
}
