package enrich

import (
	"go.uber.org/zap"

	"github.com/platewise/menuharvest/internal/geo"
	"github.com/platewise/menuharvest/internal/match"
	"github.com/platewise/menuharvest/internal/venue"
)

// DefaultDedupRadiusMeters is the geographic radius inside which two venues
// with matching names are considered the same business.
const DefaultDedupRadiusMeters = 150.0

// IsDuplicate reports whether a and b describe the same venue. Both
// conditions are required: name similarity at or above MatchThreshold AND
// distance within radiusMeters. A name match alone at large distance (a
// chain with two locations) must not merge.
func IsDuplicate(a, b venue.Venue, radiusMeters float64) bool {
	if match.NameSimilarity(a.Name, b.Name) < MatchThreshold {
		return false
	}
	return geo.DistanceMeters(a.Lat, a.Lng, b.Lat, b.Lng) <= radiusMeters
}

// Dedup filters a discovery batch down to venues that are new: not a
// duplicate of an earlier venue in the batch, and not already persisted
// (by id) from a previous run. Order is preserved; the first of a duplicate
// pair wins.
func Dedup(batch []venue.Venue, existingIDs map[string]struct{}, radiusMeters float64, logger *zap.Logger) []venue.Venue {
	kept := make([]venue.Venue, 0, len(batch))
	skipped := 0
	for _, v := range batch {
		if _, seen := existingIDs[v.ID]; seen {
			skipped++
			continue
		}
		dup := false
		for _, k := range kept {
			if IsDuplicate(v, k, radiusMeters) {
				dup = true
				break
			}
		}
		if dup {
			skipped++
			continue
		}
		kept = append(kept, v)
	}
	logger.Info("Venue dedup finished",
		zap.Int("batch", len(batch)),
		zap.Int("kept", len(kept)),
		zap.Int("skipped", skipped),
	)
	return kept
}
