package enrich

import (
	"context"

	"go.uber.org/zap"

	"github.com/platewise/menuharvest/internal/match"
	"github.com/platewise/menuharvest/internal/venue"
)

// MatchThreshold is the minimum token-set name similarity (0-100) for both
// directory matching and venue deduplication.
const MatchThreshold = 85

// Enrich merges directory metadata into each venue whose directory lookup
// produced a candidate with name similarity at or above MatchThreshold.
// A nil directory skips the stage entirely. A failed lookup skips only that
// venue; the loop continues.
func Enrich(ctx context.Context, dir Directory, venues []venue.Venue, logger *zap.Logger) []venue.Venue {
	if dir == nil {
		logger.Info("Directory enrichment not configured; skipping")
		return venues
	}

	enriched := 0
	out := make([]venue.Venue, len(venues))
	for i, v := range venues {
		out[i] = v
		if err := ctx.Err(); err != nil {
			logger.Warn("Enrichment cut short", zap.Error(err))
			copy(out[i:], venues[i:])
			break
		}

		candidates, err := dir.Search(ctx, v.Name, v.Lat, v.Lng)
		if err != nil {
			logger.Warn("Directory lookup failed; venue left unenriched",
				zap.String("venue", v.Name), zap.Error(err))
			continue
		}
		best, score := bestCandidate(v.Name, candidates)
		if score < MatchThreshold {
			continue
		}

		out[i].Rating = best.Rating
		out[i].ReviewCount = best.ReviewCount
		out[i].PriceLevel = venue.PriceLevelFromTier(best.PriceTier)
		out[i].Source.DirectoryID = best.ID
		enriched++
	}
	logger.Info("Enrichment finished", zap.Int("venues", len(venues)), zap.Int("enriched", enriched))
	return out
}

func bestCandidate(name string, candidates []Candidate) (Candidate, int) {
	var best Candidate
	bestScore := -1
	for _, c := range candidates {
		if s := match.NameSimilarity(name, c.Name); s > bestScore {
			best, bestScore = c, s
		}
	}
	return best, bestScore
}
