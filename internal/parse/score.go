package parse

import "github.com/platewise/menuharvest/internal/menu"

// Per-item signal boosts applied on top of the strategy base confidence.
const (
	descriptionBoost = 0.05
	priceBoost       = 0.05
)

// Finalize deduplicates the winning strategy's items within the page and
// assigns each item its final confidence: the strategy base plus boosts for
// a present description and a numeric price, clamped to [0,1]. Items are
// never mutated after this point.
func Finalize(items []menu.Item, base float64) []menu.Item {
	seen := make(map[string]struct{}, len(items))
	out := make([]menu.Item, 0, len(items))
	for _, item := range items {
		key := menu.ItemKey(item.Name, item.Price)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		conf := base
		if item.Description != "" {
			conf += descriptionBoost
		}
		if item.Price != nil {
			conf += priceBoost
		}
		item.Confidence = clamp01(conf)
		out = append(out, item)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
