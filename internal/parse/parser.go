// Package parse implements the three-tier menu page parsers. Strategies run
// in strict priority order: structured data, then CMS templates, then
// generic heuristics. The first strategy yielding a non-empty item list
// wins; lower-priority strategies are never attempted.
package parse

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/platewise/menuharvest/internal/menu"
)

// Result is the raw output of a single parse strategy, before scoring.
type Result struct {
	Items []menu.Item
	Base  float64
	Label string
}

// Parser extracts menu items from a fetched page body.
type Parser interface {
	Parse(body []byte) (Result, error)
}

// Chain runs the parsers in priority order and finalizes the winner's items.
type Chain struct {
	parsers []Parser
	logger  *zap.Logger
}

// NewChain builds the standard three-tier chain.
func NewChain(logger *zap.Logger) *Chain {
	return &Chain{
		parsers: []Parser{
			&JSONLDParser{},
			&CMSParser{},
			&HeuristicParser{},
		},
		logger: logger,
	}
}

// Parse returns the scored, deduplicated items from the first strategy that
// produced any, along with its source label. ok is false when all three
// strategies come up empty; the page then produces no Menu record, which is
// not an error.
func (c *Chain) Parse(body []byte) ([]menu.Item, string, bool) {
	for _, p := range c.parsers {
		res, err := p.Parse(body)
		if err != nil {
			c.logger.Debug("Parser failed; trying next strategy",
				zap.String("strategy", res.Label), zap.Error(err))
			continue
		}
		if len(res.Items) == 0 {
			continue
		}
		return Finalize(res.Items, res.Base), res.Label, true
	}
	return nil, "", false
}

// priceRe matches a currency-marked price ($12, $ 12.50, 12,50 €) or, with
// FindStringSubmatch group 3, a bare decimal amount.
var priceRe = regexp.MustCompile(`[$€£]\s?(\d{1,4}(?:[.,]\d{1,2})?)|(\d{1,4}[.,]\d{2})\s?[$€£]|^(\d{1,4}(?:[.,]\d{1,2})?)$`)

// extractPrice pulls the first currency-marked price from free text.
func extractPrice(text string) *float64 {
	m := priceRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return nil
	}
	for _, g := range m[1:] {
		if g == "" {
			continue
		}
		if p, err := strconv.ParseFloat(strings.Replace(g, ",", ".", 1), 64); err == nil {
			return &p
		}
	}
	return nil
}

// parsePriceValue converts a structured-data price value (number or string,
// with or without a currency marker) into a float.
func parsePriceValue(v any) *float64 {
	switch val := v.(type) {
	case float64:
		return &val
	case string:
		return extractPrice(val)
	default:
		return nil
	}
}

// cleanText collapses runs of whitespace down to single spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
