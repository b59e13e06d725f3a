package parse

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"github.com/platewise/menuharvest/internal/menu"
)

// SourceHeuristic labels items recovered by the last-resort text scan.
const SourceHeuristic = "heuristic"

const heuristicBaseConfidence = 0.4

// linePriceRe anchors a currency-marked price at the end of a text line,
// the shape of a classic menu row: "Margherita Pizza ... $14".
var linePriceRe = regexp.MustCompile(`^(.*?)[\s.·…]*([$€£]\s?\d{1,4}(?:[.,]\d{1,2})?|\d{1,4}[.,]\d{2}\s?[$€£])\s*$`)

// HeuristicParser scans visible page text for price-like tokens adjacent to
// name-like tokens. Lowest reliability; invoked only when the structured and
// template strategies found nothing.
type HeuristicParser struct{}

// Parse implements Parser.
func (p *HeuristicParser) Parse(body []byte) (Result, error) {
	res := Result{Base: heuristicBaseConfidence, Label: SourceHeuristic}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return res, fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	var items []menu.Item
	for _, line := range strings.Split(doc.Find("body").Text(), "\n") {
		line = cleanText(line)
		if line == "" {
			continue
		}
		m := linePriceRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.TrimRight(cleanText(m[1]), " .·…-")
		if !nameLike(name) {
			continue
		}
		items = append(items, menu.Item{
			Name:  name,
			Price: extractPrice(m[2]),
		})
	}
	res.Items = items
	return res, nil
}

// nameLike filters out lines whose leading text cannot plausibly be a dish
// name: too short, too long, or not mostly letters.
func nameLike(s string) bool {
	if len(s) < 3 || len(s) > 80 {
		return false
	}
	letters := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters*2 >= len(s)
}
