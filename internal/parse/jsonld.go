package parse

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/platewise/menuharvest/internal/menu"
)

// SourceJSONLD labels items extracted from schema.org structured data.
const SourceJSONLD = "jsonld"

const jsonldBaseConfidence = 0.9

// JSONLDParser extracts menu items from schema.org JSON-LD blocks
// (Menu, MenuSection, MenuItem, Product). Machine-readable markup is the
// most reliable strategy, so it carries the highest base confidence.
type JSONLDParser struct{}

// Parse implements Parser.
func (p *JSONLDParser) Parse(body []byte) (Result, error) {
	res := Result{Base: jsonldBaseConfidence, Label: SourceJSONLD}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return res, fmt.Errorf("parse html: %w", err)
	}

	var items []menu.Item
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var node any
		if err := json.Unmarshal([]byte(s.Text()), &node); err != nil {
			// Broken script blocks are common in the wild; skip them.
			return
		}
		collectItems(node, &items)
	})

	res.Items = items
	return res, nil
}

// collectItems walks an arbitrary JSON-LD graph and gathers every node typed
// as a menu item or product. Nested structures (@graph, hasMenuSection,
// hasMenuItem, itemListElement) are covered by the recursive walk.
func collectItems(node any, items *[]menu.Item) {
	switch n := node.(type) {
	case []any:
		for _, child := range n {
			collectItems(child, items)
		}
	case map[string]any:
		if isItemType(n["@type"]) {
			if item, ok := itemFromNode(n); ok {
				*items = append(*items, item)
			}
		}
		for _, child := range n {
			collectItems(child, items)
		}
	}
}

func isItemType(t any) bool {
	switch typ := t.(type) {
	case string:
		return typ == "MenuItem" || typ == "Product"
	case []any:
		for _, one := range typ {
			if s, ok := one.(string); ok && (s == "MenuItem" || s == "Product") {
				return true
			}
		}
	}
	return false
}

func itemFromNode(n map[string]any) (menu.Item, bool) {
	name, _ := n["name"].(string)
	name = cleanText(name)
	if name == "" {
		return menu.Item{}, false
	}
	desc, _ := n["description"].(string)

	item := menu.Item{
		Name:        name,
		Description: cleanText(desc),
		Price:       nodePrice(n),
	}
	return item, true
}

// nodePrice resolves a price from the node itself or its offers.
func nodePrice(n map[string]any) *float64 {
	if p := parsePriceValue(n["price"]); p != nil {
		return p
	}
	switch offers := n["offers"].(type) {
	case map[string]any:
		return parsePriceValue(offers["price"])
	case []any:
		for _, one := range offers {
			if m, ok := one.(map[string]any); ok {
				if p := parsePriceValue(m["price"]); p != nil {
					return p
				}
			}
		}
	}
	return nil
}
