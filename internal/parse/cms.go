package parse

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/platewise/menuharvest/internal/menu"
)

// SourceCMS labels items extracted from known website-builder templates.
const SourceCMS = "cms"

const cmsBaseConfidence = 0.65

// cmsPattern describes one website-builder menu layout: a container selector
// per item plus child selectors for its fields.
type cmsPattern struct {
	builder   string
	container string
	name      string
	desc      string
	price     string
}

// cmsPatterns covers the builders most common among restaurant sites.
// Patterns are tried in order; the first one that matches anything wins.
var cmsPatterns = []cmsPattern{
	{
		builder:   "squarespace",
		container: ".menu-item",
		name:      ".menu-item-title",
		desc:      ".menu-item-description",
		price:     ".menu-item-price-top, .menu-item-price-bottom, .menu-item-price",
	},
	{
		builder:   "wordpress-restaurant",
		container: ".menu-list__item",
		name:      ".menu-list__item-title, .item_title",
		desc:      ".menu-list__item-desc, .item_content",
		price:     ".menu-list__item-price, .menu_price",
	},
	{
		builder:   "woocommerce",
		container: "li.product",
		name:      ".woocommerce-loop-product__title, h2",
		desc:      ".product-excerpt",
		price:     ".price .amount, .price",
	},
	{
		builder:   "wix-restaurants",
		container: "[data-hook='menus-item'], .menu-view-item",
		name:      "[data-hook='item-title'], .item-title",
		desc:      "[data-hook='item-description'], .item-description",
		price:     "[data-hook='item-price'], .item-price",
	},
}

// CMSParser pattern-matches known website-builder DOM structures.
type CMSParser struct{}

// Parse implements Parser.
func (p *CMSParser) Parse(body []byte) (Result, error) {
	res := Result{Base: cmsBaseConfidence, Label: SourceCMS}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return res, fmt.Errorf("parse html: %w", err)
	}

	for _, pat := range cmsPatterns {
		items := extractCMS(doc, pat)
		if len(items) > 0 {
			res.Items = items
			return res, nil
		}
	}
	return res, nil
}

func extractCMS(doc *goquery.Document, pat cmsPattern) []menu.Item {
	var items []menu.Item
	doc.Find(pat.container).Each(func(_ int, sel *goquery.Selection) {
		name := cleanText(sel.Find(pat.name).First().Text())
		if name == "" {
			return
		}
		items = append(items, menu.Item{
			Name:        name,
			Description: cleanText(sel.Find(pat.desc).First().Text()),
			Price:       extractPrice(sel.Find(pat.price).First().Text()),
		})
	})
	return items
}
