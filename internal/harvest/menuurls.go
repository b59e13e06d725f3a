package harvest

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// menuPaths are the in-site paths most likely to hold a menu, tried after
// the home page. Heuristic only; parsing validates content.
var menuPaths = []string{
	"menu", "menus", "food", "our-menu", "dinner-menu",
	"lunch-menu", "eat", "dinner", "lunch", "food-menu",
}

// menuKeywords match anchor text or hrefs pointing at a menu page.
var menuKeywords = []string{"menu", "food", "eat", "dine", "dinner", "lunch", "brunch", "carte"}

// SiteCandidates returns the ordered, deduplicated candidate-URL list for a
// venue website: the home page first, then the likely menu-path variants.
func SiteCandidates(site string) ([]string, error) {
	root, err := normalizeSite(site)
	if err != nil {
		return nil, err
	}
	out := []string{root.String()}
	seen := map[string]struct{}{out[0]: {}}
	for _, p := range menuPaths {
		u := *root
		u.Path = "/" + p
		s := u.String()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out, nil
}

// LinkCandidates extracts same-host links from a fetched page whose anchor
// text or href looks menu-like. False positives are acceptable.
func LinkCandidates(base string, body []byte) []string {
	root, err := normalizeSite(base)
	if err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var out []string
	seen := map[string]struct{}{}
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if !menuLike(sel.Text()) && !menuLike(href) {
			return
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		resolved := root.ResolveReference(ref)
		if !strings.EqualFold(resolved.Host, root.Host) {
			return
		}
		resolved.Fragment = ""
		s := resolved.String()
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	})
	return out
}

func menuLike(s string) bool {
	s = strings.ToLower(s)
	for _, kw := range menuKeywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// normalizeSite parses a venue website value, defaulting to https when the
// scheme is missing, and strips path/query so candidates resolve from the
// site root.
func normalizeSite(site string) (*url.URL, error) {
	site = strings.TrimSpace(site)
	if site == "" {
		return nil, fmt.Errorf("empty website")
	}
	if !strings.Contains(site, "://") {
		site = "https://" + site
	}
	u, err := url.Parse(site)
	if err != nil {
		return nil, fmt.Errorf("parse website %q: %w", site, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("website %q has no host", site)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
