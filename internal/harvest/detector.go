package harvest

import (
	"bytes"
	"context"
	"strings"
)

// HeuristicDetector flags pages that are likely client-rendered shells:
// tiny HTML bodies or documents carrying SPA framework markers. Such pages
// are escalated to the JS renderer when one is configured.
type HeuristicDetector struct {
	minHTMLBytes int
	keywords     [][]byte
}

// NewHeuristicDetector constructs a Detector with the configured thresholds.
func NewHeuristicDetector(minBytes int, keywords []string) *HeuristicDetector {
	lowerKeywords := make([][]byte, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		lowerKeywords = append(lowerKeywords, bytes.ToLower([]byte(kw)))
	}
	return &HeuristicDetector{
		minHTMLBytes: minBytes,
		keywords:     lowerKeywords,
	}
}

// NeedsJS inspects the page for signals that JS rendering is required.
func (d *HeuristicDetector) NeedsJS(_ context.Context, page Page) bool {
	if d == nil {
		return false
	}
	if d.minHTMLBytes > 0 && len(page.Body) < d.minHTMLBytes {
		return true
	}
	return d.containsKeywords(page.Body)
}

func (d *HeuristicDetector) containsKeywords(body []byte) bool {
	if len(body) == 0 || len(d.keywords) == 0 {
		return false
	}
	lowerBody := bytes.ToLower(body)
	for _, kw := range d.keywords {
		if bytes.Contains(lowerBody, kw) {
			return true
		}
	}
	return false
}
