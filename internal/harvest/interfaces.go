// Package harvest implements the crawl side of the pipeline: the polite
// fetcher, robots gate, menu URL discovery, optional JS rendering, and the
// orchestrating engine that drives venues through fetch, parse, and persist
// under the run's time budget.
package harvest

import "context"

// Page is one fetched document.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Body       []byte
	UsedJS     bool
}

// Fetcher fetches a URL and returns the body plus metadata. Failures are
// per-URL: the engine absorbs them and moves on.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Page, error)
}

// Renderer executes a page with JavaScript enabled and returns the DOM.
type Renderer interface {
	Render(ctx context.Context, rawURL string) (Page, error)
	Close(ctx context.Context) error
}

// Detector decides whether a fetched page needs JS rendering.
type Detector interface {
	NeedsJS(ctx context.Context, page Page) bool
}

// RobotsPolicy answers whether a URL may be fetched at all.
type RobotsPolicy interface {
	Allowed(ctx context.Context, rawURL string) bool
}

// Snapshotter archives the raw bytes of a fetched page.
type Snapshotter interface {
	SavePage(ctx context.Context, pageURL string, body []byte) (string, error)
}
