package harvest

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/platewise/menuharvest/internal/budget"
	"github.com/platewise/menuharvest/internal/menu"
	"github.com/platewise/menuharvest/internal/parse"
	"github.com/platewise/menuharvest/internal/rows"
	"github.com/platewise/menuharvest/internal/venue"
)

// Summary is the user-visible outcome of a harvest run.
type Summary struct {
	RunID  string `json:"run_id"`
	Venues int    `json:"venues"`
	Pages  int    `json:"pages"`
	Menus  int    `json:"menus"`
	Items  int    `json:"items"`
}

// Engine drives the crawl loop across venues and candidate URLs under the
// time budget and the per-host page cap. All harvesting-stage failures are
// absorbed locally: one bad page never aborts the batch.
type Engine struct {
	cfg      Config
	fetcher  Fetcher
	renderer Renderer
	detector Detector
	robots   RobotsPolicy
	snaps    Snapshotter
	sink     rows.Sink
	parsers  *parse.Chain
	logger   *zap.Logger
}

// NewEngine wires the harvest engine from its collaborators. renderer and
// detector may be nil; rendering is then never attempted.
func NewEngine(
	cfg Config,
	fetcher Fetcher,
	renderer Renderer,
	detector Detector,
	robots RobotsPolicy,
	snaps Snapshotter,
	sink rows.Sink,
	parsers *parse.Chain,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		cfg:      cfg,
		fetcher:  fetcher,
		renderer: renderer,
		detector: detector,
		robots:   robots,
		snaps:    snaps,
		sink:     sink,
		parsers:  parsers,
		logger:   logger,
	}
}

// Run harvests the given venues until they are exhausted or the budget
// expires. Partial results are always valid: rows are appended as produced,
// so expiry mid-run simply stops the loop cleanly.
func (e *Engine) Run(ctx context.Context, b budget.Budget, venues []venue.Venue) (Summary, error) {
	summary := Summary{RunID: uuid.NewString()}
	hostPages := make(map[string]int)

	for _, v := range venues {
		if b.Expired() {
			e.logger.Info("Time budget expired; stopping harvest",
				zap.Int("venues_done", summary.Venues))
			break
		}
		if err := ctx.Err(); err != nil {
			e.logger.Info("Harvest canceled", zap.Error(err))
			break
		}
		if strings.TrimSpace(v.Website) == "" {
			continue
		}
		summary.Venues++
		e.harvestVenue(ctx, b, v, hostPages, &summary)
	}

	e.logger.Info("Harvest run finished",
		zap.String("run_id", summary.RunID),
		zap.Int("venues", summary.Venues),
		zap.Int("pages", summary.Pages),
		zap.Int("menus", summary.Menus),
		zap.Int("items", summary.Items),
	)
	return summary, nil
}

// harvestVenue crawls one venue's candidate URLs. Failures are logged and
// skipped; nothing here propagates an error.
func (e *Engine) harvestVenue(ctx context.Context, b budget.Budget, v venue.Venue, hostPages map[string]int, summary *Summary) {
	candidates, err := SiteCandidates(v.Website)
	if err != nil {
		e.logger.Warn("Unusable venue website; skipping venue",
			zap.String("venue", v.Name), zap.String("website", v.Website), zap.Error(err))
		return
	}
	host := hostOf(candidates[0])

	if err := e.sink.AppendRestaurant(v); err != nil {
		e.logger.Error("Failed to persist restaurant row; skipping venue",
			zap.String("venue", v.Name), zap.Error(err))
		return
	}

	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		seen[c] = struct{}{}
	}

	for i := 0; i < len(candidates) && i < e.cfg.MaxCandidates; i++ {
		if b.Expired() {
			return
		}
		if hostPages[host] >= e.cfg.PerHostCap {
			return
		}
		target := candidates[i]

		if !e.robots.Allowed(ctx, target) {
			// Policy skip, not an error.
			TotalRobotsBlocked.Inc()
			continue
		}

		page, err := e.fetch(ctx, target)
		if err != nil {
			TotalFetchErrors.Inc()
			e.logger.Debug("Fetch failed; treating as no content",
				zap.String("url", target), zap.Error(err))
			continue
		}
		hostPages[host]++
		summary.Pages++
		TotalFetches.Inc()

		if i == 0 {
			// The home page seeds additional in-site candidates.
			for _, link := range LinkCandidates(target, page.Body) {
				if _, ok := seen[link]; ok {
					continue
				}
				seen[link] = struct{}{}
				candidates = append(candidates, link)
			}
		}

		e.processPage(ctx, v, target, page, summary)
	}
}

// processPage archives, parses, scores, and persists one fetched page.
func (e *Engine) processPage(ctx context.Context, v venue.Venue, target string, page Page, summary *Summary) {
	snapPath, err := e.snaps.SavePage(ctx, target, page.Body)
	if err != nil {
		e.logger.Warn("Snapshot failed; continuing without archive",
			zap.String("url", target), zap.Error(err))
		snapPath = ""
	}

	items, label, ok := e.parsers.Parse(page.Body)
	if !ok {
		// Soft outcome: no menu content on this page.
		return
	}

	m := menu.Menu{
		ID:              menu.MenuID(v.ID, target),
		RestaurantID:    v.ID,
		URL:             target,
		Source:          label,
		RawSnapshotPath: snapPath,
	}
	for i := range items {
		items[i].MenuID = m.ID
		items[i].ID = menu.ItemID(m.ID, items[i].Name, items[i].Price)
	}

	if err := e.sink.AppendMenu(m); err != nil {
		e.logger.Error("Failed to persist menu row", zap.String("url", target), zap.Error(err))
		return
	}
	if err := e.sink.AppendItems(items); err != nil {
		e.logger.Error("Failed to persist item rows", zap.String("url", target), zap.Error(err))
		return
	}

	ParserWins.WithLabelValues(label).Inc()
	TotalMenus.Inc()
	TotalItems.Add(float64(len(items)))
	summary.Menus++
	summary.Items += len(items)
}

// fetch retrieves one page and optionally escalates to the JS renderer when
// the fast path returns a client-rendered shell.
func (e *Engine) fetch(ctx context.Context, target string) (Page, error) {
	page, err := e.fetcher.Fetch(ctx, target)
	if err != nil {
		return Page{}, err
	}
	if page.StatusCode < 200 || page.StatusCode > 299 {
		return Page{}, fmt.Errorf("fetch %s: status %d", target, page.StatusCode)
	}
	if e.renderer != nil && e.detector != nil && e.detector.NeedsJS(ctx, page) {
		rendered, rerr := e.renderer.Render(ctx, target)
		if rerr != nil {
			e.logger.Debug("Render escalation failed; using fast-path body",
				zap.String("url", target), zap.Error(rerr))
			return page, nil
		}
		return rendered, nil
	}
	return page, nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return strings.ToLower(u.Host)
}
