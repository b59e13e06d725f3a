package cmd

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/platewise/menuharvest/internal/api"
	"github.com/platewise/menuharvest/internal/budget"
	"github.com/platewise/menuharvest/internal/harvest"
	"github.com/platewise/menuharvest/internal/menu"
	"github.com/platewise/menuharvest/internal/parse"
	"github.com/platewise/menuharvest/internal/rows"
	"github.com/platewise/menuharvest/internal/venue"
)

func newHarvestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Fetches and parses menu pages for every venue in the log",
		Long: `Walks the venue log, fetches a bounded set of candidate menu pages per
venue website, parses them for menu items, and appends the structured rows
to the rows directory. The run stops cleanly when the time budget expires;
partial output is valid and the next run appends to it.`,

		RunE: runHarvestCommand,
	}
	cmd.Flags().Duration("budget", 0, "wall-clock budget for the run (overrides config)")
	return cmd
}

func runHarvestCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	v := appInstance.GetViper()
	logger := appInstance.GetLogger()

	hcfg, err := harvest.LoadConfig(v)
	if err != nil {
		return fmt.Errorf("load harvest config: %w", err)
	}

	venues, err := loadVenues(v.GetString("venues.log"))
	if err != nil {
		return err
	}
	if len(venues) == 0 {
		logger.Info("Venue log is empty; run discover first")
		return nil
	}

	sink, err := rows.Open(v.GetString("rows.dir"))
	if err != nil {
		return fmt.Errorf("open rows dir: %w", err)
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil {
			logger.Warn("Failed to close rows writer", zap.Error(cerr))
		}
	}()
	counting := &countingSink{inner: sink}

	engine, renderer, err := buildHarvestEngine(hcfg, appInstance, counting, logger)
	if err != nil {
		return err
	}
	if renderer != nil {
		defer func() {
			if cerr := renderer.Close(cmd.Context()); cerr != nil {
				logger.Warn("Failed to close renderer", zap.Error(cerr))
			}
		}()
	}

	d, _ := cmd.Flags().GetDuration("budget")
	if d <= 0 {
		d = v.GetDuration("harvest.budget")
	}
	b := budget.New(d)
	ctx, cancel := b.Context(cmd.Context())
	defer cancel()

	started := time.Now().UTC()
	if v.GetBool("admin.enabled") {
		admin := api.NewServer(v.GetString("admin.addr"), func() api.RunStatus {
			return api.RunStatus{
				Venues:    int(counting.restaurants.Load()),
				Menus:     int(counting.menus.Load()),
				Items:     int(counting.items.Load()),
				Running:   true,
				StartedAt: started.Format(time.RFC3339),
			}
		}, logger.Named("admin"))
		admin.Start()
		defer func() {
			shutdownCtx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer scancel()
			if serr := admin.Shutdown(shutdownCtx); serr != nil {
				logger.Warn("Admin server shutdown error", zap.Error(serr))
			}
		}()
	}

	summary, err := engine.Run(ctx, b, venues)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run harvest: %w", err)
	}

	if _, perr := appInstance.GetPublisher().Publish(cmd.Context(), summary); perr != nil {
		logger.Warn("Failed to publish run summary", zap.Error(perr))
	}

	logger.Info("Harvest command finished",
		zap.String("run_id", summary.RunID),
		zap.Int("venues", summary.Venues),
		zap.Int("pages", summary.Pages),
		zap.Int("menus", summary.Menus),
		zap.Int("items", summary.Items),
		zap.Duration("elapsed", time.Since(started)),
	)
	return nil
}

func loadVenues(path string) ([]venue.Venue, error) {
	log, err := venue.OpenLog(path)
	if err != nil {
		return nil, fmt.Errorf("open venue log: %w", err)
	}
	defer log.Close()

	venues, err := log.Load()
	if err != nil {
		return nil, fmt.Errorf("load venue log: %w", err)
	}
	return venues, nil
}

func buildHarvestEngine(cfg harvest.Config, appInstance App, sink rows.Sink, logger *zap.Logger) (*harvest.Engine, harvest.Renderer, error) {
	fetcher, err := harvest.NewCollyFetcher(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("init fetcher: %w", err)
	}

	renderer, err := buildRenderer(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	detector := harvest.NewHeuristicDetector(cfg.DetectorMinHTMLBytes, cfg.DetectorKeywords)
	robots := harvest.NewRobotsEnforcer(cfg.RespectRobots, cfg.UserAgent, logger)
	parsers := parse.NewChain(logger)

	engine := harvest.NewEngine(
		cfg,
		fetcher,
		renderer,
		detector,
		robots,
		appInstance.GetSnapshots(),
		sink,
		parsers,
		logger,
	)
	return engine, renderer, nil
}

func buildRenderer(cfg harvest.Config, logger *zap.Logger) (harvest.Renderer, error) {
	if !cfg.RenderEnabled || cfg.RenderMaxConcurrency <= 0 {
		return nil, nil
	}
	renderer, err := harvest.NewChromedpRenderer(cfg, logger)
	switch {
	case err == nil:
		return renderer, nil
	case errors.Is(err, harvest.ErrRendererDisabled):
		logger.Warn("Renderer disabled despite feature flag; falling back to fast path")
		return nil, nil
	default:
		return nil, fmt.Errorf("init renderer: %w", err)
	}
}

// countingSink decorates a rows.Sink with atomic counters for the admin
// run-status endpoint.
type countingSink struct {
	inner       rows.Sink
	restaurants atomic.Int64
	menus       atomic.Int64
	items       atomic.Int64
}

func (c *countingSink) AppendRestaurant(v venue.Venue) error {
	if err := c.inner.AppendRestaurant(v); err != nil {
		return err
	}
	c.restaurants.Add(1)
	return nil
}

func (c *countingSink) AppendMenu(m menu.Menu) error {
	if err := c.inner.AppendMenu(m); err != nil {
		return err
	}
	c.menus.Add(1)
	return nil
}

func (c *countingSink) AppendItems(items []menu.Item) error {
	if err := c.inner.AppendItems(items); err != nil {
		return err
	}
	c.items.Add(int64(len(items)))
	return nil
}
