package harvest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TotalFetches counts successful page fetches.
	TotalFetches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvest_fetches_total",
		Help: "The total number of pages successfully fetched.",
	})
	// TotalFetchErrors counts fetch attempts that failed (timeout, non-2xx, connection error).
	TotalFetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvest_fetch_errors_total",
		Help: "The total number of failed fetch attempts.",
	})
	// TotalRobotsBlocked counts URLs skipped by robots policy.
	TotalRobotsBlocked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvest_robots_blocked_total",
		Help: "The total number of URLs skipped because robots.txt disallows them.",
	})
	// ParserWins counts pages won per parse strategy.
	ParserWins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvest_parser_wins_total",
		Help: "Pages successfully parsed, by winning strategy.",
	}, []string{"strategy"})
	// TotalMenus counts menu records persisted.
	TotalMenus = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvest_menus_total",
		Help: "The total number of menu records persisted.",
	})
	// TotalItems counts menu items persisted.
	TotalItems = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvest_menu_items_total",
		Help: "The total number of menu items persisted.",
	})
)
