package harvest

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/platewise/menuharvest/internal/budget"
	"github.com/platewise/menuharvest/internal/menu"
	"github.com/platewise/menuharvest/internal/parse"
	"github.com/platewise/menuharvest/internal/venue"
)

// MockFetcher is a mock implementation of the Fetcher interface.
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	args := m.Called(ctx, rawURL)
	return args.Get(0).(Page), args.Error(1)
}

// MockRobotsPolicy is a mock implementation of the RobotsPolicy interface.
type MockRobotsPolicy struct {
	mock.Mock
}

func (m *MockRobotsPolicy) Allowed(ctx context.Context, rawURL string) bool {
	args := m.Called(ctx, rawURL)
	return args.Bool(0)
}

// recordingSink captures persisted rows for assertions.
type recordingSink struct {
	restaurants []venue.Venue
	menus       []menu.Menu
	items       []menu.Item
}

func (s *recordingSink) AppendRestaurant(v venue.Venue) error { s.restaurants = append(s.restaurants, v); return nil }
func (s *recordingSink) AppendMenu(m menu.Menu) error         { s.menus = append(s.menus, m); return nil }
func (s *recordingSink) AppendItems(items []menu.Item) error  { s.items = append(s.items, items...); return nil }

// fakeSnapshots returns a stable snapshot path without touching disk.
type fakeSnapshots struct{}

func (fakeSnapshots) SavePage(_ context.Context, pageURL string, _ []byte) (string, error) {
	return "file:///snapshots/" + pageURL, nil
}

const jsonldMenuPage = `<!DOCTYPE html><html><head>
<script type="application/ld+json">
{"@type":"Menu","hasMenuItem":[{"@type":"MenuItem","name":"Margherita Pizza","offers":{"@type":"Offer","price":"14.00"}}]}
</script>
</head><body>Luigi's</body></html>`

const plainPage = `<!DOCTYPE html><html><body><h1>Welcome</h1><p>No prices here.</p></body></html>`

func testConfig() Config {
	return Config{
		UserAgent:      "menuharvest-test/1.0",
		RequestTimeout: 5 * time.Second,
		PerHostCap:     2,
		MaxCandidates:  20,
		MaxPageBytes:   1 << 20,
	}
}

func okPage(url, body string) Page {
	return Page{URL: url, FinalURL: url, StatusCode: http.StatusOK, Body: []byte(body)}
}

func allowAllRobots() *MockRobotsPolicy {
	robots := new(MockRobotsPolicy)
	robots.On("Allowed", mock.Anything, mock.Anything).Return(true)
	return robots
}

func newTestEngine(cfg Config, fetcher Fetcher, robots RobotsPolicy, sink *recordingSink) *Engine {
	return NewEngine(cfg, fetcher, nil, nil, robots, fakeSnapshots{}, sink, parse.NewChain(zap.NewNop()), zap.NewNop())
}

func TestEngineLuigisEndToEnd(t *testing.T) {
	luigis := venue.Venue{
		ID:      venue.ID("Luigi's", 40.723, -73.998),
		Name:    "Luigi's",
		Lat:     40.723,
		Lng:     -73.998,
		Website: "luigis.test",
	}

	fetcher := new(MockFetcher)
	fetcher.On("Fetch", mock.Anything, mock.Anything).Return(okPage("https://luigis.test", jsonldMenuPage), nil)

	sink := &recordingSink{}
	cfg := testConfig()
	cfg.PerHostCap = 1
	engine := newTestEngine(cfg, fetcher, allowAllRobots(), sink)

	summary, err := engine.Run(context.Background(), budget.New(time.Minute), []venue.Venue{luigis})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Venues)
	require.Equal(t, 1, summary.Pages)
	require.Equal(t, 1, summary.Menus)
	require.Equal(t, 1, summary.Items)
	require.NotEmpty(t, summary.RunID)

	require.Len(t, sink.restaurants, 1)
	require.Equal(t, luigis.ID, sink.restaurants[0].ID)

	require.Len(t, sink.menus, 1)
	m := sink.menus[0]
	require.Equal(t, "jsonld", m.Source)
	require.Equal(t, luigis.ID, m.RestaurantID)
	require.NotEmpty(t, m.RawSnapshotPath)

	require.Len(t, sink.items, 1)
	item := sink.items[0]
	require.Equal(t, "Margherita Pizza", item.Name)
	require.Equal(t, m.ID, item.MenuID)
	require.NotEmpty(t, item.ID)
	require.NotNil(t, item.Price)
	require.Equal(t, 14.0, *item.Price)
	require.GreaterOrEqual(t, item.Confidence, 0.8)
}

func TestEnginePerHostCap(t *testing.T) {
	v := venue.Venue{ID: "v1", Name: "Capped", Lat: 1, Lng: 2, Website: "capped.test"}

	fetcher := new(MockFetcher)
	fetcher.On("Fetch", mock.Anything, mock.Anything).Return(okPage("https://capped.test", plainPage), nil)

	sink := &recordingSink{}
	engine := newTestEngine(testConfig(), fetcher, allowAllRobots(), sink)

	summary, err := engine.Run(context.Background(), budget.New(time.Minute), []venue.Venue{v})
	require.NoError(t, err)

	// Many candidate URLs on one host, cap=2: at most 2 fetches.
	require.Len(t, fetcher.Calls, 2)
	require.Equal(t, 2, summary.Pages)
	require.Empty(t, sink.menus)
}

func TestEngineExpiredBudgetFetchesNothing(t *testing.T) {
	v := venue.Venue{ID: "v1", Name: "Expired", Lat: 1, Lng: 2, Website: "expired.test"}

	fetcher := new(MockFetcher)
	sink := &recordingSink{}
	engine := newTestEngine(testConfig(), fetcher, allowAllRobots(), sink)

	summary, err := engine.Run(context.Background(), budget.At(time.Now().Add(-time.Second)), []venue.Venue{v})
	require.NoError(t, err)
	require.Zero(t, summary.Pages)
	require.Empty(t, fetcher.Calls)
	require.Empty(t, sink.restaurants)
}

func TestEngineRobotsDisallowSkipsSilently(t *testing.T) {
	v := venue.Venue{ID: "v1", Name: "Blocked", Lat: 1, Lng: 2, Website: "blocked.test"}

	fetcher := new(MockFetcher)
	robots := new(MockRobotsPolicy)
	robots.On("Allowed", mock.Anything, mock.Anything).Return(false)

	sink := &recordingSink{}
	engine := newTestEngine(testConfig(), fetcher, robots, sink)

	summary, err := engine.Run(context.Background(), budget.New(time.Minute), []venue.Venue{v})
	require.NoError(t, err)
	require.Zero(t, summary.Pages)
	require.Empty(t, fetcher.Calls)
}

func TestEngineFetchFailuresAreIsolated(t *testing.T) {
	v := venue.Venue{ID: "v1", Name: "Flaky", Lat: 1, Lng: 2, Website: "flaky.test"}

	fetcher := new(MockFetcher)
	fetcher.On("Fetch", mock.Anything, "https://flaky.test").Return(Page{}, errors.New("connection refused"))
	fetcher.On("Fetch", mock.Anything, "https://flaky.test/menu").Return(okPage("https://flaky.test/menu", jsonldMenuPage), nil)
	fetcher.On("Fetch", mock.Anything, mock.Anything).Return(okPage("https://flaky.test/x", plainPage), nil)

	sink := &recordingSink{}
	engine := newTestEngine(testConfig(), fetcher, allowAllRobots(), sink)

	summary, err := engine.Run(context.Background(), budget.New(time.Minute), []venue.Venue{v})
	require.NoError(t, err)
	require.Equal(t, 2, summary.Pages)
	require.Equal(t, 1, summary.Menus)
	require.Len(t, sink.menus, 1)
	require.Equal(t, "https://flaky.test/menu", sink.menus[0].URL)
}

func TestEngineNon2xxIsNoContent(t *testing.T) {
	v := venue.Venue{ID: "v1", Name: "Gone", Lat: 1, Lng: 2, Website: "gone.test"}

	fetcher := new(MockFetcher)
	fetcher.On("Fetch", mock.Anything, mock.Anything).Return(Page{StatusCode: http.StatusNotFound}, nil)

	sink := &recordingSink{}
	engine := newTestEngine(testConfig(), fetcher, allowAllRobots(), sink)

	summary, err := engine.Run(context.Background(), budget.New(time.Minute), []venue.Venue{v})
	require.NoError(t, err)
	require.Zero(t, summary.Pages)
	require.Empty(t, sink.menus)
}

func TestEngineSkipsVenuesWithoutWebsite(t *testing.T) {
	fetcher := new(MockFetcher)
	sink := &recordingSink{}
	engine := newTestEngine(testConfig(), fetcher, allowAllRobots(), sink)

	summary, err := engine.Run(context.Background(), budget.New(time.Minute), []venue.Venue{
		{ID: "v1", Name: "No Site", Lat: 1, Lng: 2},
	})
	require.NoError(t, err)
	require.Zero(t, summary.Venues)
	require.Empty(t, fetcher.Calls)
}

func TestEngineFollowsHomePageMenuLinks(t *testing.T) {
	home := `<html><body><a href="/carte-du-jour">See our menu</a></body></html>`
	v := venue.Venue{ID: "v1", Name: "Linked", Lat: 1, Lng: 2, Website: "linked.test"}

	fetcher := new(MockFetcher)
	fetcher.On("Fetch", mock.Anything, "https://linked.test").Return(okPage("https://linked.test", home), nil)
	fetcher.On("Fetch", mock.Anything, mock.Anything).Return(Page{}, errors.New("not found"))

	sink := &recordingSink{}
	cfg := testConfig()
	cfg.MaxCandidates = 50
	engine := newTestEngine(cfg, fetcher, allowAllRobots(), sink)

	_, err := engine.Run(context.Background(), budget.New(time.Minute), []venue.Venue{v})
	require.NoError(t, err)

	var sawLink bool
	for _, call := range fetcher.Calls {
		if call.Arguments.String(1) == "https://linked.test/carte-du-jour" {
			sawLink = true
		}
	}
	require.True(t, sawLink, "engine should fetch menu-like links discovered on the home page")
}
