package loader

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/platewise/menuharvest/internal/menu"
	"github.com/platewise/menuharvest/internal/rows"
	"github.com/platewise/menuharvest/internal/venue"
)

func TestUpsertRestaurantInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewWithPool(mock, zap.NewNop())

	v := venue.Venue{
		ID:          venue.ID("Luigi's", 40.7301, -73.9812),
		Name:        "Luigi's",
		Lat:         40.7301,
		Lng:         -73.9812,
		Website:     "https://luigis.example",
		Rating:      4.5,
		ReviewCount: 120,
		PriceLevel:  2,
		Source:      venue.Provenance{DiscoveryID: "node/42"},
	}

	mock.ExpectExec("INSERT INTO restaurants").
		WithArgs(
			v.ID, v.Name, v.Lat, v.Lng,
			v.Website, nil,
			v.Rating, v.ReviewCount, v.PriceLevel,
			v.Source.DiscoveryID, nil,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = store.UpsertRestaurants(context.Background(), []venue.Venue{v})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertMenuAndItems(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewWithPool(mock, zap.NewNop())

	restaurantID := venue.ID("Luigi's", 40.7301, -73.9812)
	m := menu.Menu{
		ID:              menu.MenuID(restaurantID, "https://luigis.example/menu"),
		RestaurantID:    restaurantID,
		URL:             "https://luigis.example/menu",
		Source:          "jsonld",
		RawSnapshotPath: "file:///tmp/pages/luigis.example/abc.html.gz",
	}
	price := 14.0
	item := menu.Item{
		ID:          menu.ItemID(m.ID, "Margherita Pizza", &price),
		MenuID:      m.ID,
		Name:        "Margherita Pizza",
		Description: "San Marzano tomatoes, fresh mozzarella",
		Price:       &price,
		Tags:        []string{"pizza"},
		Confidence:  1.0,
	}

	mock.ExpectExec("INSERT INTO menus").
		WithArgs(m.ID, m.RestaurantID, m.URL, m.Source, m.RawSnapshotPath).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO menu_items").
		WithArgs(item.ID, item.MenuID, item.Name, item.Description, item.Price, item.Tags, item.Confidence).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.UpsertMenus(context.Background(), []menu.Menu{m}))
	require.NoError(t, store.UpsertItems(context.Background(), []menu.Item{item}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadDirReadsRowsAndUpserts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writer, err := rows.Open(dir)
	require.NoError(t, err)

	v := venue.Venue{ID: venue.ID("Cafe Sol", 34.05, -118.24), Name: "Cafe Sol", Lat: 34.05, Lng: -118.24}
	m := menu.Menu{
		ID:           menu.MenuID(v.ID, "https://cafesol.example/menu"),
		RestaurantID: v.ID,
		URL:          "https://cafesol.example/menu",
		Source:       "heuristic",
	}
	item := menu.Item{
		ID:         menu.ItemID(m.ID, "Cortado", nil),
		MenuID:     m.ID,
		Name:       "Cortado",
		Confidence: 0.4,
	}
	require.NoError(t, writer.AppendRestaurant(v))
	require.NoError(t, writer.AppendMenu(m))
	require.NoError(t, writer.AppendItems([]menu.Item{item}))
	require.NoError(t, writer.Close())

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO restaurants").
		WillReturnResult(pgxmock.NewResult("INSERT", 1)).
		WithArgs(v.ID, v.Name, v.Lat, v.Lng, nil, nil, v.Rating, v.ReviewCount, v.PriceLevel, nil, nil)
	mock.ExpectExec("INSERT INTO menus").
		WillReturnResult(pgxmock.NewResult("INSERT", 1)).
		WithArgs(m.ID, m.RestaurantID, m.URL, m.Source, nil)
	mock.ExpectExec("INSERT INTO menu_items").
		WillReturnResult(pgxmock.NewResult("INSERT", 1)).
		WithArgs(item.ID, item.MenuID, item.Name, nil, item.Price, item.Tags, item.Confidence)

	store := NewWithPool(mock, zap.NewNop())
	counts, err := store.LoadDir(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, Counts{Restaurants: 1, Menus: 1, Items: 1}, counts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadDirEmptyDirectory(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewWithPool(mock, zap.NewNop())
	counts, err := store.LoadDir(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	require.Equal(t, Counts{}, counts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewRequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{}, zap.NewNop())
	require.Error(t, err)
}
