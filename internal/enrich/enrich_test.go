package enrich

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/platewise/menuharvest/internal/venue"
)

type fakeDirectory struct {
	candidates map[string][]Candidate
	err        error
}

func (f *fakeDirectory) Search(_ context.Context, name string, _, _ float64) ([]Candidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates[name], nil
}

func testVenue(name string, lat, lng float64) venue.Venue {
	return venue.Venue{ID: venue.ID(name, lat, lng), Name: name, Lat: lat, Lng: lng}
}

func TestEnrichMergesDirectoryMetadata(t *testing.T) {
	dir := &fakeDirectory{candidates: map[string][]Candidate{
		"Luigi's": {
			{ID: "biz-lowscore", Name: "Thai Garden", Rating: 4.9},
			{ID: "biz-luigis", Name: "Luigis Pizza", Rating: 4.5, ReviewCount: 321, PriceTier: "$$"},
		},
	}}

	out := Enrich(context.Background(), dir, []venue.Venue{testVenue("Luigi's", 40.723, -73.998)}, zap.NewNop())
	require.Len(t, out, 1)
	require.Equal(t, 4.5, out[0].Rating)
	require.Equal(t, 321, out[0].ReviewCount)
	require.Equal(t, 2, out[0].PriceLevel)
	require.Equal(t, "biz-luigis", out[0].Source.DirectoryID)
}

func TestEnrichBelowThresholdLeavesVenueUnset(t *testing.T) {
	dir := &fakeDirectory{candidates: map[string][]Candidate{
		"Luigi's": {{ID: "biz-1", Name: "Blue Bottle Coffee", Rating: 4.8, PriceTier: "$$$"}},
	}}

	out := Enrich(context.Background(), dir, []venue.Venue{testVenue("Luigi's", 40.723, -73.998)}, zap.NewNop())
	require.Zero(t, out[0].Rating)
	require.Zero(t, out[0].PriceLevel)
	require.Empty(t, out[0].Source.DirectoryID)
}

func TestEnrichNilDirectoryPassesThrough(t *testing.T) {
	in := []venue.Venue{testVenue("Luigi's", 40.723, -73.998)}
	out := Enrich(context.Background(), nil, in, zap.NewNop())
	require.Equal(t, in, out)
}

func TestEnrichLookupFailureSkipsVenueOnly(t *testing.T) {
	dir := &fakeDirectory{err: errors.New("directory down")}
	in := []venue.Venue{
		testVenue("Luigi's", 40.723, -73.998),
		testVenue("Taco Sol", 40.731, -73.991),
	}
	out := Enrich(context.Background(), dir, in, zap.NewNop())
	require.Len(t, out, 2)
	require.Equal(t, in, out)
}

func TestIsDuplicate(t *testing.T) {
	luigis := testVenue("Luigi's Pizza", 40.7230, -73.9980)

	t.Run("similar name within radius merges", func(t *testing.T) {
		near := testVenue("Luigis Pizza", 40.7234, -73.9982)
		require.True(t, IsDuplicate(luigis, near, DefaultDedupRadiusMeters))
	})

	t.Run("name match alone at large distance must not merge", func(t *testing.T) {
		far := testVenue("Luigi's Pizza", 40.8230, -73.9980)
		require.False(t, IsDuplicate(luigis, far, DefaultDedupRadiusMeters))
	})

	t.Run("proximity alone must not merge", func(t *testing.T) {
		neighbor := testVenue("Blue Bottle Coffee", 40.7231, -73.9981)
		require.False(t, IsDuplicate(luigis, neighbor, DefaultDedupRadiusMeters))
	})
}

func TestDedup(t *testing.T) {
	a := testVenue("Luigi's Pizza", 40.7230, -73.9980)
	dupOfA := testVenue("Luigis Pizza", 40.7233, -73.9981)
	b := testVenue("Taco Sol", 40.7310, -73.9910)

	t.Run("within batch", func(t *testing.T) {
		kept := Dedup([]venue.Venue{a, dupOfA, b}, nil, DefaultDedupRadiusMeters, zap.NewNop())
		require.Len(t, kept, 2)
		require.Equal(t, a.ID, kept[0].ID)
		require.Equal(t, b.ID, kept[1].ID)
	})

	t.Run("against persisted ids is idempotent", func(t *testing.T) {
		existing := map[string]struct{}{a.ID: {}, b.ID: {}}
		kept := Dedup([]venue.Venue{a, b}, existing, DefaultDedupRadiusMeters, zap.NewNop())
		require.Empty(t, kept)
	})
}

func TestHTTPDirectorySearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.Equal(t, "Luigi's", r.URL.Query().Get("term"))
		w.Write([]byte(`{"businesses":[{"id":"biz-1","name":"Luigis Pizza","rating":4.5,"review_count":321,"price":"$$"}]}`))
	}))
	defer srv.Close()

	dir := NewHTTPDirectory(DirectoryConfig{Endpoint: srv.URL, APIKey: "test-key", UserAgent: "menuharvest-test/1.0"})
	require.NotNil(t, dir)

	candidates, err := dir.Search(context.Background(), "Luigi's", 40.723, -73.998)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, "biz-1", candidates[0].ID)
	require.Equal(t, "$$", candidates[0].PriceTier)
}

func TestNewHTTPDirectoryWithoutEndpoint(t *testing.T) {
	require.Nil(t, NewHTTPDirectory(DirectoryConfig{}))
}
