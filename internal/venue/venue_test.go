package venue

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDDeterministic(t *testing.T) {
	a := ID("Luigi's", 40.723, -73.998)
	b := ID("Luigi's", 40.723, -73.998)
	require.Equal(t, a, b)
	require.Len(t, a, 40)

	t.Run("normalization folds punctuation and case", func(t *testing.T) {
		assert.Equal(t, a, ID("luigis", 40.723, -73.998))
	})

	t.Run("coordinates participate in identity", func(t *testing.T) {
		assert.NotEqual(t, a, ID("Luigi's", 40.724, -73.998))
		assert.NotEqual(t, a, ID("Luigi's", 40.723, -73.999))
	})

	t.Run("sub-meter jitter folds to same id", func(t *testing.T) {
		assert.Equal(t, a, ID("Luigi's", 40.723000004, -73.998000004))
	})
}

func TestPriceLevelFromTier(t *testing.T) {
	tests := []struct {
		tier string
		want int
	}{
		{"$", 1},
		{"$$", 2},
		{"$$$", 3},
		{"$$$$", 4},
		{"$$$$$", 4},
		{"€€", 2},
		{"", 0},
		{"cheap", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PriceLevelFromTier(tt.tier), "tier %q", tt.tier)
	}
}

func TestLogAppendAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "venues.jsonl")

	log, err := OpenLog(path)
	require.NoError(t, err)

	v1 := Venue{ID: ID("Luigi's", 40.723, -73.998), Name: "Luigi's", Lat: 40.723, Lng: -73.998}
	v2 := Venue{ID: ID("Taco Sol", 40.731, -73.991), Name: "Taco Sol", Lat: 40.731, Lng: -73.991}
	require.NoError(t, log.Append(v1))
	require.NoError(t, log.Append(v2))
	require.NoError(t, log.Close())

	// Re-open the log, as a resumed run would.
	log, err = OpenLog(path)
	require.NoError(t, err)
	defer log.Close()

	ids, err := log.LoadIDs()
	require.NoError(t, err)
	require.Len(t, ids, 2)
	require.Contains(t, ids, v1.ID)
	require.Contains(t, ids, v2.ID)

	venues, err := log.Load()
	require.NoError(t, err)
	require.Equal(t, []Venue{v1, v2}, venues)
}

func TestLogRejectsMissingID(t *testing.T) {
	log, err := OpenLog(filepath.Join(t.TempDir(), "venues.jsonl"))
	require.NoError(t, err)
	defer log.Close()

	require.Error(t, log.Append(Venue{Name: "No ID"}))
}

func TestLogLoadMissingFile(t *testing.T) {
	log := &Log{path: filepath.Join(t.TempDir(), "absent.jsonl")}
	venues, err := log.Load()
	require.NoError(t, err)
	require.Empty(t, venues)
}
