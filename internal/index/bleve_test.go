package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestIndex(t *testing.T) *BleveIndex {
	t.Helper()
	idx, err := NewBleveIndex(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestIndexAndSearchMods(t *testing.T) {
	idx := newTestIndex(t)

	require.NoError(t, idx.IndexMod(&ModDocument{
		Name:        "worldedit",
		Version:     "7.3.0",
		Description: "In-game world editing with brushes and selections",
		FileName:    "worldedit-7.3.0.jar",
		Enabled:     true,
	}))
	require.NoError(t, idx.IndexMod(&ModDocument{
		Name:        "chunky",
		Version:     "1.4.28",
		Description: "Pre-generates chunks around spawn",
		FileName:    "chunky-1.4.28.jar",
		Enabled:     true,
	}))

	count, err := idx.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	hits, err := idx.SearchMods("world editing", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "worldedit", hits[0].Name)
	assert.Greater(t, hits[0].Score, 0.0)
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	idx := newTestIndex(t)
	_, err := idx.SearchMods("", 10)
	assert.Error(t, err)
}

func TestDeleteMod(t *testing.T) {
	idx := newTestIndex(t)

	require.NoError(t, idx.IndexMod(&ModDocument{
		Name:        "essentials",
		Description: "Kits homes and warps",
		FileName:    "essentials.jar",
	}))
	require.NoError(t, idx.DeleteMod("essentials"))

	count, err := idx.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestIndexModRequiresName(t *testing.T) {
	idx := newTestIndex(t)
	assert.Error(t, idx.IndexMod(&ModDocument{}))
	assert.Error(t, idx.IndexMod(nil))
}
