package mods

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/craftpanel/craftpanel-go/internal/config"
	"github.com/craftpanel/craftpanel-go/internal/index"
	"github.com/craftpanel/craftpanel-go/internal/storage"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	root := t.TempDir()

	db, err := storage.NewBoltDB(root, zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	idx, err := index.NewBleveIndex(root, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	cfg := &config.ModsConfig{
		Dir:         filepath.Join(root, "mods"),
		DisabledDir: filepath.Join(root, "mods-disabled"),
	}
	m, err := NewManager(cfg, db, idx, zap.NewNop())
	require.NoError(t, err)
	return m, root
}

func writeJar(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("jar-bytes-"+name), 0644))
}

func TestSyncDiscoversMods(t *testing.T) {
	m, root := newTestManager(t)
	writeJar(t, filepath.Join(root, "mods"), "worldedit.jar")
	writeJar(t, filepath.Join(root, "mods-disabled"), "chunky.jar")
	// Non-jar files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(root, "mods", "readme.txt"), []byte("x"), 0644))

	require.NoError(t, m.Sync())

	mods, err := m.List()
	require.NoError(t, err)
	require.Len(t, mods, 2)

	byName := map[string]bool{}
	for _, mod := range mods {
		byName[mod.Name] = mod.Enabled
		assert.NotEmpty(t, mod.SHA256)
		assert.NotZero(t, mod.SizeBytes)
	}
	assert.True(t, byName["worldedit"])
	assert.False(t, byName["chunky"])
}

func TestSyncDropsRemovedMods(t *testing.T) {
	m, root := newTestManager(t)
	writeJar(t, filepath.Join(root, "mods"), "worldedit.jar")
	require.NoError(t, m.Sync())

	require.NoError(t, os.Remove(filepath.Join(root, "mods", "worldedit.jar")))
	require.NoError(t, m.Sync())

	mods, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, mods)
}

func TestDisableAndEnableMoveFiles(t *testing.T) {
	m, root := newTestManager(t)
	writeJar(t, filepath.Join(root, "mods"), "worldedit.jar")
	require.NoError(t, m.Sync())

	require.NoError(t, m.Disable("worldedit"))
	assert.NoFileExists(t, filepath.Join(root, "mods", "worldedit.jar"))
	assert.FileExists(t, filepath.Join(root, "mods-disabled", "worldedit.jar"))

	record, err := m.db.GetMod("worldedit")
	require.NoError(t, err)
	assert.False(t, record.Enabled)

	// Disabling again is a no-op, not an error.
	require.NoError(t, m.Disable("worldedit"))

	require.NoError(t, m.Enable("worldedit"))
	assert.FileExists(t, filepath.Join(root, "mods", "worldedit.jar"))
}

func TestEnableUnknownMod(t *testing.T) {
	m, _ := newTestManager(t)
	assert.Error(t, m.Enable("ghost"))
}

func TestSearchFindsMods(t *testing.T) {
	m, root := newTestManager(t)
	writeJar(t, filepath.Join(root, "mods"), "worldedit.jar")
	require.NoError(t, m.Sync())

	hits, err := m.Search("worldedit", 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "worldedit", hits[0].Name)
}
