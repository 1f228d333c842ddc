package versions

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/craftpanel/craftpanel-go/internal/storage"
)

func TestManifestClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"project_id":"paper","project_name":"Paper","versions":["1.20.4","1.21","1.21.1"]}`))
	}))
	defer srv.Close()

	client := NewManifestClient(srv.URL, zap.NewNop())
	manifest, err := client.Fetch(t.Context())
	require.NoError(t, err)

	assert.Equal(t, "paper", manifest.Project)
	assert.Equal(t, "1.21.1", manifest.Latest, "newest first after reversal")
	assert.Equal(t, []string{"1.21.1", "1.21", "1.20.4"}, manifest.Versions)
}

func TestManifestClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewManifestClient(srv.URL, zap.NewNop()).Fetch(t.Context())
	assert.Error(t, err)
}

func TestCheckerDetectsUpdate(t *testing.T) {
	c := New(zap.NewNop(), "1.20.4", "http://unused", time.Hour, nil)
	c.checkFunc = func(context.Context) (*Manifest, error) {
		return &Manifest{
			Project:  "paper",
			Versions: []string{"1.21.1", "1.20.4"},
			Latest:   "1.21.1",
		}, nil
	}

	c.Check(t.Context())

	info := c.GetVersionInfo()
	assert.True(t, info.UpdateAvailable)
	assert.Equal(t, "1.21.1", info.LatestVersion)
	assert.Empty(t, info.CheckError)
	require.NotNil(t, info.CheckedAt)
}

func TestCheckerAlreadyLatest(t *testing.T) {
	c := New(zap.NewNop(), "1.21.1", "http://unused", time.Hour, nil)
	c.checkFunc = func(context.Context) (*Manifest, error) {
		return &Manifest{Latest: "1.21.1", Versions: []string{"1.21.1"}}, nil
	}

	c.Check(t.Context())
	assert.False(t, c.GetVersionInfo().UpdateAvailable)
}

func TestCheckerPreservesStateOnError(t *testing.T) {
	c := New(zap.NewNop(), "1.20.4", "http://unused", time.Hour, nil)
	c.checkFunc = func(context.Context) (*Manifest, error) {
		return &Manifest{Latest: "1.21.1", Versions: []string{"1.21.1"}}, nil
	}
	c.Check(t.Context())

	c.checkFunc = func(context.Context) (*Manifest, error) {
		return nil, errors.New("upstream down")
	}
	c.Check(t.Context())

	info := c.GetVersionInfo()
	assert.Equal(t, "1.21.1", info.LatestVersion, "last known release kept")
	assert.Equal(t, "upstream down", info.CheckError)
}

func TestCheckerSeedsFromPersistedManifest(t *testing.T) {
	db, err := storage.NewBoltDB(t.TempDir(), zap.NewNop().Sugar())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.SaveVersionManifest(&storage.VersionManifest{
		Project:   "paper",
		Versions:  []string{"1.21.1"},
		Latest:    "1.21.1",
		FetchedAt: time.Now(),
	}))

	c := New(zap.NewNop(), "1.20.4", "http://unused", time.Hour, db)
	info := c.GetVersionInfo()
	assert.Equal(t, "1.21.1", info.LatestVersion)
	assert.True(t, info.UpdateAvailable)
}

func TestCompareVersions(t *testing.T) {
	assert.True(t, compareVersions("1.20.4", "1.21.1"))
	assert.True(t, compareVersions("1.20", "1.21"), "two-part versions padded")
	assert.False(t, compareVersions("1.21.1", "1.21.1"))
	assert.False(t, compareVersions("1.21.1", "1.20.4"))
	assert.False(t, compareVersions("dev", "1.21.1"), "unparseable never updates")
	assert.False(t, compareVersions("1.21.1", ""))
}
