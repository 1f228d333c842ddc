package cliclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakePanel(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "test-key", nil)
}

func TestClientSendsAPIKey(t *testing.T) {
	var gotKey string
	client := newFakePanel(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"listen_addr": ":8080"},
		})
	})

	info, err := client.Status(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, ":8080", info.ListenAddr)
}

func TestClientAPIError(t *testing.T) {
	client := newFakePanel(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "invalid API key",
		})
	})

	_, err := client.Status(t.Context())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "invalid API key")
}

func TestListMods(t *testing.T) {
	client := newFakePanel(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/mods", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"mods": []map[string]interface{}{
					{"name": "worldedit", "file_name": "worldedit.jar", "enabled": true},
				},
				"count": 1,
			},
		})
	})

	mods, err := client.ListMods(t.Context())
	require.NoError(t, err)
	require.Len(t, mods, 1)
	assert.Equal(t, "worldedit", mods[0].Name)
	assert.True(t, mods[0].Enabled)
}

func TestSetModEnabledPaths(t *testing.T) {
	var paths []string
	client := newFakePanel(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	})

	require.NoError(t, client.SetModEnabled(t.Context(), "worldedit", true))
	require.NoError(t, client.SetModEnabled(t.Context(), "worldedit", false))
	assert.Equal(t, []string{
		"/api/v1/mods/worldedit/enable",
		"/api/v1/mods/worldedit/disable",
	}, paths)
}

func TestGameAction(t *testing.T) {
	var path, method string
	client := newFakePanel(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		method = r.Method
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	})

	require.NoError(t, client.GameAction(t.Context(), "restart"))
	assert.Equal(t, "/api/v1/game/restart", path)
	assert.Equal(t, http.MethodPost, method)
}
