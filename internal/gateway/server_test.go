package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/craftpanel/craftpanel-go/internal/config"
	"github.com/craftpanel/craftpanel-go/internal/gameproc"
	"github.com/craftpanel/craftpanel-go/internal/index"
	"github.com/craftpanel/craftpanel-go/internal/mods"
	"github.com/craftpanel/craftpanel-go/internal/storage"
	"github.com/craftpanel/craftpanel-go/internal/token"
	"github.com/craftpanel/craftpanel-go/internal/versions"
)

type testEnv struct {
	server *Server
	http   *httptest.Server
	issuer *token.Issuer
	db     *storage.BoltDB
	buffer *gameproc.ConsoleBuffer
	root   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	logger := zap.NewNop()

	db, err := storage.NewBoltDB(root, logger.Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	idx, err := index.NewBleveIndex(root, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	modMgr, err := mods.NewManager(&config.ModsConfig{
		Dir:         filepath.Join(root, "mods"),
		DisabledDir: filepath.Join(root, "mods-disabled"),
	}, db, idx, logger)
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.APIKey = "test-key"
	require.NoError(t, cfg.Validate())

	issuer := token.NewIssuer([]byte("test-secret"), time.Minute)
	buffer := gameproc.NewConsoleBuffer(100)
	game := gameproc.NewSupervisor(cfg.Game, buffer, logger, nil)
	checker := versions.New(logger, "1.20.4", "http://unused", time.Hour, db)

	srv := NewServer(Deps{
		Config:  cfg,
		Logger:  logger,
		Issuer:  issuer,
		Game:    game,
		Buffer:  buffer,
		Mods:    modMgr,
		Checker: checker,
		DB:      db,
	})

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &testEnv{
		server: srv,
		http:   ts,
		issuer: issuer,
		db:     db,
		buffer: buffer,
		root:   root,
	}
}

func (e *testEnv) get(t *testing.T, path, apiKey string) (*http.Response, apiResponse) {
	t.Helper()
	return e.request(t, http.MethodGet, path, apiKey)
}

func (e *testEnv) request(t *testing.T, method, path, apiKey string) (*http.Response, apiResponse) {
	t.Helper()
	req, err := http.NewRequest(method, e.http.URL+path, nil)
	require.NoError(t, err)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope apiResponse
	_ = json.NewDecoder(resp.Body).Decode(&envelope)
	return resp, envelope
}

func (e *testEnv) wsURL(query string) string {
	return "ws" + strings.TrimPrefix(e.http.URL, "http") + "/ws/console?" + query
}

func (e *testEnv) mintToken(t *testing.T) string {
	t.Helper()
	tok, err := e.issuer.Mint("admin")
	require.NoError(t, err)
	return tok.Token
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	resp, err := http.Get(env.http.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPIKeyAuth(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.get(t, "/api/v1/status", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.get(t, "/api/v1/status", "wrong-key")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, envelope := env.get(t, "/api/v1/status", "test-key")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, envelope.Success)

	// Query-param fallback for clients that cannot set headers.
	resp2, err := http.Get(env.http.URL + "/api/v1/status?apikey=test-key")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}

func TestIssueToken(t *testing.T) {
	env := newTestEnv(t)

	resp, envelope := env.request(t, http.MethodPost, "/api/v1/console/token?subject=alice", "test-key")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, envelope.Success)

	data, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var tok token.ConsoleToken
	require.NoError(t, json.Unmarshal(data, &tok))
	require.NotEmpty(t, tok.Token)

	claims, err := env.issuer.Verify(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
}

// mintScoped signs a token with an arbitrary scope, bypassing the issuer's
// fixed console scope.
func mintScoped(t *testing.T, secret, scope string) string {
	t.Helper()
	claims := &token.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Scope: scope,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func readCloseCode(t *testing.T, conn *websocket.Conn) int {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	var ce *websocket.CloseError
	require.ErrorAs(t, err, &ce)
	return ce.Code
}

func TestConsoleWSRejectsInvalidToken(t *testing.T) {
	env := newTestEnv(t)

	conn, _, err := websocket.DefaultDialer.Dial(env.wsURL("token=garbage"), nil)
	require.NoError(t, err, "upgrade succeeds; rejection is a close frame")
	defer conn.Close()

	assert.Equal(t, 4001, readCloseCode(t, conn))
}

func TestConsoleWSRejectsWrongScope(t *testing.T) {
	env := newTestEnv(t)

	scoped := mintScoped(t, "test-secret", "metrics")
	conn, _, err := websocket.DefaultDialer.Dial(env.wsURL("token="+scoped), nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, 4003, readCloseCode(t, conn))
}

func TestConsoleWSHistoryReplayAndLiveBroadcast(t *testing.T) {
	env := newTestEnv(t)
	env.buffer.Append("[12:00:01] Server started")
	env.buffer.Append("[12:00:02] Done (3.2s)")
	env.buffer.Append("[12:00:03] Player joined")

	conn, _, err := websocket.DefaultDialer.Dial(env.wsURL("token="+env.mintToken(t)+"&history_lines=2"), nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, first, err := conn.ReadMessage()
	require.NoError(t, err)
	_, second, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "[12:00:02] Done (3.2s)", string(first), "only the last 2 lines replayed")
	assert.Equal(t, "[12:00:03] Player joined", string(second))

	require.Eventually(t, func() bool {
		return env.server.Hub().Count() == 1
	}, 2*time.Second, 5*time.Millisecond)

	env.server.Hub().Broadcast("[12:00:04] live line")
	_, live, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "[12:00:04] live line", string(live))
}

func TestConsoleWSZeroHistoryLines(t *testing.T) {
	env := newTestEnv(t)
	env.buffer.Append("[12:00:01] Server started")
	env.buffer.Append("[12:00:02] Done (3.2s)")

	conn, _, err := websocket.DefaultDialer.Dial(env.wsURL("token="+env.mintToken(t)+"&history_lines=0"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return env.server.Hub().Count() == 1
	}, 2*time.Second, 5*time.Millisecond)

	// No replay: the first frame the subscriber sees is the live broadcast.
	env.server.Hub().Broadcast("[12:00:03] live line")
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "[12:00:03] live line", string(msg))
}

func TestConsoleWSCommandIsAudited(t *testing.T) {
	env := newTestEnv(t)

	conn, _, err := websocket.DefaultDialer.Dial(env.wsURL("token="+env.mintToken(t)), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return env.server.Hub().Count() == 1
	}, 2*time.Second, 5*time.Millisecond)

	// Dispatch to the stopped game process fails, but the audit record is
	// written regardless.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"command","content":"/say hello"}`)))

	require.Eventually(t, func() bool {
		records, err := env.db.RecentCommands(10)
		return err == nil && len(records) == 1
	}, 2*time.Second, 10*time.Millisecond)

	records, err := env.db.RecentCommands(10)
	require.NoError(t, err)
	assert.Equal(t, "/say hello", records[0].Content)
	assert.Equal(t, "admin", records[0].Subject)
	assert.Equal(t, "websocket", records[0].Source)
}

func TestConsoleWSIgnoresMalformedFrames(t *testing.T) {
	env := newTestEnv(t)

	conn, _, err := websocket.DefaultDialer.Dial(env.wsURL("token="+env.mintToken(t)), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"chat","content":"hi"}`)))

	time.Sleep(100 * time.Millisecond)
	records, err := env.db.RecentCommands(10)
	require.NoError(t, err)
	assert.Empty(t, records, "non-command frames are ignored")
}

func TestModsEndpoints(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(env.root, "mods", "worldedit.jar"), []byte("jar"), 0644))

	// The manager syncs lazily in this test; hit it directly the way serve
	// does at startup.
	require.NoError(t, env.server.mods.Sync())

	resp, envelope := env.get(t, "/api/v1/mods", "test-key")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, envelope.Success)

	resp, _ = env.request(t, http.MethodPost, "/api/v1/mods/worldedit/disable", "test-key")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.FileExists(t, filepath.Join(env.root, "mods-disabled", "worldedit.jar"))

	resp, _ = env.request(t, http.MethodPost, "/api/v1/mods/ghost/enable", "test-key")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.get(t, "/api/v1/mods/search?q=worldedit", "test-key")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.get(t, "/api/v1/mods/search", "test-key")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVersionsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp, envelope := env.get(t, "/api/v1/versions", "test-key")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, envelope.Success)

	data, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var info versions.VersionInfo
	require.NoError(t, json.Unmarshal(data, &info))
	assert.Equal(t, "1.20.4", info.CurrentVersion)
}
