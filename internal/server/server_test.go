package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pendergraft/zoppel/internal/auth"
	"github.com/pendergraft/zoppel/internal/config"
	"github.com/pendergraft/zoppel/internal/storage"
)

const receiver = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"

func testConfig(authType string) *config.Config {
	return &config.Config{
		Auth:     config.AuthConfig{Type: authType},
		Security: config.SecurityConfig{FilterEnabled: true, MaxBodySizeMB: 1},
		Metrics:  config.MetricsConfig{Enabled: false},
	}
}

func newStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "zoppel.db"), discard())
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { store.Close() })
	return store
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startServer(t *testing.T, cfg *config.Config, store storage.Store) *Server {
	t.Helper()
	s := New(cfg, config.DevGenesis(config.DefaultChainID), store, discard())
	require.NoError(t, s.Start(context.Background()))
	return s
}

func request(t *testing.T, h http.Handler, method, path string, headers map[string]string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthAndReady(t *testing.T) {
	s := startServer(t, testConfig("none"), newStore(t))

	for _, path := range []string{"/health", "/healthz", "/readyz"} {
		rec := request(t, s.Handler(), http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestReadyBeforeStart(t *testing.T) {
	s := New(testConfig("none"), config.DevGenesis(config.DefaultChainID), newStore(t), discard())

	rec := request(t, s.Handler(), http.MethodGet, "/readyz", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBootstrapDeploysGenesis(t *testing.T) {
	s := startServer(t, testConfig("none"), newStore(t))

	rec := request(t, s.Handler(), http.MethodGet, "/api/v1/zoppel/", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	info := decode(t, rec)
	assert.Equal(t, "ZPL", info["symbol"])
	assert.Equal(t, config.DevDeployer, info["owner"])

	rec = request(t, s.Handler(), http.MethodGet, "/api/v1/artifacts/", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ART", decode(t, rec)["symbol"])

	rec = request(t, s.Handler(), http.MethodGet, "/api/v1/chain/", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	head := decode(t, rec)
	assert.EqualValues(t, 3, head["transactions"])
	assert.Len(t, head["contracts"], 2)
}

func TestTransferSurvivesRestart(t *testing.T) {
	store := newStore(t)
	s := startServer(t, testConfig("none"), store)

	rec := request(t, s.Handler(), http.MethodPost, "/api/v1/zoppel/transfers",
		map[string]string{auth.CallerHeader: config.DevDeployer},
		`{"to":"`+receiver+`","amount":"1000"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	restarted := startServer(t, testConfig("none"), store)
	rec = request(t, restarted.Handler(), http.MethodGet, "/api/v1/zoppel/balances/"+receiver, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1000", decode(t, rec)["balance"])

	rec = request(t, restarted.Handler(), http.MethodGet, "/api/v1/chain/", nil, "")
	assert.EqualValues(t, 4, decode(t, rec)["transactions"])
}

func TestWritesRequireCaller(t *testing.T) {
	s := startServer(t, testConfig("none"), newStore(t))

	rec := request(t, s.Handler(), http.MethodPost, "/api/v1/zoppel/transfers", nil,
		`{"to":"`+receiver+`","amount":"1"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIKeyAuth(t *testing.T) {
	store := newStore(t)
	s := startServer(t, testConfig("api-key"), store)
	body := `{"to":"` + receiver + `","amount":"5"}`

	// The caller header is ignored in api-key mode
	rec := request(t, s.Handler(), http.MethodPost, "/api/v1/zoppel/transfers",
		map[string]string{auth.CallerHeader: config.DevDeployer}, body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	key, err := store.CreateAPIKey(context.Background(), "deployer", config.DevDeployer)
	require.NoError(t, err)

	rec = request(t, s.Handler(), http.MethodPost, "/api/v1/zoppel/transfers",
		map[string]string{"X-API-Key": key}, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = request(t, s.Handler(), http.MethodGet, "/api/v1/whoami", map[string]string{"X-API-Key": key}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	who := decode(t, rec)
	assert.Equal(t, config.DevDeployer, who["address"])
	assert.Equal(t, "deployer", who["keyName"])

	// Reads stay public
	rec = request(t, s.Handler(), http.MethodGet, "/api/v1/accounts/"+receiver, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRejectsNonJSONBody(t *testing.T) {
	s := startServer(t, testConfig("none"), newStore(t))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/zoppel/transfers", strings.NewReader("to=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(auth.CallerHeader, config.DevDeployer)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := startServer(t, testConfig("none"), newStore(t))

	rec := request(t, s.Handler(), http.MethodOptions, "/api/v1/zoppel/transfers", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), auth.CallerHeader)
}

func TestFilterServesRouteTable(t *testing.T) {
	s := startServer(t, testConfig("none"), newStore(t))

	rec := request(t, s.Handler(), http.MethodGet, "/api/v1/artifacts/roles/MINTER_ROLE", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["members"])

	for _, path := range []string{"/wp-admin", "/api/v2/zoppel", "/api/v1/zoppelx"} {
		rec = request(t, s.Handler(), http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}

	rec = request(t, s.Handler(), http.MethodGet, "/api/v1/zoppel/%2e%2e/etc/passwd", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
