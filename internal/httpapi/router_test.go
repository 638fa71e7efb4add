package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habita-engine/internal/config"
	"habita-engine/internal/domain"
	"habita-engine/internal/events"
	"habita-engine/internal/fetch"
	"habita-engine/internal/store"
)

func testDeps(t *testing.T) Deps {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "habita.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db))

	var cfg config.Config
	cfg.App.Port = 8000
	cfg.Sources.Metrocuadrado.Enabled = true
	cfg.Filter.Slack = 0.15
	var cfgVal atomic.Value
	cfgVal.Store(cfg)

	userCfgPath := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, config.SaveAtomic(userCfgPath, cfg))

	return Deps{
		DB:          db,
		Hub:         events.NewHub(),
		CfgVal:      &cfgVal,
		UserCfgPath: userCfgPath,
		LoadCfg:     func() (config.Config, error) { return config.Load(userCfgPath) },
		RunSearch: func(_ context.Context, c domain.Criteria) domain.SearchResult {
			return domain.SearchResult{
				Results: []domain.Listing{{Source: "metrocuadrado", Title: "Apto", URL: "https://e/1"}},
				Total:   1,
			}
		},
		Fetcher: fakeFetcher{},
		Portals: []Portal{{Name: "metrocuadrado", BaseURL: "https://www.metrocuadrado.com"}},
	}
}

type fakeFetcher struct{}

func (fakeFetcher) Get(_ context.Context, _ string, _ url.Values) (*fetch.Response, error) {
	return &fetch.Response{StatusCode: 200, Body: `<html><script id="__NEXT_DATA__">{}</script></html>`}, nil
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := NewRouter(testDeps(t))
	w := doJSON(t, r, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok":true`)
}

func TestSearchEndpoint(t *testing.T) {
	deps := testDeps(t)
	r := NewRouter(deps)

	w := doJSON(t, r, http.MethodPost, "/api/search", domain.Criteria{City: "bogota"})
	require.Equal(t, http.StatusOK, w.Code)

	var res domain.SearchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, "Apto", res.Results[0].Title)
}

func TestSearchRejectsBadJSON(t *testing.T) {
	r := NewRouter(testDeps(t))

	req := httptest.NewRequest(http.MethodPost, "/api/search", bytes.NewBufferString("{broken"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "bad_request")
}

func TestFavoritesCRUD(t *testing.T) {
	r := NewRouter(testDeps(t))

	// empty list serializes as []
	w := doJSON(t, r, http.MethodGet, "/api/favorites", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]\n", w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/api/favorites", domain.Listing{
		Source: "metrocuadrado", Title: "Apto Chapinero", URL: "https://e/1",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, r, http.MethodGet, "/api/favorites", nil)
	var favs []store.Favorite
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &favs))
	require.Len(t, favs, 1)
	assert.Equal(t, "Apto Chapinero", favs[0].Title)

	w = doJSON(t, r, http.MethodDelete, "/api/favorites/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/favorites/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFavoritesCreateValidation(t *testing.T) {
	r := NewRouter(testDeps(t))
	w := doJSON(t, r, http.MethodPost, "/api/favorites", domain.Listing{Source: "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAlertsCreateAndList(t *testing.T) {
	r := NewRouter(testDeps(t))

	w := doJSON(t, r, http.MethodPost, "/api/alerts", map[string]any{
		"email":    "ana@example.com",
		"name":     "Chapinero",
		"criteria": domain.Criteria{City: "bogota", PriceMax: 400000000},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/alerts", nil)
	var alerts []store.Alert
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &alerts))
	require.Len(t, alerts, 1)
	assert.Equal(t, "ana@example.com", alerts[0].Email)

	// stored criteria replays as normalized JSON
	var c domain.Criteria
	require.NoError(t, json.Unmarshal([]byte(alerts[0].Criteria), &c))
	assert.Equal(t, "bogota", c.City)
	assert.Equal(t, int64(400000000), c.PriceMax)
	assert.Equal(t, 30, c.MaxResults)
}

func TestAlertsCreateRequiresEmail(t *testing.T) {
	r := NewRouter(testDeps(t))
	w := doJSON(t, r, http.MethodPost, "/api/alerts", map[string]any{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConfigGetAndPut(t *testing.T) {
	deps := testDeps(t)
	r := NewRouter(deps)

	w := doJSON(t, r, http.MethodGet, "/api/config", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var cur config.Config
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cur))
	assert.Equal(t, 8000, cur.App.Port)

	cur.App.Port = 9000
	w = doJSON(t, r, http.MethodPut, "/api/config", cur)
	require.Equal(t, http.StatusOK, w.Code)

	live := deps.CfgVal.Load().(config.Config)
	assert.Equal(t, 9000, live.App.Port)
}

func TestConfigPutRejectsInvalid(t *testing.T) {
	deps := testDeps(t)
	r := NewRouter(deps)

	var bad config.Config
	bad.App.Port = -5
	w := doJSON(t, r, http.MethodPut, "/api/config", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// live config untouched
	live := deps.CfgVal.Load().(config.Config)
	assert.Equal(t, 8000, live.App.Port)
}

func TestDiagnostics(t *testing.T) {
	r := NewRouter(testDeps(t))
	w := doJSON(t, r, http.MethodGet, "/api/diagnostics", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		DBOK         bool `json:"db_ok"`
		ProxyEnabled bool `json:"proxy_enabled"`
		Portals      []struct {
			Name         string `json:"name"`
			Reachable    bool   `json:"reachable"`
			HasPageState bool   `json:"has_page_state"`
		} `json:"portals"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.DBOK)
	require.Len(t, body.Portals, 1)
	assert.Equal(t, "metrocuadrado", body.Portals[0].Name)
	assert.True(t, body.Portals[0].Reachable)
	assert.True(t, body.Portals[0].HasPageState)
}

func TestMiddlewareRequestID(t *testing.T) {
	r := Chain(NewRouter(testDeps(t)), RequestID)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "given-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "given-id", w.Header().Get("X-Request-ID"))
}

func TestRecoverMiddleware(t *testing.T) {
	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	h := Chain(panicky, Recover)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal_error")
}

func TestCorsPreflight(t *testing.T) {
	h := Chain(NewRouter(testDeps(t)), Cors)

	req := httptest.NewRequest(http.MethodOptions, "/api/search", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, 204, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}
