package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cafedoko/pkg/catalog"
	"cafedoko/pkg/config"
	"cafedoko/pkg/db"
	"cafedoko/pkg/geo"
	"cafedoko/pkg/model"
	"cafedoko/pkg/provider"
	"cafedoko/pkg/store"
	"cafedoko/pkg/tracker"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const areaGeoJSON = `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"name":"Tokyo"},
"geometry":{"type":"Polygon","coordinates":[[[139.56,35.52],[139.92,35.52],[139.92,35.82],[139.56,35.82],[139.56,35.52]]]}}]}`

type testEnv struct {
	mux     *http.ServeMux
	catalog *catalog.Catalog
	store   *store.SQLiteStore
	current *geo.CurrentLocation
	chains  []model.Chain
	cache   *stubCache
	fail    bool
}

type stubCache struct{ entries int }

func (c *stubCache) CacheLen() int { return c.entries }
func (c *stubCache) ClearCache() int {
	n := c.entries
	c.entries = 0
	return n
}
func (c *stubCache) RemoveExpired() int { return 0 }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	d, err := db.Init(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	st := store.NewSQLiteStore(d)

	areaPath := filepath.Join(dir, "area.geojson")
	require.NoError(t, os.WriteFile(areaPath, []byte(areaGeoJSON), 0o644))
	area, err := geo.NewServiceArea(areaPath)
	require.NoError(t, err)

	env := &testEnv{store: st, current: &geo.CurrentLocation{}, cache: &stubCache{entries: 2}}

	doutor := model.Chain{ID: uuid.New(), Name: "Doutor", Price: 250, Distance: 300, Tags: []string{}, OpeningHours: "毎日: 0:00-24:00"}
	doutor.SetCoordinate(35.681, 139.767)
	env.chains = []model.Chain{
		doutor,
		{ID: uuid.New(), Name: "Starbucks", Price: 390, Distance: 100, Tags: []string{"wifi"}},
		{ID: uuid.New(), Name: "Komeda", Price: 540, Distance: 200, Tags: []string{}},
	}

	env.catalog = catalog.New(provider.Func{Label: "test", Fn: func(context.Context) ([]model.Chain, error) {
		if env.fail {
			return nil, &provider.StatusError{Code: 503}
		}
		return env.chains, nil
	}})
	env.catalog.Reload(context.Background())

	settings := config.NewSettings(config.DefaultConfig(), st)
	tokyo := geo.Point{Lat: 35.6812, Lon: 139.7671}
	env.mux = NewMux(Handlers{
		Chains:   NewChainsHandler(env.catalog, st, settings),
		Location: NewLocationHandler(env.current, geo.Fallback{Primary: env.current, Default: &tokyo}, area, settings, env.catalog),
		User:     NewUserHandler(st, st, env.catalog),
		Settings: NewSettingsHandler(settings),
		Stats:    NewStatsHandler(tracker.New(), env.catalog, env.cache),
		Stream:   NewStreamHandler(env.catalog),
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func names(dtos []ChainDTO) []string {
	out := make([]string, len(dtos))
	for i := range dtos {
		out[i] = dtos[i].Name
	}
	return out
}

func TestHealthAndVersion(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/version", "")
	assert.Contains(t, decode[map[string]string](t, rec)["version"], "v")
}

func TestListChains(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"default sort is recommended", "", []string{"Doutor", "Starbucks", "Komeda"}},
		{"nearby", "?sort=nearby", []string{"Starbucks", "Komeda", "Doutor"}},
		{"price high", "?sort=price_high", []string{"Komeda", "Starbucks", "Doutor"}},
		{"search by tag", "?q=WIFI", []string{"Starbucks"}},
		{"open now", "?open_now=true", []string{"Doutor"}},
		{"favorites only, none yet", "?favorites=true", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/chains"+tt.query, "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, names(decode[[]ChainDTO](t, rec)))
		})
	}
}

func TestListChains_StoredSortOption(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPut, "/api/settings", `{"sort_option":"price_low"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/chains", "")
	assert.Equal(t, []string{"Doutor", "Starbucks", "Komeda"}, names(decode[[]ChainDTO](t, rec)))
}

func TestGetChain(t *testing.T) {
	env := newTestEnv(t)
	id := env.chains[0].ID

	rec := env.do(t, http.MethodGet, "/api/chains/"+id.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	dto := decode[ChainDTO](t, rec)
	assert.Equal(t, "Doutor", dto.Name)
	assert.Equal(t, model.SymbolImage("cup.and.saucer"), dto.Image)
	require.NotNil(t, dto.OpenNow)
	assert.True(t, *dto.OpenNow)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/chains/"+uuid.NewString(), "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/chains/not-a-uuid", "").Code)
}

func TestReloadAndState(t *testing.T) {
	env := newTestEnv(t)
	env.fail = true

	rec := env.do(t, http.MethodPost, "/api/chains/reload", "")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[StateResponse](t, rec)
	assert.Equal(t, 3, st.Count)
	assert.NotEmpty(t, st.LastError)
	assert.NotEmpty(t, st.Hint)
	assert.False(t, st.Loading)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/catalog/error", "").Code)
	st = decode[StateResponse](t, env.do(t, http.MethodGet, "/api/catalog/state", ""))
	assert.Empty(t, st.LastError)
	assert.Equal(t, "test", st.Provider)
}

func TestMapChains(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/map/chains", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "Doutor", fc.Features[0].Properties["name"])
}

func TestFavorites(t *testing.T) {
	env := newTestEnv(t)
	id := env.chains[1].ID.String()

	rec := env.do(t, http.MethodPost, "/api/favorites/"+id+"/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[favoriteState](t, rec).Favorite)

	favs := decode[FavoritesResponse](t, env.do(t, http.MethodGet, "/api/favorites", ""))
	require.Len(t, favs.Chains, 1)
	assert.Equal(t, "Starbucks", favs.Chains[0].Name)

	rec = env.do(t, http.MethodGet, "/api/chains?favorites=true", "")
	assert.Equal(t, []string{"Starbucks"}, names(decode[[]ChainDTO](t, rec)))

	rec = env.do(t, http.MethodDelete, "/api/favorites/"+id, "")
	assert.False(t, decode[favoriteState](t, rec).Favorite)

	rec = env.do(t, http.MethodPut, "/api/favorites/"+id, "")
	assert.True(t, decode[favoriteState](t, rec).Favorite)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/favorites", "").Code)
	favs = decode[FavoritesResponse](t, env.do(t, http.MethodGet, "/api/favorites", ""))
	assert.Empty(t, favs.IDs)
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/history", `{"cafe_id":"`+env.chains[2].ID.String()+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	entry := decode[model.HistoryEntry](t, rec)
	assert.Equal(t, "Komeda", entry.CafeName)

	rec = env.do(t, http.MethodPost, "/api/history", `{"cafe_id":"`+uuid.NewString()+`","cafe_name":"Gone Cafe"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/history", `{"cafe_id":"`+uuid.NewString()+`"}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/history", `{"cafe_id":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/history", `{`).Code)

	list := decode[[]model.HistoryEntry](t, env.do(t, http.MethodGet, "/api/history", ""))
	require.Len(t, list, 2)
	assert.Equal(t, "Gone Cafe", list[0].CafeName)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/history/"+list[0].ID.String(), "").Code)
	list = decode[[]model.HistoryEntry](t, env.do(t, http.MethodGet, "/api/history", ""))
	require.Len(t, list, 1)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/history", "").Code)
	list = decode[[]model.HistoryEntry](t, env.do(t, http.MethodGet, "/api/history", ""))
	assert.Empty(t, list)
}

func TestSettings(t *testing.T) {
	env := newTestEnv(t)

	v := decode[config.Values](t, env.do(t, http.MethodGet, "/api/settings", ""))
	assert.Equal(t, config.DefaultValues(), v)

	rec := env.do(t, http.MethodPut, "/api/settings", `{"view_mode":"map","notify_new_cafe":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	v = decode[config.Values](t, rec)
	assert.Equal(t, "map", v.ViewMode)
	assert.Equal(t, "recommended", v.SortOption)
	assert.True(t, v.NotifyNewCafe)

	rec = env.do(t, http.MethodPut, "/api/settings", `{"sort_option":"alphabetical"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, config.DefaultValues(), decode[config.Values](t, rec))
}

func TestLocation(t *testing.T) {
	env := newTestEnv(t)

	loc := decode[LocationResponse](t, env.do(t, http.MethodGet, "/api/location", ""))
	assert.True(t, loc.Known)
	assert.False(t, loc.Reported)
	assert.Equal(t, 35.6812, loc.Lat)

	rec := env.do(t, http.MethodPost, "/api/location", `{"lat":35.69,"lon":139.70}`)
	require.Equal(t, http.StatusOK, rec.Code)
	loc = decode[LocationResponse](t, rec)
	assert.True(t, loc.Reported)
	assert.Equal(t, 35.69, loc.Lat)
	assert.Equal(t, "Tokyo", loc.Area)

	lat, lon, ok := config.NewSettings(config.DefaultConfig(), env.store).LastLocation(context.Background())
	require.True(t, ok)
	assert.Equal(t, 35.69, lat)
	assert.Equal(t, 139.70, lon)

	// Osaka lies outside the area.
	assert.Equal(t, http.StatusUnprocessableEntity, env.do(t, http.MethodPost, "/api/location", `{"lat":34.69,"lon":135.50}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/location", `{"lat":95,"lon":139}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/location", `{"lat":35}`).Code)
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[StatsResponse](t, rec)
	assert.Equal(t, 3, stats.Catalog.Count)
	assert.Positive(t, stats.Diagnostics.Goroutines)
	assert.Equal(t, 2, stats.CacheSize)
}

func TestClearCache(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodDelete, "/api/cache", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[map[string]int](t, rec)["cleared"])
	assert.Zero(t, env.cache.CacheLen())

	rec = env.do(t, http.MethodGet, "/api/stats", "")
	assert.Zero(t, decode[StatsResponse](t, rec).CacheSize)
}

func TestClearCache_NoCache(t *testing.T) {
	h := NewStatsHandler(tracker.New(), catalog.New(nil), nil)
	rec := httptest.NewRecorder()
	h.HandleClearCache(rec, httptest.NewRequest(http.MethodDelete, "/api/cache", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[map[string]int](t, rec)["cleared"])
}

func TestLatestLog(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/log/latest", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `"log"`))
}

func TestCatalogStream(t *testing.T) {
	env := newTestEnv(t)
	svr := httptest.NewServer(env.mux)
	defer svr.Close()

	wsURL := "ws" + strings.TrimPrefix(svr.URL, "http") + "/api/catalog/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first struct {
		State  StateResponse `json:"state"`
		Chains []model.Chain `json:"chains"`
	}
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, 3, first.State.Count)
	assert.Len(t, first.Chains, 3)

	env.catalog.ClearError()

	var next struct {
		State  StateResponse   `json:"state"`
		Chains json.RawMessage `json:"chains"`
	}
	require.NoError(t, conn.ReadJSON(&next))
	assert.Greater(t, next.State.Generation, first.State.Generation)
	// The list did not change, so it is not resent.
	assert.Empty(t, next.Chains)
}
