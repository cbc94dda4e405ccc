package api

import (
	"log/slog"
	"net/http"
	"runtime"

	"cafedoko/pkg/catalog"
	"cafedoko/pkg/provider"
	"cafedoko/pkg/tracker"
)

type StatsHandler struct {
	tracker *tracker.Tracker
	catalog *catalog.Catalog
	cache   provider.Cacher
}

// NewStatsHandler creates the stats handler. cache may be nil when the provider does not cache.
func NewStatsHandler(t *tracker.Tracker, cat *catalog.Catalog, cache provider.Cacher) *StatsHandler {
	return &StatsHandler{tracker: t, catalog: cat, cache: cache}
}

type ProviderStatsDTO struct {
	CacheHits     int64 `json:"cache_hits"`
	CacheMisses   int64 `json:"cache_misses"`
	APISuccess    int64 `json:"api_success"`
	APIZeroResult int64 `json:"api_zero"`
	APIFailures   int64 `json:"api_errors"`
	HitRate       int64 `json:"hit_rate"`
	LastStatus    int   `json:"last_status,omitempty"`
}

type DiagnosticsDTO struct {
	MemoryMB   uint64 `json:"memory_mb"`
	Goroutines int    `json:"goroutines"`
}

type StatsResponse struct {
	Diagnostics DiagnosticsDTO              `json:"diagnostics"`
	Catalog     StateResponse               `json:"catalog"`
	Providers   map[string]ProviderStatsDTO `json:"providers"`
	CacheSize   int                         `json:"cache_entries"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	resp := StatsResponse{
		Diagnostics: DiagnosticsDTO{
			MemoryMB:   bToMb(mem.Alloc),
			Goroutines: runtime.NumGoroutine(),
		},
		Catalog:   stateResponse(h.catalog.Snapshot()),
		Providers: make(map[string]ProviderStatsDTO),
	}

	if h.cache != nil {
		resp.CacheSize = h.cache.CacheLen()
	}

	for source, stats := range h.tracker.Snapshot() {
		resp.Providers[source] = ProviderStatsDTO{
			CacheHits:     stats.CacheHits,
			CacheMisses:   stats.CacheMisses,
			APISuccess:    stats.APISuccess,
			APIZeroResult: stats.APIZeroResult,
			APIFailures:   stats.APIFailures,
			HitRate:       int64(stats.HitRate() * 100),
			LastStatus:    stats.LastStatus,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleClearCache drops every cached provider result.
func (h *StatsHandler) HandleClearCache(w http.ResponseWriter, r *http.Request) {
	cleared := 0
	if h.cache != nil {
		cleared = h.cache.ClearCache()
		slog.Info("Provider cache cleared", "entries", cleared)
	}
	writeJSON(w, http.StatusOK, map[string]int{"cleared": cleared})
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
