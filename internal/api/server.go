package api

import (
	"log/slog"
	"net/http"
	"time"

	"cafedoko/pkg/version"
)

// Handlers groups the endpoint handlers mounted by NewServer.
type Handlers struct {
	Chains   *ChainsHandler
	Location *LocationHandler
	User     *UserHandler
	Settings *SettingsHandler
	Stats    *StatsHandler
	Stream   *StreamHandler
}

// NewServer creates and configures the HTTP server.
func NewServer(addr string, h Handlers) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      NewMux(h),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // websocket streams are long-lived
		IdleTimeout:  60 * time.Second,
	}
}

// NewMux registers every route.
func NewMux(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	// 1. Health and version
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/version", handleVersion)
	mux.HandleFunc("GET /api/log/latest", handleLatestLog)

	// 2. Stats
	mux.Handle("GET /api/stats", h.Stats)
	mux.HandleFunc("DELETE /api/cache", h.Stats.HandleClearCache)

	// 3. Catalog
	mux.HandleFunc("GET /api/chains", h.Chains.HandleList)
	mux.HandleFunc("GET /api/chains/{id}", h.Chains.HandleGet)
	mux.HandleFunc("POST /api/chains/reload", h.Chains.HandleReload)
	mux.HandleFunc("GET /api/catalog/state", h.Chains.HandleState)
	mux.HandleFunc("DELETE /api/catalog/error", h.Chains.HandleClearError)
	mux.HandleFunc("GET /api/map/chains", h.Chains.HandleMap)
	if h.Stream != nil {
		mux.Handle("GET /api/catalog/stream", h.Stream)
	}

	// 4. Location
	mux.HandleFunc("GET /api/location", h.Location.HandleGet)
	mux.HandleFunc("POST /api/location", h.Location.HandleUpdate)

	// 5. Favorites
	mux.HandleFunc("GET /api/favorites", h.User.HandleListFavorites)
	mux.HandleFunc("DELETE /api/favorites", h.User.HandleClearFavorites)
	mux.HandleFunc("PUT /api/favorites/{id}", h.User.HandleAddFavorite)
	mux.HandleFunc("DELETE /api/favorites/{id}", h.User.HandleRemoveFavorite)
	mux.HandleFunc("POST /api/favorites/{id}/toggle", h.User.HandleToggleFavorite)

	// 6. History
	mux.HandleFunc("GET /api/history", h.User.HandleListHistory)
	mux.HandleFunc("POST /api/history", h.User.HandleAddHistory)
	mux.HandleFunc("DELETE /api/history", h.User.HandleClearHistory)
	mux.HandleFunc("DELETE /api/history/{id}", h.User.HandleRemoveHistory)

	// 7. Settings
	mux.HandleFunc("GET /api/settings", h.Settings.HandleGet)
	mux.HandleFunc("PUT /api/settings", h.Settings.HandleUpdate)
	mux.HandleFunc("DELETE /api/settings", h.Settings.HandleReset)

	return mux
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": version.Version})
}
