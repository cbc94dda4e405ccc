package api

import (
	"log/slog"
	"net/http"

	"cafedoko/pkg/catalog"
	"cafedoko/pkg/model"
	"cafedoko/pkg/store"

	"github.com/google/uuid"
)

// UserHandler serves favorites and view history.
type UserHandler struct {
	favorites store.FavoriteStore
	history   store.HistoryStore
	catalog   *catalog.Catalog
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(fav store.FavoriteStore, hist store.HistoryStore, cat *catalog.Catalog) *UserHandler {
	return &UserHandler{favorites: fav, history: hist, catalog: cat}
}

// FavoritesResponse lists favorite ids and the favorites present in the current catalog.
type FavoritesResponse struct {
	IDs    []uuid.UUID   `json:"ids"`
	Chains []model.Chain `json:"chains"`
}

type favoriteState struct {
	ID       uuid.UUID `json:"id"`
	Favorite bool      `json:"favorite"`
}

// HandleListFavorites handles GET /api/favorites.
func (h *UserHandler) HandleListFavorites(w http.ResponseWriter, r *http.Request) {
	ids, err := h.favorites.ListFavorites(r.Context())
	if err != nil {
		slog.Error("Failed to list favorites", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list favorites")
		return
	}
	resp := FavoritesResponse{IDs: ids, Chains: []model.Chain{}}
	for _, id := range ids {
		if c, ok := h.catalog.Chain(id); ok {
			resp.Chains = append(resp.Chains, c)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleAddFavorite handles PUT /api/favorites/{id}.
func (h *UserHandler) HandleAddFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.favorites.AddFavorite(r.Context(), id); err != nil {
		slog.Error("Failed to add favorite", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add favorite")
		return
	}
	writeJSON(w, http.StatusOK, favoriteState{ID: id, Favorite: true})
}

// HandleRemoveFavorite handles DELETE /api/favorites/{id}.
func (h *UserHandler) HandleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.favorites.RemoveFavorite(r.Context(), id); err != nil {
		slog.Error("Failed to remove favorite", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove favorite")
		return
	}
	writeJSON(w, http.StatusOK, favoriteState{ID: id, Favorite: false})
}

// HandleToggleFavorite handles POST /api/favorites/{id}/toggle.
func (h *UserHandler) HandleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	fav, err := h.favorites.ToggleFavorite(r.Context(), id)
	if err != nil {
		slog.Error("Failed to toggle favorite", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to toggle favorite")
		return
	}
	writeJSON(w, http.StatusOK, favoriteState{ID: id, Favorite: fav})
}

// HandleClearFavorites handles DELETE /api/favorites.
func (h *UserHandler) HandleClearFavorites(w http.ResponseWriter, r *http.Request) {
	if err := h.favorites.ClearFavorites(r.Context()); err != nil {
		slog.Error("Failed to clear favorites", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear favorites")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
