package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"cafedoko/pkg/catalog"
	"cafedoko/pkg/config"
	"cafedoko/pkg/geo"
	"cafedoko/pkg/hours"
	"cafedoko/pkg/model"
	"cafedoko/pkg/store"

	"github.com/google/uuid"
)

// ChainsHandler exposes the catalog.
type ChainsHandler struct {
	catalog   *catalog.Catalog
	favorites store.FavoriteStore
	settings  *config.Settings
	now       func() time.Time
}

// NewChainsHandler creates a new ChainsHandler.
func NewChainsHandler(cat *catalog.Catalog, fav store.FavoriteStore, settings *config.Settings) *ChainsHandler {
	return &ChainsHandler{catalog: cat, favorites: fav, settings: settings, now: time.Now}
}

// ChainDTO is a chain with its presentation extras.
type ChainDTO struct {
	model.Chain
	Image    model.ImageDescriptor `json:"image"`
	Favorite bool                  `json:"favorite"`
	OpenNow  *bool                 `json:"open_now,omitempty"`
}

// StateResponse is the catalog state without the chain list.
type StateResponse struct {
	Count      int       `json:"count"`
	Loading    bool      `json:"loading"`
	LastError  string    `json:"last_error,omitempty"`
	Hint       string    `json:"hint,omitempty"`
	Provider   string    `json:"provider"`
	UpdatedAt  time.Time `json:"updated_at,omitzero"`
	Generation uint64    `json:"generation"`
}

func stateResponse(s catalog.State) StateResponse {
	return StateResponse{
		Count:      len(s.Chains),
		Loading:    s.Loading,
		LastError:  s.LastError,
		Hint:       s.Hint,
		Provider:   s.Provider,
		UpdatedAt:  s.UpdatedAt,
		Generation: s.Generation,
	}
}

// HandleList handles GET /api/chains.
// Query: sort (defaults to the stored sort option), q, open_now, favorites.
func (h *ChainsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	sortOpt := q.Get("sort")
	if sortOpt == "" {
		sortOpt = h.settings.SortOption(ctx)
	}
	openOnly, _ := strconv.ParseBool(q.Get("open_now"))
	favOnly, _ := strconv.ParseBool(q.Get("favorites"))

	favs, err := h.favoriteSet(ctx)
	if err != nil {
		slog.Error("Failed to list favorites", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load favorites")
		return
	}

	chains := catalog.SortChains(catalog.Filter(h.catalog.Snapshot().Chains, q.Get("q")), sortOpt)
	now := h.now()
	out := make([]ChainDTO, 0, len(chains))
	for i := range chains {
		dto := h.toDTO(&chains[i], favs, now)
		if openOnly && (dto.OpenNow == nil || !*dto.OpenNow) {
			continue
		}
		if favOnly && !dto.Favorite {
			continue
		}
		out = append(out, dto)
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /api/chains/{id}.
func (h *ChainsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, found := h.catalog.Chain(id)
	if !found {
		writeError(w, http.StatusNotFound, "chain not found")
		return
	}
	favs, err := h.favoriteSet(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load favorites")
		return
	}
	writeJSON(w, http.StatusOK, h.toDTO(&c, favs, h.now()))
}

// HandleReload handles POST /api/chains/reload. It blocks until the reload finishes and
// answers 409 when one is already in flight.
func (h *ChainsHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	// The fetch is not tied to the client connection.
	if !h.catalog.Reload(context.WithoutCancel(r.Context())) {
		writeError(w, http.StatusConflict, "reload already in progress")
		return
	}
	writeJSON(w, http.StatusOK, stateResponse(h.catalog.Snapshot()))
}

// HandleState handles GET /api/catalog/state.
func (h *ChainsHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stateResponse(h.catalog.Snapshot()))
}

// HandleClearError handles DELETE /api/catalog/error.
func (h *ChainsHandler) HandleClearError(w http.ResponseWriter, r *http.Request) {
	h.catalog.ClearError()
	w.WriteHeader(http.StatusNoContent)
}

// HandleMap handles GET /api/map/chains and returns the chains as GeoJSON points.
func (h *ChainsHandler) HandleMap(w http.ResponseWriter, r *http.Request) {
	fc := geo.ChainCollection(h.catalog.Snapshot().Chains)
	w.Header().Set("Content-Type", "application/geo+json")
	data, err := fc.MarshalJSON()
	if err != nil {
		slog.Error("Failed to encode chain map", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to encode map")
		return
	}
	_, _ = w.Write(data)
}

func (h *ChainsHandler) favoriteSet(ctx context.Context) (map[uuid.UUID]bool, error) {
	ids, err := h.favorites.ListFavorites(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (h *ChainsHandler) toDTO(c *model.Chain, favs map[uuid.UUID]bool, now time.Time) ChainDTO {
	dto := ChainDTO{
		Chain:    *c,
		Image:    h.catalog.Image(c.ID),
		Favorite: favs[c.ID],
	}
	if c.OpeningHours != "" {
		open := hours.IsOpen(c.OpeningHours, now)
		dto.OpenNow = &open
	}
	return dto
}
