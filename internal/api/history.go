package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// HistoryRequest is the body of POST /api/history. CafeName defaults to the catalog name.
type HistoryRequest struct {
	CafeID   string `json:"cafe_id"`
	CafeName string `json:"cafe_name"`
}

// HandleListHistory handles GET /api/history.
func (h *UserHandler) HandleListHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.history.ListHistory(r.Context())
	if err != nil {
		slog.Error("Failed to list history", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleAddHistory handles POST /api/history.
func (h *UserHandler) HandleAddHistory(w http.ResponseWriter, r *http.Request) {
	var req HistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	cafeID, err := uuid.Parse(req.CafeID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid cafe_id")
		return
	}
	name := strings.TrimSpace(req.CafeName)
	if name == "" {
		c, ok := h.catalog.Chain(cafeID)
		if !ok {
			writeError(w, http.StatusNotFound, "chain not found")
			return
		}
		name = c.Name
	}

	entry, err := h.history.AddHistory(r.Context(), cafeID, name)
	if err != nil {
		slog.Error("Failed to add history", "cafe_id", cafeID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add history")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// HandleRemoveHistory handles DELETE /api/history/{id}.
func (h *UserHandler) HandleRemoveHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.history.RemoveHistory(r.Context(), id); err != nil {
		slog.Error("Failed to remove history entry", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove history entry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleClearHistory handles DELETE /api/history.
func (h *UserHandler) HandleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.history.ClearHistory(r.Context()); err != nil {
		slog.Error("Failed to clear history", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear history")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
