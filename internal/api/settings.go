package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"cafedoko/pkg/config"
)

// SettingsHandler serves user settings.
type SettingsHandler struct {
	settings *config.Settings
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(s *config.Settings) *SettingsHandler {
	return &SettingsHandler{settings: s}
}

// SettingsRequest is a partial update; omitted fields keep their value.
type SettingsRequest struct {
	ViewMode              *string `json:"view_mode,omitempty"`
	SortOption            *string `json:"sort_option,omitempty"`
	NotifyNewCafe         *bool   `json:"notify_new_cafe,omitempty"`
	NotifyFavoriteOpening *bool   `json:"notify_favorite_opening,omitempty"`
}

// HandleGet handles GET /api/settings.
func (h *SettingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.settings.Values(r.Context()))
}

// HandleUpdate handles PUT /api/settings.
func (h *SettingsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx := r.Context()
	v := h.settings.Values(ctx)
	if req.ViewMode != nil {
		v.ViewMode = *req.ViewMode
	}
	if req.SortOption != nil {
		v.SortOption = *req.SortOption
	}
	if req.NotifyNewCafe != nil {
		v.NotifyNewCafe = *req.NotifyNewCafe
	}
	if req.NotifyFavoriteOpening != nil {
		v.NotifyFavoriteOpening = *req.NotifyFavoriteOpening
	}

	if err := h.settings.Update(ctx, v); err != nil {
		if errors.Is(err, config.ErrInvalidSetting) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("Failed to save settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	writeJSON(w, http.StatusOK, h.settings.Values(ctx))
}

// HandleReset handles DELETE /api/settings.
func (h *SettingsHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.settings.Reset(r.Context()); err != nil {
		slog.Error("Failed to reset settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reset settings")
		return
	}
	writeJSON(w, http.StatusOK, h.settings.Values(r.Context()))
}
