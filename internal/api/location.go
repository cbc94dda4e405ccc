package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"cafedoko/pkg/catalog"
	"cafedoko/pkg/config"
	"cafedoko/pkg/geo"
)

// LocationHandler receives client positions and feeds the location-aware providers.
type LocationHandler struct {
	current  *geo.CurrentLocation
	locator  geo.Locator
	area     *geo.ServiceArea
	settings *config.Settings
	catalog  *catalog.Catalog
}

// NewLocationHandler creates a new LocationHandler. locator is what providers resolve
// (usually current with a default-city fallback).
func NewLocationHandler(current *geo.CurrentLocation, locator geo.Locator, area *geo.ServiceArea, settings *config.Settings, cat *catalog.Catalog) *LocationHandler {
	return &LocationHandler{current: current, locator: locator, area: area, settings: settings, catalog: cat}
}

// LocationRequest is the body of POST /api/location.
type LocationRequest struct {
	Lat    *float64 `json:"lat"`
	Lon    *float64 `json:"lon"`
	Reload bool     `json:"reload"`
}

// LocationResponse describes the location providers will use.
type LocationResponse struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Known     bool      `json:"known"`
	Reported  bool      `json:"reported"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
	Area      string    `json:"area,omitempty"`
}

// HandleGet handles GET /api/location.
func (h *LocationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.response())
}

// HandleUpdate handles POST /api/location.
func (h *LocationHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req LocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Lat == nil || req.Lon == nil {
		writeError(w, http.StatusBadRequest, "lat and lon are required")
		return
	}
	p := geo.Point{Lat: *req.Lat, Lon: *req.Lon}
	if !p.Valid() {
		writeError(w, http.StatusBadRequest, "coordinates out of range")
		return
	}
	if !h.area.Contains(p) {
		writeError(w, http.StatusUnprocessableEntity, "location is outside the service area")
		return
	}

	h.current.Update(p)
	if err := h.settings.SaveLocation(r.Context(), p.Lat, p.Lon); err != nil {
		slog.Warn("Failed to persist location", "error", err)
	}
	slog.Debug("Location updated", "lat", p.Lat, "lon", p.Lon)

	if req.Reload {
		go h.catalog.Reload(context.WithoutCancel(r.Context()))
	}
	writeJSON(w, http.StatusOK, h.response())
}

func (h *LocationHandler) response() LocationResponse {
	resp := LocationResponse{UpdatedAt: h.current.UpdatedAt()}
	_, resp.Reported = h.current.Location()
	if p, ok := h.locator.Location(); ok {
		resp.Lat, resp.Lon, resp.Known = p.Lat, p.Lon, true
		resp.Area = h.area.Name(p)
	}
	return resp
}
