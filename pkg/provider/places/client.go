// Package places searches nearby cafes through the Places API and maps them to chains.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"cafedoko/pkg/geo"
	"cafedoko/pkg/normalize"
	"cafedoko/pkg/provider"
	"cafedoko/pkg/request"
)

// DefaultEndpoint is the nearby search endpoint.
const DefaultEndpoint = "https://places.googleapis.com/v1/places:searchNearby"

const fieldMask = "places.id,places.displayName,places.formattedAddress,places.location,places.rating," +
	"places.userRatingCount,places.priceLevel,places.currentOpeningHours,places.internationalPhoneNumber"

// Place is one search result.
type Place struct {
	ID                       string        `json:"id"`
	DisplayName              DisplayName   `json:"displayName"`
	FormattedAddress         string        `json:"formattedAddress,omitempty"`
	Location                 Location      `json:"location"`
	Rating                   *float64      `json:"rating,omitempty"`
	UserRatingCount          *int          `json:"userRatingCount,omitempty"`
	PriceLevel               string        `json:"priceLevel,omitempty"`
	CurrentOpeningHours      *OpeningHours `json:"currentOpeningHours,omitempty"`
	InternationalPhoneNumber string        `json:"internationalPhoneNumber,omitempty"`
}

type DisplayName struct {
	Text         string `json:"text"`
	LanguageCode string `json:"languageCode,omitempty"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type OpeningHours struct {
	OpenNow             *bool    `json:"openNow,omitempty"`
	WeekdayDescriptions []string `json:"weekdayDescriptions,omitempty"`
}

// SearchRequest describes one nearby search.
type SearchRequest struct {
	Center     geo.Point
	Radius     float64
	MaxResults int
}

// Searcher runs nearby searches.
type Searcher interface {
	SearchNearby(ctx context.Context, req SearchRequest) ([]Place, error)
}

// Client calls the nearby search endpoint.
type Client struct {
	endpoint string
	apiKey   string
	http     *request.Client
}

// NewClient creates a Client. An empty endpoint selects DefaultEndpoint.
func NewClient(apiKey, endpoint string, httpClient *request.Client) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{endpoint: endpoint, apiKey: apiKey, http: httpClient}
}

type searchBody struct {
	IncludedTypes       []string            `json:"includedTypes"`
	MaxResultCount      int                 `json:"maxResultCount"`
	LocationRestriction locationRestriction `json:"locationRestriction"`
	RankPreference      string              `json:"rankPreference"`
}

type locationRestriction struct {
	Circle circle `json:"circle"`
}

type circle struct {
	Center Location `json:"center"`
	Radius float64  `json:"radius"`
}

type searchResponse struct {
	Places []Place `json:"places"`
}

// SearchNearby returns cafes around req.Center ranked by distance.
func (c *Client) SearchNearby(ctx context.Context, req SearchRequest) ([]Place, error) {
	if c.apiKey == "" {
		return nil, &provider.ConfigurationError{Provider: "places", Reason: "API key is not set"}
	}

	body, err := json.Marshal(searchBody{
		IncludedTypes:  []string{"cafe"},
		MaxResultCount: req.MaxResults,
		LocationRestriction: locationRestriction{Circle: circle{
			Center: Location{Latitude: req.Center.Lat, Longitude: req.Center.Lon},
			Radius: req.Radius,
		}},
		RankPreference: "DISTANCE",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search: %w", err)
	}

	slog.Info("Places search", "lat", req.Center.Lat, "lon", req.Center.Lon, "radius_m", req.Radius)

	resp, err := c.http.Post(ctx, c.endpoint, body, map[string]string{
		"Content-Type":     "application/json",
		"X-Goog-Api-Key":   c.apiKey,
		"X-Goog-FieldMask": fieldMask,
	})
	if err != nil {
		if errors.Is(err, request.ErrReadBody) {
			return nil, fmt.Errorf("%w: %w", provider.ErrInvalidResponse, err)
		}
		return nil, provider.ClassifyTransport(err)
	}

	if !resp.OK() {
		msg := apiErrorMessage(resp.Body)
		slog.Error("Places API error", "status", resp.StatusCode, "message", msg)
		return nil, &provider.StatusError{Code: resp.StatusCode, Message: msg}
	}

	var out searchResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, &provider.DecodeError{Err: err}
	}
	if out.Places == nil {
		out.Places = []Place{}
	}
	slog.Debug("Places search done", "count", len(out.Places))
	return out.Places, nil
}

// apiErrorMessage reads {"error":{"message":...}} and falls back to flat message/error keys.
func apiErrorMessage(body []byte) string {
	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &nested); err == nil && nested.Error.Message != "" {
		return nested.Error.Message
	}
	return normalize.ErrorMessage(body)
}
