package model

import (
	"time"

	"github.com/google/uuid"
)

// Chain is one normalized cafe entry as shown to the user.
type Chain struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Price     int       `json:"price"`      // Minor currency unit (yen)
	SizeLabel string    `json:"size_label"` // e.g. "M", "Tall"
	Distance  int       `json:"distance"`   // Meters from the search center
	Tags      []string  `json:"tags"`

	// Optional details
	ImageURL     string     `json:"image_url,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
	Address      string     `json:"address,omitempty"`
	OpeningHours string     `json:"opening_hours,omitempty"`
	PhoneNumber  string     `json:"phone_number,omitempty"`

	// Latitude and Longitude are either both set or both nil.
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Coordinate returns the chain's position if it has one.
func (c *Chain) Coordinate() (lat, lon float64, ok bool) {
	if c.Latitude == nil || c.Longitude == nil {
		return 0, 0, false
	}
	return *c.Latitude, *c.Longitude, true
}

// SetCoordinate sets both coordinate fields at once.
func (c *Chain) SetCoordinate(lat, lon float64) {
	c.Latitude = &lat
	c.Longitude = &lon
}

// HasTag reports whether the chain carries the given tag.
func (c *Chain) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ImageKind identifies how a chain's image is sourced.
type ImageKind string

const (
	ImageSymbol ImageKind = "symbol" // Named system symbol
	ImageAsset  ImageKind = "asset"  // Bundled asset
	ImageRemote ImageKind = "remote" // Remote URL
)

// ImageDescriptor tells the presentation layer which image to show for a chain.
type ImageDescriptor struct {
	Kind ImageKind `json:"kind"`
	Name string    `json:"name,omitempty"`
	URL  string    `json:"url,omitempty"`
}

func SymbolImage(name string) ImageDescriptor {
	return ImageDescriptor{Kind: ImageSymbol, Name: name}
}

func AssetImage(name string) ImageDescriptor {
	return ImageDescriptor{Kind: ImageAsset, Name: name}
}

func RemoteImage(url string) ImageDescriptor {
	return ImageDescriptor{Kind: ImageRemote, URL: url}
}

// HistoryEntry records one chain detail view.
type HistoryEntry struct {
	ID       uuid.UUID `json:"id"`
	CafeID   uuid.UUID `json:"cafe_id"`
	CafeName string    `json:"cafe_name"`
	ViewedAt time.Time `json:"viewed_at"`
}
