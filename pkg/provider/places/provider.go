package places

import (
	"context"
	"time"

	"cafedoko/pkg/geo"
	"cafedoko/pkg/model"
	"cafedoko/pkg/provider"

	"github.com/google/uuid"
)

// Tags derived from place attributes.
const (
	TagHighRated = "high-rated"
	TagOpenNow   = "open-now"
)

const (
	defaultRadius     = 1000.0
	defaultMaxResults = 20
	defaultPrice      = 400
	defaultSizeLabel  = "M"
	highRatedMin      = 4.0
)

var priceByLevel = map[string]int{
	"PRICE_LEVEL_INEXPENSIVE":    300,
	"PRICE_LEVEL_MODERATE":       450,
	"PRICE_LEVEL_EXPENSIVE":      600,
	"PRICE_LEVEL_VERY_EXPENSIVE": 800,
}

// Provider searches around the current location and maps places to chains.
type Provider struct {
	searcher   Searcher
	locator    geo.Locator
	radius     float64
	maxResults int
	now        func() time.Time
}

// NewProvider creates a places provider. Non-positive radius or maxResults select the defaults.
func NewProvider(s Searcher, locator geo.Locator, radius float64, maxResults int) *Provider {
	if radius <= 0 {
		radius = defaultRadius
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	return &Provider{
		searcher:   s,
		locator:    locator,
		radius:     radius,
		maxResults: maxResults,
		now:        time.Now,
	}
}

func (p *Provider) Name() string { return "places" }

// CacheLen implements provider.Cacher. It is zero when searches are not cached.
func (p *Provider) CacheLen() int {
	if c, ok := p.searcher.(*Cached); ok {
		return c.Len()
	}
	return 0
}

// ClearCache implements provider.Cacher.
func (p *Provider) ClearCache() int {
	if c, ok := p.searcher.(*Cached); ok {
		return c.Clear()
	}
	return 0
}

// RemoveExpired implements provider.Cacher.
func (p *Provider) RemoveExpired() int {
	if c, ok := p.searcher.(*Cached); ok {
		return c.RemoveExpired()
	}
	return 0
}

// Fetch implements provider.Provider.
func (p *Provider) Fetch(ctx context.Context) ([]model.Chain, error) {
	if p.locator == nil {
		return nil, &provider.ConfigurationError{Provider: "places", Reason: "no location source"}
	}
	center, ok := p.locator.Location()
	if !ok || !center.Valid() {
		return nil, &provider.ConfigurationError{Provider: "places", Reason: "current location is unknown"}
	}

	places, err := p.searcher.SearchNearby(ctx, SearchRequest{
		Center:     center,
		Radius:     p.radius,
		MaxResults: p.maxResults,
	})
	if err != nil {
		return nil, err
	}

	fetchedAt := p.now()
	chains := make([]model.Chain, 0, len(places))
	for i := range places {
		chains = append(chains, toChain(&places[i], center, fetchedAt))
	}
	return chains, nil
}

// PlaceID derives the stable chain id for a place id.
func PlaceID(placeID string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://places.googleapis.com/v1/places/"+placeID))
}

// PriceForLevel maps a price level enum to a representative price in yen.
func PriceForLevel(level string) int {
	if p, ok := priceByLevel[level]; ok {
		return p
	}
	return defaultPrice
}

func toChain(pl *Place, center geo.Point, fetchedAt time.Time) model.Chain {
	target := geo.Point{Lat: pl.Location.Latitude, Lon: pl.Location.Longitude}

	tags := []string{}
	if pl.Rating != nil && *pl.Rating >= highRatedMin {
		tags = append(tags, TagHighRated)
	}
	var hours string
	if oh := pl.CurrentOpeningHours; oh != nil {
		if oh.OpenNow != nil && *oh.OpenNow {
			tags = append(tags, TagOpenNow)
		}
		if len(oh.WeekdayDescriptions) > 0 {
			hours = oh.WeekdayDescriptions[0]
		}
	}

	c := model.Chain{
		ID:           PlaceID(pl.ID),
		Name:         pl.DisplayName.Text,
		Price:        PriceForLevel(pl.PriceLevel),
		SizeLabel:    defaultSizeLabel,
		Distance:     geo.DistanceMeters(center, target),
		Tags:         tags,
		UpdatedAt:    &fetchedAt,
		Address:      pl.FormattedAddress,
		OpeningHours: hours,
		PhoneNumber:  pl.InternationalPhoneNumber,
	}
	c.SetCoordinate(target.Lat, target.Lon)
	return c
}
