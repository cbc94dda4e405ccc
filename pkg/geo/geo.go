package geo

import (
	"math"
	"sync"
	"time"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// Point represents a geographic coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether p is a finite coordinate within WGS84 bounds.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

func (p Point) orb() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// Distance calculates the great-circle distance between two points in meters.
func Distance(p1, p2 Point) float64 {
	return orbgeo.DistanceHaversine(p1.orb(), p2.orb())
}

// DistanceMeters is Distance rounded half-up to whole meters.
func DistanceMeters(p1, p2 Point) int {
	return int(math.Floor(Distance(p1, p2) + 0.5))
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

// Locator yields the coordinate searches are centred on.
type Locator interface {
	Location() (Point, bool)
}

// CurrentLocation holds the last coordinate reported by a client.
type CurrentLocation struct {
	mu        sync.RWMutex
	point     Point
	updatedAt time.Time
	known     bool
}

// Update records a new coordinate.
func (c *CurrentLocation) Update(p Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.point = p
	c.updatedAt = time.Now()
	c.known = true
}

// Location returns the last reported coordinate, if any.
func (c *CurrentLocation) Location() (Point, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.point, c.known
}

// UpdatedAt returns when the coordinate was last reported.
func (c *CurrentLocation) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatedAt
}

// Fallback resolves Primary first and then the configured default city.
// A nil Default means no substitution.
type Fallback struct {
	Primary Locator
	Default *Point
}

// Location implements Locator.
func (f Fallback) Location() (Point, bool) {
	if f.Primary != nil {
		if p, ok := f.Primary.Location(); ok {
			return p, true
		}
	}
	if f.Default != nil {
		return *f.Default, true
	}
	return Point{}, false
}
