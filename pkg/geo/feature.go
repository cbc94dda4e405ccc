package geo

import (
	"fmt"
	"os"
	"sync"

	"cafedoko/pkg/model"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ServiceArea restricts accepted client locations to polygons loaded from GeoJSON.
type ServiceArea struct {
	mu       sync.RWMutex
	features []*geojson.Feature
}

// NewServiceArea loads the polygon layers at paths.
func NewServiceArea(paths ...string) (*ServiceArea, error) {
	a := &ServiceArea{}
	for _, path := range paths {
		if err := a.load(path); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *ServiceArea) load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read geojson %s: %w", path, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return fmt.Errorf("failed to parse geojson %s: %w", path, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.features = append(a.features, fc.Features...)
	return nil
}

// Contains reports whether p lies inside any loaded polygon.
// A nil or empty area contains every point.
func (a *ServiceArea) Contains(p Point) bool {
	if a == nil {
		return true
	}
	point := p.orb()

	a.mu.RLock()
	defer a.mu.RUnlock()

	if len(a.features) == 0 {
		return true
	}
	for _, f := range a.features {
		if !f.Geometry.Bound().Contains(point) {
			continue
		}
		if containsPoint(f.Geometry, point) {
			return true
		}
	}
	return false
}

// Name returns the "name" property of the first polygon containing p.
func (a *ServiceArea) Name(p Point) string {
	if a == nil {
		return ""
	}
	point := p.orb()

	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, f := range a.features {
		if containsPoint(f.Geometry, point) {
			return getStringProp(f.Properties, "name")
		}
	}
	return ""
}

// ChainCollection renders the chains that carry coordinates as GeoJSON points.
func ChainCollection(chains []model.Chain) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i := range chains {
		c := &chains[i]
		lat, lon, ok := c.Coordinate()
		if !ok {
			continue
		}
		f := geojson.NewFeature(orb.Point{lon, lat})
		f.ID = c.ID.String()
		f.Properties["name"] = c.Name
		f.Properties["price"] = c.Price
		f.Properties["distance"] = c.Distance
		f.Properties["tags"] = c.Tags
		if c.Address != "" {
			f.Properties["address"] = c.Address
		}
		fc.Append(f)
	}
	return fc
}
