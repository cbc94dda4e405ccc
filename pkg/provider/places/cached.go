package places

import (
	"context"
	"log/slog"
	"time"

	"cafedoko/pkg/cache"
	"cafedoko/pkg/tracker"
)

const cacheSource = "google_places"

// Cached memoizes a Searcher per rounded center and radius.
type Cached struct {
	next    Searcher
	cache   *cache.ResultCache[[]Place]
	tracker *tracker.Tracker
}

// NewCached wraps next with a result cache. A non-positive ttl selects cache.DefaultTTL.
func NewCached(next Searcher, ttl time.Duration, t *tracker.Tracker, opts ...cache.Option) *Cached {
	if t == nil {
		t = tracker.New()
	}
	return &Cached{
		next:    next,
		cache:   cache.New[[]Place](ttl, opts...),
		tracker: t,
	}
}

// SearchNearby implements Searcher. Failed searches are not cached.
func (c *Cached) SearchNearby(ctx context.Context, req SearchRequest) ([]Place, error) {
	key := cache.NewKey(req.Center.Lat, req.Center.Lon, req.Radius)
	if places, ok := c.cache.Get(key); ok {
		c.tracker.TrackCacheHit(cacheSource)
		slog.Debug("Cache Hit", "source", cacheSource, "count", len(places))
		return places, nil
	}
	c.tracker.TrackCacheMiss(cacheSource)

	places, err := c.next.SearchNearby(ctx, req)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, places)
	return places, nil
}

// Clear drops every cached search and returns how many were dropped.
func (c *Cached) Clear() int {
	n := c.cache.Len()
	c.cache.Clear()
	return n
}

// Len returns the number of cached searches.
func (c *Cached) Len() int {
	return c.cache.Len()
}

// RemoveExpired drops stale searches.
func (c *Cached) RemoveExpired() int {
	return c.cache.RemoveExpired()
}
