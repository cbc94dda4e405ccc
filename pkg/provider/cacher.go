package provider

import (
	"context"
	"log/slog"
	"time"
)

// Cacher is implemented by providers that memoize backend results.
type Cacher interface {
	CacheLen() int
	ClearCache() int
	RemoveExpired() int
}

// Wrapper is implemented by providers that decorate another provider.
type Wrapper interface {
	Unwrap() Provider
}

// FindCacher walks the decorator chain of p and returns the first Cacher.
func FindCacher(p Provider) (Cacher, bool) {
	for p != nil {
		if c, ok := p.(Cacher); ok {
			return c, true
		}
		w, ok := p.(Wrapper)
		if !ok {
			return nil, false
		}
		p = w.Unwrap()
	}
	return nil, false
}

// RunCacheSweep drops expired entries every interval until ctx is done.
func RunCacheSweep(ctx context.Context, c Cacher, interval time.Duration) {
	if c == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.RemoveExpired(); n > 0 {
				slog.Debug("Expired cache entries removed", "count", n, "remaining", c.CacheLen())
			}
		}
	}
}
