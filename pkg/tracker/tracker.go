package tracker

import (
	"sync"
	"sync/atomic"
	"time"
)

// Tracker tracks usage statistics per data source.
type Tracker struct {
	mu    sync.RWMutex
	stats map[string]*sourceStats
}

type sourceStats struct {
	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64
	apiSuccess    atomic.Int64
	apiFailures   atomic.Int64
	apiZeroResult atomic.Int64
	lastStatus    atomic.Int64
	lastRequest   atomic.Int64 // unix nanos
}

// SourceStats is a point-in-time copy of one source's counters.
type SourceStats struct {
	CacheHits     int64     `json:"cache_hits"`
	CacheMisses   int64     `json:"cache_misses"`
	APISuccess    int64     `json:"api_success"`
	APIFailures   int64     `json:"api_failures"`
	APIZeroResult int64     `json:"api_zero_result"`
	LastStatus    int       `json:"last_status,omitempty"`
	LastRequest   time.Time `json:"last_request,omitempty"`
}

// HitRate returns cache hits over lookups, or 0 without lookups.
func (s SourceStats) HitRate() float64 {
	total := s.CacheHits + s.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(total)
}

// New creates a new Tracker.
func New() *Tracker {
	return &Tracker{
		stats: make(map[string]*sourceStats),
	}
}

// getStats returns the stats object for a source, creating it if needed.
func (t *Tracker) getStats(source string) *sourceStats {
	t.mu.RLock()
	s, ok := t.stats[source]
	t.mu.RUnlock()
	if ok {
		return s
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// Double check
	if s, ok = t.stats[source]; ok {
		return s
	}
	s = &sourceStats{}
	t.stats[source] = s
	return s
}

// TrackCacheHit increments the cache hit counter.
func (t *Tracker) TrackCacheHit(source string) {
	t.getStats(source).cacheHits.Add(1)
}

func (t *Tracker) TrackCacheMiss(source string) {
	t.getStats(source).cacheMisses.Add(1)
}

// TrackResponse records a completed round trip. 2xx counts as success.
func (t *Tracker) TrackResponse(source string, status int) {
	s := t.getStats(source)
	s.lastStatus.Store(int64(status))
	s.lastRequest.Store(time.Now().UnixNano())
	if status >= 200 && status < 300 {
		s.apiSuccess.Add(1)
	} else {
		s.apiFailures.Add(1)
	}
}

// TrackAPIFailure records a request that never produced a response.
func (t *Tracker) TrackAPIFailure(source string) {
	s := t.getStats(source)
	s.lastRequest.Store(time.Now().UnixNano())
	s.apiFailures.Add(1)
}

// TrackAPIZero records a successful call that returned no results.
func (t *Tracker) TrackAPIZero(source string) {
	t.getStats(source).apiZeroResult.Add(1)
}

// Reset clears all counters.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats = make(map[string]*sourceStats)
}

// Snapshot returns a copy of the current stats.
func (t *Tracker) Snapshot() map[string]SourceStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]SourceStats, len(t.stats))
	for k, v := range t.stats {
		snap := SourceStats{
			CacheHits:     v.cacheHits.Load(),
			CacheMisses:   v.cacheMisses.Load(),
			APISuccess:    v.apiSuccess.Load(),
			APIFailures:   v.apiFailures.Load(),
			APIZeroResult: v.apiZeroResult.Load(),
			LastStatus:    int(v.lastStatus.Load()),
		}
		if ns := v.lastRequest.Load(); ns != 0 {
			snap.LastRequest = time.Unix(0, ns)
		}
		result[k] = snap
	}
	return result
}
