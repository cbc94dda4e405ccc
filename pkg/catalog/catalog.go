// Package catalog owns the current chain list and drives reloads against a provider.
package catalog

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"cafedoko/pkg/model"
	"cafedoko/pkg/provider"

	"github.com/google/uuid"
)

// Sort options.
const (
	SortRecommended = "recommended"
	SortNearby      = "nearby"
	SortPriceLow    = "price_low"
	SortPriceHigh   = "price_high"
)

// State is an immutable snapshot of the catalog. Chains must not be modified.
type State struct {
	Chains     []model.Chain `json:"chains"`
	Loading    bool          `json:"loading"`
	LastError  string        `json:"last_error,omitempty"`
	Hint       string        `json:"hint,omitempty"`
	Provider   string        `json:"provider"`
	UpdatedAt  time.Time     `json:"updated_at,omitzero"`
	Generation uint64        `json:"generation"`
}

// Catalog is safe for concurrent use. Reloads are single-flight; a reload started
// while another is in progress is dropped.
type Catalog struct {
	provider     provider.Provider
	resolver     ImageResolver
	fetchTimeout time.Duration
	now          func() time.Time

	running int32 // 1 while a reload is in flight

	mu     sync.RWMutex
	state  State
	images map[uuid.UUID]model.ImageDescriptor

	subMu  sync.Mutex
	subs   map[int]chan State
	nextID int
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithResolver overrides the image resolver.
func WithResolver(r ImageResolver) Option {
	return func(c *Catalog) { c.resolver = r }
}

// WithFetchTimeout bounds each fetch. Zero means no bound beyond the caller's context.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Catalog) { c.fetchTimeout = d }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) { c.now = now }
}

// New creates an empty idle catalog. A nil provider is treated as provider.Disabled.
func New(p provider.Provider, opts ...Option) *Catalog {
	if p == nil {
		p = provider.Disabled{}
	}
	c := &Catalog{
		provider: p,
		resolver: SymbolResolver{},
		now:      time.Now,
		images:   map[uuid.UUID]model.ImageDescriptor{},
		subs:     map[int]chan State{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state = State{Chains: []model.Chain{}, Provider: p.Name()}
	return c
}

// Reload fetches from the provider once. It returns false without fetching when a
// reload is already in flight. On failure the previous chains are kept.
func (c *Catalog) Reload(ctx context.Context) bool {
	if !atomic.CompareAndSwapInt32(&c.running, 0, 1) {
		slog.Debug("Reload already in progress, skipping")
		return false
	}
	defer atomic.StoreInt32(&c.running, 0)

	c.update(func(s *State) { s.Loading = true })

	fetchCtx := ctx
	if c.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()
	}

	start := time.Now()
	chains, err := c.provider.Fetch(fetchCtx)
	if err != nil {
		msg := provider.Describe(err)
		slog.Error("Failed to fetch cafes", "provider", c.provider.Name(), "error", err)
		c.update(func(s *State) {
			s.Loading = false
			s.LastError = msg
			s.Hint = provider.Suggestion(err)
		})
		return true
	}
	if chains == nil {
		chains = []model.Chain{}
	}

	images := make(map[uuid.UUID]model.ImageDescriptor, len(chains))
	for i := range chains {
		images[chains[i].ID] = c.resolver.Resolve(&chains[i])
	}

	updatedAt := c.now()
	c.mu.Lock()
	c.images = images
	c.updateLocked(func(s *State) {
		s.Chains = chains
		s.Loading = false
		s.LastError = ""
		s.Hint = ""
		s.UpdatedAt = updatedAt
	})
	c.mu.Unlock()
	slog.Info("Fetched cafe entries", "provider", c.provider.Name(), "count", len(chains), "duration", time.Since(start))
	return true
}

// Run reloads immediately and then every interval until ctx is done.
func (c *Catalog) Run(ctx context.Context, interval time.Duration) {
	c.Reload(ctx)
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Reload(ctx)
		}
	}
}

// Snapshot returns the current state.
func (c *Catalog) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Loading reports whether a reload is in flight.
func (c *Catalog) Loading() bool {
	return atomic.LoadInt32(&c.running) == 1
}

// ClearError dismisses the last error message.
func (c *Catalog) ClearError() {
	c.update(func(s *State) {
		s.LastError = ""
		s.Hint = ""
	})
}

// Chain looks up a chain by id in the current list.
func (c *Catalog) Chain(id uuid.UUID) (model.Chain, bool) {
	s := c.Snapshot()
	for i := range s.Chains {
		if s.Chains[i].ID == id {
			return s.Chains[i], true
		}
	}
	return model.Chain{}, false
}

// Image returns the descriptor resolved for id on the last successful reload.
// The image table is swapped together with the chain list, so every current chain
// has an entry. Unknown ids get the default symbol.
func (c *Catalog) Image(id uuid.UUID) model.ImageDescriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if d, ok := c.images[id]; ok {
		return d
	}
	return model.SymbolImage(defaultSymbol)
}

// Sorted returns a copy of the chains ordered by opt. Unknown options keep source order.
func (c *Catalog) Sorted(opt string) []model.Chain {
	return SortChains(c.Snapshot().Chains, opt)
}

// Search returns chains whose name, address or tags contain query, case-insensitively.
// An empty query matches everything.
func (c *Catalog) Search(query string) []model.Chain {
	return Filter(c.Snapshot().Chains, query)
}

// SortChains returns a sorted copy of chains. Ties keep source order.
func SortChains(chains []model.Chain, opt string) []model.Chain {
	out := slices.Clone(chains)
	switch opt {
	case SortNearby:
		slices.SortStableFunc(out, func(a, b model.Chain) int { return a.Distance - b.Distance })
	case SortPriceLow:
		slices.SortStableFunc(out, func(a, b model.Chain) int { return a.Price - b.Price })
	case SortPriceHigh:
		slices.SortStableFunc(out, func(a, b model.Chain) int { return b.Price - a.Price })
	}
	return out
}

// Filter returns the chains matching query.
func Filter(chains []model.Chain, query string) []model.Chain {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]model.Chain, 0, len(chains))
	for i := range chains {
		if q == "" || matches(&chains[i], q) {
			out = append(out, chains[i])
		}
	}
	return out
}

func matches(c *model.Chain, q string) bool {
	if strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(strings.ToLower(c.Address), q) {
		return true
	}
	for _, t := range c.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

func (c *Catalog) update(fn func(s *State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateLocked(fn)
}

// updateLocked requires c.mu held for writing.
func (c *Catalog) updateLocked(fn func(s *State)) {
	next := c.state
	fn(&next)
	next.Generation++
	c.state = next
	c.publish(next)
}
