// Package hybrid prices chains found by another provider using known chain menus.
package hybrid

import (
	"context"
	"log/slog"

	"cafedoko/pkg/logging"
	"cafedoko/pkg/menu"
	"cafedoko/pkg/model"
	"cafedoko/pkg/provider"
)

// Provider overrides price and size of chains that match a menu entry.
type Provider struct {
	next provider.Provider
	menu *menu.Menu
}

func New(next provider.Provider, m *menu.Menu) *Provider {
	return &Provider{next: next, menu: m}
}

func (p *Provider) Name() string { return p.next.Name() + "+menu" }

// Unwrap returns the enriched provider.
func (p *Provider) Unwrap() provider.Provider { return p.next }

// Fetch implements provider.Provider.
func (p *Provider) Fetch(ctx context.Context) ([]model.Chain, error) {
	chains, err := p.next.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	enriched := 0
	for i := range chains {
		if p.enrich(&chains[i]) {
			enriched++
		}
	}
	slog.Debug("Menu enrichment", "chains", len(chains), "enriched", enriched)
	return chains, nil
}

func (p *Provider) enrich(c *model.Chain) bool {
	mc, ok := p.menu.Detect(c.Name)
	if !ok {
		return false
	}
	price, ok := mc.RepresentativePrice()
	if !ok {
		return false
	}
	size, ok := mc.DefaultSize()
	if !ok {
		return false
	}
	logging.TraceDefault("Menu price applied", "chain", c.Name, "menu", mc.ID, "price", price, "size", size)
	c.Price = price
	c.SizeLabel = size
	return true
}
