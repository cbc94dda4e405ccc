// Package menu loads per-chain menus used to price well-known chains.
package menu

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// commonProducts are tried in order when picking a chain's representative price.
var commonProducts = []string{"ドリップコーヒー", "ブレンドコーヒー", "本日のコーヒー"}

type Chain struct {
	ID       string    `yaml:"id" json:"id"`
	Name     string    `yaml:"name" json:"name"`
	Keywords []string  `yaml:"keywords" json:"keywords"`
	Products []Product `yaml:"products" json:"products"`
}

type Product struct {
	Name     string `yaml:"name" json:"name"`
	Category string `yaml:"category" json:"category"`
	Sizes    []Size `yaml:"sizes" json:"sizes"`
}

type Size struct {
	Size  string `yaml:"size" json:"size"`
	Price int    `yaml:"price" json:"price"`
}

type file struct {
	Chains []Chain `yaml:"chains"`
}

// Menu holds the loaded chain menus.
type Menu struct {
	Chains []Chain
}

// Load reads a menu file. YAML is a superset of JSON so both formats are accepted.
func Load(path string) (*Menu, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read menu file: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse menu file %s: %w", path, err)
	}
	slog.Info("Loaded chain menus", "path", path, "chains", len(m.Chains))
	return m, nil
}

// Parse decodes menu data. Negative prices are rejected.
func Parse(data []byte) (*Menu, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	for _, c := range f.Chains {
		for _, p := range c.Products {
			for _, sz := range p.Sizes {
				if sz.Price < 0 {
					return nil, fmt.Errorf("chain %s: product %s size %s: negative price %d", c.ID, p.Name, sz.Size, sz.Price)
				}
			}
		}
	}
	return &Menu{Chains: f.Chains}, nil
}

// Detect returns the first chain with a keyword contained in name.
func (m *Menu) Detect(name string) (*Chain, bool) {
	if m == nil {
		return nil, false
	}
	for i := range m.Chains {
		for _, kw := range m.Chains[i].Keywords {
			if kw != "" && strings.Contains(name, kw) {
				return &m.Chains[i], true
			}
		}
	}
	return nil, false
}

// RepresentativePrice returns the price of the first listed size of the chain's
// standard coffee, falling back to the first product. Negative prices never qualify.
func (c *Chain) RepresentativePrice() (int, bool) {
	for _, name := range commonProducts {
		for _, p := range c.Products {
			if p.Name == name && len(p.Sizes) > 0 {
				return firstPrice(p)
			}
		}
	}
	if len(c.Products) > 0 && len(c.Products[0].Sizes) > 0 {
		return firstPrice(c.Products[0])
	}
	return 0, false
}

func firstPrice(p Product) (int, bool) {
	if price := p.Sizes[0].Price; price >= 0 {
		return price, true
	}
	return 0, false
}

// DefaultSize returns the first size of the first product.
func (c *Chain) DefaultSize() (string, bool) {
	if len(c.Products) == 0 || len(c.Products[0].Sizes) == 0 {
		return "", false
	}
	return c.Products[0].Sizes[0].Size, true
}
