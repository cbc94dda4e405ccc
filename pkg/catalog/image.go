package catalog

import (
	"strings"

	"cafedoko/pkg/model"
)

// ImageResolver picks the image shown for a chain.
type ImageResolver interface {
	Resolve(c *model.Chain) model.ImageDescriptor
}

// SymbolResolver prefers the chain's remote image and otherwise maps well-known
// chain names to symbols. Assets maps name keywords to bundled assets and wins over symbols.
type SymbolResolver struct {
	Assets map[string]string
}

const defaultSymbol = "cup.and.saucer"

var chainSymbols = []struct {
	keywords []string
	symbol   string
}{
	{[]string{"スターバックス", "starbucks"}, "cup.and.saucer.fill"},
	{[]string{"ドトール"}, "takeoutbag.and.cup.and.straw.fill"},
	{[]string{"タリーズ"}, "leaf"},
	{[]string{"セブン"}, "storefront"},
}

func (r SymbolResolver) Resolve(c *model.Chain) model.ImageDescriptor {
	if c.ImageURL != "" {
		return model.RemoteImage(c.ImageURL)
	}
	lowered := strings.ToLower(c.Name)
	for kw, asset := range r.Assets {
		if strings.Contains(lowered, strings.ToLower(kw)) {
			return model.AssetImage(asset)
		}
	}
	for _, s := range chainSymbols {
		for _, kw := range s.keywords {
			if strings.Contains(lowered, kw) {
				return model.SymbolImage(s.symbol)
			}
		}
	}
	return model.SymbolImage(defaultSymbol)
}
