// Package factory builds the configured cafe data source.
package factory

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"cafedoko/pkg/config"
	"cafedoko/pkg/geo"
	"cafedoko/pkg/menu"
	"cafedoko/pkg/provider"
	"cafedoko/pkg/provider/hybrid"
	"cafedoko/pkg/provider/local"
	"cafedoko/pkg/provider/places"
	"cafedoko/pkg/provider/remote"
	"cafedoko/pkg/request"
)

// Deps are the shared collaborators handed to providers.
type Deps struct {
	Client  *request.Client
	Locator geo.Locator
	Lookup  config.LookupFunc
}

// New returns the provider selected by cfg. Invalid settings are logged and yield
// provider.Disabled so the catalog stays usable.
func New(cfg *config.ProviderConfig, deps Deps) provider.Provider {
	p, err := Build(cfg, deps)
	if err != nil {
		slog.Warn("Provider configuration invalid, falling back to disabled", "kind", cfg.Kind, "error", err)
		return provider.Disabled{}
	}
	slog.Info("Provider selected", "name", p.Name())
	return p
}

// Build is New without the fallback.
func Build(cfg *config.ProviderConfig, deps Deps) (provider.Provider, error) {
	if deps.Client == nil {
		deps.Client = request.New(nil)
	}

	var p provider.Provider
	kind := cfg.NormalizedKind()
	switch kind {
	case "", config.KindDisabled, config.KindMock:
		return provider.Disabled{}, nil
	case config.KindRemote:
		rp, err := buildRemote(&cfg.Remote, deps)
		if err != nil {
			return nil, err
		}
		p = rp
	case config.KindPlaces:
		pp, err := buildPlaces(&cfg.Places, deps)
		if err != nil {
			return nil, err
		}
		p = pp
	case config.KindFile:
		if strings.TrimSpace(cfg.File.Path) == "" {
			return nil, &provider.ConfigurationError{Provider: kind, Reason: "file path is empty"}
		}
		p = local.New(cfg.File.Path)
	default:
		return nil, &provider.ConfigurationError{Provider: kind, Reason: fmt.Sprintf("unknown provider kind %q", cfg.Kind)}
	}

	if cfg.Menu.Enabled {
		m, err := menu.Load(cfg.Menu.Path)
		if err != nil {
			slog.Warn("Chain menu unavailable, enrichment skipped", "path", cfg.Menu.Path, "error", err)
			return p, nil
		}
		p = hybrid.New(p, m)
	}
	return p, nil
}

func buildRemote(cfg *config.RemoteConfig, deps Deps) (provider.Provider, error) {
	target := config.ResolveValue(cfg.URL, deps.Lookup)
	if target == "" {
		return nil, &provider.ConfigurationError{Provider: config.KindRemote, Reason: "url is empty"}
	}
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &provider.ConfigurationError{Provider: config.KindRemote, Reason: fmt.Sprintf("invalid url %q", target)}
	}
	headers := config.ResolveHeaders(cfg.Headers, deps.Lookup)
	return remote.New(remote.NewRequestFactory(cfg.Method, target, headers, cfg.Body), deps.Client), nil
}

func buildPlaces(cfg *config.PlacesConfig, deps Deps) (provider.Provider, error) {
	apiKey := config.ResolveValue(cfg.APIKey, deps.Lookup)
	if apiKey == "" {
		return nil, &provider.ConfigurationError{Provider: config.KindPlaces, Reason: "api key is empty"}
	}
	if deps.Locator == nil {
		return nil, &provider.ConfigurationError{Provider: config.KindPlaces, Reason: "no location source"}
	}
	client := places.NewClient(apiKey, cfg.Endpoint, deps.Client)
	cached := places.NewCached(client, cfg.CacheTTL.Std(), deps.Client.Tracker())
	return places.NewProvider(cached, deps.Locator, float64(cfg.Radius), cfg.MaxResults), nil
}
