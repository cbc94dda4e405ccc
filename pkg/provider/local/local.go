// Package local serves chains from a JSON file on disk.
package local

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"cafedoko/pkg/model"
	"cafedoko/pkg/normalize"
	"cafedoko/pkg/provider"
)

// Provider reads and normalizes a chains file on every fetch.
type Provider struct {
	path string
}

func New(path string) *Provider {
	return &Provider{path: path}
}

func (p *Provider) Name() string { return "file" }

// Fetch implements provider.Provider.
func (p *Provider) Fetch(ctx context.Context) ([]model.Chain, error) {
	if err := ctx.Err(); err != nil {
		return nil, provider.ClassifyTransport(err)
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chains file: %w", err)
	}
	chains, err := normalize.Normalize(data)
	if err != nil {
		return nil, &provider.DecodeError{Err: err}
	}
	slog.Debug("Loaded chains from file", "path", p.path, "count", len(chains))
	return chains, nil
}
