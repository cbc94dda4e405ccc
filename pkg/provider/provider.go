// Package provider defines the cafe data source contract and its error taxonomy.
package provider

import (
	"context"

	"cafedoko/pkg/model"
)

// Provider fetches the current list of chains from one backend.
// Implementations never retry; the caller decides when to fetch again.
type Provider interface {
	Fetch(ctx context.Context) ([]model.Chain, error)
	Name() string
}

// Func adapts a function to Provider.
type Func struct {
	Label string
	Fn    func(ctx context.Context) ([]model.Chain, error)
}

func (f Func) Fetch(ctx context.Context) ([]model.Chain, error) { return f.Fn(ctx) }
func (f Func) Name() string                                      { return f.Label }

// Disabled is the safe fallback when no backend is configured. It always returns an empty list.
type Disabled struct{}

func (Disabled) Fetch(context.Context) ([]model.Chain, error) {
	return []model.Chain{}, nil
}

func (Disabled) Name() string { return "disabled" }
