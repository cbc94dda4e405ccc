package store

import (
	"context"

	"cafedoko/pkg/model"

	"github.com/google/uuid"
)

// MaxHistory is the number of history entries kept.
const MaxHistory = 50

// FavoriteStore handles the set of favorited cafes.
type FavoriteStore interface {
	AddFavorite(ctx context.Context, id uuid.UUID) error
	RemoveFavorite(ctx context.Context, id uuid.UUID) error
	ToggleFavorite(ctx context.Context, id uuid.UUID) (bool, error)
	IsFavorite(ctx context.Context, id uuid.UUID) (bool, error)
	ListFavorites(ctx context.Context) ([]uuid.UUID, error)
	ClearFavorites(ctx context.Context) error
}

// HistoryStore handles recently viewed cafes, most recent first.
type HistoryStore interface {
	AddHistory(ctx context.Context, cafeID uuid.UUID, cafeName string) (*model.HistoryEntry, error)
	ListHistory(ctx context.Context) ([]model.HistoryEntry, error)
	RemoveHistory(ctx context.Context, entryID uuid.UUID) error
	ClearHistory(ctx context.Context) error
}

// StateStore handles persistent application state.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
	SetState(ctx context.Context, key, val string) error
	DeleteState(ctx context.Context, key string) error
}
