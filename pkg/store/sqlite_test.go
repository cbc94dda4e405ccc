package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"cafedoko/pkg/db"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a test database and store with a stepping clock.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	d, err := db.Init(dbPath)
	if err != nil {
		t.Fatalf("Failed to init DB: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	s := NewSQLiteStore(d)
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return s
}

// =============================================================================
// FavoriteStore Tests
// =============================================================================

func TestFavoriteStore(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	a, b := uuid.New(), uuid.New()

	require.NoError(t, s.AddFavorite(ctx, a))
	require.NoError(t, s.AddFavorite(ctx, a)) // idempotent
	require.NoError(t, s.AddFavorite(ctx, b))

	ids, err := s.ListFavorites(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, ids)

	fav, err := s.IsFavorite(ctx, a)
	require.NoError(t, err)
	assert.True(t, fav)

	require.NoError(t, s.RemoveFavorite(ctx, a))
	fav, err = s.IsFavorite(ctx, a)
	require.NoError(t, err)
	assert.False(t, fav)

	require.NoError(t, s.ClearFavorites(ctx))
	ids, err = s.ListFavorites(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFavoriteStore_Toggle(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	id := uuid.New()

	on, err := s.ToggleFavorite(ctx, id)
	require.NoError(t, err)
	assert.True(t, on)

	off, err := s.ToggleFavorite(ctx, id)
	require.NoError(t, err)
	assert.False(t, off)

	fav, err := s.IsFavorite(ctx, id)
	require.NoError(t, err)
	assert.False(t, fav)
}

// =============================================================================
// HistoryStore Tests
// =============================================================================

func TestHistoryStore_MostRecentFirstAndDedupe(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	a, b := uuid.New(), uuid.New()

	_, err := s.AddHistory(ctx, a, "Starbucks")
	require.NoError(t, err)
	_, err = s.AddHistory(ctx, b, "Doutor")
	require.NoError(t, err)
	latest, err := s.AddHistory(ctx, a, "Starbucks")
	require.NoError(t, err)

	entries, err := s.ListHistory(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, a, entries[0].CafeID)
	assert.Equal(t, latest.ID, entries[0].ID)
	assert.Equal(t, b, entries[1].CafeID)
	assert.True(t, entries[0].ViewedAt.After(entries[1].ViewedAt))
}

func TestHistoryStore_Cap(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	var first, last uuid.UUID
	for i := 0; i < MaxHistory+5; i++ {
		id := uuid.New()
		if i == 0 {
			first = id
		}
		last = id
		_, err := s.AddHistory(ctx, id, "cafe")
		require.NoError(t, err)
	}

	entries, err := s.ListHistory(ctx)
	require.NoError(t, err)
	require.Len(t, entries, MaxHistory)
	assert.Equal(t, last, entries[0].CafeID)
	for _, e := range entries {
		assert.NotEqual(t, first, e.CafeID, "oldest entry should have been evicted")
	}
}

func TestHistoryStore_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	e1, err := s.AddHistory(ctx, uuid.New(), "A")
	require.NoError(t, err)
	_, err = s.AddHistory(ctx, uuid.New(), "B")
	require.NoError(t, err)

	require.NoError(t, s.RemoveHistory(ctx, e1.ID))
	entries, err := s.ListHistory(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "B", entries[0].CafeName)

	require.NoError(t, s.ClearHistory(ctx))
	entries, err = s.ListHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// =============================================================================
// StateStore Tests
// =============================================================================

func TestStateStore(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	if _, ok := s.GetState(ctx, "sort_option"); ok {
		t.Fatal("expected missing key")
	}
	require.NoError(t, s.SetState(ctx, "sort_option", "nearby"))
	require.NoError(t, s.SetState(ctx, "sort_option", "price_low"))

	val, ok := s.GetState(ctx, "sort_option")
	assert.True(t, ok)
	assert.Equal(t, "price_low", val)

	require.NoError(t, s.DeleteState(ctx, "sort_option"))
	_, ok = s.GetState(ctx, "sort_option")
	assert.False(t, ok)
}
