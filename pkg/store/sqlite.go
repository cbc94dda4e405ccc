package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cafedoko/pkg/db"
	"cafedoko/pkg/model"

	"github.com/google/uuid"
)

// Store defines the repository interface.
// It composes all sub-interfaces for full store access.
// Consumers should depend on specific sub-interfaces when possible.
type Store interface {
	FavoriteStore
	HistoryStore
	StateStore

	// Close closes the store connection.
	Close() error
}

// SQLiteStore implements Store.
type SQLiteStore struct {
	db  *db.DB
	now func() time.Time
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(db *db.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Favorites ---

func (s *SQLiteStore) AddFavorite(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO favorites (cafe_id, created_at) VALUES (?, ?)`, id.String(), s.now().UTC())
	return err
}

func (s *SQLiteStore) RemoveFavorite(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM favorites WHERE cafe_id = ?`, id.String())
	return err
}

// ToggleFavorite flips the favorite flag and returns the new state.
func (s *SQLiteStore) ToggleFavorite(ctx context.Context, id uuid.UUID) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM favorites WHERE cafe_id = ?`, id.String())
	if err != nil {
		return false, err
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if removed == 0 {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO favorites (cafe_id, created_at) VALUES (?, ?)`, id.String(), s.now().UTC()); err != nil {
			return false, err
		}
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return removed == 0, nil
}

func (s *SQLiteStore) IsFavorite(ctx context.Context, id uuid.UUID) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM favorites WHERE cafe_id = ?`, id.String()).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListFavorites returns favorite ids, oldest first.
func (s *SQLiteStore) ListFavorites(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT cafe_id FROM favorites ORDER BY created_at, cafe_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("corrupt favorite id %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) ClearFavorites(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM favorites`)
	return err
}

// --- History ---

// AddHistory records a view. An earlier entry for the same cafe is replaced
// and only the MaxHistory most recent entries are kept.
func (s *SQLiteStore) AddHistory(ctx context.Context, cafeID uuid.UUID, cafeName string) (*model.HistoryEntry, error) {
	entry := &model.HistoryEntry{
		ID:       uuid.New(),
		CafeID:   cafeID,
		CafeName: cafeName,
		ViewedAt: s.now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM history WHERE cafe_id = ?`, cafeID.String()); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO history (id, cafe_id, cafe_name, viewed_at) VALUES (?, ?, ?, ?)`,
		entry.ID.String(), cafeID.String(), cafeName, entry.ViewedAt); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM history WHERE id NOT IN (SELECT id FROM history ORDER BY viewed_at DESC, rowid DESC LIMIT ?)`,
		MaxHistory); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return entry, nil
}

// ListHistory returns entries, most recent first.
func (s *SQLiteStore) ListHistory(ctx context.Context) ([]model.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, cafe_id, cafe_name, viewed_at FROM history ORDER BY viewed_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.HistoryEntry{}
	for rows.Next() {
		var id, cafeID string
		var e model.HistoryEntry
		if err := rows.Scan(&id, &cafeID, &e.CafeName, &e.ViewedAt); err != nil {
			return nil, err
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("corrupt history id %q: %w", id, err)
		}
		if e.CafeID, err = uuid.Parse(cafeID); err != nil {
			return nil, fmt.Errorf("corrupt history cafe id %q: %w", cafeID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) RemoveHistory(ctx context.Context, entryID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE id = ?`, entryID.String())
	return err
}

func (s *SQLiteStore) ClearHistory(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM history`)
	return err
}

// --- State ---

func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, bool) {
	var val string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM persistent_state WHERE key = ?", key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) || err != nil {
		return "", false
	}
	return val, true
}

func (s *SQLiteStore) SetState(ctx context.Context, key, val string) error {
	query := `INSERT OR REPLACE INTO persistent_state (key, value, created_at) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, key, val, s.now().UTC())
	return err
}

func (s *SQLiteStore) DeleteState(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM persistent_state WHERE key = ?", key)
	return err
}
