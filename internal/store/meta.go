package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/amanmcp/codeindex/internal/errcodes"
)

// GetState reads a meta key, returning ("", false, nil) if absent.
func (s *Store) GetState(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errcodes.Wrap(errcodes.ErrCodeDatabase, err)
	}
	return value, true, nil
}

// SetState upserts a meta key.
func (s *Store) SetState(ctx context.Context, key, value string) error {
	return s.WithWriteLock(ctx, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx, `
			INSERT INTO meta (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
		return err
	})
}

// EnsureIndexDimension binds the project to a dense dimension and
// embedder model on first use, and enforces it thereafter. This
// resolves the embedding-dimension Open Question: the dimension is
// whatever the first successful embed produced, recorded once, and
// checked on every later call.
func (s *Store) EnsureIndexDimension(ctx context.Context, dim int, model string) error {
	existing, ok, err := s.GetState(ctx, StateKeyIndexDimension)
	if err != nil {
		return err
	}
	if !ok {
		if err := s.SetState(ctx, StateKeyIndexDimension, strconv.Itoa(dim)); err != nil {
			return err
		}
		return s.SetState(ctx, StateKeyIndexModel, model)
	}
	got, _ := strconv.Atoi(existing)
	if got != dim {
		return &ErrDimensionMismatch{Expected: got, Got: dim}
	}
	return nil
}
