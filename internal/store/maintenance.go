package store

import (
	"context"

	"github.com/amanmcp/codeindex/internal/errcodes"
)

// Analyze runs SQLite's ANALYZE to refresh the query planner's table
// and index statistics, used by the maintenance scheduler (C9) after
// a retention-driven hard-delete pass.
func (s *Store) Analyze(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "ANALYZE"); err != nil {
		return errcodes.Wrap(errcodes.ErrCodeDatabase, err)
	}
	return nil
}

// Vacuum rebuilds the database file to reclaim space freed by hard
// deletes. VACUUM cannot run inside a transaction, so this bypasses
// WithWriteLock and relies on the caller (the maintenance scheduler)
// to serialize it against other writers.
func (s *Store) Vacuum(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return errcodes.Wrap(errcodes.ErrCodeDatabase, err)
	}
	return nil
}
