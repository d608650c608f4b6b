package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/amanmcp/codeindex/internal/errcodes"
)

// WithWriteLock runs fn against a dedicated connection inside a BEGIN
// IMMEDIATE transaction, retrying with exponential backoff when
// SQLite reports the database is busy (single-writer contention from
// another process holding the write lock); any other error is returned
// without a retry. Every repository write in this package goes through
// it; Analyze, Vacuum and Open's schema setup write without it.
func (s *Store) WithWriteLock(ctx context.Context, fn func(conn *sql.Conn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := errcodes.DefaultRetryConfig()
	attempt := func() error {
		conn, err := s.db.Conn(ctx)
		if err != nil {
			return errcodes.DatabaseError("acquire connection", isBusy(err), err)
		}
		defer conn.Close()

		if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
			return errcodes.DatabaseError("acquire write lock", isBusy(err), err)
		}

		if err := fn(conn); err != nil {
			conn.ExecContext(ctx, "ROLLBACK")
			return err
		}
		if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
			return errcodes.DatabaseError("commit", isBusy(err), err)
		}
		return nil
	}

	// Retry re-runs after any error, so a non-busy failure is kept in
	// permanent and reported to Retry as success to stop it.
	var permanent error
	err := errcodes.Retry(ctx, cfg, func() error {
		err := attempt()
		var ie *errcodes.IndexError
		if err != nil && !isBusy(err) && !(errors.As(err, &ie) && ie.Code == errcodes.ErrCodeDatabaseBusy) {
			permanent = err
			return nil
		}
		return err
	})
	if permanent != nil {
		return permanent
	}
	return err
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "busy") || strings.Contains(msg, "locked")
}
