package store

import (
	"context"
	"database/sql"

	"github.com/amanmcp/codeindex/internal/errcodes"
)

// ReplaceCalls atomically replaces all outgoing call edges recorded
// for symbols belonging to a file.
func (s *Store) ReplaceCalls(ctx context.Context, fileID int64, calls []*Call) error {
	return s.WithWriteLock(ctx, func(conn *sql.Conn) error {
		if _, err := conn.ExecContext(ctx, `
			DELETE FROM calls WHERE caller_id IN (SELECT id FROM symbols WHERE file_id = ?)`, fileID); err != nil {
			return err
		}
		for _, c := range calls {
			if _, err := conn.ExecContext(ctx, `
				INSERT INTO calls (caller_id, callee_name, callee_id, line) VALUES (?, ?, ?, ?)`,
				c.CallerID, c.CalleeName, c.CalleeID, c.Line); err != nil {
				return err
			}
		}
		return nil
	})
}

// CallersOf returns call edges targeting a resolved callee symbol.
func (s *Store) CallersOf(ctx context.Context, calleeID int64) ([]*Call, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, caller_id, callee_name, callee_id, line FROM calls WHERE callee_id = ?`, calleeID)
	if err != nil {
		return nil, errcodes.Wrap(errcodes.ErrCodeDatabase, err)
	}
	defer rows.Close()

	var out []*Call
	for rows.Next() {
		c := &Call{}
		var calleeIDNull sql.NullInt64
		if err := rows.Scan(&c.ID, &c.CallerID, &c.CalleeName, &calleeIDNull, &c.Line); err != nil {
			return nil, errcodes.Wrap(errcodes.ErrCodeDatabase, err)
		}
		if calleeIDNull.Valid {
			c.CalleeID = &calleeIDNull.Int64
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
