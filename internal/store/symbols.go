package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/amanmcp/codeindex/internal/errcodes"
)

// ReplaceSymbols atomically replaces all symbols for a file: existing
// symbols are soft-deleted, then the given set is inserted. Used on
// every re-index of a changed file since symbol sets aren't diffed
// individually.
func (s *Store) ReplaceSymbols(ctx context.Context, fileID int64, symbols []*Symbol) error {
	return s.WithWriteLock(ctx, func(conn *sql.Conn) error {
		now := time.Now().UTC().Format(time.RFC3339Nano)
		if _, err := conn.ExecContext(ctx,
			`UPDATE symbols SET deleted_at = ? WHERE file_id = ? AND deleted_at IS NULL`, now, fileID); err != nil {
			return err
		}
		for _, sym := range symbols {
			res, err := conn.ExecContext(ctx, `
				INSERT INTO symbols (file_id, name, type, start_line, end_line, start_col, end_col, signature, parent_id, deleted_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
				fileID, sym.Name, string(sym.Type), sym.StartLine, sym.EndLine, sym.StartCol, sym.EndCol, sym.Signature, sym.ParentID)
			if err != nil {
				return err
			}
			sym.ID, _ = res.LastInsertId()
		}
		return nil
	})
}

// SymbolsByFile returns live symbols for a file ordered by position.
func (s *Store) SymbolsByFile(ctx context.Context, fileID int64) ([]*Symbol, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_id, name, type, start_line, end_line, start_col, end_col, signature, parent_id
		FROM symbols WHERE file_id = ? AND deleted_at IS NULL ORDER BY start_line`, fileID)
	if err != nil {
		return nil, errcodes.Wrap(errcodes.ErrCodeDatabase, err)
	}
	defer rows.Close()

	var out []*Symbol
	for rows.Next() {
		sym := &Symbol{}
		var typ string
		var parentID sql.NullInt64
		if err := rows.Scan(&sym.ID, &sym.FileID, &sym.Name, &typ, &sym.StartLine, &sym.EndLine, &sym.StartCol, &sym.EndCol, &sym.Signature, &parentID); err != nil {
			return nil, errcodes.Wrap(errcodes.ErrCodeDatabase, err)
		}
		sym.Type = SymbolType(typ)
		if parentID.Valid {
			sym.ParentID = &parentID.Int64
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

// SearchSymbolsByName returns live symbols whose name matches a
// case-insensitive substring, across the whole project.
func (s *Store) SearchSymbolsByName(ctx context.Context, projectID int64, query string, limit int) ([]*Symbol, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sy.id, sy.file_id, sy.name, sy.type, sy.start_line, sy.end_line, sy.start_col, sy.end_col, sy.signature, sy.parent_id
		FROM symbols sy
		JOIN files f ON f.id = sy.file_id
		WHERE f.project_id = ? AND sy.deleted_at IS NULL AND f.deleted_at IS NULL
		  AND sy.name LIKE '%' || ? || '%' COLLATE NOCASE
		ORDER BY length(sy.name) ASC
		LIMIT ?`, projectID, query, limit)
	if err != nil {
		return nil, errcodes.Wrap(errcodes.ErrCodeDatabase, err)
	}
	defer rows.Close()

	var out []*Symbol
	for rows.Next() {
		sym := &Symbol{}
		var typ string
		var parentID sql.NullInt64
		if err := rows.Scan(&sym.ID, &sym.FileID, &sym.Name, &typ, &sym.StartLine, &sym.EndLine, &sym.StartCol, &sym.EndCol, &sym.Signature, &parentID); err != nil {
			return nil, errcodes.Wrap(errcodes.ErrCodeDatabase, err)
		}
		sym.Type = SymbolType(typ)
		if parentID.Valid {
			sym.ParentID = &parentID.Int64
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}
