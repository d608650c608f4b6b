package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/amanmcp/codeindex/internal/errcodes"
)

// ReplaceChunks atomically replaces a file's chunks: existing chunks
// are soft-deleted and their fts rows removed (their embeddings rows
// stay; AllEmbeddings skips soft-deleted chunks), then the new set is
// inserted and each Chunk's ID is set in place.
func (s *Store) ReplaceChunks(ctx context.Context, fileID int64, chunks []*Chunk) error {
	return s.WithWriteLock(ctx, func(conn *sql.Conn) error {
		now := time.Now().UTC().Format(time.RFC3339Nano)
		oldIDs, err := conn.QueryContext(ctx, `SELECT id FROM chunks WHERE file_id = ? AND deleted_at IS NULL`, fileID)
		if err != nil {
			return err
		}
		var toDelete []int64
		for oldIDs.Next() {
			var id int64
			if err := oldIDs.Scan(&id); err != nil {
				oldIDs.Close()
				return err
			}
			toDelete = append(toDelete, id)
		}
		oldIDs.Close()

		for _, id := range toDelete {
			if _, err := conn.ExecContext(ctx, `DELETE FROM fts_chunks WHERE chunk_id = ?`, id); err != nil {
				return err
			}
		}
		if _, err := conn.ExecContext(ctx, `UPDATE chunks SET deleted_at = ? WHERE file_id = ? AND deleted_at IS NULL`, now, fileID); err != nil {
			return err
		}

		for _, c := range chunks {
			res, err := conn.ExecContext(ctx, `
				INSERT INTO chunks (file_id, symbol_id, text, text_schema_ver, start_line, end_line, content_hash, deleted_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, NULL)`,
				fileID, c.SymbolID, c.Text, c.TextSchemaVer, c.StartLine, c.EndLine, c.ContentHash)
			if err != nil {
				return err
			}
			c.ID, _ = res.LastInsertId()
			if _, err := conn.ExecContext(ctx, `INSERT INTO fts_chunks (chunk_id, content) VALUES (?, ?)`, c.ID, c.Text); err != nil {
				return err
			}
		}
		return nil
	})
}

// ChunksByFile returns live chunks for a file ordered by position.
func (s *Store) ChunksByFile(ctx context.Context, fileID int64) ([]*Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_id, symbol_id, text, text_schema_ver, start_line, end_line, content_hash
		FROM chunks WHERE file_id = ? AND deleted_at IS NULL ORDER BY start_line`, fileID)
	if err != nil {
		return nil, errcodes.Wrap(errcodes.ErrCodeDatabase, err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

// Chunk returns a single live chunk by ID.
func (s *Store) Chunk(ctx context.Context, id int64) (*Chunk, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, file_id, symbol_id, text, text_schema_ver, start_line, end_line, content_hash
		FROM chunks WHERE id = ? AND deleted_at IS NULL`, id)
	c := &Chunk{}
	var symbolID sql.NullInt64
	if err := row.Scan(&c.ID, &c.FileID, &symbolID, &c.Text, &c.TextSchemaVer, &c.StartLine, &c.EndLine, &c.ContentHash); err != nil {
		return nil, err
	}
	if symbolID.Valid {
		c.SymbolID = &symbolID.Int64
	}
	return c, nil
}

// ChunkDetail is a chunk joined with its owning file and (if any)
// symbol, used to render search results without a second round trip
// per hit.
type ChunkDetail struct {
	Chunk      *Chunk
	FilePath   string
	Language   string
	SymbolName string
	SymbolType SymbolType
}

// ChunkDetailsByIDs batch-loads chunk/file/symbol joins for a set of
// chunk IDs, preserving no particular order — callers re-sort by their
// own ranking.
func (s *Store) ChunkDetailsByIDs(ctx context.Context, ids []int64) (map[int64]*ChunkDetail, error) {
	out := make(map[int64]*ChunkDetail, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	query := `
		SELECT c.id, c.file_id, c.symbol_id, c.text, c.text_schema_ver, c.start_line, c.end_line, c.content_hash,
			f.path, f.language, s.name, s.type
		FROM chunks c
		JOIN files f ON f.id = c.file_id
		LEFT JOIN symbols s ON s.id = c.symbol_id
		WHERE c.id IN (` + strings.Join(placeholders, ",") + `) AND c.deleted_at IS NULL`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errcodes.Wrap(errcodes.ErrCodeDatabase, err)
	}
	defer rows.Close()

	for rows.Next() {
		c := &Chunk{}
		var symbolID sql.NullInt64
		var symName sql.NullString
		var symType sql.NullString
		d := &ChunkDetail{Chunk: c}
		if err := rows.Scan(&c.ID, &c.FileID, &symbolID, &c.Text, &c.TextSchemaVer, &c.StartLine, &c.EndLine, &c.ContentHash,
			&d.FilePath, &d.Language, &symName, &symType); err != nil {
			return nil, errcodes.Wrap(errcodes.ErrCodeDatabase, err)
		}
		if symbolID.Valid {
			c.SymbolID = &symbolID.Int64
		}
		d.SymbolName = symName.String
		d.SymbolType = SymbolType(symType.String)
		out[c.ID] = d
	}
	return out, rows.Err()
}

func scanChunks(rows *sql.Rows) ([]*Chunk, error) {
	var out []*Chunk
	for rows.Next() {
		c := &Chunk{}
		var symbolID sql.NullInt64
		if err := rows.Scan(&c.ID, &c.FileID, &symbolID, &c.Text, &c.TextSchemaVer, &c.StartLine, &c.EndLine, &c.ContentHash); err != nil {
			return nil, errcodes.Wrap(errcodes.ErrCodeDatabase, err)
		}
		if symbolID.Valid {
			c.SymbolID = &symbolID.Int64
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
