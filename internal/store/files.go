package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/amanmcp/codeindex/internal/errcodes"
)

// UpsertFile inserts a file or, if the path already exists for the
// project, updates its content hash/size/mtime and clears any
// soft-delete, returning the row ID.
func (s *Store) UpsertFile(ctx context.Context, f *File) (int64, error) {
	var id int64
	err := s.WithWriteLock(ctx, func(conn *sql.Conn) error {
		now := time.Now().UTC()
		row := conn.QueryRowContext(ctx, `
			INSERT INTO files (project_id, path, content_hash, language, size_bytes, mtime, indexed_at, deleted_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, NULL)
			ON CONFLICT(project_id, path) DO UPDATE SET
				content_hash = excluded.content_hash,
				language     = excluded.language,
				size_bytes   = excluded.size_bytes,
				mtime        = excluded.mtime,
				indexed_at   = excluded.indexed_at,
				deleted_at   = NULL
			RETURNING id`,
			f.ProjectID, f.Path, f.ContentHash, f.Language, f.SizeBytes,
			f.MTime.UTC().Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
		return row.Scan(&id)
	})
	if err != nil {
		return 0, errcodes.Wrap(errcodes.ErrCodeDatabase, err)
	}
	return id, nil
}

// FindFileByPath returns the live (non-deleted) file at path, or
// sql.ErrNoRows if absent.
func (s *Store) FindFileByPath(ctx context.Context, projectID int64, path string) (*File, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, path, content_hash, language, size_bytes, mtime, indexed_at, deleted_at
		FROM files WHERE project_id = ? AND path = ? AND deleted_at IS NULL`, projectID, path)
	return scanFile(row)
}

// FindFileByHash returns the first live file matching a content hash,
// used to detect renames (same content, different path).
func (s *Store) FindFileByHash(ctx context.Context, projectID int64, hash string) (*File, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, path, content_hash, language, size_bytes, mtime, indexed_at, deleted_at
		FROM files WHERE project_id = ? AND content_hash = ? AND deleted_at IS NULL LIMIT 1`, projectID, hash)
	return scanFile(row)
}

// ListFiles returns all live files for a project.
func (s *Store) ListFiles(ctx context.Context, projectID int64) ([]*File, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, path, content_hash, language, size_bytes, mtime, indexed_at, deleted_at
		FROM files WHERE project_id = ? AND deleted_at IS NULL`, projectID)
	if err != nil {
		return nil, errcodes.Wrap(errcodes.ErrCodeDatabase, err)
	}
	defer rows.Close()

	var out []*File
	for rows.Next() {
		f, err := scanFileRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// SoftDeleteFile marks a file deleted without removing its row; its
// symbols, chunks, and embeddings remain queryable until a maintenance
// pass hard-deletes them past the retention window.
func (s *Store) SoftDeleteFile(ctx context.Context, fileID int64) error {
	return s.WithWriteLock(ctx, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx, `UPDATE files SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
			time.Now().UTC().Format(time.RFC3339Nano), fileID)
		return err
	})
}

// HardDeleteFilesOlderThan permanently removes files (and their
// cascaded symbols/chunks/embeddings/calls/fts rows) soft-deleted
// before cutoff. Returns the number of files removed.
func (s *Store) HardDeleteFilesOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := s.WithWriteLock(ctx, func(conn *sql.Conn) error {
		ids, err := conn.QueryContext(ctx, `SELECT id FROM files WHERE deleted_at IS NOT NULL AND deleted_at < ?`,
			cutoff.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return err
		}
		var fileIDs []int64
		for ids.Next() {
			var id int64
			if err := ids.Scan(&id); err != nil {
				ids.Close()
				return err
			}
			fileIDs = append(fileIDs, id)
		}
		ids.Close()

		for _, id := range fileIDs {
			if _, err := conn.ExecContext(ctx,
				`DELETE FROM fts_chunks WHERE chunk_id IN (SELECT id FROM chunks WHERE file_id = ?)`, id); err != nil {
				return err
			}
			if _, err := conn.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row *sql.Row) (*File, error) {
	f := &File{}
	var mtime, indexedAt string
	var deletedAt sql.NullString
	if err := row.Scan(&f.ID, &f.ProjectID, &f.Path, &f.ContentHash, &f.Language, &f.SizeBytes, &mtime, &indexedAt, &deletedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errcodes.Wrap(errcodes.ErrCodeDatabase, err)
	}
	return finishFile(f, mtime, indexedAt, deletedAt)
}

func scanFileRows(rows *sql.Rows) (*File, error) {
	f := &File{}
	var mtime, indexedAt string
	var deletedAt sql.NullString
	if err := rows.Scan(&f.ID, &f.ProjectID, &f.Path, &f.ContentHash, &f.Language, &f.SizeBytes, &mtime, &indexedAt, &deletedAt); err != nil {
		return nil, errcodes.Wrap(errcodes.ErrCodeDatabase, err)
	}
	return finishFile(f, mtime, indexedAt, deletedAt)
}

func finishFile(f *File, mtime, indexedAt string, deletedAt sql.NullString) (*File, error) {
	f.MTime, _ = time.Parse(time.RFC3339Nano, mtime)
	f.IndexedAt, _ = time.Parse(time.RFC3339Nano, indexedAt)
	if deletedAt.Valid {
		t, _ := time.Parse(time.RFC3339Nano, deletedAt.String)
		f.DeletedAt = &t
	}
	return f, nil
}
