package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"time"

	"github.com/amanmcp/codeindex/internal/errcodes"
)

// UpsertEmbedding stores (or replaces) the dense and sparse vectors
// for a chunk. Dimension mismatches against the project's recorded
// index_dimension are the caller's responsibility to check before
// calling this (see internal/hybridindex), since this layer is a
// dumb blob store.
func (s *Store) UpsertEmbedding(ctx context.Context, e *Embedding) error {
	return s.WithWriteLock(ctx, func(conn *sql.Conn) error {
		dense := encodeFloat32s(e.Dense)
		sparseVals := encodeFloat32s(e.SparseValues)
		sparseCols := encodeInt32s(e.SparseCols)
		_, err := conn.ExecContext(ctx, `
			INSERT INTO embeddings (chunk_id, dense, sparse_values, sparse_cols, model, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(chunk_id) DO UPDATE SET
				dense = excluded.dense, sparse_values = excluded.sparse_values,
				sparse_cols = excluded.sparse_cols, model = excluded.model, created_at = excluded.created_at`,
			e.ChunkID, dense, sparseVals, sparseCols, e.Model, time.Now().UTC().Format(time.RFC3339Nano))
		return err
	})
}

// AllEmbeddings streams every live embedding for a project, used to
// rebuild the in-memory hybrid index on load.
func (s *Store) AllEmbeddings(ctx context.Context, projectID int64) ([]*Embedding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.chunk_id, e.dense, e.sparse_values, e.sparse_cols, e.model, e.created_at
		FROM embeddings e
		JOIN chunks c ON c.id = e.chunk_id
		JOIN files f ON f.id = c.file_id
		WHERE f.project_id = ? AND c.deleted_at IS NULL AND f.deleted_at IS NULL`, projectID)
	if err != nil {
		return nil, errcodes.Wrap(errcodes.ErrCodeDatabase, err)
	}
	defer rows.Close()

	var out []*Embedding
	for rows.Next() {
		e := &Embedding{}
		var dense, sparseVals, sparseCols []byte
		var createdAt string
		if err := rows.Scan(&e.ChunkID, &dense, &sparseVals, &sparseCols, &e.Model, &createdAt); err != nil {
			return nil, errcodes.Wrap(errcodes.ErrCodeDatabase, err)
		}
		e.Dense = decodeFloat32s(dense)
		e.SparseValues = decodeFloat32s(sparseVals)
		e.SparseCols = decodeInt32s(sparseCols)
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

func encodeFloat32s(v []float32) []byte {
	buf := new(bytes.Buffer)
	buf.Grow(len(v) * 4)
	binary.Write(buf, binary.LittleEndian, v)
	return buf.Bytes()
}

func decodeFloat32s(b []byte) []float32 {
	n := len(b) / 4
	if n == 0 {
		return nil
	}
	out := make([]float32, n)
	binary.Read(bytes.NewReader(b), binary.LittleEndian, out)
	return out
}

func encodeInt32s(v []int32) []byte {
	buf := new(bytes.Buffer)
	buf.Grow(len(v) * 4)
	binary.Write(buf, binary.LittleEndian, v)
	return buf.Bytes()
}

func decodeInt32s(b []byte) []int32 {
	n := len(b) / 4
	if n == 0 {
		return nil
	}
	out := make([]int32, n)
	binary.Read(bytes.NewReader(b), binary.LittleEndian, out)
	return out
}
