package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.db")
	s, err := Open(path, DefaultOptions())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertAndFindFile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f := &File{ProjectID: 1, Path: "a/b.go", ContentHash: "h1", Language: "go", SizeBytes: 10, MTime: time.Now()}
	id, err := s.UpsertFile(ctx, f)
	require.NoError(t, err)
	assert.NotZero(t, id)

	got, err := s.FindFileByPath(ctx, 1, "a/b.go")
	require.NoError(t, err)
	assert.Equal(t, "h1", got.ContentHash)
	assert.False(t, got.IsDeleted())
}

func TestSoftDeleteThenHardDeleteAfterRetention(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f := &File{ProjectID: 1, Path: "a.go", ContentHash: "h", MTime: time.Now()}
	id, err := s.UpsertFile(ctx, f)
	require.NoError(t, err)

	require.NoError(t, s.SoftDeleteFile(ctx, id))

	_, err = s.FindFileByPath(ctx, 1, "a.go")
	assert.Error(t, err, "soft-deleted file should not be found by live lookup")

	n, err := s.HardDeleteFilesOlderThan(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestReplaceChunksPopulatesFTS(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	fileID, err := s.UpsertFile(ctx, &File{ProjectID: 1, Path: "x.go", ContentHash: "h", MTime: time.Now()})
	require.NoError(t, err)

	chunks := []*Chunk{
		{FileID: fileID, Text: "func doWork() error", TextSchemaVer: 1, StartLine: 1, EndLine: 1, ContentHash: "c1"},
	}
	require.NoError(t, s.ReplaceChunks(ctx, fileID, chunks))
	assert.NotZero(t, chunks[0].ID)

	var count int
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fts_chunks WHERE content MATCH 'doWork'`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestEnsureIndexDimensionRejectsMismatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureIndexDimension(ctx, 384, "static-v1"))
	require.NoError(t, s.EnsureIndexDimension(ctx, 384, "static-v1"))

	err := s.EnsureIndexDimension(ctx, 768, "static-v1")
	require.Error(t, err)
	var mismatch *ErrDimensionMismatch
	assert.ErrorAs(t, err, &mismatch)
}

func TestEmbeddingRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	fileID, err := s.UpsertFile(ctx, &File{ProjectID: 1, Path: "x.go", ContentHash: "h", MTime: time.Now()})
	require.NoError(t, err)
	chunks := []*Chunk{{FileID: fileID, Text: "t", TextSchemaVer: 1, ContentHash: "c"}}
	require.NoError(t, s.ReplaceChunks(ctx, fileID, chunks))

	e := &Embedding{
		ChunkID:      chunks[0].ID,
		Dense:        []float32{0.1, 0.2, 0.3},
		SparseValues: []float32{1, 2},
		SparseCols:   []int32{5, 9},
		Model:        "static-v1",
	}
	require.NoError(t, s.UpsertEmbedding(ctx, e))

	all, err := s.AllEmbeddings(ctx, 1)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, e.Dense, all[0].Dense)
	assert.Equal(t, e.SparseCols, all[0].SparseCols)
}

func TestChunkDetailsByIDsJoinsFileAndSymbol(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	fileID, err := s.UpsertFile(ctx, &File{ProjectID: 1, Path: "x.go", Language: "go", ContentHash: "h", MTime: time.Now()})
	require.NoError(t, err)

	symbols := []*Symbol{{FileID: fileID, Name: "DoWork", Type: SymbolFunction, StartLine: 1, EndLine: 3}}
	require.NoError(t, s.ReplaceSymbols(ctx, fileID, symbols))

	chunks := []*Chunk{{FileID: fileID, SymbolID: &symbols[0].ID, Text: "func DoWork() {}", TextSchemaVer: 1, ContentHash: "c"}}
	require.NoError(t, s.ReplaceChunks(ctx, fileID, chunks))

	details, err := s.ChunkDetailsByIDs(ctx, []int64{chunks[0].ID})
	require.NoError(t, err)
	require.Contains(t, details, chunks[0].ID)
	d := details[chunks[0].ID]
	assert.Equal(t, "x.go", d.FilePath)
	assert.Equal(t, "go", d.Language)
	assert.Equal(t, "DoWork", d.SymbolName)
	assert.Equal(t, SymbolFunction, d.SymbolType)
}

func TestChunkDetailsByIDsEmptyInput(t *testing.T) {
	s := newTestStore(t)
	details, err := s.ChunkDetailsByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, details)
}
