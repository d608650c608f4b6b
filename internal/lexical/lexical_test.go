package lexical

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	_, err = db.Exec(`CREATE VIRTUAL TABLE fts_chunks USING fts5(chunk_id UNINDEXED, content, tokenize='unicode61')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO fts_chunks (chunk_id, content) VALUES (1, 'func doWork performs the work'), (2, 'func other does nothing related')`)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSearchOrdersAscendingByScore(t *testing.T) {
	db := newTestDB(t)
	s := New(db, nil)

	results, err := s.Search(context.Background(), "work", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i-1].Score, results[i].Score)
	}
	assert.Equal(t, 1, results[0].Rank)
}

func TestSearchPhraseRequiresContiguousTerms(t *testing.T) {
	db := newTestDB(t)
	s := New(db, nil)

	results, err := s.SearchPhrase(context.Background(), "does nothing", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(2), results[0].ChunkID)
}

func TestSearchPrefixMatchesPartialTerm(t *testing.T) {
	db := newTestDB(t)
	s := New(db, nil)

	results, err := s.SearchPrefix(context.Background(), "perf", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(1), results[0].ChunkID)
}
