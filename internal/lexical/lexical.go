// Package lexical implements the full-text search side of retrieval
// (C5): free-text, phrase, and prefix queries against the store's FTS5
// virtual table, slow-query logging, and snippet generation. No
// per-query column weighting is exposed.
package lexical

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// SlowQueryThreshold is the duration past which a query is logged as a
// warning (query text and elapsed time) through the Searcher's logger.
// No separate slow-queries file is written and the result count is not
// logged.
const SlowQueryThreshold = 100 * time.Millisecond

// Result is one FTS5 match. Score is the raw bm25() value: SQLite's
// FTS5 bm25() is ascending, lower (more negative) is better, and this
// package preserves that convention rather than negating it, so Rank
// 1 is always the lowest Score in the result set.
type Result struct {
	ChunkID int64
	Score   float64
	Rank    int
	Snippet string
}

// Searcher runs FTS5 queries against a store's fts_chunks table.
type Searcher struct {
	db     *sql.DB
	logger *slog.Logger
}

func New(db *sql.DB, logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{db: db, logger: logger}
}

// Search runs a free-text FTS5 MATCH query and returns results
// ordered ascending by bm25() score (best first).
func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	return s.query(ctx, query, limit)
}

// SearchPhrase wraps query in FTS5 phrase-match quoting so terms must
// appear contiguously.
func (s *Searcher) SearchPhrase(ctx context.Context, phrase string, limit int) ([]Result, error) {
	escaped := strings.ReplaceAll(phrase, `"`, `""`)
	return s.query(ctx, fmt.Sprintf(`"%s"`, escaped), limit)
}

// SearchPrefix runs a prefix query: each term is treated as a prefix
// match via FTS5's `*` operator.
func (s *Searcher) SearchPrefix(ctx context.Context, prefix string, limit int) ([]Result, error) {
	terms := strings.Fields(prefix)
	for i, t := range terms {
		terms[i] = t + "*"
	}
	return s.query(ctx, strings.Join(terms, " "), limit)
}

func (s *Searcher) query(ctx context.Context, ftsQuery string, limit int) ([]Result, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_id, bm25(fts_chunks) AS score, snippet(fts_chunks, 1, '[', ']', '...', 10)
		FROM fts_chunks
		WHERE fts_chunks MATCH ?
		ORDER BY score ASC
		LIMIT ?`, ftsQuery, limit)
	elapsed := time.Since(start)
	if elapsed > SlowQueryThreshold {
		s.logger.Warn("slow lexical query", slog.String("query", ftsQuery), slog.Duration("elapsed", elapsed))
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ChunkID, &r.Score, &r.Snippet); err != nil {
			return nil, err
		}
		r.Rank = len(out) + 1
		out = append(out, r)
	}
	return out, rows.Err()
}
