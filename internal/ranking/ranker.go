package ranking

import (
	"context"
	"strings"
	"time"

	"github.com/amanmcp/codeindex/internal/errcodes"
	"github.com/amanmcp/codeindex/internal/lexical"
	"github.com/amanmcp/codeindex/internal/store"
)

// Retriever is Stage B's per-source contract: given a query, return a
// ranked candidate list. The ranker is agnostic to what's behind it
// (FTS5 for lexical, the hybrid index for semantic).
type Retriever interface {
	Retrieve(ctx context.Context, query string, limit int) ([]RetrievedItem, error)
}

// RetrievedItem is one hit from a single retriever, before fusion.
type RetrievedItem struct {
	ChunkID  int64
	Score    float64
	FilePath string
}

// CandidateFacts is the per-candidate metadata Stage D's tie-breaking
// needs beyond the fused score.
type CandidateFacts struct {
	SymbolType store.SymbolType
	SymbolName string
	Language   string
}

// Query bundles a search request with the tie-break facts Stage D
// needs.
type Query struct {
	Text  string
	Facts func(chunkID int64) CandidateFacts // looked up lazily per candidate
}

// Result is a fully ranked, diversified hit returned to the caller.
type Result struct {
	ChunkID    int64
	FilePath   string
	FinalScore float64
	Breakdown  Breakdown
}

// Ranker runs Stages A-G: parallel retrieval under a shared timeout
// budget, RRF fusion, tie-breaking, MMR diversification, early
// termination, and score-breakdown output.
type Ranker struct {
	Lexical  Retriever
	Semantic Retriever
	Config   Config
}

// New constructs a Ranker with cfg as given: it is neither validated
// here nor replaced by defaults when zero. Rank validates it on every
// call and returns an error for an invalid config.
func New(lexicalR, semanticR Retriever, cfg Config) *Ranker {
	return &Ranker{Lexical: lexicalR, Semantic: semanticR, Config: cfg}
}

// retrievalOutcome is one source's result as it arrives off retrieveBoth's
// channels: either items, an error, or ctx expiring before it answered.
type retrievalOutcome struct {
	items []RetrievedItem
	err   error
}

// Rank executes the full pipeline and returns up to topK results
// alongside the per-query metrics record §4.6 always populates.
func (r *Ranker) Rank(ctx context.Context, q Query, topK int) ([]Result, Metrics, error) {
	start := time.Now()
	if err := r.Config.Validate(); err != nil {
		return nil, Metrics{}, err
	}

	timeout := time.Duration(r.Config.Performance.TimeoutMS) * time.Millisecond
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	lexItems, semItems, lexErr, semErr, lexMS, semMS := r.retrieveBoth(ctx, q.Text)
	if lexErr != nil && semErr != nil {
		metrics := Metrics{
			LexicalSearchTimeMS: lexMS,
			VectorSearchTimeMS:  semMS,
			TotalTimeMS:         time.Since(start).Milliseconds(),
		}
		metrics.SLAViolation = time.Since(start) > timeout
		return nil, metrics, errcodes.InternalError("both lexical and vector retrieval failed", lexErr)
	}

	// fallbackMode names the source the query actually relied on: a
	// hard failure/timeout in one source forces it out of the fusion
	// entirely; a source that merely returned nothing for this query
	// also counts as a fallback, since the final result set is driven
	// by the single surviving source either way.
	fallbackMode := ""
	switch {
	case lexErr != nil:
		lexItems = nil
		fallbackMode = "vector"
	case semErr != nil:
		semItems = nil
		fallbackMode = "lexical"
	case len(lexItems) == 0 && len(semItems) > 0:
		fallbackMode = "vector"
	case len(semItems) == 0 && len(lexItems) > 0:
		fallbackMode = "lexical"
	}

	rankStart := time.Now()
	candidates := mergeCandidates(lexItems, semItems)
	fused := Fuse(candidates, r.Config.Fusion)

	scored := make([]*Scored, 0, len(fused))
	pathOf := make(map[int64]string, len(lexItems)+len(semItems))
	for _, it := range lexItems {
		pathOf[it.ChunkID] = it.FilePath
	}
	for _, it := range semItems {
		pathOf[it.ChunkID] = it.FilePath
	}

	terms := splitTerms(q.Text)
	for _, f := range fused {
		path := pathOf[f.ChunkID]
		var facts CandidateFacts
		if q.Facts != nil {
			facts = q.Facts(f.ChunkID)
		}
		tb := CombinedScore(TieBreakInput{
			SymbolType: facts.SymbolType,
			SymbolName: facts.SymbolName,
			Path:       path,
			Language:   facts.Language,
			QueryText:  q.Text,
			QueryTerms: terms,
		}, r.Config.TieBreakers)

		scored = append(scored, &Scored{
			ChunkID:     f.ChunkID,
			FilePath:    path,
			RRFScore:    f.RRFScore,
			FinalScore:  f.RRFScore,
			TieBreak:    tb,
			LexRank:     f.LexRank,
			SemRank:     f.SemRank,
			LexScore:    f.LexScore,
			SemScore:    f.SemScore,
			InBothLists: f.InBothLists,
		})
	}

	ApplyTieBreak(scored, r.Config.Fusion, r.Config.TieBreakers)

	// Stage F: early termination — once the top-K window by
	// pre-diversification score is settled, drop the long tail before
	// the more expensive MMR pass.
	if r.Config.Performance.EarlyTerminationTopK > 0 && len(scored) > r.Config.Performance.EarlyTerminationTopK {
		scored = scored[:r.Config.Performance.EarlyTerminationTopK]
	}

	diversified := Diversify(scored, r.Config.Diversification)

	if topK > 0 && len(diversified) > topK {
		diversified = diversified[:topK]
	}

	out := make([]Result, len(diversified))
	for i, s := range diversified {
		out[i] = Result{ChunkID: s.ChunkID, FilePath: s.FilePath, FinalScore: s.FinalScore, Breakdown: s.Breakdown(r.Config.Fusion)}
	}

	total := time.Since(start)
	totalMS := total.Milliseconds()
	metrics := Metrics{
		LexicalSearchTimeMS: lexMS,
		VectorSearchTimeMS:  semMS,
		RankingTimeMS:       time.Since(rankStart).Milliseconds(),
		TotalTimeMS:         totalMS,
		LexicalCandidates:   len(lexItems),
		VectorCandidates:    len(semItems),
		UniqueCandidates:    len(fused),
		SLAViolation:        total > timeout,
		FallbackMode:        fallbackMode,
	}
	return out, metrics, nil
}

// retrieveBoth runs Stage B's two retrievals independently so that a
// failure or timeout in one source degrades to the surviving source
// instead of aborting the query. Both share ctx's overall deadline;
// once it expires, whichever source hasn't answered yet is handed back
// ctx.Err() in place of a result. Rank decides what a given pair of
// outcomes means for fallback_mode; this only reports what happened.
// Unlike the single shared deadline used here, §4.6 also describes
// granting the slower source a bounded extra window once the faster
// one returns; that refinement is deliberately not implemented (see
// DESIGN.md) since it would cut a timed-out query off before the
// configured timeout_ms elapses.
func (r *Ranker) retrieveBoth(ctx context.Context, queryText string) (
	lexItems, semItems []RetrievedItem, lexErr, semErr error, lexMS, semMS int64,
) {
	start := time.Now()
	limit := r.Config.Performance.CandidateLimit

	lexCh := make(chan retrievalOutcome, 1)
	semCh := make(chan retrievalOutcome, 1)
	var lexElapsed, semElapsed time.Duration

	go func() {
		items, rerr := r.Lexical.Retrieve(ctx, queryText, limit)
		lexCh <- retrievalOutcome{items: items, err: rerr}
	}()
	go func() {
		items, rerr := r.Semantic.Retrieve(ctx, queryText, limit)
		semCh <- retrievalOutcome{items: items, err: rerr}
	}()

	var lexOut, semOut retrievalOutcome
	lexDone, semDone := false, false
	for !lexDone || !semDone {
		select {
		case lexOut = <-lexCh:
			lexDone = true
			lexElapsed = time.Since(start)
		case semOut = <-semCh:
			semDone = true
			semElapsed = time.Since(start)
		case <-ctx.Done():
			if !lexDone {
				lexOut = retrievalOutcome{err: ctx.Err()}
				lexDone = true
				lexElapsed = time.Since(start)
			}
			if !semDone {
				semOut = retrievalOutcome{err: ctx.Err()}
				semDone = true
				semElapsed = time.Since(start)
			}
		}
	}

	return lexOut.items, semOut.items, lexOut.err, semOut.err, lexElapsed.Milliseconds(), semElapsed.Milliseconds()
}

// splitTerms tokenizes a query on whitespace for Stage D's
// identifier_match, which compares tokens case-sensitively.
func splitTerms(text string) []string {
	return strings.Fields(text)
}

func mergeCandidates(lex, sem []RetrievedItem) []Candidate {
	byID := make(map[int64]*Candidate)
	order := make([]int64, 0, len(lex)+len(sem))

	get := func(id int64) *Candidate {
		if c, ok := byID[id]; ok {
			return c
		}
		c := &Candidate{ChunkID: id}
		byID[id] = c
		order = append(order, id)
		return c
	}

	for i, it := range lex {
		c := get(it.ChunkID)
		c.LexRank = i + 1
		c.LexScore = it.Score
	}
	for i, it := range sem {
		c := get(it.ChunkID)
		c.SemRank = i + 1
		c.SemScore = it.Score
	}

	out := make([]Candidate, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out
}

// LexicalAdapter adapts internal/lexical's Searcher to the Retriever
// interface, translating FTS5's ascending (lower-is-better) bm25 score
// into the rank position Fuse needs.
type LexicalAdapter struct {
	Searcher *lexical.Searcher
	PathOfID func(chunkID int64) string
}

func (a *LexicalAdapter) Retrieve(ctx context.Context, query string, limit int) ([]RetrievedItem, error) {
	results, err := a.Searcher.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]RetrievedItem, len(results))
	for i, r := range results {
		path := ""
		if a.PathOfID != nil {
			path = a.PathOfID(r.ChunkID)
		}
		out[i] = RetrievedItem{ChunkID: r.ChunkID, Score: r.Score, FilePath: path}
	}
	return out, nil
}
