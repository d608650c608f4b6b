package ranking

// Candidate is one chunk's raw per-retriever signal before fusion:
// its rank (1-based position) in the lexical and/or semantic result
// lists. A zero Rank means the chunk was absent from that list.
type Candidate struct {
	ChunkID   int64
	LexRank   int // 0 if absent from the lexical result list
	SemRank   int // 0 if absent from the semantic result list
	LexScore  float64
	SemScore  float64
}

// FusedResult is a candidate after Stage C's RRF fusion.
type FusedResult struct {
	ChunkID      int64
	RRFScore     float64
	LexRank      int
	SemRank      int
	LexScore     float64
	SemScore     float64
	InBothLists  bool
}

// Fuse computes Reciprocal Rank Fusion scores: score = sum(w_i /
// (k+rank_i)) over whichever of lexical/semantic ranks exist for a
// candidate. Unlike a synthetic "missing rank" credit, a list a
// candidate doesn't appear in contributes exactly 0 — the spec's
// explicit requirement — so a lexical-only hit is never inflated by
// an imagined semantic rank. No 0-1 normalization is applied
// afterward: callers see the raw weighted sum.
func Fuse(candidates []Candidate, cfg FusionConfig) []*FusedResult {
	out := make([]*FusedResult, 0, len(candidates))
	for _, c := range candidates {
		var score float64
		if c.LexRank > 0 {
			score += cfg.Alpha / float64(cfg.RRFK+c.LexRank)
		}
		if c.SemRank > 0 {
			score += cfg.Beta / float64(cfg.RRFK+c.SemRank)
		}
		out = append(out, &FusedResult{
			ChunkID:     c.ChunkID,
			RRFScore:    score,
			LexRank:     c.LexRank,
			SemRank:     c.SemRank,
			LexScore:    c.LexScore,
			SemScore:    c.SemScore,
			InBothLists: c.LexRank > 0 && c.SemRank > 0,
		})
	}
	return out
}
