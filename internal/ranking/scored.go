package ranking

// Scored is a candidate as it moves through Stages C-G: RRF score,
// tie-break sub-score, then MMR-adjusted final score, alongside
// enough provenance to render a score breakdown (Stage G).
type Scored struct {
	ChunkID     int64
	FilePath    string
	RRFScore    float64
	FinalScore  float64
	TieBreak    float64 // raw combined sub-score (Stage D), before the gamma weight
	TieBreakContribution float64 // gamma*TieBreak actually added to FinalScore; 0 outside a tie cluster
	DiversityPenalty     float64 // (1-lambda)*maxSim subtracted by Stage E; 0 if diversification skipped/disabled
	LexRank     int
	SemRank     int
	LexScore    float64
	SemScore    float64
	InBothLists bool
}

// Breakdown renders the per-stage contributions for observability
// (§3's HybridResult.score_breakdown), grounded in the fused/tie-break/
// diversified scores already computed rather than recomputing
// anything. Every contribution is non-negative per §4.6 Stage G.
type Breakdown struct {
	ChunkID                 int64    `json:"chunk_id"`
	LexicalRank             *int     `json:"lexical_rank,omitempty"`
	LexicalContribution     float64  `json:"lexical_contribution"`
	VectorRank              *int     `json:"vector_rank,omitempty"`
	VectorContribution      float64  `json:"vector_contribution"`
	TieBreakerScores        float64  `json:"tie_breaker_scores,omitempty"`
	TieBreakerContribution  float64  `json:"tie_breaker_contribution"`
	DiversityPenalty        float64  `json:"diversity_penalty,omitempty"`
	FinalScore              float64  `json:"final_score"`
}

// Breakdown computes §3's score_breakdown for this candidate. cfg is
// the fusion config used to produce RRFScore, so lexical/vector
// contributions can be reported individually rather than only as
// their already-summed RRFScore.
func (s *Scored) Breakdown(cfg FusionConfig) Breakdown {
	b := Breakdown{
		ChunkID:                s.ChunkID,
		TieBreakerScores:       s.TieBreak,
		TieBreakerContribution: s.TieBreakContribution,
		DiversityPenalty:       s.DiversityPenalty,
		FinalScore:             s.FinalScore,
	}
	if s.LexRank > 0 {
		rank := s.LexRank
		b.LexicalRank = &rank
		b.LexicalContribution = cfg.Alpha / float64(cfg.RRFK+s.LexRank)
	}
	if s.SemRank > 0 {
		rank := s.SemRank
		b.VectorRank = &rank
		b.VectorContribution = cfg.Beta / float64(cfg.RRFK+s.SemRank)
	}
	return b
}
