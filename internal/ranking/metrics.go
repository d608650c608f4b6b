package ranking

// Metrics is the per-query record §4.6 says is "always populated",
// independent of whether the query succeeded, failed over to one
// source, or hit its SLA.
type Metrics struct {
	LexicalSearchTimeMS int64  `json:"lexical_search_time_ms"`
	VectorSearchTimeMS  int64  `json:"vector_search_time_ms"`
	RankingTimeMS       int64  `json:"ranking_time_ms"`
	TotalTimeMS         int64  `json:"total_time_ms"`
	LexicalCandidates   int    `json:"lexical_candidates"`
	VectorCandidates    int    `json:"vector_candidates"`
	UniqueCandidates    int    `json:"unique_candidates"`
	SLAViolation        bool   `json:"sla_violation"`
	FallbackMode        string `json:"fallback_mode,omitempty"`
}
