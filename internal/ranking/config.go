package ranking

import "github.com/amanmcp/codeindex/internal/errcodes"

// Config is the validated, hot-reloadable ranking configuration of
// §3/§6: fusion weights, diversification, tie-breaking, and
// performance bounds. It is represented as a plain record with a
// validated constructor rather than a general-purpose settings bag,
// so a malformed config fails at load time, not mid-query.
type Config struct {
	Fusion          FusionConfig          `json:"fusion"`
	Diversification DiversificationConfig `json:"diversification"`
	TieBreakers     TieBreakerConfig      `json:"tie_breakers"`
	Performance     PerformanceConfig     `json:"performance"`
}

// FusionConfig controls Stage C's Reciprocal Rank Fusion.
type FusionConfig struct {
	Alpha float64 `json:"alpha"` // lexical (BM25) weight
	Beta  float64 `json:"beta"`  // semantic (dense) weight
	Gamma float64 `json:"gamma"` // tie-breaker weight
	RRFK  int     `json:"rrf_k"`
}

// DiversificationConfig controls Stage E's MMR pass.
type DiversificationConfig struct {
	Enabled   bool    `json:"enabled"`
	Lambda    float64 `json:"lambda"`
	MaxPerFile int    `json:"max_per_file"`
}

// TieBreakerConfig controls Stage D's sub-score weights.
type TieBreakerConfig struct {
	SymbolTypeWeight   float64 `json:"symbol_type_weight"`
	PathPriorityWeight float64 `json:"path_priority_weight"`
	LanguageMatchWeight float64 `json:"language_match_weight"`
	IdentifierMatchWeight float64 `json:"identifier_match_weight"`
}

// PerformanceConfig bounds Stage B/F's candidate pool and timing.
type PerformanceConfig struct {
	CandidateLimit        int `json:"candidate_limit"`
	TimeoutMS             int `json:"timeout_ms"`
	EarlyTerminationTopK  int `json:"early_termination_top_k"`
}

// TieThreshold is the score delta within which Stage D tie-breaking
// applies, per §4.6.
const TieThreshold = 0.01

// DefaultConfig returns the §6 defaults.
func DefaultConfig() Config {
	return Config{
		Fusion: FusionConfig{Alpha: 0.5, Beta: 0.4, Gamma: 0.1, RRFK: 60},
		Diversification: DiversificationConfig{
			Enabled: true, Lambda: 0.7, MaxPerFile: 3,
		},
		TieBreakers: TieBreakerConfig{
			SymbolTypeWeight: 0.4, PathPriorityWeight: 0.3, LanguageMatchWeight: 0.2, IdentifierMatchWeight: 0.1,
		},
		Performance: PerformanceConfig{
			CandidateLimit: 200, TimeoutMS: 300, EarlyTerminationTopK: 10,
		},
	}
}

// Validate rejects a config whose fusion weights exceed budget or
// whose bounds are out of range, per §9's Open Question decision to
// reject unknown/invalid values rather than silently clamp them.
func (c Config) Validate() error {
	if c.Fusion.Alpha < 0 || c.Fusion.Beta < 0 || c.Fusion.Gamma < 0 {
		return errcodes.RankingConfigError("fusion", "weights must be non-negative")
	}
	if c.Fusion.Alpha+c.Fusion.Beta+c.Fusion.Gamma > 1.0+1e-9 {
		return errcodes.RankingConfigError("fusion", "alpha+beta+gamma must not exceed 1.0")
	}
	if c.Fusion.RRFK <= 0 {
		return errcodes.RankingConfigError("fusion.rrf_k", "must be positive")
	}
	if c.Diversification.Lambda < 0 || c.Diversification.Lambda > 1 {
		return errcodes.RankingConfigError("diversification.lambda", "must be in [0,1]")
	}
	if c.Diversification.MaxPerFile < 0 {
		return errcodes.RankingConfigError("diversification.max_per_file", "must be non-negative")
	}
	if c.Performance.CandidateLimit <= 0 {
		return errcodes.RankingConfigError("performance.candidate_limit", "must be positive")
	}
	if c.Performance.TimeoutMS <= 0 {
		return errcodes.RankingConfigError("performance.timeout_ms", "must be positive")
	}
	return nil
}
