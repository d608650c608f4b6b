package ranking

import (
	"testing"

	"github.com/amanmcp/codeindex/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestCombinedScorePrefersFunctionsOverVariables(t *testing.T) {
	cfg := DefaultConfig().TieBreakers
	fn := CombinedScore(TieBreakInput{SymbolType: store.SymbolFunction, Path: "src/a.go"}, cfg)
	v := CombinedScore(TieBreakInput{SymbolType: store.SymbolVariable, Path: "src/a.go"}, cfg)
	assert.Greater(t, fn, v)
}

func TestCombinedScorePenalizesTestPaths(t *testing.T) {
	cfg := DefaultConfig().TieBreakers
	src := CombinedScore(TieBreakInput{SymbolType: store.SymbolFunction, Path: "src/foo.go"}, cfg)
	test := CombinedScore(TieBreakInput{SymbolType: store.SymbolFunction, Path: "tests/foo.go"}, cfg)
	assert.Greater(t, src, test)
}

func TestSymbolPriorityMatchesFixedTable(t *testing.T) {
	assert.Equal(t, 1.00, symbolPriority(store.SymbolFunction))
	assert.Equal(t, 0.95, symbolPriority(store.SymbolClass))
	assert.Equal(t, 0.90, symbolPriority(store.SymbolInterface))
	assert.Equal(t, 0.85, symbolPriority(store.SymbolTypeDef))
	assert.Equal(t, 0.80, symbolPriority(store.SymbolMethod))
	assert.Equal(t, 0.75, symbolPriority(store.SymbolConstant))
	assert.Equal(t, 0.70, symbolPriority(store.SymbolVariable))
	assert.Equal(t, 0.65, symbolPriority(store.SymbolProperty))
	assert.Equal(t, 0.10, symbolPriority(store.SymbolType("unrecognized")))
}

func TestPathPriorityMatchesOrderedTable(t *testing.T) {
	assert.Equal(t, 1.0, pathPriority("src/a.ts"))
	assert.Equal(t, 0.9, pathPriority("lib/a.ts"))
	assert.Equal(t, 0.85, pathPriority("packages/a.ts"))
	assert.Equal(t, 0.6, pathPriority("tests/a.ts"))
	assert.Equal(t, 0.6, pathPriority("a.test.ts"))
	assert.Equal(t, 0.6, pathPriority("a.spec.ts"))
	assert.Equal(t, 0.5, pathPriority("examples/a.ts"))
	assert.Equal(t, 0.4, pathPriority("docs/a.ts"))
	assert.Equal(t, 0.5, pathPriority("internal/a.go"))
}

func TestLanguageMatchChecksNameAndExtension(t *testing.T) {
	assert.Equal(t, 1.0, languageMatch("find the typescript parser", "typescript"))
	assert.Equal(t, 1.0, languageMatch("where is x.ts defined", "typescript"))
	assert.Equal(t, 0.0, languageMatch("find the parser", "typescript"))
}

func TestIdentifierMatchIsCaseSensitiveExactToken(t *testing.T) {
	assert.Equal(t, 1.0, identifierMatch([]string{"find", "parseConfig", "please"}, "parseConfig"))
	assert.Equal(t, 0.0, identifierMatch([]string{"find", "parseconfig"}, "parseConfig"))
	assert.Equal(t, 0.0, identifierMatch([]string{"find", "parseConfigExtra"}, "parseConfig"))
}

func TestApplyTieBreakClustersOnPreTieBreakScores(t *testing.T) {
	// Both start tied at 0; each member's tie-cluster membership must
	// be decided from that shared starting point, not from a neighbor's
	// score after its own contribution has already been added.
	cfg := FusionConfig{Gamma: 0.1, RRFK: 60}
	tieCfg := TieBreakerConfig{PathPriorityWeight: 1.0}
	results := []*Scored{
		{ChunkID: 1, FinalScore: 0, TieBreak: CombinedScore(TieBreakInput{Path: "src/a.ts"}, tieCfg)},
		{ChunkID: 2, FinalScore: 0, TieBreak: CombinedScore(TieBreakInput{Path: "tests/a.test.ts"}, tieCfg)},
	}
	ApplyTieBreak(results, cfg, tieCfg)
	assert.Equal(t, int64(1), results[0].ChunkID)
	assert.InDelta(t, 0.04, results[0].FinalScore-results[1].FinalScore, 1e-9)
}

func TestApplyTieBreakOnlyAffectsNearTies(t *testing.T) {
	cfg := DefaultConfig().Fusion
	tieCfg := DefaultConfig().TieBreakers
	results := []*Scored{
		{ChunkID: 1, FinalScore: 0.9, TieBreak: 0.0},
		{ChunkID: 2, FinalScore: 0.1, TieBreak: 1.0}, // far from #1, high tiebreak shouldn't matter
	}
	ApplyTieBreak(results, cfg, tieCfg)
	assert.Equal(t, int64(1), results[0].ChunkID, "a clear RRF winner is never overturned by tie-breaking")
}
