package ranking

import (
	"regexp"
	"sort"
	"strings"

	"github.com/amanmcp/codeindex/internal/store"
)

// symbolTypePriority is the fixed table of §4.6 Stage D, normalized to
// [0,1] by dividing the spec's /100 scale. Keys beyond store.SymbolType
// ("string_literal", "comment", "unknown") cover chunk kinds the
// extractor can tag that aren't full symbols.
var symbolTypePriority = map[string]float64{
	"function":       1.00,
	"class":          0.95,
	"interface":      0.90,
	"type":           0.85,
	"method":         0.80,
	"constant":       0.75,
	"variable":       0.70,
	"property":       0.65,
	"string_literal": 0.30,
	"comment":        0.20,
	"unknown":        0.10,
}

func symbolPriority(t store.SymbolType) float64 {
	if p, ok := symbolTypePriority[string(t)]; ok {
		return p
	}
	return symbolTypePriority["unknown"]
}

// pathPriorityRules is the ordered pattern list of §4.6 Stage D; first
// match wins, default 0.5.
var pathPriorityRules = []struct {
	pattern *regexp.Regexp
	score   float64
}{
	{regexp.MustCompile(`^src/`), 1.0},
	{regexp.MustCompile(`^lib/`), 0.9},
	{regexp.MustCompile(`^packages/`), 0.85},
	{regexp.MustCompile(`^(test|tests)/`), 0.6},
	{regexp.MustCompile(`\.test\.`), 0.6},
	{regexp.MustCompile(`\.spec\.`), 0.6},
	{regexp.MustCompile(`^examples?/`), 0.5},
	{regexp.MustCompile(`^docs?/`), 0.4},
}

func pathPriority(path string) float64 {
	for _, rule := range pathPriorityRules {
		if rule.pattern.MatchString(path) {
			return rule.score
		}
	}
	return 0.5
}

// languageExtensions maps the languages the AST pipeline understands
// to the file extensions that imply them, mirroring chunk's language
// registry without importing its tree-sitter dependency.
var languageExtensions = map[string][]string{
	"go":         {".go"},
	"typescript": {".ts", ".tsx"},
	"tsx":        {".tsx"},
	"javascript": {".js", ".jsx"},
	"jsx":        {".jsx"},
	"python":     {".py"},
}

// languageMatch is §4.6 Stage D's language_match: 1 if the raw query
// string names the candidate's language or a file extension that maps
// to it, else 0.
func languageMatch(queryText, language string) float64 {
	if queryText == "" || language == "" {
		return 0
	}
	lower := strings.ToLower(queryText)
	if strings.Contains(lower, strings.ToLower(language)) {
		return 1
	}
	for _, ext := range languageExtensions[language] {
		if strings.Contains(lower, ext) {
			return 1
		}
	}
	return 0
}

// identifierMatch is §4.6 Stage D's identifier_match: 1 if the query
// tokenized on whitespace contains the candidate's symbol name
// case-sensitively, else 0.
func identifierMatch(queryTerms []string, symbolName string) float64 {
	if symbolName == "" {
		return 0
	}
	for _, term := range queryTerms {
		if term == symbolName {
			return 1
		}
	}
	return 0
}

// TieBreakInput carries the per-candidate facts Stage D needs beyond
// the fused score.
type TieBreakInput struct {
	SymbolType store.SymbolType
	SymbolName string
	Path       string
	Language   string
	QueryText  string
	QueryTerms []string
}

// CombinedScore blends the four sub-scores per cfg's weights, used as
// the γ·combined term added to a candidate's final score whenever it
// falls within TieThreshold of a neighbor.
func CombinedScore(in TieBreakInput, cfg TieBreakerConfig) float64 {
	symbolScore := symbolPriority(in.SymbolType)
	pathScore := pathPriority(in.Path)
	langScore := languageMatch(in.QueryText, in.Language)
	identScore := identifierMatch(in.QueryTerms, in.SymbolName)
	return cfg.SymbolTypeWeight*symbolScore +
		cfg.PathPriorityWeight*pathScore +
		cfg.LanguageMatchWeight*langScore +
		cfg.IdentifierMatchWeight*identScore
}

// ApplyTieBreak adds γ·combined to the final score of each result that
// lies within TieThreshold of a neighbor in the RRF ordering, then
// re-sorts globally. Results with no such neighbor keep their score.
// Because γ·combined can exceed TieThreshold, a boosted member of a
// tie cluster can move above a result outside its cluster.
func ApplyTieBreak(results []*Scored, cfg FusionConfig, tieCfg TieBreakerConfig) {
	sort.SliceStable(results, func(i, j int) bool { return results[i].FinalScore > results[j].FinalScore })

	// Cluster membership is decided from the pre-tiebreak scores, all
	// at once; otherwise adding gamma*combined to an earlier member
	// would push it far enough ahead to make a later member look like
	// it's no longer in the same tie cluster.
	original := make([]float64, len(results))
	for i, res := range results {
		original[i] = res.FinalScore
	}

	for i := 0; i < len(results); i++ {
		withinTieOfNext := i+1 < len(results) && original[i]-original[i+1] <= TieThreshold
		withinTieOfPrev := i > 0 && original[i-1]-original[i] <= TieThreshold
		if withinTieOfNext || withinTieOfPrev {
			contribution := cfg.Gamma * results[i].TieBreak
			results[i].TieBreakContribution = contribution
			results[i].FinalScore += contribution
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].FinalScore != results[j].FinalScore {
			return results[i].FinalScore > results[j].FinalScore
		}
		if results[i].InBothLists != results[j].InBothLists {
			return results[i].InBothLists
		}
		if results[i].LexScore != results[j].LexScore {
			return results[i].LexScore > results[j].LexScore
		}
		return results[i].ChunkID < results[j].ChunkID
	})
}
