package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amanmcp/codeindex/internal/errcodes"
	"github.com/amanmcp/codeindex/internal/lexical"
	"github.com/amanmcp/codeindex/internal/ranking"
)

var (
	searchLimit       int
	searchDenseWeight float64
	searchSparseWeight float64
	searchHybrid      bool
	searchLexicalOnly bool
	searchVectorOnly  bool
	searchNoAST       bool
	searchExplain     bool
	searchFormat      string
)

const (
	minQueryLength = 2
	maxQueryLength = 2000
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Hybrid lexical + semantic search over the index",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		query := args[0]
		for _, extra := range args[1:] {
			query += " " + extra
		}
		if len(query) < minQueryLength || len(query) > maxQueryLength {
			return errcodes.ValidationError(
				fmt.Sprintf("query length must be between %d and %d characters", minQueryLength, maxQueryLength), nil)
		}

		a, err := openApp(verboseFlag)
		if err != nil {
			return err
		}
		defer a.Close()

		enableLexical := !searchVectorOnly
		enableVector := !searchLexicalOnly
		if !enableLexical && !enableVector {
			return errcodes.ValidationError("at least one of lexical or vector retrieval must be enabled", nil)
		}

		ctx := context.Background()
		pathOfID := func(chunkID int64) string {
			details, lookupErr := a.store.ChunkDetailsByIDs(ctx, []int64{chunkID})
			if lookupErr != nil {
				return ""
			}
			if d, ok := details[chunkID]; ok {
				return d.FilePath
			}
			return ""
		}

		cfg := ranking.DefaultConfig()
		if searchDenseWeight > 0 {
			cfg.Fusion.Beta = searchDenseWeight
		}
		if searchSparseWeight > 0 {
			cfg.Fusion.Alpha = searchSparseWeight
		}
		if searchLimit > 0 {
			cfg.Performance.EarlyTerminationTopK = searchLimit
		}

		var lexRetriever, semRetriever ranking.Retriever = noopRetriever{}, noopRetriever{}
		if enableLexical {
			lexRetriever = &ranking.LexicalAdapter{
				Searcher: lexical.New(a.store.DB(), a.logger),
				PathOfID: pathOfID,
			}
		}
		if enableVector {
			semRetriever = &ranking.SemanticAdapter{
				Index:    a.hybrid,
				Embedder: a.embedder,
				PathOfID: pathOfID,
			}
		}

		ranker := ranking.New(lexRetriever, semRetriever, cfg)
		results, metrics, err := ranker.Rank(ctx, ranking.Query{
			Text: query,
			Facts: func(chunkID int64) ranking.CandidateFacts {
				details, lookupErr := a.store.ChunkDetailsByIDs(ctx, []int64{chunkID})
				if lookupErr != nil {
					return ranking.CandidateFacts{}
				}
				d, ok := details[chunkID]
				if !ok {
					return ranking.CandidateFacts{}
				}
				return ranking.CandidateFacts{SymbolType: d.SymbolType, SymbolName: d.SymbolName, Language: d.Language}
			},
		}, searchLimit)
		if err != nil {
			return err
		}

		if searchFormat == "json" {
			return printSearchJSON(results, metrics, searchExplain)
		}
		printSearchHuman(results, metrics, searchExplain)
		return nil
	},
}

// noopRetriever is used when the caller disables a retrieval source
// via --lexical-only/--vector-only; it always returns an empty list.
// Stage C fuses on whatever the surviving source returned either way,
// and the metrics record's fallback_mode reports the surviving source
// whether it won by an explicit disable or because the other source
// came back empty/failed.
type noopRetriever struct{}

func (noopRetriever) Retrieve(ctx context.Context, query string, limit int) ([]ranking.RetrievedItem, error) {
	return nil, nil
}

func printSearchHuman(results []ranking.Result, metrics ranking.Metrics, explain bool) {
	if len(results) == 0 {
		printf("no results\n")
	}
	for i, r := range results {
		printf("%2d. %s  (score %.6f)\n", i+1, r.FilePath, r.FinalScore)
		if explain {
			b := r.Breakdown
			printf("    lexical=%.6f vector=%.6f tiebreak=%.6f diversity_penalty=%.6f\n",
				b.LexicalContribution, b.VectorContribution, b.TieBreakerContribution, b.DiversityPenalty)
		}
	}
	if explain {
		printf("  %d lexical / %d vector candidates, %dms total",
			metrics.LexicalCandidates, metrics.VectorCandidates, metrics.TotalTimeMS)
		if metrics.FallbackMode != "" {
			printf(" (fallback: %s)", metrics.FallbackMode)
		}
		if metrics.SLAViolation {
			printf(" [sla violation]")
		}
		printf("\n")
	}
}

func printSearchJSON(results []ranking.Result, metrics ranking.Metrics, explain bool) error {
	type jsonResult struct {
		FilePath  string             `json:"file_path"`
		Score     float64            `json:"final_score"`
		Breakdown *ranking.Breakdown `json:"score_breakdown,omitempty"`
	}
	type jsonOutput struct {
		Results []jsonResult     `json:"results"`
		Metrics *ranking.Metrics `json:"metrics,omitempty"`
	}
	out := jsonOutput{Results: make([]jsonResult, len(results))}
	for i, r := range results {
		jr := jsonResult{FilePath: r.FilePath, Score: r.FinalScore}
		if explain {
			b := r.Breakdown
			jr.Breakdown = &b
		}
		out.Results[i] = jr
	}
	if explain {
		out.Metrics = &metrics
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "maximum number of results")
	searchCmd.Flags().Float64Var(&searchDenseWeight, "dense-weight", 0, "override the fusion beta (vector) weight")
	searchCmd.Flags().Float64Var(&searchSparseWeight, "sparse-weight", 0, "override the fusion alpha (lexical) weight")
	searchCmd.Flags().BoolVar(&searchHybrid, "hybrid", true, "use both lexical and vector retrieval (default)")
	searchCmd.Flags().BoolVar(&searchLexicalOnly, "lexical-only", false, "disable vector retrieval")
	searchCmd.Flags().BoolVar(&searchVectorOnly, "vector-only", false, "disable lexical retrieval")
	searchCmd.Flags().BoolVar(&searchNoAST, "no-ast", false, "(reserved; indexing always runs through the AST pipeline)")
	searchCmd.Flags().BoolVar(&searchExplain, "explain", false, "print the full score breakdown per result")
	searchCmd.Flags().StringVar(&searchFormat, "format", "human", "output format: human|json")
}
