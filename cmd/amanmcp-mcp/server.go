package main

import (
	"context"
	"log/slog"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/amanmcp/codeindex/internal/config"
	"github.com/amanmcp/codeindex/internal/embed"
	"github.com/amanmcp/codeindex/internal/errcodes"
	"github.com/amanmcp/codeindex/internal/hybridindex"
	"github.com/amanmcp/codeindex/internal/indexer"
	"github.com/amanmcp/codeindex/internal/lexical"
	"github.com/amanmcp/codeindex/internal/ranking"
	"github.com/amanmcp/codeindex/internal/store"
)

// serverDeps bundles the wired core the MCP tool handlers call into.
// Exactly the same collaborators the CLI driver wires, so the two
// drivers never diverge in index semantics.
type serverDeps struct {
	root     string
	store    *store.Store
	hybrid   *hybridindex.Index
	embedder embed.Embedder
	indexer  *indexer.Indexer
	cfg      *config.Config
}

// server is the MCP server exposing search, index_status, and
// refresh as tools.
type server struct {
	mcp  *mcp.Server
	deps serverDeps

	mu sync.Mutex // serializes refresh calls against concurrent search
}

func newServer(deps serverDeps) *server {
	s := &server{deps: deps}
	s.mcp = mcp.NewServer(&mcp.Implementation{Name: "amanmcp", Version: "1.0.0"}, nil)
	s.registerTools()
	return s
}

// SearchInput is the search tool's parameter schema.
type SearchInput struct {
	Query    string  `json:"query" jsonschema:"the search query to execute"`
	Limit    int     `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
	DenseWeight  float64 `json:"dense_weight,omitempty" jsonschema:"override the fusion beta (vector) weight"`
	SparseWeight float64 `json:"sparse_weight,omitempty" jsonschema:"override the fusion alpha (lexical) weight"`
}

// SearchResultOutput is one ranked hit.
type SearchResultOutput struct {
	FilePath string             `json:"file_path" jsonschema:"file path relative to project root"`
	Score    float64            `json:"score" jsonschema:"final fused/diversified score"`
	Breakdown ranking.Breakdown `json:"score_breakdown" jsonschema:"per-stage score contribution"`
}

// SearchOutput is the search tool's result schema.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results" jsonschema:"ranked search results"`
	Metrics ranking.Metrics       `json:"metrics" jsonschema:"per-query timing, candidate counts, and fallback/SLA status"`
}

// IndexStatusInput takes no parameters.
type IndexStatusInput struct{}

// IndexStatusOutput reports index health and embedder capability.
type IndexStatusOutput struct {
	FileCount       int    `json:"file_count"`
	ChunkCount      int    `json:"chunk_count"`
	EmbeddingModel  string `json:"embedding_model"`
	EmbeddingDims   int    `json:"embedding_dimensions"`
	EmbedderReady   bool   `json:"embedder_ready"`
}

// RefreshInput names files to incrementally reindex; an empty list
// triggers a full re-scan of the project tree.
type RefreshInput struct {
	Files []string `json:"files,omitempty" jsonschema:"paths to reindex; omit to refresh the whole tree"`
}

// RefreshOutput summarizes the refresh.
type RefreshOutput struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

func (s *server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search",
		Description: "Hybrid lexical + semantic search over the local code index. Returns ranked chunks with a full score breakdown.",
	}, s.handleSearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "index_status",
		Description: "Report whether the index is present, its file/chunk counts, and which embedding model is active.",
	}, s.handleIndexStatus)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "refresh",
		Description: "Incrementally reindex the given files, or the whole tree if none are given.",
	}, s.handleRefresh)

	slog.Info("mcp tools registered", slog.Int("count", 3))
}

func (s *server) pathOfID(chunkID int64) string {
	details, err := s.deps.store.ChunkDetailsByIDs(context.Background(), []int64{chunkID})
	if err != nil {
		return ""
	}
	if d, ok := details[chunkID]; ok {
		return d.FilePath
	}
	return ""
}

func (s *server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (
	*mcp.CallToolResult, SearchOutput, error,
) {
	if in.Query == "" {
		return nil, SearchOutput{}, errcodes.ValidationError("query is required", nil)
	}

	cfg := ranking.DefaultConfig()
	if in.DenseWeight > 0 {
		cfg.Fusion.Beta = in.DenseWeight
	}
	if in.SparseWeight > 0 {
		cfg.Fusion.Alpha = in.SparseWeight
	}
	limit := in.Limit
	if limit <= 0 {
		limit = 10
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lex := &ranking.LexicalAdapter{Searcher: lexical.New(s.deps.store.DB(), slog.Default()), PathOfID: s.pathOfID}
	sem := &ranking.SemanticAdapter{Index: s.deps.hybrid, Embedder: s.deps.embedder, PathOfID: s.pathOfID}

	results, metrics, err := ranking.New(lex, sem, cfg).Rank(ctx, ranking.Query{
		Text:  in.Query,
		Facts: s.candidateFacts,
	}, limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	out := SearchOutput{Results: make([]SearchResultOutput, len(results)), Metrics: metrics}
	for i, r := range results {
		out.Results[i] = SearchResultOutput{FilePath: r.FilePath, Score: r.FinalScore, Breakdown: r.Breakdown}
	}
	return nil, out, nil
}

func (s *server) candidateFacts(chunkID int64) ranking.CandidateFacts {
	details, err := s.deps.store.ChunkDetailsByIDs(context.Background(), []int64{chunkID})
	if err != nil {
		return ranking.CandidateFacts{}
	}
	d, ok := details[chunkID]
	if !ok {
		return ranking.CandidateFacts{}
	}
	return ranking.CandidateFacts{SymbolType: d.SymbolType, SymbolName: d.SymbolName, Language: d.Language}
}

func (s *server) handleIndexStatus(ctx context.Context, _ *mcp.CallToolRequest, _ IndexStatusInput) (
	*mcp.CallToolResult, IndexStatusOutput, error,
) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.deps.store.ListFiles(ctx, 1)
	if err != nil {
		return nil, IndexStatusOutput{}, err
	}

	out := IndexStatusOutput{
		FileCount:      len(files),
		ChunkCount:     s.deps.hybrid.Len(),
		EmbeddingModel: s.deps.embedder.ModelName(),
		EmbeddingDims:  s.deps.embedder.Dimensions(),
		EmbedderReady:  s.deps.embedder.Available(ctx),
	}
	return nil, out, nil
}

func (s *server) handleRefresh(ctx context.Context, _ *mcp.CallToolRequest, in RefreshInput) (
	*mcp.CallToolResult, RefreshOutput, error,
) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(in.Files) == 0 {
		result, err := s.deps.indexer.RunFull(ctx, indexer.FullIndexConfig{
			ExcludePatterns: s.deps.cfg.Paths.Exclude,
			IncludePatterns: s.deps.cfg.Paths.Include,
		})
		if err != nil {
			return nil, RefreshOutput{}, err
		}
		return nil, RefreshOutput{Processed: result.Processed, Skipped: result.Skipped, Failed: result.Failed}, nil
	}

	changes := make([]indexer.Change, 0, len(in.Files))
	for _, path := range in.Files {
		rel := config.NormalizePath(s.deps.root, path)
		changes = append(changes, indexer.Change{Kind: indexer.ChangeAdded, Path: rel})
	}
	result, err := s.deps.indexer.ProcessBatch(ctx, changes)
	if err != nil {
		return nil, RefreshOutput{}, err
	}
	return nil, RefreshOutput{Processed: result.Processed, Skipped: result.Skipped, Failed: result.Failed}, nil
}
