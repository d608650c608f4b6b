// Command amanmcp-mcp is the MCP driver (C15): a
// modelcontextprotocol/go-sdk stdio server exposing search,
// index_status and refresh as MCP tools over the same persistent
// store and hybrid index the amanmcp CLI maintains. Apart from one
// error line on stderr when the server exits with an error, it writes
// nothing to stdout/stderr outside the JSON-RPC stream itself; all
// other diagnostics go to the project's log file.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/amanmcp/codeindex/internal/chunk"
	"github.com/amanmcp/codeindex/internal/config"
	"github.com/amanmcp/codeindex/internal/embed"
	"github.com/amanmcp/codeindex/internal/errcodes"
	"github.com/amanmcp/codeindex/internal/gitignore"
	"github.com/amanmcp/codeindex/internal/hybridindex"
	"github.com/amanmcp/codeindex/internal/indexer"
	"github.com/amanmcp/codeindex/internal/logging"
	"github.com/amanmcp/codeindex/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "amanmcp-mcp:", err)
		os.Exit(1)
	}
}

func run() error {
	cleanup, err := logging.SetupMCPMode()
	if err != nil {
		return err
	}
	defer cleanup()

	cwd, err := os.Getwd()
	if err != nil {
		return errcodes.InternalError("getwd", err)
	}
	root, err := config.FindProjectRoot(cwd)
	if err != nil {
		root = cwd
	}
	meta := config.MetaDir(root)

	cfg, err := config.Load(root)
	if err != nil {
		return errcodes.ConfigError("load configuration", err)
	}

	dbPath := filepath.Join(meta, "index.db")
	st, err := store.Open(dbPath, store.Options{
		CacheSizeMB:       cfg.Store.CacheSizeMB,
		MmapSizeMB:        cfg.Store.MmapSizeMB,
		BusyTimeoutMS:     cfg.Store.BusyTimeoutMS,
		WALAutoCheckpoint: cfg.Store.WALAutoCheckpoint,
		Logger:            slog.Default(),
	})
	if err != nil {
		return errcodes.DatabaseError("open store", false, err)
	}
	defer st.Close()

	embedder := embed.NewStaticEmbedder()
	defer embedder.Close()

	hybridDir := filepath.Join(meta, "hybrid")
	hybrid, err := hybridindex.Load(hybridDir, embedder.ModelName(), 1)
	if err != nil {
		hybrid = hybridindex.New(1<<18, embedder.Dimensions())
	}

	ignoreMatcher := gitignore.New()
	gitignorePath := filepath.Join(root, ".gitignore")
	if _, statErr := os.Stat(gitignorePath); statErr == nil {
		_ = ignoreMatcher.AddFromFile(gitignorePath, root)
	}
	for _, pat := range cfg.Watcher.ExtraIgnorePatterns {
		ignoreMatcher.AddPattern(pat)
	}

	parser := chunk.NewASTParser()
	defer parser.Close()

	ixCfg := indexer.Config{
		RootDir:        root,
		ProjectID:      1,
		MaxFileSize:    int64(cfg.Performance.MaxFileSizeBytes),
		RebuildEveryN:  cfg.Performance.RebuildEveryNBatch,
		EmbeddingModel: embedder.ModelName(),
		HybridIndexDir: hybridDir,
		Parallelism:    cfg.Performance.IndexWorkers,
	}.WithDefaults()
	ix := indexer.New(ixCfg, st, hybrid, parser, embedder, ignoreMatcher)

	srv := newServer(serverDeps{
		root:     root,
		store:    st,
		hybrid:   hybrid,
		embedder: embedder,
		indexer:  ix,
		cfg:      cfg,
	})

	ctx := context.Background()
	return srv.mcp.Run(ctx, &mcp.StdioTransport{})
}
