// Package cmd implements the amanmcp CLI (C14): init, index, refresh,
// search, watch, and diagnose, per spec §6. Each command wires the
// core packages together and formats their output; no ranking,
// indexing, or storage logic lives here.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/amanmcp/codeindex/internal/chunk"
	"github.com/amanmcp/codeindex/internal/config"
	"github.com/amanmcp/codeindex/internal/embed"
	"github.com/amanmcp/codeindex/internal/errcodes"
	"github.com/amanmcp/codeindex/internal/gitignore"
	"github.com/amanmcp/codeindex/internal/hybridindex"
	"github.com/amanmcp/codeindex/internal/indexer"
	"github.com/amanmcp/codeindex/internal/logging"
	"github.com/amanmcp/codeindex/internal/store"
	"github.com/amanmcp/codeindex/pkg/astdoc"
)

// app bundles the wired core, shared by every command that needs more
// than argument parsing.
type app struct {
	root    string
	meta    string
	cfg     *config.Config
	logger  *slog.Logger
	closeFn func()

	store    *store.Store
	hybrid   *hybridindex.Index
	embedder embed.Embedder
	parser   astdoc.Parser
	ignore   *gitignore.Matcher
}

// openApp resolves the project root, loads configuration, sets up
// logging, and opens the store and hybrid index. Callers must call
// Close() when done.
func openApp(verbose bool) (*app, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errcodes.InternalError("getwd", err)
	}
	root, err := config.FindProjectRoot(cwd)
	if err != nil {
		root = cwd
	}
	meta := config.MetaDir(root)

	cfg, err := config.Load(root)
	if err != nil {
		return nil, errcodes.ConfigError("load configuration", err).WithSuggestion("run `amanmcp init`")
	}

	logCfg := logging.DefaultConfig()
	logCfg.FilePath = filepath.Join(meta, "logs", "telemetry.jsonl")
	if verbose {
		logCfg.Level = "debug"
	}
	logger, closeFn, err := logging.Setup(logCfg)
	if err != nil {
		return nil, errcodes.InternalError("set up logging", err)
	}

	dbPath := filepath.Join(meta, "index.db")
	if _, statErr := os.Stat(dbPath); statErr != nil {
		closeFn()
		return nil, errcodes.New(errcodes.ErrCodeConfigNotFound, "no index found", statErr).
			WithSuggestion("run `amanmcp init` then `amanmcp index`")
	}

	st, err := store.Open(dbPath, store.Options{
		CacheSizeMB:       cfg.Store.CacheSizeMB,
		MmapSizeMB:        cfg.Store.MmapSizeMB,
		BusyTimeoutMS:     cfg.Store.BusyTimeoutMS,
		WALAutoCheckpoint: cfg.Store.WALAutoCheckpoint,
		Logger:            logger,
	})
	if err != nil {
		closeFn()
		return nil, errcodes.DatabaseError("open store", false, err)
	}

	embedder := embed.NewStaticEmbedder()
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

	return &app{
		root:     root,
		meta:     meta,
		cfg:      cfg,
		logger:   logger,
		closeFn:  closeFn,
		store:    st,
		hybrid:   hybrid,
		embedder: embedder,
		parser:   chunk.NewASTParser(),
		ignore:   ignoreMatcher,
	}, nil
}

func (a *app) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.embedder != nil {
		_ = a.embedder.Close()
	}
	if p, ok := a.parser.(*chunk.ASTParser); ok {
		p.Close()
	}
	if a.closeFn != nil {
		a.closeFn()
	}
}

// indexerConfig builds the shared indexer.Config from loaded settings.
func (a *app) indexerConfig(force bool) indexer.Config {
	return indexer.Config{
		RootDir:        a.root,
		ProjectID:      1,
		MaxFileSize:    int64(a.cfg.Performance.MaxFileSizeBytes),
		RebuildEveryN:  a.cfg.Performance.RebuildEveryNBatch,
		EmbeddingModel: a.embedder.ModelName(),
		HybridIndexDir: filepath.Join(a.meta, "hybrid"),
		Parallelism:    a.cfg.Performance.IndexWorkers,
		Force:          force,
	}.WithDefaults()
}

func (a *app) newIndexer(force bool) *indexer.Indexer {
	return indexer.New(a.indexerConfig(force), a.store, a.hybrid, a.parser, a.embedder, a.ignore)
}

func printf(format string, args ...any) {
	fmt.Fprintf(os.Stdout, format, args...)
}
