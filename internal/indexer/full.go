package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"

	"github.com/amanmcp/codeindex/internal/scanner"
)

// FullIndexConfig configures a non-incremental, whole-tree index run
// (the CLI's `index` command), as opposed to ProcessBatch which
// handles the watcher's steady-state diff stream.
type FullIndexConfig struct {
	ExcludePatterns []string
	IncludePatterns []string
	BatchSize       int
	FollowSymlinks  bool

	// OnProgress, if set, is invoked after every applied batch with the
	// running totals so far and the most recently processed path.
	OnProgress func(result *FullIndexResult, lastPath string)
}

// FullIndexResult summarizes a whole-tree run.
type FullIndexResult struct {
	Files     int
	Processed int
	Skipped   int
	Failed    int
	Duration  time.Duration
	Errors    []FileError
}

// RunFull scans the whole project tree and indexes every file in
// batches, partitioning each batch as all-added so unchanged files
// are still content-hash-deduped by indexFile.
func (ix *Indexer) RunFull(ctx context.Context, cfg FullIndexConfig) (*FullIndexResult, error) {
	start := time.Now()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}

	s, err := scanner.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	excludes := append([]string{}, cfg.ExcludePatterns...)
	if ix.cfg.HybridIndexDir != "" {
		excludes = append(excludes, "**/"+filepath.Base(ix.cfg.HybridIndexDir)+"/**")
	}
	results, err := s.Scan(ctx, &scanner.ScanOptions{
		RootDir:          ix.cfg.RootDir,
		IncludePatterns:  cfg.IncludePatterns,
		ExcludePatterns:  excludes,
		RespectGitignore: true,
		Workers:          runtime.NumCPU(),
		FollowSymlinks:   cfg.FollowSymlinks,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start scan: %w", err)
	}

	out := &FullIndexResult{}
	var batch []Change
	for r := range results {
		if r.Error != nil {
			out.Failed++
			out.Errors = append(out.Errors, FileError{Path: "<scan>", Err: r.Error})
			continue
		}
		out.Files++
		batch = append(batch, Change{Kind: ChangeAdded, Path: r.File.Path})
		if len(batch) >= cfg.BatchSize {
			ix.applyFullBatch(ctx, batch, out)
			if cfg.OnProgress != nil {
				cfg.OnProgress(out, r.File.Path)
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		lastPath := batch[len(batch)-1].Path
		ix.applyFullBatch(ctx, batch, out)
		if cfg.OnProgress != nil {
			cfg.OnProgress(out, lastPath)
		}
	}

	if ix.cfg.HybridIndexDir != "" {
		if err := ix.hybrid.Save(ix.cfg.HybridIndexDir, ix.cfg.EmbeddingModel); err != nil {
			slog.Warn("full index: final hybrid save failed", slog.String("error", err.Error()))
		}
	}

	out.Duration = time.Since(start)
	slog.Info("full_index_complete",
		slog.Int("files", out.Files),
		slog.Int("processed", out.Processed),
		slog.Int("skipped", out.Skipped),
		slog.Int("failed", out.Failed),
		slog.Int64("duration_ms", out.Duration.Milliseconds()))
	return out, nil
}

func (ix *Indexer) applyFullBatch(ctx context.Context, batch []Change, out *FullIndexResult) {
	res, err := ix.ProcessBatch(ctx, batch)
	if err != nil {
		out.Failed += len(batch)
		out.Errors = append(out.Errors, FileError{Path: "<batch>", Err: err})
		return
	}
	out.Processed += res.Processed
	out.Skipped += res.Skipped
	out.Failed += res.Failed
	out.Errors = append(out.Errors, res.Errors...)
}
