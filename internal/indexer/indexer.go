package indexer

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amanmcp/codeindex/internal/embed"
	"github.com/amanmcp/codeindex/internal/errcodes"
	"github.com/amanmcp/codeindex/internal/gitignore"
	"github.com/amanmcp/codeindex/internal/hybridindex"
	"github.com/amanmcp/codeindex/internal/scanner"
	"github.com/amanmcp/codeindex/internal/sparse"
	"github.com/amanmcp/codeindex/internal/store"
	"github.com/amanmcp/codeindex/pkg/astdoc"
)

// Config tunes the batch processing loop.
type Config struct {
	RootDir         string
	ProjectID       int64
	MaxFileSize     int64
	RetryAttempts   int
	RetryDelay      time.Duration
	RebuildEveryN   int // save the hybrid index to HybridIndexDir every N batches
	EmbeddingModel  string
	HybridIndexDir  string
	Parallelism     int // concurrent per-file indexing workers within one batch
	Force           bool // bypass content-hash dedup, reindexing every file
}

// WithDefaults fills unset fields with the spec's defaults.
func (c Config) WithDefaults() Config {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 5 * 1024 * 1024
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 10 * time.Millisecond
	}
	if c.RebuildEveryN <= 0 {
		c.RebuildEveryN = 10
	}
	if c.Parallelism <= 0 {
		c.Parallelism = 4
	}
	return c
}

// Indexer processes batches of file changes, keeping the persistent
// store and the in-memory hybrid index consistent with the files on
// disk. It never runs two batches concurrently against the same
// store: the caller serializes calls to ProcessBatch.
type Indexer struct {
	cfg      Config
	store    *store.Store
	hybrid   *hybridindex.Index
	parser   astdoc.Parser
	embedder embed.Embedder
	ignore   *gitignore.Matcher

	batchesSinceRebuild int
}

// New constructs an Indexer. parser and embedder are the external
// collaborators (C8 depends on their interfaces, never a concrete
// implementation).
func New(cfg Config, st *store.Store, hybrid *hybridindex.Index, parser astdoc.Parser, embedder embed.Embedder, ignore *gitignore.Matcher) *Indexer {
	return &Indexer{
		cfg:      cfg.WithDefaults(),
		store:    st,
		hybrid:   hybrid,
		parser:   parser,
		embedder: embedder,
		ignore:   ignore,
	}
}

// ProcessBatch partitions, applies, and flushes one batch of changes
// per §4.8: deletions and rename-sources are removed first, then
// additions/modifications/rename-targets are diffed against the
// stored content hash and re-indexed, then the in-memory hybrid index
// (updated as each file is indexed) is saved to HybridIndexDir every
// RebuildEveryN batches.
func (ix *Indexer) ProcessBatch(ctx context.Context, changes []Change) (*BatchResult, error) {
	start := time.Now()
	result := &BatchResult{}

	for _, c := range changes {
		if c.Kind != ChangeDeleted && c.Kind != ChangeRenamed {
			continue
		}
		path := c.Path
		if c.Kind == ChangeRenamed {
			path = c.OldPath
		}
		if err := ix.removeFile(ctx, path); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, FileError{Path: path, Err: err})
		} else {
			result.Processed++
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.cfg.Parallelism)
	for _, c := range changes {
		if c.Kind == ChangeDeleted {
			continue
		}
		path := c.Path
		g.Go(func() error {
			err := ix.indexFileWithRetry(gctx, path)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				result.Processed++
			case errors.Is(err, errSkipped):
				result.Skipped++
			default:
				result.Failed++
				result.Errors = append(result.Errors, FileError{Path: path, Err: err})
			}
			return nil
		})
	}
	_ = g.Wait()

	ix.batchesSinceRebuild++
	if ix.cfg.HybridIndexDir != "" && ix.batchesSinceRebuild >= ix.cfg.RebuildEveryN {
		if err := ix.hybrid.Save(ix.cfg.HybridIndexDir, ix.cfg.EmbeddingModel); err != nil {
			slog.Warn("hybrid index rebuild failed", slog.String("error", err.Error()))
		}
		ix.batchesSinceRebuild = 0
	}

	result.Duration = time.Since(start)
	slog.Info("indexer_batch_complete",
		slog.Int("processed", result.Processed),
		slog.Int("skipped", result.Skipped),
		slog.Int("failed", result.Failed),
		slog.Int64("duration_ms", result.Duration.Milliseconds()))

	return result, nil
}

// errSkipped sentinels an intentional skip (unchanged content, binary,
// too large, now-ignored) so ProcessBatch can distinguish it from a
// real failure without a bespoke result type per call site.
var errSkipped = errors.New("indexer: skipped")

// indexFileWithRetry retries transient per-file errors up to
// RetryAttempts times with exponential backoff starting at
// RetryDelay; permanent errors (permission denied) are recorded and
// the batch moves on, per §4.8's retry policy. A path that no longer
// exists is counted as skipped.
func (ix *Indexer) indexFileWithRetry(ctx context.Context, relPath string) error {
	err := ix.indexFile(ctx, relPath)
	if err == nil || errors.Is(err, errSkipped) || !errcodes.IsRetryable(err) {
		return err
	}

	cfg := errcodes.RetryConfig{
		MaxRetries:   ix.cfg.RetryAttempts,
		InitialDelay: ix.cfg.RetryDelay,
		MaxDelay:     500 * time.Millisecond,
		Multiplier:   2,
	}
	// Retry's first call reports the failure already seen, so it waits
	// RetryDelay before the first re-attempt and re-attempts at most
	// RetryAttempts times.
	first := true
	return errcodes.Retry(ctx, cfg, func() error {
		if first {
			first = false
			return err
		}
		return ix.indexFile(ctx, relPath)
	})
}

func (ix *Indexer) indexFile(ctx context.Context, relPath string) error {
	absPath := filepath.Join(ix.cfg.RootDir, relPath)

	if ix.ignore != nil && ix.ignore.Match(relPath, false) {
		return errSkipped
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return errSkipped
		}
		return errcodes.Wrap(errcodes.ErrCodeFileAccess, err)
	}
	if info.IsDir() {
		return errSkipped
	}
	if info.Size() > ix.cfg.MaxFileSize {
		return errSkipped
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return errcodes.Wrap(errcodes.ErrCodeFileAccess, err)
	}
	if isBinary(content) {
		return errSkipped
	}

	hash := contentHash(content)

	existing, err := ix.store.FindFileByPath(ctx, ix.cfg.ProjectID, relPath)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return errcodes.Wrap(errcodes.ErrCodeDatabase, err)
	}
	if existing != nil && existing.ContentHash == hash && !ix.cfg.Force {
		return errSkipped
	}

	language := scanner.DetectLanguage(relPath)
	if language == "" || ix.parser == nil {
		return errSkipped
	}

	doc, err := ix.parser.Parse(relPath, language, content)
	if err != nil {
		return errcodes.Wrap(errcodes.ErrCodeChunkingFailed, err)
	}

	fileID, err := ix.store.UpsertFile(ctx, &store.File{
		ProjectID:   ix.cfg.ProjectID,
		Path:        relPath,
		ContentHash: hash,
		Language:    language,
		SizeBytes:   info.Size(),
		MTime:       info.ModTime(),
	})
	if err != nil {
		return errcodes.Wrap(errcodes.ErrCodeDatabase, err)
	}

	symbols := make([]*store.Symbol, 0, len(doc.Symbols))
	for _, sym := range doc.Symbols {
		symbols = append(symbols, &store.Symbol{
			FileID:    fileID,
			Name:      sym.Name,
			Type:      store.SymbolType(sym.Kind),
			StartLine: sym.Start.Line,
			EndLine:   sym.End.Line,
			StartCol:  sym.Start.Column,
			EndCol:    sym.End.Column,
			Signature: sym.Signature,
		})
	}
	if err := ix.store.ReplaceSymbols(ctx, fileID, symbols); err != nil {
		return errcodes.Wrap(errcodes.ErrCodeDatabase, err)
	}

	text := sparse.ASTToText(doc)
	chunkText := text
	if chunkText == "" {
		chunkText = relPath
	}
	chunks := []*store.Chunk{{
		FileID:        fileID,
		Text:          chunkText,
		TextSchemaVer: sparse.TextSchemaVersion,
		StartLine:     0,
		EndLine:       len(doc.Source),
		ContentHash:   contentHash([]byte(chunkText)),
	}}
	if err := ix.store.ReplaceChunks(ctx, fileID, chunks); err != nil {
		return errcodes.Wrap(errcodes.ErrCodeDatabase, err)
	}

	calls := make([]*store.Call, 0, len(doc.Calls))
	for _, call := range doc.Calls {
		calls = append(calls, &store.Call{CalleeName: call.CalleeName, Line: call.Line})
	}
	if err := ix.store.ReplaceCalls(ctx, fileID, calls); err != nil {
		return errcodes.Wrap(errcodes.ErrCodeDatabase, err)
	}

	if err := ix.embedAndIndex(ctx, chunks[0].ID, chunkText); err != nil {
		return err
	}

	return nil
}

// embedAndIndex computes and stores the sparse+dense vectors for a
// chunk, then enqueues them into the in-memory hybrid index so
// search sees the update immediately (persisted separately on the
// next periodic Save).
func (ix *Indexer) embedAndIndex(ctx context.Context, chunkID int64, text string) error {
	sparseVec := sparse.NGramSparse(text, sparse.DefaultHashConfig())

	var dense []float32
	if ix.embedder != nil && ix.embedder.Available(ctx) {
		v, err := ix.embedder.Embed(ctx, text)
		if err != nil {
			return errcodes.Wrap(errcodes.ErrCodeEmbeddingFailed, err)
		}
		dense = v
		if err := ix.store.EnsureIndexDimension(ctx, len(dense), ix.embedder.ModelName()); err != nil {
			return err
		}
	} else {
		dense = make([]float32, ix.hybrid.Dimension())
	}

	if err := ix.store.UpsertEmbedding(ctx, &store.Embedding{
		ChunkID:      chunkID,
		Dense:        dense,
		SparseValues: sparseVec.Values,
		SparseCols:   sparseVec.Indices,
		Model:        ix.cfg.EmbeddingModel,
	}); err != nil {
		return errcodes.Wrap(errcodes.ErrCodeDatabase, err)
	}

	return ix.hybrid.Add(chunkID, sparseVec, dense)
}

// removeFile soft-deletes a File row (cascading to its Symbols/Chunks
// via application-level soft-delete) and removes its chunks from the
// hybrid index.
func (ix *Indexer) removeFile(ctx context.Context, relPath string) error {
	f, err := ix.store.FindFileByPath(ctx, ix.cfg.ProjectID, relPath)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return errcodes.Wrap(errcodes.ErrCodeDatabase, err)
	}

	chunks, err := ix.store.ChunksByFile(ctx, f.ID)
	if err != nil {
		return errcodes.Wrap(errcodes.ErrCodeDatabase, err)
	}
	for _, c := range chunks {
		ix.hybrid.Remove(c.ID)
	}

	if err := ix.store.SoftDeleteFile(ctx, f.ID); err != nil {
		return errcodes.Wrap(errcodes.ErrCodeDatabase, err)
	}
	return nil
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func isBinary(content []byte) bool {
	n := len(content)
	if n > 8192 {
		n = 8192
	}
	for _, b := range content[:n] {
		if b == 0 {
			return true
		}
	}
	return false
}
