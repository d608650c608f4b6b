package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amanmcp/codeindex/internal/embed"
	"github.com/amanmcp/codeindex/internal/gitignore"
	"github.com/amanmcp/codeindex/internal/hybridindex"
	"github.com/amanmcp/codeindex/internal/sparse"
	"github.com/amanmcp/codeindex/internal/store"
	"github.com/amanmcp/codeindex/internal/watcher"
	"github.com/amanmcp/codeindex/pkg/astdoc"
)

// stubParser returns one function symbol per file, named after the
// file's base name, so tests don't depend on tree-sitter grammars.
type stubParser struct{ fail bool }

func (p *stubParser) Parse(path, language string, content []byte) (*astdoc.ASTDoc, error) {
	return &astdoc.ASTDoc{
		Path:     path,
		Language: language,
		Source:   string(content),
		Symbols: []astdoc.Symbol{
			{Name: filepath.Base(path), Kind: astdoc.KindFunction, Signature: "func " + filepath.Base(path) + "()"},
		},
	}, nil
}

func (p *stubParser) SupportedLanguages() []string { return []string{"go"} }

func newTestIndexer(t *testing.T, root string) (*Indexer, *store.Store, *hybridindex.Index) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "index.db"), store.DefaultOptions())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	hybrid := hybridindex.New(int32(sparse.DefaultNumFeatures), embed.StaticDimensions)
	embedder := embed.NewStaticEmbedder()
	ignore := gitignore.New()

	cfg := Config{
		RootDir:        root,
		ProjectID:      1,
		EmbeddingModel: embedder.ModelName(),
	}
	ix := New(cfg, st, hybrid, &stubParser{}, embedder, ignore)
	return ix, st, hybrid
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestProcessBatchIndexesAddedFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\nfunc main() {}\n")
	ix, st, hybrid := newTestIndexer(t, root)
	ctx := context.Background()

	res, err := ix.ProcessBatch(ctx, Partition([]watcher.FileEvent{
		{Path: "main.go", Operation: watcher.OpCreate},
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, 1, hybrid.Len())

	f, err := st.FindFileByPath(ctx, 1, "main.go")
	require.NoError(t, err)
	assert.Equal(t, "go", f.Language)
}

func TestProcessBatchSkipsUnchangedContent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\nfunc main() {}\n")
	ix, _, hybrid := newTestIndexer(t, root)
	ctx := context.Background()

	events := []watcher.FileEvent{{Path: "main.go", Operation: watcher.OpCreate}}
	_, err := ix.ProcessBatch(ctx, Partition(events))
	require.NoError(t, err)
	require.Equal(t, 1, hybrid.Len())

	res, err := ix.ProcessBatch(ctx, Partition([]watcher.FileEvent{
		{Path: "main.go", Operation: watcher.OpModify},
	}))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Processed)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, hybrid.Len())
}

func TestProcessBatchDeletedFileRemovesFromHybridIndex(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "gone.go", "package main\nfunc gone() {}\n")
	ix, st, hybrid := newTestIndexer(t, root)
	ctx := context.Background()

	_, err := ix.ProcessBatch(ctx, Partition([]watcher.FileEvent{
		{Path: "gone.go", Operation: watcher.OpCreate},
	}))
	require.NoError(t, err)
	require.Equal(t, 1, hybrid.Len())

	require.NoError(t, os.Remove(filepath.Join(root, "gone.go")))
	res, err := ix.ProcessBatch(ctx, Partition([]watcher.FileEvent{
		{Path: "gone.go", Operation: watcher.OpDelete},
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 0, hybrid.Len())

	_, err = st.FindFileByPath(ctx, 1, "gone.go")
	assert.Error(t, err)
}

func TestProcessBatchModifiedFileUpdatesContentHash(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\nfunc main() {}\n")
	ix, st, _ := newTestIndexer(t, root)
	ctx := context.Background()

	_, err := ix.ProcessBatch(ctx, Partition([]watcher.FileEvent{
		{Path: "main.go", Operation: watcher.OpCreate},
	}))
	require.NoError(t, err)
	before, err := st.FindFileByPath(ctx, 1, "main.go")
	require.NoError(t, err)

	writeFile(t, root, "main.go", "package main\nfunc main() { println(1) }\n")
	res, err := ix.ProcessBatch(ctx, Partition([]watcher.FileEvent{
		{Path: "main.go", Operation: watcher.OpModify},
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)

	after, err := st.FindFileByPath(ctx, 1, "main.go")
	require.NoError(t, err)
	assert.NotEqual(t, before.ContentHash, after.ContentHash)
}

func TestRunFullIndexesWholeTree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package main\nfunc a() {}\n")
	writeFile(t, root, "sub/b.go", "package sub\nfunc b() {}\n")
	ix, _, hybrid := newTestIndexer(t, root)

	res, err := ix.RunFull(context.Background(), FullIndexConfig{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Files)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 2, hybrid.Len())
}

func TestPartitionClassifiesEventsByOperation(t *testing.T) {
	changes := Partition([]watcher.FileEvent{
		{Path: "new.go", Operation: watcher.OpCreate},
		{Path: "edit.go", Operation: watcher.OpModify},
		{Path: "old.go", Operation: watcher.OpDelete},
		{Path: "new2.go", OldPath: "old2.go", Operation: watcher.OpRename},
	})
	require.Len(t, changes, 4)
	assert.Equal(t, ChangeAdded, changes[0].Kind)
	assert.Equal(t, ChangeModified, changes[1].Kind)
	assert.Equal(t, ChangeDeleted, changes[2].Kind)
	assert.Equal(t, ChangeRenamed, changes[3].Kind)
	assert.Equal(t, "old2.go", changes[3].OldPath)
}
