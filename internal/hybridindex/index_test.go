package hybridindex

import (
	"path/filepath"
	"testing"

	"github.com/amanmcp/codeindex/internal/sparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRow(text string, dim int, fill float32) (*sparse.SparseVector, []float32) {
	sv := sparse.NGramSparse(text, sparse.DefaultHashConfig())
	dense := make([]float32, dim)
	dense[0] = fill
	return sv, dense
}

func TestAddAndSearchDense(t *testing.T) {
	idx := New(sparse.DefaultNumFeatures, 4)
	sv1, d1 := makeRow("alpha", 4, 1)
	sv2, d2 := makeRow("beta", 4, 0.5)
	require.NoError(t, idx.Add(1, sv1, d1))
	require.NoError(t, idx.Add(2, sv2, d2))

	results := idx.SearchDense([]float32{1, 0, 0, 0}, 2)
	require.Len(t, results, 2)
	assert.Equal(t, int64(1), results[0].ChunkID)
}

func TestRemoveTombstonesAndExcludesFromSearch(t *testing.T) {
	idx := New(sparse.DefaultNumFeatures, 4)
	sv1, d1 := makeRow("alpha", 4, 1)
	require.NoError(t, idx.Add(1, sv1, d1))

	assert.True(t, idx.Remove(1))
	assert.Equal(t, 0, idx.Len())
	assert.Empty(t, idx.SearchDense([]float32{1, 0, 0, 0}, 10))
}

func TestCompactReclaimsTombstonedRows(t *testing.T) {
	idx := New(sparse.DefaultNumFeatures, 4)
	for i := int64(1); i <= 3; i++ {
		sv, d := makeRow("text", 4, float32(i))
		require.NoError(t, idx.Add(i, sv, d))
	}
	idx.Remove(2)
	assert.InDelta(t, 1.0/3.0, idx.TombstoneRatio(), 1e-6)

	idx.Compact()
	assert.Equal(t, 0.0, idx.TombstoneRatio())
	assert.Equal(t, 2, idx.Len())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	idx := New(sparse.DefaultNumFeatures, 4)
	sv1, d1 := makeRow("alpha content", 4, 1)
	sv2, d2 := makeRow("beta content", 4, 0.5)
	require.NoError(t, idx.Add(1, sv1, d1))
	require.NoError(t, idx.Add(2, sv2, d2))

	require.NoError(t, idx.Save(filepath.Join(dir, "idx"), "static-hash-v1"))

	loaded, err := Load(filepath.Join(dir, "idx"), "static-hash-v1", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())

	results := loaded.SearchDense([]float32{1, 0, 0, 0}, 1)
	require.Len(t, results, 1)
	assert.Equal(t, int64(1), results[0].ChunkID)
}

func TestLoadRejectsSchemaVersionMismatch(t *testing.T) {
	dir := t.TempDir()
	idx := New(sparse.DefaultNumFeatures, 4)
	sv, d := makeRow("x", 4, 1)
	require.NoError(t, idx.Add(1, sv, d))
	require.NoError(t, idx.Save(filepath.Join(dir, "idx"), "static-hash-v1"))

	_, err := Load(filepath.Join(dir, "idx"), "static-hash-v1", 2)
	assert.Error(t, err)
}
