// Package hybridindex implements the in-memory dense+sparse vector
// index (C4): one lexical n-gram sparse vector and one dense embedding
// per row, kept in lockstep by chunk ID, with atomic save/load to four
// files (ids.bin, sparse.csr as a CSR matrix, dense.bin as a row-major
// dense matrix, meta.json) and tombstone-and-compact deletion.
package hybridindex

import (
	"fmt"
	"sort"
	"sync"

	"github.com/amanmcp/codeindex/internal/embed"
	"github.com/amanmcp/codeindex/internal/sparse"
)

// Row is one entry of the hybrid index: a chunk's sparse and dense
// vectors, kept at the same row offset in both matrices.
type Row struct {
	ChunkID int64
	Sparse  *sparse.SparseVector
	Dense   []float32
}

// Index is the brute-force, exact dense+sparse vector store. Search
// is O(n) per query by design: the spec mandates exact cosine
// similarity and a lossless CSR round trip, ruling out an approximate
// nearest-neighbor structure.
type Index struct {
	mu sync.RWMutex

	numFeatures int32
	dimension   int

	ids      []int64   // row i -> chunk ID, -1 if tombstoned
	sparse   []*sparse.SparseVector
	dense    [][]float32
	rowOf    map[int64]int // chunk ID -> row index, absent if not present or tombstoned
	tombs    int           // count of tombstoned rows, drives compaction

	textSchemaVersion int
}

// New creates an empty index for the given sparse feature space and
// dense dimension.
func New(numFeatures int32, dimension int) *Index {
	return &Index{
		numFeatures:       numFeatures,
		dimension:         dimension,
		rowOf:             make(map[int64]int),
		textSchemaVersion: 1,
	}
}

// NumFeatures and Dimension report the index's fixed geometry.
func (idx *Index) NumFeatures() int32 { return idx.numFeatures }
func (idx *Index) Dimension() int     { return idx.dimension }

// Len returns the number of live (non-tombstoned) rows.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.rowOf)
}

// Add inserts or replaces the vectors for a chunk ID. Replacing an
// existing chunk tombstones its old row and appends a new one;
// Compact later reclaims the space.
func (idx *Index) Add(chunkID int64, sparseVec *sparse.SparseVector, dense []float32) error {
	if len(dense) != idx.dimension {
		return fmt.Errorf("hybridindex: dense vector has dimension %d, index expects %d", len(dense), idx.dimension)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if oldRow, ok := idx.rowOf[chunkID]; ok {
		idx.ids[oldRow] = -1
		idx.tombs++
		delete(idx.rowOf, chunkID)
	}

	row := len(idx.ids)
	idx.ids = append(idx.ids, chunkID)
	idx.sparse = append(idx.sparse, sparseVec)
	idx.dense = append(idx.dense, dense)
	idx.rowOf[chunkID] = row
	return nil
}

// Remove tombstones a chunk's row without shrinking backing storage;
// a subsequent Compact reclaims tombstoned rows. Searches never
// return tombstoned rows.
func (idx *Index) Remove(chunkID int64) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	row, ok := idx.rowOf[chunkID]
	if !ok {
		return false
	}
	idx.ids[row] = -1
	idx.tombs++
	delete(idx.rowOf, chunkID)
	return true
}

// TombstoneRatio reports the fraction of rows that are tombstoned,
// used by the maintenance scheduler to decide when to Compact.
func (idx *Index) TombstoneRatio() float64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if len(idx.ids) == 0 {
		return 0
	}
	return float64(idx.tombs) / float64(len(idx.ids))
}

// Compact rewrites backing storage to drop tombstoned rows, restoring
// O(live rows) search cost. Call after a burst of deletes, typically
// from the maintenance scheduler rather than inline with writes.
func (idx *Index) Compact() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	newIDs := make([]int64, 0, len(idx.rowOf))
	newSparse := make([]*sparse.SparseVector, 0, len(idx.rowOf))
	newDense := make([][]float32, 0, len(idx.rowOf))
	newRowOf := make(map[int64]int, len(idx.rowOf))

	for row, id := range idx.ids {
		if id == -1 {
			continue
		}
		newRowOf[id] = len(newIDs)
		newIDs = append(newIDs, id)
		newSparse = append(newSparse, idx.sparse[row])
		newDense = append(newDense, idx.dense[row])
	}

	idx.ids = newIDs
	idx.sparse = newSparse
	idx.dense = newDense
	idx.rowOf = newRowOf
	idx.tombs = 0
}

// ScoredRow is one chunk's score for a query; SearchSparse and
// SearchDense return them sorted by descending score for
// internal/ranking's fusion stage.
type ScoredRow struct {
	ChunkID int64
	Score   float32
}

// SearchSparse scores every live row by cosine similarity against a
// query sparse vector and returns the top-k in descending score order.
func (idx *Index) SearchSparse(query *sparse.SparseVector, k int) []ScoredRow {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	results := make([]ScoredRow, 0, len(idx.rowOf))
	for row, id := range idx.ids {
		if id == -1 {
			continue
		}
		score := sparse.Cosine(idx.sparse[row], query)
		results = append(results, ScoredRow{ChunkID: id, Score: score})
	}
	return topK(results, k)
}

// SearchDense scores every live row by cosine similarity (dot product
// on unit-norm vectors) against a query dense vector and returns the
// top-k in descending score order.
func (idx *Index) SearchDense(query []float32, k int) []ScoredRow {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	results := make([]ScoredRow, 0, len(idx.rowOf))
	for row, id := range idx.ids {
		if id == -1 {
			continue
		}
		score := embed.CosineSimilarity(idx.dense[row], query)
		results = append(results, ScoredRow{ChunkID: id, Score: score})
	}
	return topK(results, k)
}

func topK(results []ScoredRow, k int) []ScoredRow {
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results
}
