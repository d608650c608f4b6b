package sparse

// Matrix is a Compressed Sparse Row encoding of a collection of
// SparseVectors sharing a feature space: values and col_indices are
// the concatenation of every row's entries in row order, and
// row_pointers[i]..row_pointers[i+1] delimits row i. The hybrid index
// writes and reads its sparse vectors in this form (sparse.csr); in
// memory it keeps one SparseVector per row.
type Matrix struct {
	Values      []float32
	ColIndices  []int32
	RowPointers []int32 // len == NumRows()+1
	NumFeatures int32
}

// NewMatrix builds a CSR matrix from rows in order. Each row's
// indices must already be ascending (true of NGramSparse output).
func NewMatrix(rows []*SparseVector, numFeatures int32) *Matrix {
	m := &Matrix{RowPointers: make([]int32, len(rows)+1), NumFeatures: numFeatures}
	for _, r := range rows {
		m.Values = append(m.Values, r.Values...)
		m.ColIndices = append(m.ColIndices, r.Indices...)
	}
	offset := int32(0)
	for i, r := range rows {
		m.RowPointers[i] = offset
		offset += int32(len(r.Indices))
	}
	m.RowPointers[len(rows)] = offset
	return m
}

// NumRows returns the number of encoded rows.
func (m *Matrix) NumRows() int {
	if len(m.RowPointers) == 0 {
		return 0
	}
	return len(m.RowPointers) - 1
}

// Row reconstructs row i as a SparseVector. Round-tripping through
// NewMatrix/Row is required to be lossless (testable property).
func (m *Matrix) Row(i int) *SparseVector {
	start, end := m.RowPointers[i], m.RowPointers[i+1]
	return &SparseVector{
		Indices: append([]int32(nil), m.ColIndices[start:end]...),
		Values:  append([]float32(nil), m.Values[start:end]...),
	}
}

// AppendRow appends a new row to the matrix in place, preserving CSR
// invariants. The hybrid index does not call it: it appends to its own
// per-row slices and builds a Matrix with NewMatrix when saving.
func (m *Matrix) AppendRow(row *SparseVector) {
	m.Values = append(m.Values, row.Values...)
	m.ColIndices = append(m.ColIndices, row.Indices...)
	if len(m.RowPointers) == 0 {
		m.RowPointers = []int32{0}
	}
	last := m.RowPointers[len(m.RowPointers)-1]
	m.RowPointers = append(m.RowPointers, last+int32(len(row.Indices)))
}

// CosineRow computes the cosine similarity between matrix row i and a
// query vector, both assumed L2-normalized and ascending-ordered.
func (m *Matrix) CosineRow(i int, query *SparseVector) float32 {
	start, end := m.RowPointers[i], m.RowPointers[i+1]
	rowIdx := m.ColIndices[start:end]
	rowVal := m.Values[start:end]

	var a, b int
	var dot float32
	for a < len(rowIdx) && b < len(query.Indices) {
		switch {
		case rowIdx[a] == query.Indices[b]:
			dot += rowVal[a] * query.Values[b]
			a++
			b++
		case rowIdx[a] < query.Indices[b]:
			a++
		default:
			b++
		}
	}
	return dot
}
