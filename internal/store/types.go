// Package store implements the persistent SQLite-backed store (schema,
// single-writer lock, and repositories) described by the data model:
// files, symbols, chunks, embeddings, full-text search, and call edges,
// all soft-deletable and versioned via a migration_history table.
package store

import (
	"strconv"
	"time"
)

// SymbolType enumerates the kinds of symbols extracted from source.
// Extended beyond the teacher's narrower set to cover the full
// abstract AST vocabulary consumed from pkg/astdoc.
type SymbolType string

const (
	SymbolFunction  SymbolType = "function"
	SymbolClass     SymbolType = "class"
	SymbolInterface SymbolType = "interface"
	SymbolTypeDef   SymbolType = "type"
	SymbolVariable  SymbolType = "variable"
	SymbolConstant  SymbolType = "constant"
	SymbolMethod    SymbolType = "method"
	SymbolProperty  SymbolType = "property"
	SymbolModule    SymbolType = "module"
	SymbolNamespace SymbolType = "namespace"
	SymbolParameter SymbolType = "parameter"
	SymbolImport    SymbolType = "import"
	SymbolExport    SymbolType = "export"
	SymbolDecorator SymbolType = "decorator"
)

// File is a row in the files table: one tracked source file.
type File struct {
	ID          int64
	ProjectID   int64
	Path        string // project-relative, forward-slash
	ContentHash string // sha256 hex of file contents at last index
	Language    string
	SizeBytes   int64
	MTime       time.Time
	IndexedAt   time.Time
	DeletedAt   *time.Time
}

// IsDeleted reports whether the file is soft-deleted.
func (f *File) IsDeleted() bool { return f.DeletedAt != nil }

// Symbol is a row in the symbols table: one named declaration in a file.
type Symbol struct {
	ID        int64
	FileID    int64
	Name      string
	Type      SymbolType
	StartLine int
	EndLine   int
	StartCol  int
	EndCol    int
	Signature string
	ParentID  *int64 // enclosing symbol, e.g. method -> class
	DeletedAt *time.Time
}

// Chunk is a row in the chunks table: one embeddable/indexable unit of
// text derived from a file or symbol, per the ast_to_text transform.
type Chunk struct {
	ID            int64
	FileID        int64
	SymbolID      *int64
	Text          string
	TextSchemaVer int
	StartLine     int
	EndLine       int
	ContentHash   string
	DeletedAt     *time.Time
}

// Embedding is a row in the embeddings table: the dense vector for a
// chunk, plus the sparse n-gram vector in CSR form.
type Embedding struct {
	ChunkID      int64
	Dense        []float32 // unit-norm, length == meta dimension
	SparseValues []float32
	SparseCols   []int32
	Model        string
	CreatedAt    time.Time
}

// Call is a row in the calls table: a caller -> callee symbol edge.
type Call struct {
	ID         int64
	CallerID   int64
	CalleeName string
	CalleeID   *int64 // resolved symbol ID, nil if unresolved
	Line       int
}

// CurrentSchemaVersion is the schema_version / migration_history HEAD
// this binary expects. Open records it in an empty migration_history
// and refuses a database whose history holds a newer version; no
// migration steps exist, so an older version is not upgraded.
const CurrentSchemaVersion = 1

// StateKeyIndexDimension and StateKeyIndexModel persist the dense
// embedding dimension and model name in the meta table, resolving the
// embedding-dimension Open Question: the dimension is fixed at the
// first successful embed and enforced thereafter via
// ErrDimensionMismatch.
const (
	StateKeyIndexDimension = "index_dimension"
	StateKeyIndexModel     = "index_model"
	StateKeySchemaVersion  = "schema_version"
	StateKeyTextSchemaVer  = "text_schema_version"
)

// ErrDimensionMismatch is returned when a dense vector's length does
// not match the dimension recorded in meta for this project.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e *ErrDimensionMismatch) Error() string {
	return "embedding dimension mismatch: expected " + strconv.Itoa(e.Expected) + ", got " + strconv.Itoa(e.Got)
}
