// Package astdoc defines the abstract contract between the indexing
// core and whatever parser produces structured facts about a source
// file. The core never depends on tree-sitter grammars or any
// particular parsing library directly: it consumes a ParseResult and
// turns it into symbols, chunks, and call edges. Swapping the parser
// backend (tree-sitter, a language server, a regex-based fallback)
// never touches internal/indexer, internal/store, or internal/ranking.
package astdoc

// SymbolKind mirrors store.SymbolType without importing internal/store,
// keeping this package dependency-free for external parser adapters.
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindClass     SymbolKind = "class"
	KindInterface SymbolKind = "interface"
	KindType      SymbolKind = "type"
	KindVariable  SymbolKind = "variable"
	KindConstant  SymbolKind = "constant"
	KindMethod    SymbolKind = "method"
	KindProperty  SymbolKind = "property"
	KindModule    SymbolKind = "module"
	KindNamespace SymbolKind = "namespace"
	KindParameter SymbolKind = "parameter"
	KindImport    SymbolKind = "import"
	KindExport    SymbolKind = "export"
	KindDecorator SymbolKind = "decorator"
)

// Position is a 1-indexed line/column location in the source.
type Position struct {
	Line   int
	Column int
}

// Symbol is one named declaration extracted from a file.
type Symbol struct {
	Name       string
	Kind       SymbolKind
	Start      Position
	End        Position
	Signature  string
	DocComment string
	Parent     string // name of the enclosing symbol, "" if top-level
}

// CallSite is an unresolved caller -> callee reference observed while
// parsing; resolution against the symbol table happens in the core.
type CallSite struct {
	CallerName string
	CalleeName string
	Line       int
}

// ASTDoc is the abstract document a parser produces for one file: its
// symbols, call sites, and enough text to derive retrievable chunks
// from, without exposing any parser-internal tree structure.
type ASTDoc struct {
	Path     string
	Language string
	Symbols  []Symbol
	Calls    []CallSite
	// Source is the raw file content, kept so ast_to_text can slice
	// out exact symbol bodies by byte offset in future; for chunking
	// purposes line ranges in Symbol are authoritative.
	Source string
}

// ParseResult wraps either a successful ASTDoc or a parse failure
// for one file; indexers continue past failures per §4.8's
// retry/skip semantics rather than aborting a whole batch.
type ParseResult struct {
	Doc *ASTDoc
	Err error
}

// Parser is the capability the indexer depends on. Any concrete
// implementation (tree-sitter-backed, LSP-backed, or a trivial
// line-based fallback for unsupported languages) satisfies it.
type Parser interface {
	// Parse produces an ASTDoc for one file's content.
	Parse(path, language string, content []byte) (*ASTDoc, error)
	// SupportedLanguages lists languages this parser can handle.
	SupportedLanguages() []string
}
