package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/amanmcp/codeindex/pkg/astdoc"
)

// TextSchemaVersion stamps the ast_to_text transform's output shape.
// Bumping it invalidates previously computed sparse/dense vectors,
// since a schema change changes what text those vectors summarize;
// see internal/store.StateKeyTextSchemaVer.
const TextSchemaVersion = 1

// FromSymbol renders one astdoc.Symbol into the canonical text used
// for both n-gram hashing and dense embedding: the same ast_to_text
// transform, independent of which half of the hybrid index consumes
// it, so a symbol's sparse and dense vectors are always computed from
// identical text.
func FromSymbol(doc *astdoc.ASTDoc, sym astdoc.Symbol) string {
	var b strings.Builder
	b.WriteString(string(sym.Kind))
	b.WriteByte(' ')
	b.WriteString(sym.Name)
	if sym.Signature != "" {
		b.WriteByte(' ')
		b.WriteString(sym.Signature)
	}
	if sym.DocComment != "" {
		b.WriteByte('\n')
		b.WriteString(sym.DocComment)
	}
	return b.String()
}

// ContentHash returns the stable hash used to detect unchanged
// chunk text across re-indexes, avoiding redundant embed calls.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
