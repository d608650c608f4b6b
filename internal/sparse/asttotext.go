package sparse

import (
	"strings"

	"github.com/amanmcp/codeindex/pkg/astdoc"
)

// TextSchemaVersion stamps the shape ASTToText produces. Bumped
// whenever the serialization order or fields change, so a saved
// hybrid index built against an older shape is rejected on load
// instead of silently mixing vector generations.
const TextSchemaVersion = 1

// ASTToText deterministically serializes a parsed document into the
// single string NGramSparse (and the dense embedder) consume, per
// §4.2: the file path, then for each symbol its name, kind, signature,
// parent and doc comment, then each call site's caller and callee.
// Imports, exports and comments not attached to a symbol are not
// included. Byte-identical input always yields
// byte-identical output — no map iteration, no locale-dependent
// casing.
func ASTToText(doc *astdoc.ASTDoc) string {
	var b strings.Builder

	b.WriteString(doc.Path)
	b.WriteByte('\n')

	for _, sym := range doc.Symbols {
		b.WriteString(sym.Name)
		b.WriteByte(' ')
		b.WriteString(string(sym.Kind))
		if sym.Signature != "" {
			b.WriteByte(' ')
			b.WriteString(sym.Signature)
		}
		if sym.Parent != "" {
			b.WriteByte(' ')
			b.WriteString(sym.Parent)
		}
		if sym.DocComment != "" {
			b.WriteByte(' ')
			b.WriteString(sym.DocComment)
		}
		b.WriteByte('\n')
	}

	for _, call := range doc.Calls {
		b.WriteString(call.CallerName)
		b.WriteByte(' ')
		b.WriteString(call.CalleeName)
		b.WriteByte('\n')
	}

	return normalizeWhitespace(strings.ToLower(b.String()))
}

// normalizeWhitespace collapses runs of whitespace to single spaces
// and trims the result, so insignificant formatting differences never
// change the hashed n-grams.
func normalizeWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
