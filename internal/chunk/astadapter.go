package chunk

import (
	"context"

	"github.com/amanmcp/codeindex/pkg/astdoc"
)

// astParserLanguages lists the languages ASTParser can hand to
// tree-sitter, mirroring LanguageRegistry's registered set.
var astParserLanguages = []string{"go", "typescript", "tsx", "javascript", "jsx", "python"}

// ASTParser adapts this package's tree-sitter parser and symbol
// extractor to the astdoc.Parser capability the indexing core
// depends on. The core never imports tree-sitter directly; a
// different extractor (an LSP client, a regex fallback) can replace
// this adapter without touching internal/indexer.
type ASTParser struct {
	parser    *Parser
	extractor *SymbolExtractor
}

// NewASTParser constructs the default tree-sitter-backed astdoc.Parser.
func NewASTParser() *ASTParser {
	return &ASTParser{parser: NewParser(), extractor: NewSymbolExtractor()}
}

// Parse implements astdoc.Parser.
func (p *ASTParser) Parse(path, language string, content []byte) (*astdoc.ASTDoc, error) {
	tree, err := p.parser.Parse(context.Background(), content, language)
	if err != nil {
		return nil, err
	}

	symbols := p.extractor.Extract(tree, content)
	doc := &astdoc.ASTDoc{
		Path:     path,
		Language: language,
		Source:   string(content),
		Symbols:  make([]astdoc.Symbol, 0, len(symbols)),
	}
	for _, s := range symbols {
		doc.Symbols = append(doc.Symbols, astdoc.Symbol{
			Name:       s.Name,
			Kind:       astdoc.SymbolKind(s.Type),
			Start:      astdoc.Position{Line: s.StartLine},
			End:        astdoc.Position{Line: s.EndLine},
			Signature:  s.Signature,
			DocComment: s.DocComment,
		})
	}
	return doc, nil
}

// SupportedLanguages implements astdoc.Parser.
func (p *ASTParser) SupportedLanguages() []string {
	return astParserLanguages
}

// Close releases the underlying tree-sitter parser.
func (p *ASTParser) Close() { p.parser.Close() }

var _ astdoc.Parser = (*ASTParser)(nil)
