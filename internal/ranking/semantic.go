package ranking

import (
	"context"

	"github.com/amanmcp/codeindex/internal/embed"
	"github.com/amanmcp/codeindex/internal/hybridindex"
)

// SemanticAdapter adapts the hybrid index's dense search to the
// Retriever interface, embedding the query text on the fly.
type SemanticAdapter struct {
	Index    *hybridindex.Index
	Embedder embed.Embedder
	PathOfID func(chunkID int64) string
}

func (a *SemanticAdapter) Retrieve(ctx context.Context, query string, limit int) ([]RetrievedItem, error) {
	vec, err := a.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	rows := a.Index.SearchDense(vec, limit)
	out := make([]RetrievedItem, len(rows))
	for i, r := range rows {
		path := ""
		if a.PathOfID != nil {
			path = a.PathOfID(r.ChunkID)
		}
		out[i] = RetrievedItem{ChunkID: r.ChunkID, Score: float64(r.Score), FilePath: path}
	}
	return out, nil
}
