// Package embed provides the dense embedding capability (C3) the
// indexing core consumes: init/embed/dimensions/cosine_similarity/
// dispose. The core treats the embedder as an external capability and
// never depends on a specific model backend; this package ships one
// concrete, dependency-free implementation (a deterministic hashed
// embedder) so the system works fully offline, and defines the
// interface a richer backend (a local model server, an ONNX runtime)
// would implement.
package embed

import (
	"context"
	"math"
)

const (
	MinBatchSize     = 1
	MaxBatchSize     = 256
	DefaultBatchSize = 32
)

// StaticDimensions is the output dimension of the shipped hash-based
// embedder.
const StaticDimensions = 384

// Embedder generates unit-norm dense vector embeddings for text.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call,
	// batched internally per MaxBatchSize.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension this embedder produces.
	Dimensions() int

	// ModelName returns the model identifier recorded alongside the
	// index so a dimension/model change can be detected on reload.
	ModelName() string

	// Available checks whether the embedder is ready to serve requests.
	Available(ctx context.Context) bool

	// Close releases any resources held by the embedder.
	Close() error
}

// CosineSimilarity computes the cosine similarity of two dense
// vectors via their dot product, assuming both are unit-norm (true of
// every vector this package produces). Vectors of different length
// return 0.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot float32
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot
}

// normalizeVector L2-normalizes v in place and returns it; a zero
// vector is returned unchanged.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}
	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
