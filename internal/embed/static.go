package embed

import (
	"context"
	"hash/fnv"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"unicode"

	"github.com/amanmcp/codeindex/internal/errcodes"
)

// StaticEmbedder generates embeddings using a deterministic hash-based
// approach: token and character-trigram hashes accumulate into fixed
// buckets, then the result is L2-normalized. It needs no network
// access or model download, trading semantic quality for being always
// available, which makes it the default C3 implementation.
type StaticEmbedder struct {
	mu     sync.RWMutex
	closed bool
	calls  atomic.Int64
}

var programmingStopWords = map[string]bool{
	"func": true, "function": true, "def": true, "class": true,
	"return": true, "import": true, "const": true, "var": true,
	"let": true, "int": true, "string": true, "bool": true,
	"void": true, "true": true, "false": true, "nil": true,
	"null": true, "this": true, "self": true, "new": true,
}

const (
	tokenWeight = 0.7
	ngramWeight = 0.3
	ngramSize   = 3
)

var tokenRegex = regexp.MustCompile(`[a-zA-Z0-9]+`)

// NewStaticEmbedder creates a new static embedder.
func NewStaticEmbedder() *StaticEmbedder {
	return &StaticEmbedder{}
}

func (e *StaticEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return nil, errcodes.New(errcodes.ErrCodeAdapterInit, "embedder is closed", nil)
	}
	e.calls.Add(1)

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return make([]float32, StaticDimensions), nil
	}
	return normalizeVector(e.generateVector(trimmed)), nil
}

func (e *StaticEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := 0; i < len(texts); i += MaxBatchSize {
		end := i + MaxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		for j := i; j < end; j++ {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			v, err := e.Embed(ctx, texts[j])
			if err != nil {
				return nil, err
			}
			out[j] = v
		}
	}
	return out, nil
}

func (e *StaticEmbedder) generateVector(text string) []float32 {
	vector := make([]float32, StaticDimensions)

	tokens := filterStopWords(tokenize(text))
	for _, token := range tokens {
		vector[hashToIndex(token, StaticDimensions)] += tokenWeight
	}

	ngrams := extractNgrams(normalizeForNgrams(text), ngramSize)
	for _, ngram := range ngrams {
		vector[hashToIndex(ngram, StaticDimensions)] += ngramWeight
	}

	return vector
}

func (e *StaticEmbedder) Dimensions() int { return StaticDimensions }

func (e *StaticEmbedder) ModelName() string { return "static-hash-v1" }

func (e *StaticEmbedder) Available(ctx context.Context) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return !e.closed
}

func (e *StaticEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

func tokenize(text string) []string {
	return tokenRegex.FindAllString(strings.ToLower(text), -1)
}

func filterStopWords(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !programmingStopWords[t] {
			out = append(out, t)
		}
	}
	return out
}

func normalizeForNgrams(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func extractNgrams(s string, n int) []string {
	runes := []rune(s)
	if len(runes) < n {
		if len(runes) == 0 {
			return nil
		}
		return []string{s}
	}
	out := make([]string, 0, len(runes)-n+1)
	for i := 0; i+n <= len(runes); i++ {
		out = append(out, string(runes[i:i+n]))
	}
	return out
}

func hashToIndex(s string, dim int) int {
	h := fnv.New32a()
	h.Write([]byte(s))
	return int(h.Sum32()) % dim
}
