package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticEmbedDeterministic(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	a, err := e.Embed(ctx, "func doWork(x int) error")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "func doWork(x int) error")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestStaticEmbedIsUnitNorm(t *testing.T) {
	e := NewStaticEmbedder()
	v, err := e.Embed(context.Background(), "some representative source text")
	require.NoError(t, err)

	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, sumSq, 1e-4)
}

func TestStaticEmbedEmptyTextIsZeroVector(t *testing.T) {
	e := NewStaticEmbedder()
	v, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	for _, x := range v {
		assert.Zero(t, x)
	}
}

func TestCosineSimilarityOfIdenticalVectorsIsOne(t *testing.T) {
	e := NewStaticEmbedder()
	v, err := e.Embed(context.Background(), "cosine similarity check text")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-4)
}

func TestEmbedAfterCloseFails(t *testing.T) {
	e := NewStaticEmbedder()
	require.NoError(t, e.Close())
	_, err := e.Embed(context.Background(), "text")
	assert.Error(t, err)
}

func TestEmbedBatchMatchesIndividualEmbed(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()
	texts := []string{"alpha", "beta", "gamma"}

	batch, err := e.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	require.Len(t, batch, 3)

	for i, text := range texts {
		single, err := e.Embed(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i])
	}
}
