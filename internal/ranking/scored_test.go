package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakdownReportsPerSourceContributions(t *testing.T) {
	cfg := FusionConfig{Alpha: 0.6, Beta: 0.4, RRFK: 60}
	s := &Scored{
		ChunkID:               7,
		LexRank:               1,
		SemRank:               3,
		TieBreak:              0.8,
		TieBreakContribution:  0.05,
		DiversityPenalty:      0.1,
		FinalScore:            0.55,
	}

	b := s.Breakdown(cfg)

	require.NotNil(t, b.LexicalRank)
	assert.Equal(t, 1, *b.LexicalRank)
	assert.InDelta(t, 0.6/61, b.LexicalContribution, 1e-9)

	require.NotNil(t, b.VectorRank)
	assert.Equal(t, 3, *b.VectorRank)
	assert.InDelta(t, 0.4/63, b.VectorContribution, 1e-9)

	assert.Equal(t, 0.8, b.TieBreakerScores)
	assert.Equal(t, 0.05, b.TieBreakerContribution)
	assert.Equal(t, 0.1, b.DiversityPenalty)
	assert.Equal(t, 0.55, b.FinalScore)
}

func TestBreakdownOmitsRankForAbsentSource(t *testing.T) {
	cfg := FusionConfig{Alpha: 0.6, Beta: 0.4, RRFK: 60}
	s := &Scored{ChunkID: 1, LexRank: 2, FinalScore: 0.1}

	b := s.Breakdown(cfg)

	require.NotNil(t, b.LexicalRank)
	assert.Nil(t, b.VectorRank)
	assert.Equal(t, 0.0, b.VectorContribution)
}
