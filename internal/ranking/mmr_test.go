package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiversifyPenalizesSameDirectory(t *testing.T) {
	cfg := DiversificationConfig{Enabled: true, Lambda: 0.5, MaxPerFile: 10}
	results := []*Scored{
		{ChunkID: 1, FilePath: "a/b/one.go", FinalScore: 1.0},
		{ChunkID: 2, FilePath: "a/b/two.go", FinalScore: 0.95},
		{ChunkID: 3, FilePath: "x/y/three.go", FinalScore: 0.9},
	}
	out := Diversify(results, cfg)
	require.Len(t, out, 3)
	assert.Equal(t, int64(1), out[0].ChunkID)
	// three.go (different directory) should outrank two.go (same dir as
	// the already-selected one.go) despite a lower raw score.
	assert.Equal(t, int64(3), out[1].ChunkID)
}

func TestDiversifyRespectsMaxPerFile(t *testing.T) {
	cfg := DiversificationConfig{Enabled: true, Lambda: 1.0, MaxPerFile: 1}
	results := []*Scored{
		{ChunkID: 1, FilePath: "same.go", FinalScore: 1.0},
		{ChunkID: 2, FilePath: "same.go", FinalScore: 0.9},
		{ChunkID: 3, FilePath: "other.go", FinalScore: 0.8},
	}
	out := Diversify(results, cfg)
	require.Len(t, out, 2)
	assert.Equal(t, int64(1), out[0].ChunkID)
	assert.Equal(t, int64(3), out[1].ChunkID)
}

func TestDiversifyDisabledReturnsInputUnchanged(t *testing.T) {
	cfg := DiversificationConfig{Enabled: false}
	results := []*Scored{{ChunkID: 1, FilePath: "a.go"}}
	out := Diversify(results, cfg)
	assert.Equal(t, results, out)
}

func TestDiversifyOverwritesFinalScoreAndRecordsPenalty(t *testing.T) {
	cfg := DiversificationConfig{Enabled: true, Lambda: 0.5, MaxPerFile: 10}
	results := []*Scored{
		{ChunkID: 1, FilePath: "a/b/one.go", FinalScore: 1.0},
		{ChunkID: 2, FilePath: "a/b/two.go", FinalScore: 0.95},
	}
	out := Diversify(results, cfg)
	require.Len(t, out, 2)

	// the first pick has no prior selection to compete with, so its
	// penalty is zero and its score is halved by lambda alone.
	assert.Equal(t, 0.0, out[0].DiversityPenalty)
	assert.InDelta(t, 0.5, out[0].FinalScore, 1e-9)

	// the second pick shares every path component with the first, so
	// its similarity is 1.0 and the penalty is (1-lambda)*1.0.
	assert.InDelta(t, 0.5, out[1].DiversityPenalty, 1e-9)
	assert.InDelta(t, 0.5*0.95-0.5, out[1].FinalScore, 1e-9)
}
