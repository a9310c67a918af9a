package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch_ExactWinsOverCloserLookingCandidates(t *testing.T) {
	got, ok := Match("Triangle", []string{"triangles", "  TRIANGLE ", "triangle"})
	require.True(t, ok)
	assert.Equal(t, "  TRIANGLE ", got, "first exact match keeps its original case")
}

func TestMatch_Typo(t *testing.T) {
	got, ok := Match("trianlge", []string{"circle", "triangle"})
	require.True(t, ok)
	assert.Equal(t, "triangle", got)
}

func TestMatch_Unrelated(t *testing.T) {
	_, ok := Match("xyz", []string{"triangle"})
	assert.False(t, ok)
}

func TestMatch_EmptyInputs(t *testing.T) {
	_, ok := Match("", []string{"triangle"})
	assert.False(t, ok)

	_, ok = Match("   ", []string{"triangle"})
	assert.False(t, ok)

	_, ok = Match("triangle", nil)
	assert.False(t, ok)
}

func TestMatch_CutoffBoundary(t *testing.T) {
	// 3 shared characters over a combined length of 10: exactly 0.6.
	require.InDelta(t, 0.6, Ratio("abcxy", "abcde"), 1e-12)
	got, ok := Match("abcde", []string{"abcxy"})
	require.True(t, ok)
	assert.Equal(t, "abcxy", got)

	// 2 shared characters: 0.4, rejected.
	_, ok = Match("abcde", []string{"abwxy"})
	assert.False(t, ok)
}

func TestMatch_TieBreakKeepsInputOrder(t *testing.T) {
	got, ok := Match("abcde", []string{"abcxy", "abcxz"})
	require.True(t, ok)
	assert.Equal(t, "abcxy", got)
}

func TestMatch_PicksHighestScore(t *testing.T) {
	got, ok := Match("area of triangle", []string{"area of circle", "area of triangles"})
	require.True(t, ok)
	assert.Equal(t, "area of triangles", got)
}

func TestMatchAny(t *testing.T) {
	tests := []struct {
		name  string
		query string
		tags  []string
		want  bool
	}{
		{"exact tag", "pythagorean theorem", []string{"right triangles", "pythagorean theorem"}, true},
		{"fuzzy tag", "pythagoras theorem", []string{"pythagorean theorem"}, true},
		{"no tags", "circle", nil, false},
		{"unrelated", "volume", []string{"angle bisector", "similar triangles"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchAny(tt.query, tt.tags))
		})
	}
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 1.0, Ratio("circle", "circle"))
	assert.Equal(t, 0.0, Ratio("abc", "xyz"))
	assert.Greater(t, Ratio("trianlge", "triangle"), Cutoff)
}
