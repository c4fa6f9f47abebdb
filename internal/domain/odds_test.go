package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sum(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total
}

func TestImpliedProbability(t *testing.T) {
	assert.InDelta(t, 0.5, ImpliedProbability(2.0), 1e-12)
	assert.Equal(t, 0.0, ImpliedProbability(1.0))
	assert.Equal(t, 0.0, ImpliedProbability(0.5))
	assert.Equal(t, 0.0, ImpliedProbability(-3))
}

func TestRemoveVig_SumsToOne(t *testing.T) {
	cases := [][]float64{
		{1.80, 2.10},
		{2.50, 3.20, 2.90},
		{1.01, 40},
		{1.95, 0.8},     // precio inválido cuenta como 0
		{3.0, 3.0, 3.0}, // sin vig
		{1.5},
	}
	for _, prices := range cases {
		probs, err := RemoveVig(prices)
		require.NoError(t, err, "prices %v", prices)
		assert.Len(t, probs, len(prices))
		assert.InDelta(t, 1.0, sum(probs), 1e-9, "prices %v", prices)
	}
}

func TestRemoveVig_Proportional(t *testing.T) {
	probs, err := RemoveVig([]float64{1.80, 2.10})
	require.NoError(t, err)
	assert.InDelta(t, 2.1/3.9, probs[0], 1e-9)
	assert.InDelta(t, 1.8/3.9, probs[1], 1e-9)
}

func TestRemoveVig_Degenerate(t *testing.T) {
	for _, prices := range [][]float64{{1, 1}, {0.5, 0.9, 1.0}, {}, {-2}} {
		_, err := RemoveVig(prices)
		assert.ErrorIs(t, err, ErrDegenerateProbabilities, "prices %v", prices)
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.818, Round(1/0.55, 3))
	assert.Equal(t, 10.38, Round(0.103846*100, 2))
	assert.Equal(t, 2.0, Round(2.0004, 3))
}

func TestSharpList_IsSharp(t *testing.T) {
	l := NewSharpList(nil)

	assert.True(t, l.IsSharp("pinnacle", "Pinnacle"))
	assert.True(t, l.IsSharp("betfair_ex_eu", "Betfair"))
	assert.True(t, l.IsSharp("", "Matchbook"))
	assert.True(t, l.IsSharp("sport888", "SBOBET"))
	assert.False(t, l.IsSharp("williamhill", "William Hill"))
	assert.False(t, l.IsSharp("", ""))
}

func TestSharpList_Custom(t *testing.T) {
	l := NewSharpList([]string{" Pinnacle ", ""})
	assert.Equal(t, SharpList{"pinnacle"}, l)
	assert.False(t, l.IsSharp("betfair_ex_eu", "Betfair"))
}
