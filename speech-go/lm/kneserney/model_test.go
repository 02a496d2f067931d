package kneserney

import (
	"math"
	"testing"

	"github.com/kiteco/speechlm/speech-go/lm/ngram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelLookups(t *testing.T) {
	m, v := scenarioA(t, Options{})

	_, ok := m.Find(keyOf(v, "b a"))
	assert.False(t, ok)
	_, ok = m.Find(keyOf(v, "a b a"))
	assert.False(t, ok)
	_, ok = m.Find(nil)
	assert.False(t, ok)

	assert.InDelta(t, math.Log10(0.25*0.1), m.LogProb(keyOf(v, "a"), v.Unknown()), epsilon)
	// explicit entry
	assert.InDelta(t, math.Log10(0.9), m.LogProb(keyOf(v, "a"), keyOf(v, "b").Last()), epsilon)
	// backs off through a's weight
	assert.InDelta(t, math.Log10(0.25*0.1), m.LogProb(keyOf(v, "a"), keyOf(v, "a").Last()), epsilon)
	// b has no extensions
	assert.InDelta(t, math.Log10(0.1), m.LogProb(keyOf(v, "b"), keyOf(v, "a").Last()), epsilon)
	// contexts longer than the model are truncated
	assert.InDelta(t, math.Log10(0.9), m.LogProb(keyOf(v, "b b a"), keyOf(v, "b").Last()), epsilon)
	// ids outside the vocabulary
	assert.Equal(t, LogZero, m.LogProb(nil, 99))
}

func TestHighestOrderSkipsTrailingEmpty(t *testing.T) {
	m := &Model{Orders: [][]Entry{{{Key: ngram.Key{0}}}, nil}}
	assert.Equal(t, 1, m.HighestOrder())
	assert.Equal(t, 0, (&Model{}).HighestOrder())
	assert.Equal(t, LogZero, (&Model{}).LogProb(nil, 0))
}

func TestLog10SumExp(t *testing.T) {
	assert.InDelta(t, math.Log10(0.6), log10SumExp([]float64{math.Log10(0.1), math.Log10(0.2), math.Log10(0.3)}), epsilon)
	assert.True(t, math.IsInf(log10SumExp(nil), -1))
	require.Equal(t, 6.0, sum([]float64{1, 2, 3}))
}
