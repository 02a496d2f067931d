package kneserney

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/kiteco/speechlm/speech-go/lm/ngram"
	"github.com/kiteco/speechlm/speech-go/lm/vocab"
	"github.com/kiteco/speechlm/speech-golib/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const epsilon = 1e-6

type record struct {
	words string
	count uint64
}

func build(t *testing.T, maxOrder int, records []record) (*ngram.Store, *ngram.Stats, *vocab.Vocab) {
	v, err := vocab.New(vocab.DefaultSymbols)
	require.NoError(t, err)
	s := ngram.NewStore(maxOrder)
	for _, r := range records {
		_, err := s.Put(keyOf(v, r.words), r.count)
		require.NoError(t, err)
	}
	return s, s.Freeze(), v
}

func keyOf(v *vocab.Vocab, words string) ngram.Key {
	var k ngram.Key
	for _, w := range strings.Fields(words) {
		k = append(k, v.Intern(w))
	}
	return k
}

func prob(t *testing.T, m *Model, v *vocab.Vocab, words string) float64 {
	p, ok := m.Prob(keyOf(v, words))
	require.True(t, ok, "no entry for %q", words)
	return p
}

func scenarioA(t *testing.T, opts Options) (*Model, *vocab.Vocab) {
	s, st, v := build(t, 2, []record{{"a", 5}, {"b", 3}, {"a b", 2}})
	opts.MaxOrder = 2
	opts.Discounts = []float64{0.5, 0.5}
	m, err := Smooth(s, st, v, opts)
	require.NoError(t, err)
	return m, v
}

func TestScenarioA(t *testing.T) {
	m, v := scenarioA(t, Options{Workers: 2})

	// continuation counts: only b is ever preceded by a word
	assert.InDelta(t, 0.6, prob(t, m, v, "b"), epsilon)
	assert.InDelta(t, 0.1, prob(t, m, v, "a"), epsilon)
	assert.InDelta(t, 0.1, prob(t, m, v, "<unk>"), epsilon)

	// 1.5/2 discounted plus 0.25 of P(b)
	assert.InDelta(t, 0.75+0.25*0.6, prob(t, m, v, "a b"), epsilon)

	a, ok := m.Find(keyOf(v, "a"))
	require.True(t, ok)
	assert.True(t, a.HasBackoff)
	assert.InDelta(t, math.Log10(0.25), a.LogBackoff, epsilon)

	b, ok := m.Find(keyOf(v, "b"))
	require.True(t, ok)
	assert.False(t, b.HasBackoff)

	ab, ok := m.Find(keyOf(v, "a b"))
	require.True(t, ok)
	assert.False(t, ab.HasBackoff)

	assert.Equal(t, []int{5, 1}, m.Counts())
	assert.Equal(t, []float64{0.5, 0.5}, m.Discounts)
	assert.Equal(t, 2, m.HighestOrder())
}

func TestUniformFloor(t *testing.T) {
	m, v := scenarioA(t, Options{UniformFloor: 0.01})
	assert.InDelta(t, 0.5*0.01, prob(t, m, v, "a"), epsilon)
	assert.InDelta(t, 0.5+0.5*0.01, prob(t, m, v, "b"), epsilon)
}

func TestRawUnigrams(t *testing.T) {
	s, st, v := build(t, 1, []record{{"a", 3}, {"b", 1}})
	m, err := Smooth(s, st, v, Options{Discounts: []float64{0.5}})
	require.NoError(t, err)

	assert.InDelta(t, 2.5/4+0.25*0.2, prob(t, m, v, "a"), epsilon)
	assert.InDelta(t, 0.5/4+0.25*0.2, prob(t, m, v, "b"), epsilon)
	assert.InDelta(t, 0.25*0.2, prob(t, m, v, "</s>"), epsilon)
	assert.InDelta(t, 1, m.Mass(nil, v.Size()), epsilon)
	for _, e := range m.Orders[0] {
		assert.False(t, e.HasBackoff)
	}
}

func TestEmptyCountsAreUniform(t *testing.T) {
	s, st, v := build(t, 3, nil)
	m, err := Smooth(s, st, v, Options{})
	require.NoError(t, err)

	require.Len(t, m.Orders, 1)
	require.Len(t, m.Orders[0], v.Size())
	for _, e := range m.Orders[0] {
		assert.InDelta(t, math.Log10(1/float64(v.Size())), e.LogProb, epsilon)
	}
}

var trigramRecords = []record{
	{"<s>", 4}, {"a", 6}, {"b", 5}, {"c", 2}, {"</s>", 4},
	{"<s> a", 3}, {"<s> b", 1}, {"a b", 4}, {"a c", 1}, {"b a", 2}, {"b </s>", 3}, {"c </s>", 1}, {"a </s>", 1},
	{"<s> a b", 3}, {"a b a", 2}, {"a b </s>", 2}, {"b a c", 1}, {"<s> b a", 1},
}

func TestDistributionsSumToOne(t *testing.T) {
	s, st, v := build(t, 3, trigramRecords)
	m, err := Smooth(s, st, v, Options{Workers: 3})
	require.NoError(t, err)

	contexts := []string{"", "a", "b", "c", "<s>", "</s>", "<s> a", "a b", "b a", "<s> b", "c a", "c c", "</s> <s>"}
	for _, ctx := range contexts {
		assert.InDelta(t, 1, m.Mass(keyOf(v, ctx), v.Size()), epsilon, "context %q", ctx)
	}
}

func TestEstimatedDiscounts(t *testing.T) {
	s, st, v := build(t, 3, trigramRecords)
	m, err := Smooth(s, st, v, Options{Discounts: []float64{0, 0.4}})
	require.NoError(t, err)

	require.Len(t, m.Discounts, 3)
	n1, n2 := st.ContinuationCountOfCounts(1), st.ContinuationCountOfCounts(2)
	assert.InDelta(t, EstimateDiscount(n1, n2), m.Discounts[0], epsilon)
	assert.Equal(t, 0.4, m.Discounts[1])
	assert.InDelta(t, EstimateDiscount(st.CountOfCounts(3, 1), st.CountOfCounts(3, 2)), m.Discounts[2], epsilon)
	for _, d := range m.Discounts {
		assert.True(t, d > 0 && d <= 1, "discount %v", d)
	}
}

func TestEstimateDiscount(t *testing.T) {
	assert.InDelta(t, 0.6, EstimateDiscount(3, 1), epsilon)
	assert.Equal(t, 1.0, EstimateDiscount(2, 0))
	assert.Equal(t, DefaultDiscount, EstimateDiscount(0, 5))
	assert.Equal(t, DefaultDiscount, EstimateDiscount(0, 0))
}

func TestBackoffLayout(t *testing.T) {
	s, st, v := build(t, 3, trigramRecords)
	m, err := Smooth(s, st, v, Options{})
	require.NoError(t, err)

	for k, entries := range m.Orders {
		for _, e := range entries {
			if k == len(m.Orders)-1 {
				assert.False(t, e.HasBackoff, "highest order entry %s", e.Key)
				continue
			}
			assert.Equal(t, st.HasExtensions(e.Key), e.HasBackoff, "entry %s", e.Key)
		}
	}
}

func TestEntriesSorted(t *testing.T) {
	s, st, v := build(t, 3, trigramRecords)
	m, err := Smooth(s, st, v, Options{})
	require.NoError(t, err)

	for _, entries := range m.Orders {
		for i := 1; i < len(entries); i++ {
			assert.True(t, entries[i-1].Key.Less(entries[i].Key))
		}
	}
}

func TestWorkersDoNotChangeResult(t *testing.T) {
	var records []record
	for i := 0; i < 30; i++ {
		records = append(records, record{fmt.Sprintf("w%d", i), uint64(i%4 + 1)})
	}
	for i := 0; i < 30; i++ {
		for j := 0; j < 30; j++ {
			if (i+j)%3 == 0 {
				records = append(records, record{fmt.Sprintf("w%d w%d", i, j), uint64((i*j)%5 + 1)})
			}
		}
	}

	var models []*Model
	for _, workers := range []int{1, 4, 16} {
		s, st, v := build(t, 2, records)
		m, err := Smooth(s, st, v, Options{Workers: workers})
		require.NoError(t, err)
		models = append(models, m)
	}
	assert.Equal(t, models[0], models[1])
	assert.Equal(t, models[0], models[2])
}

func TestDegenerateProbability(t *testing.T) {
	v, err := vocab.New(vocab.DefaultSymbols)
	require.NoError(t, err)
	s := &smoother{vocab: v}
	k := keyOf(v, "a b")

	_, err = s.entry(k, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDegenerateProbability))
	assert.Contains(t, err.Error(), "P(b | a)")

	_, err = s.entry(k, math.NaN())
	assert.True(t, errors.Is(err, ErrDegenerateProbability))

	e, err := s.entry(k, 0.01)
	require.NoError(t, err)
	assert.InDelta(t, -2, e.LogProb, epsilon)
}

func TestSmoothRequiresFrozenStore(t *testing.T) {
	v, err := vocab.New(vocab.DefaultSymbols)
	require.NoError(t, err)
	_, err = Smooth(ngram.NewStore(2), nil, v, Options{})
	assert.Error(t, err)
}
