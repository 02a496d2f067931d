package kneserney

import (
	"math"
	"sort"

	"github.com/kiteco/speechlm/speech-go/lm/ngram"
	"github.com/kiteco/speechlm/speech-go/lm/vocab"
)

// LogZero stands in for log10(0) in backoff weights, as in SRILM output.
const LogZero = -99.0

// Entry is a smoothed n-gram.
type Entry struct {
	Key     ngram.Key
	LogProb float64
	// LogBackoff is only meaningful when HasBackoff is set; it is attached to
	// the entry whose key is the context being backed off from.
	LogBackoff float64
	HasBackoff bool
}

// Model is the smoothed model. Orders[k-1] holds the entries of order k sorted
// by ascending id sequence. A Model is not modified after Smooth returns it.
type Model struct {
	MaxOrder int
	Orders   [][]Entry
	// Discounts[k-1] is the discount used for order k.
	Discounts []float64
}

// HighestOrder is the highest order with at least one entry.
func (m *Model) HighestOrder() int {
	for k := len(m.Orders); k > 0; k-- {
		if len(m.Orders[k-1]) > 0 {
			return k
		}
	}
	return 0
}

// Counts returns the number of entries per order, starting with unigrams.
func (m *Model) Counts() []int {
	counts := make([]int, len(m.Orders))
	for i, entries := range m.Orders {
		counts[i] = len(entries)
	}
	return counts
}

// Find returns the entry for k.
func (m *Model) Find(k ngram.Key) (Entry, bool) {
	if len(k) == 0 || len(k) > len(m.Orders) {
		return Entry{}, false
	}
	i := search(m.Orders[len(k)-1], k.Context(), k.Last())
	if i < 0 {
		return Entry{}, false
	}
	return m.Orders[len(k)-1][i], true
}

// LogProb returns log10 P(w | ctx) under standard ARPA backoff: the explicit
// entry if there is one, otherwise the context's backoff weight plus the
// estimate with the oldest context word dropped. Words without a unigram entry
// get LogZero.
func (m *Model) LogProb(ctx ngram.Key, w vocab.ID) float64 {
	if len(m.Orders) == 0 {
		return LogZero
	}
	if len(ctx) >= len(m.Orders) {
		ctx = ctx[len(ctx)-len(m.Orders)+1:]
	}
	var backoff float64
	for {
		entries := m.Orders[len(ctx)]
		if i := search(entries, ctx, w); i >= 0 {
			return backoff + entries[i].LogProb
		}
		if len(ctx) == 0 {
			return LogZero
		}
		if e, ok := m.Find(ctx); ok && e.HasBackoff {
			backoff += e.LogBackoff
		}
		ctx = ctx.Suffix()
	}
}

// search finds the entry whose key is ctx followed by w in entries sorted by
// key, without building the key.
func search(entries []Entry, ctx ngram.Key, w vocab.ID) int {
	i := sort.Search(len(entries), func(i int) bool {
		return compareSplit(entries[i].Key, ctx, w) >= 0
	})
	if i < len(entries) && compareSplit(entries[i].Key, ctx, w) == 0 {
		return i
	}
	return -1
}

// compareSplit compares k with the key ctx+w; both have the same order.
func compareSplit(k ngram.Key, ctx ngram.Key, w vocab.ID) int {
	for i, id := range ctx {
		if k[i] != id {
			return cmpID(k[i], id)
		}
	}
	return cmpID(k[len(ctx)], w)
}

func cmpID(a, b vocab.ID) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func log10OrZero(x float64) float64 {
	if x <= 0 {
		return LogZero
	}
	return math.Log10(x)
}

// Prob returns the probability stored for k, without backing off.
func (m *Model) Prob(k ngram.Key) (float64, bool) {
	e, ok := m.Find(k)
	if !ok {
		return 0, false
	}
	return math.Pow(10, e.LogProb), true
}
