package ngram

import (
	"github.com/kiteco/speechlm/speech-go/lm/vocab"
)

// countOfCountsMax is the largest count tracked by CountOfCounts.
const countOfCountsMax = 4

// Stats holds the continuation statistics derived once ingestion is complete.
//
// For every context c of length k-1 that precedes at least one n-gram of order
// k it records N1+(c•), the number of distinct following words, and the sum of
// their raw counts. For every word w it records N1+(•w), the number of distinct
// bigrams ending in w.
type Stats struct {
	contexts  []*table
	followers [][]int32
	totals    [][]uint64

	leftContexts    []int32
	distinctBigrams int

	countOfCounts             [][countOfCountsMax + 1]int
	continuationCountOfCounts [countOfCountsMax + 1]int
}

func newStats(s *Store) *Stats {
	st := &Stats{
		contexts:      make([]*table, s.maxOrder+1),
		followers:     make([][]int32, s.maxOrder+1),
		totals:        make([][]uint64, s.maxOrder+1),
		countOfCounts: make([][countOfCountsMax + 1]int, s.maxOrder+1),
	}

	for order := 1; order <= s.maxOrder; order++ {
		ctxs := newTable(order - 1)
		s.Each(order, func(k Key, count uint64) bool {
			slot, added := ctxs.insert(k.Context())
			if added {
				st.followers[order] = append(st.followers[order], 0)
				st.totals[order] = append(st.totals[order], 0)
			}
			st.followers[order][slot]++
			st.totals[order][slot] += count

			if count <= countOfCountsMax {
				st.countOfCounts[order][count]++
			}
			if order == 2 {
				st.addLeftContext(k.Last())
			}
			return true
		})
		st.contexts[order] = ctxs
	}

	for _, n := range st.leftContexts {
		if n > 0 && n <= countOfCountsMax {
			st.continuationCountOfCounts[n]++
		}
	}
	return st
}

func (st *Stats) addLeftContext(w vocab.ID) {
	for int(w) >= len(st.leftContexts) {
		st.leftContexts = append(st.leftContexts, 0)
	}
	st.leftContexts[w]++
	st.distinctBigrams++
}

// Context returns N1+(c•) and the summed raw count of the n-grams extending
// ctx by one word. ok is false when nothing extends ctx.
func (st *Stats) Context(ctx Key) (followers int, total uint64, ok bool) {
	order := len(ctx) + 1
	if order >= len(st.contexts) {
		return 0, 0, false
	}
	slot := st.contexts[order].lookup(ctx)
	if slot < 0 {
		return 0, 0, false
	}
	return int(st.followers[order][slot]), st.totals[order][slot], true
}

// HasExtensions reports whether some stored n-gram has ctx as its context.
func (st *Stats) HasExtensions(ctx Key) bool {
	_, _, ok := st.Context(ctx)
	return ok
}

// NumContexts is the number of distinct contexts preceding n-grams of order.
func (st *Stats) NumContexts(order int) int {
	if order < 1 || order >= len(st.contexts) {
		return 0
	}
	return st.contexts[order].len()
}

// LeftContexts returns N1+(•w), the number of distinct words seen before w.
func (st *Stats) LeftContexts(w vocab.ID) int {
	if w < 0 || int(w) >= len(st.leftContexts) {
		return 0
	}
	return int(st.leftContexts[w])
}

// DistinctBigrams is the number of distinct (context, word) pairs of order 2,
// which is also the sum of LeftContexts over all words.
func (st *Stats) DistinctBigrams() int {
	return st.distinctBigrams
}

// CountOfCounts returns how many n-grams of order have a raw count of exactly
// c, for 1 <= c <= 4.
func (st *Stats) CountOfCounts(order, c int) int {
	if order < 1 || order >= len(st.countOfCounts) || c < 1 || c > countOfCountsMax {
		return 0
	}
	return st.countOfCounts[order][c]
}

// ContinuationCountOfCounts returns how many words have N1+(•w) of exactly c,
// for 1 <= c <= 4.
func (st *Stats) ContinuationCountOfCounts(c int) int {
	if c < 1 || c > countOfCountsMax {
		return 0
	}
	return st.continuationCountOfCounts[c]
}
