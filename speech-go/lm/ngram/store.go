package ngram

import (
	"sort"

	"github.com/kiteco/speechlm/speech-golib/errors"
)

var (
	// ErrFrozen is returned by Put once ingestion has been signalled complete.
	ErrFrozen = errors.Sentinel("n-gram store is frozen")
	// ErrInvalidRecord is returned by Put for keys or counts the store cannot hold.
	ErrInvalidRecord = errors.Sentinel("invalid n-gram record")
)

// Store maps n-grams to raw counts, partitioned by order. It has a single
// writer during ingestion; after Freeze it is read-only and safe for
// concurrent readers.
type Store struct {
	maxOrder int
	tables   []*table
	counts   [][]uint64
	stats    *Stats
}

// NewStore returns an empty store for orders 1..maxOrder.
func NewStore(maxOrder int) *Store {
	s := &Store{
		maxOrder: maxOrder,
		tables:   make([]*table, maxOrder+1),
		counts:   make([][]uint64, maxOrder+1),
	}
	for order := 1; order <= maxOrder; order++ {
		s.tables[order] = newTable(order)
	}
	return s
}

// MaxOrder is the highest order the store accepts.
func (s *Store) MaxOrder() int {
	return s.maxOrder
}

// HighestOrder is the highest order holding at least one record, or 0.
func (s *Store) HighestOrder() int {
	for order := s.maxOrder; order > 0; order-- {
		if s.Len(order) > 0 {
			return order
		}
	}
	return 0
}

// Put stores count for k, replacing any previous count for the same key.
func (s *Store) Put(k Key, count uint64) (overwritten bool, err error) {
	switch {
	case s.stats != nil:
		return false, ErrFrozen
	case len(k) == 0:
		return false, errors.Wrapf(ErrInvalidRecord, "empty n-gram")
	case len(k) > s.maxOrder:
		return false, errors.Wrapf(ErrInvalidRecord, "order %d exceeds maximum %d", len(k), s.maxOrder)
	case count == 0:
		return false, errors.Wrapf(ErrInvalidRecord, "zero count for %s", k)
	}

	order := len(k)
	slot, added := s.tables[order].insert(k)
	if added {
		s.counts[order] = append(s.counts[order], count)
		return false, nil
	}
	s.counts[order][slot] = count
	return true, nil
}

// Count returns the raw count of k.
func (s *Store) Count(k Key) (uint64, bool) {
	if len(k) == 0 || len(k) > s.maxOrder {
		return 0, false
	}
	slot := s.tables[len(k)].lookup(k)
	if slot < 0 {
		return 0, false
	}
	return s.counts[len(k)][slot], true
}

// Contains reports whether k has been stored.
func (s *Store) Contains(k Key) bool {
	_, ok := s.Count(k)
	return ok
}

// Len is the number of distinct n-grams of the given order.
func (s *Store) Len(order int) int {
	if order < 1 || order > s.maxOrder {
		return 0
	}
	return s.tables[order].len()
}

// Each calls fn for every n-gram of the given order in insertion order until
// fn returns false. Keys alias store memory and must not be modified.
func (s *Store) Each(order int, fn func(k Key, count uint64) bool) {
	if order < 1 || order > s.maxOrder {
		return
	}
	t := s.tables[order]
	for i := 0; i < t.len(); i++ {
		if !fn(t.key(int32(i)), s.counts[order][i]) {
			return
		}
	}
}

// Sorted returns the n-grams of the given order by ascending id sequence, so
// n-grams sharing a context are adjacent. Keys alias store memory.
func (s *Store) Sorted(order int) []Key {
	keys := make([]Key, 0, s.Len(order))
	s.Each(order, func(k Key, _ uint64) bool {
		keys = append(keys, k)
		return true
	})
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Less(keys[j])
	})
	return keys
}

// Freeze ends ingestion and derives the continuation statistics. Further
// calls return the same Stats.
func (s *Store) Freeze() *Stats {
	if s.stats == nil {
		s.stats = newStats(s)
	}
	return s.stats
}

// Frozen reports whether Freeze has been called.
func (s *Store) Frozen() bool {
	return s.stats != nil
}
