package ngram

// table is an open hash of fixed-order keys. Keys are packed into one flat id
// slice and chained by fingerprint, so a record costs order+1 words plus its
// share of the index instead of a heap object.
type table struct {
	order int
	ids   Key
	next  []int32
	index map[uint64]int32
}

func newTable(order int) *table {
	return &table{
		order: order,
		index: make(map[uint64]int32),
	}
}

func (t *table) len() int {
	return len(t.next)
}

// key returns the key in slot i; the result aliases the table and must not be modified.
func (t *table) key(i int32) Key {
	lo := int(i) * t.order
	hi := lo + t.order
	return t.ids[lo:hi:hi]
}

// find returns the slot of k, or -1.
func (t *table) find(k Key, fp uint64) int32 {
	i, ok := t.index[fp]
	if !ok {
		return -1
	}
	for ; i >= 0; i = t.next[i] {
		if t.key(i).Equal(k) {
			return i
		}
	}
	return -1
}

// insert returns the slot of k, adding it if necessary.
func (t *table) insert(k Key) (slot int32, added bool) {
	fp := k.Hash()
	if i := t.find(k, fp); i >= 0 {
		return i, false
	}

	slot = int32(t.len())
	head, ok := t.index[fp]
	if !ok {
		head = -1
	}
	t.ids = append(t.ids, k...)
	t.next = append(t.next, head)
	t.index[fp] = slot
	return slot, true
}

func (t *table) lookup(k Key) int32 {
	return t.find(k, k.Hash())
}
