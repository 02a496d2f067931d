package counts

// Reason classifies a discarded record.
type Reason int

const (
	// TooFewFields means the record lacked a token or a count.
	TooFewFields Reason = iota
	// BadCount means the last field is not an integer.
	BadCount
	// NonPositiveCount means the count is below one.
	NonPositiveCount
	// TooLong means the n-gram is longer than the configured maximum order.
	TooLong

	numReasons
)

func (r Reason) String() string {
	switch r {
	case TooFewFields:
		return "too-few-fields"
	case BadCount:
		return "bad-count"
	case NonPositiveCount:
		return "non-positive-count"
	case TooLong:
		return "too-long"
	default:
		return "unknown"
	}
}

// Report counts what happened to the ingested records.
type Report struct {
	Lines       int
	Accepted    int
	Overwritten int
	// PerOrder[k] is the number of accepted records of order k.
	PerOrder []int
	Discards [numReasons]int
}

func newReport(maxOrder int) Report {
	return Report{PerOrder: make([]int, maxOrder+1)}
}

// Discarded is the number of malformed records that were skipped.
func (r Report) Discarded() int {
	var n int
	for _, d := range r.Discards {
		n += d
	}
	return n
}

func (r Report) clone() Report {
	r.PerOrder = append([]int(nil), r.PerOrder...)
	return r
}
