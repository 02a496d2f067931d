// Package counts reads pre-aggregated n-gram count records into an ngram.Store.
//
// Each record is a line "w1 ... wk count". Records of order m must all precede
// records of order m+1; the ingestor treats a violation of that contract as
// fatal (ErrInconsistentInput) rather than inventing zero-count contexts.
package counts

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/kiteco/speechlm/speech-go/lm/ngram"
	"github.com/kiteco/speechlm/speech-go/lm/vocab"
	"github.com/kiteco/speechlm/speech-golib/errors"
	"github.com/kiteco/speechlm/speech-golib/lmlog"
	"go.uber.org/zap"
)

const maxLineBytes = 1 << 20

// ErrInconsistentInput is returned when records are not ordered by ascending
// n-gram order, or a record's context was never ingested.
var ErrInconsistentInput = errors.Sentinel("inconsistent input")

// Options configures an Ingestor.
type Options struct {
	Logger *zap.Logger
}

// Ingestor validates count records and feeds them into a Store.
type Ingestor struct {
	vocab  *vocab.Vocab
	store  *ngram.Store
	logger *zap.Logger

	report    Report
	lastOrder int
	ids       []vocab.ID
}

// NewIngestor returns an Ingestor writing into store and interning words in v.
func NewIngestor(v *vocab.Vocab, store *ngram.Store, opts Options) *Ingestor {
	return &Ingestor{
		vocab:  v,
		store:  store,
		logger: lmlog.OrNop(opts.Logger),
		report: newReport(store.MaxOrder()),
	}
}

// Ingest reads newline separated records from r until EOF. Malformed records
// are skipped; ordering violations and read errors abort ingestion.
func (in *Ingestor) Ingest(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if err := in.Add(scanner.Text()); err != nil {
			return err
		}
	}
	return errors.WrapfOrNil(scanner.Err(), "error reading counts after line %d", in.report.Lines)
}

// Add ingests a single record.
func (in *Ingestor) Add(line string) error {
	if in.store.Frozen() {
		return ngram.ErrFrozen
	}
	in.report.Lines++

	fields := strings.Fields(line)
	if len(fields) < 2 {
		in.discard(TooFewFields, line)
		return nil
	}

	count, err := strconv.ParseInt(fields[len(fields)-1], 10, 64)
	if err != nil {
		in.discard(BadCount, line)
		return nil
	}
	if count < 1 {
		in.discard(NonPositiveCount, line)
		return nil
	}

	words := fields[:len(fields)-1]
	order := len(words)
	if order == 0 {
		in.discard(TooFewFields, line)
		return nil
	}
	if order > in.store.MaxOrder() {
		in.discard(TooLong, line)
		return nil
	}

	if order < in.lastOrder {
		return errors.Wrapf(ErrInconsistentInput, "line %d: order %d record %q after order %d records",
			in.report.Lines, order, line, in.lastOrder)
	}

	in.ids = in.ids[:0]
	for _, w := range words[:order-1] {
		id, ok := in.vocab.Lookup(w)
		if !ok {
			return in.missingContext(line)
		}
		in.ids = append(in.ids, id)
	}
	if order > 1 && !in.store.Contains(ngram.Key(in.ids)) {
		return in.missingContext(line)
	}
	in.ids = append(in.ids, in.vocab.Intern(words[order-1]))

	overwritten, err := in.store.Put(ngram.Key(in.ids), uint64(count))
	if err != nil {
		return errors.Wrapf(err, "line %d", in.report.Lines)
	}

	in.lastOrder = order
	in.report.Accepted++
	in.report.PerOrder[order]++
	if overwritten {
		in.report.Overwritten++
		in.logger.Debug("duplicate n-gram overwritten", zap.Int("line", in.report.Lines), zap.String("record", line))
	}
	return nil
}

// Close signals that no more records follow: the store is frozen and its
// continuation statistics are derived.
func (in *Ingestor) Close() *ngram.Stats {
	stats := in.store.Freeze()
	in.logger.Info("ingestion complete",
		zap.Int("lines", in.report.Lines),
		zap.Int("accepted", in.report.Accepted),
		zap.Int("discarded", in.report.Discarded()),
		zap.Int("overwritten", in.report.Overwritten),
		zap.Int("vocabulary", in.vocab.Size()))
	return stats
}

// Report returns a snapshot of the ingestion counters.
func (in *Ingestor) Report() Report {
	return in.report.clone()
}

func (in *Ingestor) missingContext(line string) error {
	return errors.Wrapf(ErrInconsistentInput, "line %d: context of %q was never observed",
		in.report.Lines, line)
}

func (in *Ingestor) discard(reason Reason, line string) {
	in.report.Discards[reason]++
	in.logger.Debug("discarding malformed record",
		zap.Int("line", in.report.Lines),
		zap.Stringer("reason", reason),
		zap.String("record", line))
}
