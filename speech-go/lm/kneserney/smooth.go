// Package kneserney turns raw n-gram counts into an interpolated Kneser-Ney
// backoff model.
package kneserney

import (
	"math"
	"runtime"
	"time"

	"github.com/kiteco/speechlm/speech-go/lm/ngram"
	"github.com/kiteco/speechlm/speech-go/lm/vocab"
	"github.com/kiteco/speechlm/speech-golib/errors"
	"github.com/kiteco/speechlm/speech-golib/lmlog"
	"github.com/kiteco/speechlm/speech-golib/workerpool"
	"go.uber.org/zap"
)

// DefaultDiscount is used when a discount cannot be estimated from the counts.
const DefaultDiscount = 0.75

// contexts handed to a single worker job
const contextsPerJob = 512

// ErrDegenerateProbability is returned when a smoothed probability is not
// strictly positive.
var ErrDegenerateProbability = errors.Sentinel("degenerate probability")

// Options configures Smooth.
type Options struct {
	// MaxOrder defaults to the store's maximum order.
	MaxOrder int
	// Discounts[k-1] fixes the discount for order k. Missing or non-positive
	// values are estimated from the count-of-counts.
	Discounts []float64
	// UniformFloor replaces 1/|V| as the distribution unigrams back off to.
	UniformFloor float64
	// Workers defaults to the number of CPUs.
	Workers int
	Logger  *zap.Logger
}

type smoother struct {
	opts   Options
	store  *ngram.Store
	stats  *ngram.Stats
	vocab  *vocab.Vocab
	logger *zap.Logger

	model *Model
	// linear probabilities and backoff weights, parallel to model.Orders
	probs   [][]float64
	backoff [][]float64
}

// Smooth computes the model for a frozen store. Orders are processed strictly
// in increasing order; the contexts of one order are spread over a worker pool
// and every order waits for the previous one to finish.
func Smooth(store *ngram.Store, stats *ngram.Stats, v *vocab.Vocab, opts Options) (*Model, error) {
	if !store.Frozen() {
		return nil, errors.New("counts must be frozen before smoothing")
	}
	if opts.MaxOrder <= 0 {
		opts.MaxOrder = store.MaxOrder()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}

	highest := store.HighestOrder()
	if highest > opts.MaxOrder {
		highest = opts.MaxOrder
	}
	if highest < 1 {
		highest = 1
	}

	s := &smoother{
		opts:   opts,
		store:  store,
		stats:  stats,
		vocab:  v,
		logger: lmlog.OrNop(opts.Logger),
		model: &Model{
			MaxOrder:  opts.MaxOrder,
			Orders:    make([][]Entry, highest),
			Discounts: make([]float64, highest),
		},
		probs:   make([][]float64, highest),
		backoff: make([][]float64, highest),
	}

	pool := workerpool.New(opts.Workers)
	defer pool.Stop()

	start := time.Now()
	if err := s.unigrams(); err != nil {
		return nil, err
	}
	s.logOrder(1, 1, start)

	for k := 2; k <= highest; k++ {
		start = time.Now()
		contexts, err := s.order(pool, k)
		if err != nil {
			return nil, err
		}
		s.logOrder(k, contexts, start)
	}
	return s.model, nil
}

// discount returns the configured discount for order k or estimates it.
func (s *smoother) discount(k int, continuation bool) float64 {
	if k-1 < len(s.opts.Discounts) && s.opts.Discounts[k-1] > 0 {
		return s.opts.Discounts[k-1]
	}
	if continuation {
		return EstimateDiscount(s.stats.ContinuationCountOfCounts(1), s.stats.ContinuationCountOfCounts(2))
	}
	return EstimateDiscount(s.stats.CountOfCounts(k, 1), s.stats.CountOfCounts(k, 2))
}

// EstimateDiscount computes n1/(n1+2*n2) from the number of n-grams seen once
// and twice, falling back to DefaultDiscount when there are no singletons.
func EstimateDiscount(n1, n2 int) float64 {
	if n1 <= 0 || n2 < 0 {
		return DefaultDiscount
	}
	d := float64(n1) / float64(n1+2*n2)
	if d > 1 {
		d = 1
	}
	return d
}

// unigrams fills order 1 with an entry for every vocabulary word.
func (s *smoother) unigrams() error {
	size := s.vocab.Size()
	continuation := len(s.model.Orders) >= 2 && s.stats.DistinctBigrams() > 0

	counts := make([]float64, size)
	var denom float64
	if continuation {
		for w := range counts {
			counts[w] = float64(s.stats.LeftContexts(vocab.ID(w)))
		}
		denom = float64(s.stats.DistinctBigrams())
	} else {
		for w := range counts {
			n, _ := s.store.Count(ngram.Key{vocab.ID(w)})
			counts[w] = float64(n)
		}
		denom = sum(counts)
	}

	d := s.discount(1, continuation)
	s.model.Discounts[0] = d

	base := 1 / float64(size)
	if s.opts.UniformFloor > 0 {
		base = s.opts.UniformFloor
	}

	// without any counts the unigram distribution is the uniform one
	gamma := 1.0
	if denom > 0 {
		held := make([]float64, size)
		for w, n := range counts {
			held[w] = math.Min(n, d)
		}
		gamma = sum(held) / denom
	}

	entries := make([]Entry, size)
	probs := make([]float64, size)
	keys := make(ngram.Key, size)
	for w := range entries {
		keys[w] = vocab.ID(w)
		var p float64
		if denom > 0 {
			p = math.Max(counts[w]-d, 0) / denom
		}
		p += gamma * base

		e, err := s.entry(keys[w:w+1:w+1], p)
		if err != nil {
			return err
		}
		entries[w] = e
		probs[w] = p
	}
	s.model.Orders[0] = entries
	s.probs[0] = probs
	s.backoff[0] = make([]float64, size)
	return nil
}

// order smooths every n-gram of order k > 1 and attaches the backoff weights
// of their contexts to order k-1. It returns the number of contexts.
func (s *smoother) order(pool *workerpool.Pool, k int) (int, error) {
	keys := s.store.Sorted(k)
	d := s.discount(k, false)
	s.model.Discounts[k-1] = d

	// runs[i] is the index of the first key of the i-th context
	var runs []int
	for i, key := range keys {
		if i == 0 || !key.Context().Equal(keys[i-1].Context()) {
			runs = append(runs, i)
		}
	}
	runs = append(runs, len(keys))
	numContexts := len(runs) - 1

	entries := make([]Entry, len(keys))
	probs := make([]float64, len(keys))
	gammas := make([]float64, numContexts)

	var jobs []workerpool.Job
	for lo := 0; lo < numContexts; lo += contextsPerJob {
		lo, hi := lo, lo+contextsPerJob
		if hi > numContexts {
			hi = numContexts
		}
		jobs = append(jobs, func() error {
			for c := lo; c < hi; c++ {
				gamma, err := s.context(keys[runs[c]:runs[c+1]], d, entries[runs[c]:runs[c+1]], probs[runs[c]:runs[c+1]])
				if err != nil {
					return err
				}
				gammas[c] = gamma
			}
			return nil
		})
	}
	pool.AddBlocking(jobs)
	if err := pool.Wait(); err != nil {
		return 0, err
	}

	lower := s.model.Orders[k-2]
	for c := 0; c < numContexts; c++ {
		ctx := keys[runs[c]].Context()
		i := search(lower, ctx.Context(), ctx.Last())
		if i < 0 {
			return 0, errors.Errorf("context %s of order %d has no entry", ctx, k-1)
		}
		lower[i].HasBackoff = true
		lower[i].LogBackoff = log10OrZero(gammas[c])
		s.backoff[k-2][i] = gammas[c]
	}

	s.model.Orders[k-1] = entries
	s.probs[k-1] = probs
	s.backoff[k-1] = make([]float64, len(keys))
	return numContexts, nil
}

// context smooths the n-grams sharing one context and returns the context's
// backoff weight.
func (s *smoother) context(keys []ngram.Key, d float64, entries []Entry, probs []float64) (float64, error) {
	ctx := keys[0].Context()
	_, total, ok := s.stats.Context(ctx)
	if !ok || total == 0 {
		return 0, errors.Errorf("no counts for context %s", ctx)
	}
	denom := float64(total)

	counts := make([]float64, len(keys))
	var held float64
	for i, key := range keys {
		n, _ := s.store.Count(key)
		counts[i] = float64(n)
		held += math.Min(counts[i], d)
	}
	gamma := held / denom

	for i, key := range keys {
		p := math.Max(counts[i]-d, 0)/denom + gamma*s.lowerProb(ctx.Suffix(), key.Last())
		e, err := s.entry(key.Clone(), p)
		if err != nil {
			return 0, err
		}
		entries[i] = e
		probs[i] = p
	}
	return gamma, nil
}

// lowerProb is P(w | ctx) from the orders already smoothed, backing off
// through contexts that were never followed by w.
func (s *smoother) lowerProb(ctx ngram.Key, w vocab.ID) float64 {
	weight := 1.0
	for {
		order := len(ctx)
		if i := search(s.model.Orders[order], ctx, w); i >= 0 {
			return weight * s.probs[order][i]
		}
		if order == 0 {
			return 0
		}
		if i := search(s.model.Orders[order-1], ctx.Context(), ctx.Last()); i >= 0 && s.model.Orders[order-1][i].HasBackoff {
			weight *= s.backoff[order-1][i]
		}
		ctx = ctx.Suffix()
	}
}

func (s *smoother) entry(key ngram.Key, p float64) (Entry, error) {
	if p <= 0 || math.IsNaN(p) {
		words, err := key.Context().Words(s.vocab)
		if err != nil {
			return Entry{}, err
		}
		word, err := s.vocab.Word(key.Last())
		if err != nil {
			return Entry{}, err
		}
		return Entry{}, errors.Wrapf(ErrDegenerateProbability, "P(%s | %s) = %v", word, words, p)
	}
	return Entry{Key: key, LogProb: math.Log10(p)}, nil
}

func (s *smoother) logOrder(k, contexts int, start time.Time) {
	s.logger.Info("smoothed order",
		zap.Int("order", k),
		zap.Int("contexts", contexts),
		zap.Int("entries", len(s.model.Orders[k-1])),
		zap.Float64("discount", s.model.Discounts[k-1]),
		zap.Duration("took", time.Since(start)))
}
