package compiler

import (
	"github.com/dustin/go-humanize"
	"github.com/kiteco/speechlm/speech-go/lm/counts"
	"github.com/kiteco/speechlm/speech-go/lm/kneserney"
	"github.com/kiteco/speechlm/speech-golib/lmlog"
	"github.com/montanaflynn/stats"
	"go.uber.org/zap"
)

// Summary describes a finished compilation.
type Summary struct {
	Report         counts.Report
	VocabularySize int
	// Entries[k-1], Discounts[k-1], MeanLogProb[k-1] and MedianLogProb[k-1]
	// describe order k of the model.
	Entries       []int
	Discounts     []float64
	MeanLogProb   []float64
	MedianLogProb []float64
	Bytes         int64
	Durations     lmlog.Durations
}

func newSummary(report counts.Report, m *kneserney.Model, vocabSize int, bytes int64) *Summary {
	s := &Summary{
		Report:         report,
		VocabularySize: vocabSize,
		Entries:        m.Counts(),
		Discounts:      append([]float64(nil), m.Discounts...),
		Bytes:          bytes,
	}
	for _, entries := range m.Orders {
		logProbs := make([]float64, len(entries))
		for i, e := range entries {
			logProbs[i] = e.LogProb
		}
		// both only fail on empty input, which reports as zero
		mean, _ := stats.Mean(logProbs)
		median, _ := stats.Median(logProbs)
		s.MeanLogProb = append(s.MeanLogProb, mean)
		s.MedianLogProb = append(s.MedianLogProb, median)
	}
	return s
}

func (s *Summary) log(l *zap.Logger) {
	for k := range s.Entries {
		l.Info("order summary",
			zap.Int("order", k+1),
			zap.String("entries", humanize.Comma(int64(s.Entries[k]))),
			zap.Float64("discount", s.Discounts[k]),
			zap.Float64("mean_logprob", s.MeanLogProb[k]),
			zap.Float64("median_logprob", s.MedianLogProb[k]))
	}
	l.Info("compiled model",
		zap.String("records", humanize.Comma(int64(s.Report.Accepted))),
		zap.String("discarded", humanize.Comma(int64(s.Report.Discarded()))),
		zap.String("vocabulary", humanize.Comma(int64(s.VocabularySize))),
		zap.String("size", humanize.Bytes(uint64(s.Bytes))))
}
