// Package compiler runs the count ingestion, smoothing and serialization
// stages that turn a count file into an ARPA model.
package compiler

import (
	"bytes"
	"io"
	"time"

	"github.com/kiteco/speechlm/speech-go/lm/arpa"
	"github.com/kiteco/speechlm/speech-go/lm/config"
	"github.com/kiteco/speechlm/speech-go/lm/counts"
	"github.com/kiteco/speechlm/speech-go/lm/kneserney"
	"github.com/kiteco/speechlm/speech-go/lm/ngram"
	"github.com/kiteco/speechlm/speech-go/lm/vocab"
	"github.com/kiteco/speechlm/speech-golib/errors"
	"github.com/kiteco/speechlm/speech-golib/fileutil"
	"github.com/kiteco/speechlm/speech-golib/lmlog"
	"go.uber.org/zap"
)

// Compile reads count records from in and writes the ARPA model to out. The
// model is rendered in memory first, so nothing reaches out unless every stage
// succeeded.
func Compile(cfg config.Config, in io.Reader, out io.Writer, logger *zap.Logger) (*Summary, error) {
	logger = lmlog.OrNop(logger)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	v, err := vocab.New(cfg.Symbols)
	if err != nil {
		return nil, err
	}
	store := ngram.NewStore(cfg.MaxOrder)

	var durations lmlog.Durations

	start := time.Now()
	ingestor := counts.NewIngestor(v, store, counts.Options{Logger: logger})
	if err := ingestor.Ingest(in); err != nil {
		return nil, errors.Wrapf(err, "error ingesting counts")
	}
	stats := ingestor.Close()
	durations.Since("ingest", start)

	start = time.Now()
	model, err := kneserney.Smooth(store, stats, v, kneserney.Options{
		MaxOrder:     cfg.MaxOrder,
		Discounts:    cfg.Discounts,
		UniformFloor: cfg.UniformFloor,
		Workers:      cfg.Workers,
		Logger:       logger,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "error smoothing counts")
	}
	durations.Since("smooth", start)

	start = time.Now()
	var buf bytes.Buffer
	if err := arpa.Write(&buf, model, v); err != nil {
		return nil, err
	}
	durations.Since("serialize", start)

	start = time.Now()
	n, err := buf.WriteTo(out)
	if err != nil {
		return nil, errors.Wrapf(err, "error writing model")
	}
	durations.Since("write", start)

	summary := newSummary(ingestor.Report(), model, v.Size(), n)
	summary.Durations = append(lmlog.Durations(nil), durations...)
	summary.log(logger)
	durations.Flush(logger)
	return summary, nil
}

// CompileFiles compiles the counts at inPath into outPath. Either path may be
// local or an s3:// URI and may carry a compression extension. The output only
// appears once the model is complete.
func CompileFiles(cfg config.Config, inPath, outPath string, logger *zap.Logger) (summary *Summary, err error) {
	r, err := fileutil.NewReader(inPath)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening counts %s", inPath)
	}
	defer errors.Defer(&err, r.Close)

	w, err := fileutil.NewBufferedWriter(outPath)
	if err != nil {
		return nil, errors.Wrapf(err, "error creating %s", outPath)
	}

	summary, err = Compile(cfg, r, w, logger)
	if err != nil {
		return nil, errors.Combine(err, fileutil.Discard(w))
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrapf(err, "error closing %s", w.Name())
	}
	return summary, nil
}
