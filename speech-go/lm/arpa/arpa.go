// Package arpa writes smoothed models in the ARPA backoff text format.
package arpa

import (
	"bufio"
	"io"
	"strconv"

	"github.com/kiteco/speechlm/speech-go/lm/kneserney"
	"github.com/kiteco/speechlm/speech-go/lm/vocab"
	"github.com/kiteco/speechlm/speech-golib/errors"
)

// ErrIncompleteModel is returned for models with an empty order below a
// non-empty one.
var ErrIncompleteModel = errors.Sentinel("incomplete model")

// Validate checks that every order up to the highest non-empty one has entries.
func Validate(m *kneserney.Model) error {
	highest := m.HighestOrder()
	for k := 1; k <= highest; k++ {
		if len(m.Orders[k-1]) == 0 {
			return errors.Wrapf(ErrIncompleteModel, "order %d is empty but order %d is not", k, highest)
		}
	}
	return nil
}

// Write serializes m. Orders are written in increasing order and entries in
// the order the model holds them. Nothing is written if the model is invalid.
func Write(w io.Writer, m *kneserney.Model, v *vocab.Vocab) error {
	if err := Validate(m); err != nil {
		return err
	}
	highest := m.HighestOrder()

	bw := bufio.NewWriter(w)
	aw := &writer{w: bw}

	aw.line(`\data\`)
	for k := 1; k <= highest; k++ {
		aw.line("ngram " + strconv.Itoa(k) + "=" + strconv.Itoa(len(m.Orders[k-1])))
	}
	aw.line("")

	for k := 1; k <= highest; k++ {
		aw.line(`\` + strconv.Itoa(k) + "-grams:")
		for _, e := range m.Orders[k-1] {
			if err := aw.entry(e, v); err != nil {
				return err
			}
		}
		aw.line("")
	}
	aw.line(`\end\`)

	if aw.err != nil {
		return errors.Wrapf(aw.err, "error writing ARPA model")
	}
	return errors.WrapfOrNil(bw.Flush(), "error flushing ARPA model")
}

// writer remembers the first write error so the layout code can stay linear.
type writer struct {
	w   *bufio.Writer
	buf []byte
	err error
}

func (a *writer) line(s string) {
	if a.err != nil {
		return
	}
	if _, err := a.w.WriteString(s); err != nil {
		a.err = err
		return
	}
	a.err = a.w.WriteByte('\n')
}

func (a *writer) entry(e kneserney.Entry, v *vocab.Vocab) error {
	if a.err != nil {
		return nil
	}
	words, err := e.Key.Words(v)
	if err != nil {
		return errors.Wrapf(err, "cannot write n-gram %s", e.Key)
	}

	b := a.buf[:0]
	b = appendLog(b, e.LogProb)
	b = append(b, '\t')
	b = append(b, words...)
	if e.HasBackoff {
		b = append(b, '\t')
		b = appendLog(b, e.LogBackoff)
	}
	b = append(b, '\n')
	a.buf = b

	_, a.err = a.w.Write(b)
	return nil
}

func appendLog(b []byte, x float64) []byte {
	return strconv.AppendFloat(b, x, 'f', 6, 64)
}
