package arpa

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kiteco/speechlm/speech-go/lm/kneserney"
	"github.com/kiteco/speechlm/speech-go/lm/ngram"
	"github.com/kiteco/speechlm/speech-go/lm/vocab"
	"github.com/kiteco/speechlm/speech-golib/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioA(t *testing.T) (*kneserney.Model, *vocab.Vocab) {
	v, err := vocab.New(vocab.DefaultSymbols)
	require.NoError(t, err)
	a, b := v.Intern("a"), v.Intern("b")

	s := ngram.NewStore(2)
	for k, n := range map[string]uint64{"a": 5, "b": 3, "a b": 2} {
		var key ngram.Key
		for _, w := range strings.Fields(k) {
			key = append(key, map[string]vocab.ID{"a": a, "b": b}[w])
		}
		_, err := s.Put(key, n)
		require.NoError(t, err)
	}
	// Put order does not matter outside the ingestor
	m, err := kneserney.Smooth(s, s.Freeze(), v, kneserney.Options{Discounts: []float64{0.5, 0.5}})
	require.NoError(t, err)
	return m, v
}

func TestWriteScenarioA(t *testing.T) {
	m, v := scenarioA(t)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, m, v))

	expected := strings.Join([]string{
		`\data\`,
		"ngram 1=5",
		"ngram 2=1",
		"",
		`\1-grams:`,
		"-1.000000\t<s>",
		"-1.000000\t</s>",
		"-1.000000\t<unk>",
		"-1.000000\ta\t-0.602060",
		"-0.221849\tb",
		"",
		`\2-grams:`,
		"-0.045757\ta b",
		"",
		`\end\`,
		"",
	}, "\n")
	assert.Equal(t, expected, buf.String())
}

func TestWriteIsDeterministic(t *testing.T) {
	m, v := scenarioA(t)

	var first, second bytes.Buffer
	require.NoError(t, Write(&first, m, v))
	require.NoError(t, Write(&second, m, v))
	assert.Equal(t, first.Bytes(), second.Bytes())
}

func TestWriteLogZeroBackoff(t *testing.T) {
	v, err := vocab.New(vocab.DefaultSymbols)
	require.NoError(t, err)
	m := &kneserney.Model{Orders: [][]kneserney.Entry{
		{{Key: ngram.Key{v.Start()}, LogProb: -0.5, LogBackoff: kneserney.LogZero, HasBackoff: true}},
		{{Key: ngram.Key{v.Start(), v.End()}, LogProb: -0.25}},
	}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, m, v))
	assert.Contains(t, buf.String(), "-0.500000\t<s>\t-99.000000\n")
	assert.Contains(t, buf.String(), "-0.250000\t<s> </s>\n")
}

func TestWriteOmitsTrailingEmptyOrders(t *testing.T) {
	v, err := vocab.New(vocab.DefaultSymbols)
	require.NoError(t, err)
	m := &kneserney.Model{MaxOrder: 3, Orders: [][]kneserney.Entry{
		{{Key: ngram.Key{v.Unknown()}, LogProb: 0}},
		nil,
		nil,
	}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, m, v))
	assert.Equal(t, "\\data\\\nngram 1=1\n\n\\1-grams:\n0.000000\t<unk>\n\n\\end\\\n", buf.String())
}

func TestIncompleteModel(t *testing.T) {
	v, err := vocab.New(vocab.DefaultSymbols)
	require.NoError(t, err)
	m := &kneserney.Model{Orders: [][]kneserney.Entry{
		{{Key: ngram.Key{v.Start()}}},
		nil,
		{{Key: ngram.Key{v.Start(), v.Start(), v.End()}}},
	}}

	require.True(t, errors.Is(Validate(m), ErrIncompleteModel))

	var buf bytes.Buffer
	err = Write(&buf, m, v)
	assert.True(t, errors.Is(err, ErrIncompleteModel))
	assert.Zero(t, buf.Len())
}

func TestUnknownID(t *testing.T) {
	v, err := vocab.New(vocab.DefaultSymbols)
	require.NoError(t, err)
	m := &kneserney.Model{Orders: [][]kneserney.Entry{{{Key: ngram.Key{42}}}}}

	err = Write(&bytes.Buffer{}, m, v)
	assert.True(t, errors.Is(err, vocab.ErrUnknownID))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriteError(t *testing.T) {
	m, v := scenarioA(t)
	err := Write(failingWriter{}, m, v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
