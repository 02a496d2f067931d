// Package vocab maps words to dense integer ids for the n-gram store.
package vocab

import (
	"github.com/kiteco/speechlm/speech-golib/errors"
)

// ID identifies a word. Ids are dense, start at zero and are never reused.
type ID int32

// ErrUnknownID is returned when resolving an id that was never allocated.
var ErrUnknownID = errors.Sentinel("unknown word id")

// Symbols holds the reserved sentence-start, sentence-end and unknown-word strings.
type Symbols struct {
	Start   string `yaml:"start"`
	End     string `yaml:"end"`
	Unknown string `yaml:"unknown"`
}

// DefaultSymbols are the conventional ARPA reserved symbols.
var DefaultSymbols = Symbols{
	Start:   "<s>",
	End:     "</s>",
	Unknown: "<unk>",
}

// Validate checks that all three symbols are set and distinct.
func (s Symbols) Validate() error {
	if s.Start == "" || s.End == "" || s.Unknown == "" {
		return errors.Errorf("reserved symbols must be non-empty: %+v", s)
	}
	if s.Start == s.End || s.Start == s.Unknown || s.End == s.Unknown {
		return errors.Errorf("reserved symbols must be distinct: %+v", s)
	}
	return nil
}

// Vocab is a bidirectional word <-> id mapping. It is written by a single
// goroutine during ingestion and is safe for concurrent reads afterwards.
type Vocab struct {
	symbols Symbols
	ids     map[string]ID
	words   []string
}

// New returns a Vocab with the reserved symbols registered as ids 0 (start),
// 1 (end) and 2 (unknown).
func New(symbols Symbols) (*Vocab, error) {
	if err := symbols.Validate(); err != nil {
		return nil, err
	}
	v := &Vocab{
		symbols: symbols,
		ids:     make(map[string]ID),
	}
	v.Intern(symbols.Start)
	v.Intern(symbols.End)
	v.Intern(symbols.Unknown)
	return v, nil
}

// Intern returns the id of word, allocating the next id if it is unseen.
func (v *Vocab) Intern(word string) ID {
	if id, ok := v.ids[word]; ok {
		return id
	}
	id := ID(len(v.words))
	v.ids[word] = id
	v.words = append(v.words, word)
	return id
}

// Lookup returns the id of word without allocating.
func (v *Vocab) Lookup(word string) (ID, bool) {
	id, ok := v.ids[word]
	return id, ok
}

// Word returns the word for id.
func (v *Vocab) Word(id ID) (string, error) {
	if id < 0 || int(id) >= len(v.words) {
		return "", errors.Wrapf(ErrUnknownID, "id %d (vocabulary size %d)", id, len(v.words))
	}
	return v.words[id], nil
}

// Size is the number of allocated ids, reserved symbols included.
func (v *Vocab) Size() int {
	return len(v.words)
}

// Symbols returns the reserved symbols.
func (v *Vocab) Symbols() Symbols {
	return v.symbols
}

// Start returns the sentence-start id.
func (v *Vocab) Start() ID { return 0 }

// End returns the sentence-end id.
func (v *Vocab) End() ID { return 1 }

// Unknown returns the unknown-word id.
func (v *Vocab) Unknown() ID { return 2 }
