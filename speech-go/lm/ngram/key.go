// Package ngram holds raw n-gram counts keyed by word id sequences.
package ngram

import (
	"encoding/binary"
	"fmt"
	"strings"

	spooky "github.com/dgryski/go-spooky"
	"github.com/kiteco/speechlm/speech-go/lm/vocab"
)

// keys up to this order are hashed without allocating
const stackKeyOrder = 8

// Key is an n-gram: a sequence of word ids, oldest word first.
type Key []vocab.ID

// Order is the number of words in the n-gram.
func (k Key) Order() int {
	return len(k)
}

// Context drops the last word. The result aliases k.
func (k Key) Context() Key {
	return k[:len(k)-1 : len(k)-1]
}

// Suffix drops the first word. The result aliases k.
func (k Key) Suffix() Key {
	return k[1:len(k):len(k)]
}

// Last is the predicted word.
func (k Key) Last() vocab.ID {
	return k[len(k)-1]
}

// Clone returns a copy of k that does not alias store memory.
func (k Key) Clone() Key {
	return append(Key(nil), k...)
}

// Equal compares two keys element-wise.
func (k Key) Equal(other Key) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if k[i] != other[i] {
			return false
		}
	}
	return true
}

// Less orders keys by ascending id sequence; a proper prefix sorts first.
func (k Key) Less(other Key) bool {
	for i := 0; i < len(k) && i < len(other); i++ {
		if k[i] != other[i] {
			return k[i] < other[i]
		}
	}
	return len(k) < len(other)
}

// Hash fingerprints the id sequence. Equal keys hash identically however
// they were built.
func (k Key) Hash() uint64 {
	var buf [4 * stackKeyOrder]byte
	var b []byte
	if len(k) <= stackKeyOrder {
		b = buf[:4*len(k)]
	} else {
		b = make([]byte, 4*len(k))
	}
	for i, id := range k {
		binary.LittleEndian.PutUint32(b[4*i:], uint32(id))
	}
	return spooky.Hash64(b)
}

// String renders the ids, e.g. "[3 4]".
func (k Key) String() string {
	parts := make([]string, len(k))
	for i, id := range k {
		parts[i] = fmt.Sprint(id)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Words renders the key using the vocabulary, e.g. "a b".
func (k Key) Words(v *vocab.Vocab) (string, error) {
	words := make([]string, len(k))
	for i, id := range k {
		w, err := v.Word(id)
		if err != nil {
			return "", err
		}
		words[i] = w
	}
	return strings.Join(words, " "), nil
}
