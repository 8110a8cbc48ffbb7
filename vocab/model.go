// Package vocab maintains the token vocabulary and turns token sequences into
// TF-IDF weighted sparse vectors.
//
// Dimension ids are assigned densely in first-seen order starting at 0 and never
// change afterwards, so vectors and indexes built from a model stay valid after
// the model is saved and reloaded.
//
//	m := vocab.New()
//	for _, doc := range corpus {
//	    m.AddDocument(tok.Tokenize(doc))
//	}
//	v := m.ToVector(tok.Tokenize(query))
package vocab

import (
	"errors"
	"fmt"
	"iter"
	"math"

	"github.com/hupe1980/vsearch/sparse"
)

var (
	// ErrOutOfRange is returned by TokenAt for an unknown dimension id.
	ErrOutOfRange = errors.New("vocab: dimension out of range")
	// ErrCorrupt is returned when a persisted model cannot be decoded.
	ErrCorrupt = errors.New("vocab: corrupt model")
)

// Entry is the vocabulary record of a single token.
type Entry struct {
	Dimension         int32
	DocumentFrequency float64
}

// Model is a TF-IDF vocabulary.
//
// AddDocument mutates the model and must not run concurrently with any other
// method. ToVector, TokenAt, and the other accessors only read and may be called
// concurrently once ingestion is done.
type Model struct {
	entries       map[string]Entry
	tokens        []string // dimension id -> token
	documentCount float64
}

// New creates an empty model.
func New() *Model {
	return &Model{entries: make(map[string]Entry)}
}

// AddDocument registers one document. Each distinct token increments its document
// frequency once; unseen tokens get the next dimension id in first-occurrence order.
func (m *Model) AddDocument(tokens []string) {
	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}

		e, ok := m.entries[tok]
		if !ok {
			e = Entry{Dimension: int32(len(m.tokens))}
			m.tokens = append(m.tokens, tok)
		}
		e.DocumentFrequency++
		m.entries[tok] = e
	}
	m.documentCount++
}

// ToVector converts tokens into a TF-IDF vector without modifying the model.
//
// Term frequency is the token's count divided by len(tokens), unknown tokens
// included. Unknown tokens contribute no dimension.
func (m *Model) ToVector(tokens []string) *sparse.Vector {
	v := sparse.New()
	if len(tokens) == 0 {
		return v
	}

	counts := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		counts[tok]++
	}

	total := float64(len(tokens))
	for tok, n := range counts {
		e, ok := m.entries[tok]
		if !ok {
			continue
		}
		tf := float64(n) / total
		idf := math.Log(m.documentCount / e.DocumentFrequency)
		v.Set(e.Dimension, tf*idf)
	}
	return v
}

// DimensionCount returns the vocabulary size.
func (m *Model) DimensionCount() int {
	return len(m.tokens)
}

// DocumentCount returns the number of documents added.
func (m *Model) DocumentCount() float64 {
	return m.documentCount
}

// TokenAt returns the token assigned to dim.
func (m *Model) TokenAt(dim int32) (string, error) {
	if dim < 0 || int(dim) >= len(m.tokens) {
		return "", fmt.Errorf("%w: %d (size %d)", ErrOutOfRange, dim, len(m.tokens))
	}
	return m.tokens[dim], nil
}

// Lookup returns the entry for token.
func (m *Model) Lookup(token string) (Entry, bool) {
	e, ok := m.entries[token]
	return e, ok
}

// Tokens iterates (dimension id, token) in ascending dimension order.
func (m *Model) Tokens() iter.Seq2[int32, string] {
	return func(yield func(int32, string) bool) {
		for i, tok := range m.tokens {
			if !yield(int32(i), tok) {
				return
			}
		}
	}
}
