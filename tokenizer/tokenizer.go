// Package tokenizer splits raw text into the lowercase word tokens consumed by
// the vocabulary.
package tokenizer

import (
	_ "embed"
	"regexp"
	"strings"
)

//go:embed stopwords.txt
var defaultStopwords string

// Tokenizer turns raw text into a finite, restartable token sequence.
type Tokenizer interface {
	Tokenize(text string) []string
}

// Func adapts an ordinary function to the Tokenizer interface.
type Func func(text string) []string

// Tokenize calls f(text).
func (f Func) Tokenize(text string) []string { return f(text) }

var (
	splitPattern = regexp.MustCompile(`\W+`)
	alphaPattern = regexp.MustCompile(`^[a-z]+$`)
)

// Options configures the word tokenizer.
type Options struct {
	// MinLength is the exclusive lower bound on token length. Default 2.
	MinLength int
	// Stopwords replaces the built-in English stopword list when non-nil.
	Stopwords []string
}

// Word splits on non-word runs, lower-cases, and keeps purely alphabetic tokens
// longer than MinLength that are not stopwords.
type Word struct {
	minLength int
	stopwords map[string]struct{}
}

// New creates a word tokenizer.
func New(optFns ...func(o *Options)) *Word {
	opts := Options{MinLength: 2}
	for _, fn := range optFns {
		fn(&opts)
	}

	words := opts.Stopwords
	if words == nil {
		words = strings.Fields(defaultStopwords)
	}
	stop := make(map[string]struct{}, len(words))
	for _, w := range words {
		stop[strings.ToLower(w)] = struct{}{}
	}
	return &Word{minLength: opts.MinLength, stopwords: stop}
}

// Default returns a word tokenizer with the built-in stopword list.
func Default() *Word {
	return New()
}

// Tokenize implements Tokenizer.
func (t *Word) Tokenize(text string) []string {
	parts := splitPattern.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if len(p) <= t.minLength {
			continue
		}
		p = strings.ToLower(p)
		if !alphaPattern.MatchString(p) {
			continue
		}
		if _, stop := t.stopwords[p]; stop {
			continue
		}
		out = append(out, p)
	}
	return out
}

// IsStopword reports whether token is filtered as a stopword.
func (t *Word) IsStopword(token string) bool {
	_, ok := t.stopwords[strings.ToLower(token)]
	return ok
}
