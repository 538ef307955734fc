// Package wordlist provides stop-word lists for token extraction.
package wordlist

import "strings"

// Common short words that are never worth a lookup.
var defaultStopWords = []string{
	"the", "and", "but", "for", "are", "not", "you", "all", "can", "had", "her", "was",
	"one", "our", "out", "day", "get", "has", "him", "his", "how", "its", "may", "new",
	"now", "old", "see", "two", "way", "who", "boy", "did", "let", "put", "say", "she",
	"too", "use",
}

// Short words kept clickable despite being under MinPlainLength.
var defaultShortAllow = []string{
	"run", "cry", "lie", "shy", "guy", "ask",
}

const (
	// MinLength is the shortest word ever considered.
	MinLength = 3
	// MinPlainLength is the shortest word kept without being on the allow list.
	MinPlainLength = 4
)

// Filter decides which words become clickable tokens.
type Filter struct {
	stop  map[string]struct{}
	allow map[string]struct{}
}

// DefaultFilter returns the built-in English filter.
func DefaultFilter() *Filter {
	return NewFilter(defaultStopWords, defaultShortAllow)
}

// NewFilter builds a filter from stop and short-allow lists.
func NewFilter(stop, allow []string) *Filter {
	f := &Filter{
		stop:  make(map[string]struct{}, len(stop)),
		allow: make(map[string]struct{}, len(allow)),
	}
	for _, w := range stop {
		f.stop[strings.ToLower(w)] = struct{}{}
	}
	for _, w := range allow {
		f.allow[strings.ToLower(w)] = struct{}{}
	}
	return f
}

// WithStopWords returns a copy of f with extra stop words.
func (f *Filter) WithStopWords(words []string) *Filter {
	out := NewFilter(nil, nil)
	for w := range f.stop {
		out.stop[w] = struct{}{}
	}
	for w := range f.allow {
		out.allow[w] = struct{}{}
	}
	for _, w := range words {
		out.stop[strings.ToLower(w)] = struct{}{}
	}
	return out
}

// Keep reports whether word should become a token.
func (f *Filter) Keep(word string) bool {
	if len(word) < MinLength {
		return false
	}
	lower := strings.ToLower(word)
	if _, ok := f.stop[lower]; ok {
		return false
	}
	if len(word) < MinPlainLength {
		_, ok := f.allow[lower]
		return ok
	}
	return true
}
