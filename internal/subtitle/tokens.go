package subtitle

import (
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/subtutor/internal/model"
)

// KeepFunc reports whether a word becomes a token.
type KeepFunc func(word string) bool

// ExtractTokens returns the clickable words of text in order of appearance.
// A word is a run of ASCII letters, optionally joined by single hyphens or
// apostrophes ("don't", "well-known"). Every occurrence passing keep is a token.
func ExtractTokens(text string, keep KeepFunc) []model.Token {
	runes := []rune(text)
	var tokens []model.Token
	for i := 0; i < len(runes); {
		if !isASCIILetter(runes[i]) {
			i++
			continue
		}
		start := i
		for i < len(runes) && isASCIILetter(runes[i]) {
			i++
		}
		for i+1 < len(runes) && (runes[i] == '-' || runes[i] == '\'') && isASCIILetter(runes[i+1]) {
			i++
			for i < len(runes) && isASCIILetter(runes[i]) {
				i++
			}
		}
		word := string(runes[start:i])
		if keep != nil && !keep(word) {
			continue
		}
		tokens = append(tokens, model.Token{
			Text:  word,
			Start: start,
			End:   i,
			Width: runewidth.StringWidth(word),
		})
	}
	return tokens
}

// CountWords counts word runs in text regardless of any filter.
func CountWords(text string) int {
	return len(ExtractTokens(text, nil))
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
