// Package textnorm builds the lookup keys used by the lexicon tables:
// lower-cased, diacritics removed, typographic apostrophes straightened.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold returns the canonical lookup key for s. Transformers carry state, so
// a fresh chain is built per call to keep Fold safe for concurrent use.
func Fold(s string) string {
	if s == "" {
		return s
	}
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Map(straightenQuote),
		norm.NFC,
	)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return cases.Lower(language.Und).String(folded)
}

// HasLetter reports whether s contains at least one letter.
func HasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}

// IsWord reports whether s is made of letters, digits and apostrophes only,
// and contains at least one letter.
func IsWord(s string) bool {
	if !HasLetter(s) {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '’' {
			return false
		}
	}
	return true
}

func straightenQuote(r rune) rune {
	switch r {
	case '’', '‘', 'ʼ':
		return '\''
	}
	return r
}
