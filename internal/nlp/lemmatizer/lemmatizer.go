// Package lemmatizer maps English tokens to their dictionary base form.
// Irregular forms come from an exception table; regular inflections are
// undone with suffix rules; proper nouns, numbers and punctuation are their
// own lemma.
package lemmatizer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nlpstudio/textlab/internal/nlp/textnorm"
)

// Lemmatizer is immutable after construction and safe for concurrent use.
type Lemmatizer struct {
	exceptions map[string]string
}

// New creates a Lemmatizer from a form → lemma table. Keys are folded with
// textnorm.Fold so lookups ignore case and diacritics.
func New(exceptions map[string]string) *Lemmatizer {
	l := &Lemmatizer{exceptions: make(map[string]string, len(exceptions))}
	for form, lemma := range exceptions {
		if form == "" || lemma == "" {
			continue
		}
		l.exceptions[textnorm.Fold(form)] = lemma
	}
	return l
}

// Lemma returns the base form of word. The result is never empty for a
// non-empty word.
func (l *Lemmatizer) Lemma(word string) string {
	if !textnorm.HasLetter(word) {
		return word
	}
	if lemma, ok := l.exceptions[textnorm.Fold(word)]; ok {
		return lemma
	}
	if first, _ := utf8.DecodeRuneInString(word); unicode.IsUpper(first) {
		return word
	}
	lower := strings.ToLower(word)
	if lemma := applyRules(lower); lemma != "" {
		return lemma
	}
	return lower
}

type suffixRule struct {
	suffix      string
	replacement string
	minStem     int
}

var pluralRules = []suffixRule{
	{"sses", "ss", 1},
	{"ies", "y", 2},
	{"xes", "x", 1},
	{"ches", "ch", 1},
	{"shes", "sh", 1},
	{"zzes", "zz", 1},
	{"oes", "o", 2},
}

func applyRules(word string) string {
	for _, rule := range pluralRules {
		if stem, ok := strip(word, rule); ok {
			return stem + rule.replacement
		}
	}
	if stem, ok := strip(word, suffixRule{"ied", "y", 2}); ok {
		return stem + "y"
	}
	if strings.HasSuffix(word, "eed") {
		return word
	}
	if stem, ok := strip(word, suffixRule{"ed", "", 2}); ok && hasVowel(stem) {
		return restoreStem(stem)
	}
	if stem, ok := strip(word, suffixRule{"ing", "", 2}); ok && hasVowel(stem) {
		return restoreStem(stem)
	}
	if strings.HasSuffix(word, "s") && len(word) > 3 && !strings.HasSuffix(word, "ss") &&
		!strings.HasSuffix(word, "us") && !strings.HasSuffix(word, "is") {
		return word[:len(word)-1]
	}
	return word
}

func strip(word string, rule suffixRule) (string, bool) {
	if !strings.HasSuffix(word, rule.suffix) {
		return "", false
	}
	stem := word[:len(word)-len(rule.suffix)]
	if len(stem) < rule.minStem {
		return "", false
	}
	return stem, true
}

// restoreStem repairs a stem left by removing -ed/-ing: "creat" → "create",
// "stopp" → "stop", "lov" → "love".
func restoreStem(stem string) string {
	switch {
	case strings.HasSuffix(stem, "at"), strings.HasSuffix(stem, "bl"), strings.HasSuffix(stem, "iz"):
		return stem + "e"
	case doubledConsonant(stem):
		return stem[:len(stem)-1]
	case strings.HasSuffix(stem, "v"), strings.HasSuffix(stem, "uir"):
		return stem + "e"
	case len(stem) <= 3 && endsCVC(stem):
		return stem + "e"
	}
	return stem
}

func doubledConsonant(s string) bool {
	n := len(s)
	if n < 2 || s[n-1] != s[n-2] || isVowel(s, n-1) {
		return false
	}
	switch s[n-1] {
	case 'l', 's', 'z':
		return false
	}
	return true
}

func endsCVC(s string) bool {
	n := len(s)
	if n < 3 {
		return false
	}
	if isVowel(s, n-3) || !isVowel(s, n-2) || isVowel(s, n-1) {
		return false
	}
	switch s[n-1] {
	case 'w', 'x', 'y':
		return false
	}
	return true
}

func hasVowel(s string) bool {
	for i := range len(s) {
		if isVowel(s, i) {
			return true
		}
	}
	return false
}

func isVowel(s string, i int) bool {
	switch s[i] {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	case 'y':
		return i > 0 && !isVowel(s, i-1)
	}
	return false
}
