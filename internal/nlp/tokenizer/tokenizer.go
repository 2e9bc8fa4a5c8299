// Package tokenizer segments raw text into tokens and sentences.
// Whitespace-separated chunks are split further by peeling leading and
// trailing punctuation and English clitics off each chunk, except for
// chunks listed as exceptions (abbreviations such as "U.K." or "Mr.").
// Every token keeps its byte offsets into the original text so callers can
// slice spans verbatim.
package tokenizer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	prefixChars = `"'([{<$£€¥#¿¡“‘«` + "`"
	suffixChars = `"'.,;:!?)]}>%”’»…`
)

var (
	clitics = []string{"n't", "n’t", "'s", "’s", "'re", "’re", "'ve", "’ve", "'ll", "’ll", "'d", "’d", "'m", "’m"}

	reAcronym = regexp.MustCompile(`^(?:\pL\.){2,}$`)

	// titles lead into a name or a number and never end a sentence.
	titles = map[string]struct{}{
		"mr.": {}, "mrs.": {}, "ms.": {}, "dr.": {}, "prof.": {}, "st.": {}, "mt.": {},
		"gen.": {}, "gov.": {}, "sen.": {}, "rep.": {}, "capt.": {}, "lt.": {}, "col.": {}, "sgt.": {},
		"vs.": {}, "no.": {}, "fig.": {}, "approx.": {}, "est.": {}, "dept.": {},
		"jan.": {}, "feb.": {}, "mar.": {}, "apr.": {}, "jun.": {}, "jul.": {}, "aug.": {},
		"sep.": {}, "sept.": {}, "oct.": {}, "nov.": {}, "dec.": {},
	}
)

// Token is a single segmented unit of text. Start and End are byte offsets
// into the text the token was produced from.
type Token struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Sentence is a run of tokens closed by terminal punctuation, a paragraph
// break or the end of the text.
type Sentence struct {
	Text   string  `json:"text"`
	Start  int     `json:"start"`
	End    int     `json:"end"`
	Tokens []Token `json:"tokens"`
}

// Tokenizer splits text using a fixed exception table. It is immutable after
// construction and safe for concurrent use.
type Tokenizer struct {
	exceptions map[string]struct{}
}

// New creates a Tokenizer that keeps every chunk in exceptions whole.
// Exceptions are matched case-insensitively.
func New(exceptions []string) *Tokenizer {
	t := &Tokenizer{exceptions: make(map[string]struct{}, len(exceptions))}
	for _, e := range exceptions {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		t.exceptions[strings.ToLower(e)] = struct{}{}
	}
	return t
}

// Tokenize returns the tokens of text in source order. Empty or
// whitespace-only text yields an empty, non-nil slice.
func (t *Tokenizer) Tokenize(text string) []Token {
	tokens := make([]Token, 0, len(text)/5+1)
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) {
			i += size
			continue
		}
		start := i
		for i < len(text) {
			r, size = utf8.DecodeRuneInString(text[i:])
			if unicode.IsSpace(r) {
				break
			}
			i += size
		}
		tokens = t.splitChunk(tokens, text, start, i)
	}
	return tokens
}

// Sentences groups the tokens of text into sentences.
func (t *Tokenizer) Sentences(text string) []Sentence {
	tokens := t.Tokenize(text)
	sentences := make([]Sentence, 0)
	first := 0
	closeAt := func(last int) {
		if last < first {
			return
		}
		start, end := tokens[first].Start, tokens[last].End
		sentences = append(sentences, Sentence{
			Text:   text[start:end],
			Start:  start,
			End:    end,
			Tokens: tokens[first : last+1],
		})
		first = last + 1
	}

	for i := 0; i < len(tokens); i++ {
		if i > first && paragraphBreak(text[tokens[i-1].End:tokens[i].Start]) {
			closeAt(i - 1)
		}
		if t.abbreviationEnds(tokens, i) {
			closeAt(i)
			continue
		}
		if !isTerminal(tokens[i].Text) {
			continue
		}
		last := i
		for last+1 < len(tokens) && tokens[last+1].Start == tokens[last].End && isCloser(tokens[last+1].Text) {
			last++
		}
		for last+1 < len(tokens) && tokens[last+1].Start == tokens[last].End && isTerminal(tokens[last+1].Text) {
			last++
		}
		closeAt(last)
		i = last
	}
	closeAt(len(tokens) - 1)
	return sentences
}

func (t *Tokenizer) splitChunk(tokens []Token, text string, start, end int) []Token {
	var suffixes []Token
	for start < end {
		chunk := text[start:end]
		if t.isException(chunk) {
			tokens = append(tokens, Token{Text: chunk, Start: start, End: end})
			break
		}
		if r, size := utf8.DecodeRuneInString(chunk); size < len(chunk) && strings.ContainsRune(prefixChars, r) {
			tokens = append(tokens, Token{Text: chunk[:size], Start: start, End: start + size})
			start += size
			continue
		}
		if strings.HasSuffix(chunk, "...") && len(chunk) > 3 {
			suffixes = append(suffixes, Token{Text: "...", Start: end - 3, End: end})
			end -= 3
			continue
		}
		if r, size := utf8.DecodeLastRuneInString(chunk); size < len(chunk) && strings.ContainsRune(suffixChars, r) {
			suffixes = append(suffixes, Token{Text: chunk[len(chunk)-size:], Start: end - size, End: end})
			end -= size
			continue
		}
		if n := cliticLen(chunk); n > 0 {
			suffixes = append(suffixes, Token{Text: chunk[len(chunk)-n:], Start: end - n, End: end})
			end -= n
			continue
		}
		tokens = append(tokens, Token{Text: chunk, Start: start, End: end})
		break
	}
	for i := len(suffixes) - 1; i >= 0; i-- {
		tokens = append(tokens, suffixes[i])
	}
	return tokens
}

// abbreviationEnds reports whether the abbreviation at tokens[i] also closes
// its sentence: it ends in a period, is not a title and the next token
// starts with a capital letter.
func (t *Tokenizer) abbreviationEnds(tokens []Token, i int) bool {
	tok := tokens[i].Text
	if i+1 >= len(tokens) || len(tok) < 2 || !strings.HasSuffix(tok, ".") || isTerminal(tok) {
		return false
	}
	if _, ok := titles[strings.ToLower(tok)]; ok || !t.isException(tok) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(tokens[i+1].Text)
	return unicode.IsUpper(r)
}

func (t *Tokenizer) isException(chunk string) bool {
	if _, ok := t.exceptions[strings.ToLower(chunk)]; ok {
		return true
	}
	return reAcronym.MatchString(chunk)
}

// cliticLen returns the byte length of a trailing clitic, or 0 when the chunk
// has none or consists of the clitic alone.
func cliticLen(chunk string) int {
	lower := strings.ToLower(chunk)
	for _, c := range clitics {
		if strings.HasSuffix(lower, c) && len(lower) > len(c) {
			return len(c)
		}
	}
	return 0
}

func isTerminal(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != '.' && r != '!' && r != '?' && r != '…' {
			return false
		}
	}
	return true
}

func isCloser(s string) bool {
	switch s {
	case `"`, "'", ")", "]", "}", "”", "’", "»":
		return true
	}
	return false
}

func paragraphBreak(gap string) bool {
	return strings.Count(gap, "\n") >= 2
}
