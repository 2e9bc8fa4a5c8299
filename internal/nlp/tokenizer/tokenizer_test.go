package tokenizer

import (
	"reflect"
	"strings"
	"testing"
)

func texts(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Text
	}
	return out
}

func TestTokenize(t *testing.T) {
	tok := New([]string{"Mr.", "Dr.", "e.g."})
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", []string{}},
		{"whitespace only", " \n\t ", []string{}},
		{"simple", "The quick brown fox", []string{"The", "quick", "brown", "fox"}},
		{"trailing period", "It works.", []string{"It", "works", "."}},
		{"acronym kept whole", "Apple is looking at buying U.K. startup for $1 billion",
			[]string{"Apple", "is", "looking", "at", "buying", "U.K.", "startup", "for", "$", "1", "billion"}},
		{"exception kept whole", "Mr. Smith arrived.", []string{"Mr.", "Smith", "arrived", "."}},
		{"exception case-insensitive", "DR. Who", []string{"DR.", "Who"}},
		{"clitics", "I don't think it's fine", []string{"I", "do", "n't", "think", "it", "'s", "fine"}},
		{"quotes and brackets", `He said "hello" (twice).`, []string{"He", "said", `"`, "hello", `"`, "(", "twice", ")", "."}},
		{"ellipsis", "Wait... what?!", []string{"Wait", "...", "what", "?", "!"}},
		{"percent", "Up 5% today", []string{"Up", "5", "%", "today"}},
		{"lone punctuation", "-- ! ?", []string{"--", "!", "?"}},
		{"curly quotes", "“Fine,” she said", []string{"“", "Fine", ",", "”", "she", "said"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := texts(tok.Tokenize(tt.in))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTokenizeOffsets(t *testing.T) {
	text := "  Héllo, wörld!  "
	for _, tk := range New(nil).Tokenize(text) {
		if text[tk.Start:tk.End] != tk.Text {
			t.Errorf("token %q has offsets [%d:%d] = %q", tk.Text, tk.Start, tk.End, text[tk.Start:tk.End])
		}
	}
}

func TestSentences(t *testing.T) {
	tok := New([]string{"Mr.", "Inc."})
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", []string{}},
		{"no terminal", "just words here", []string{"just words here"}},
		{"two sentences", "First one. Second one!", []string{"First one.", "Second one!"}},
		{"abbreviation does not split", "Mr. Smith went home. He slept.", []string{"Mr. Smith went home.", "He slept."}},
		{"acronym ends sentence", "She moved to the U.K. It rains there.", []string{"She moved to the U.K.", "It rains there."}},
		{"time ends sentence", "We met at 5 p.m. The talk was long.", []string{"We met at 5 p.m.", "The talk was long."}},
		{"acronym mid sentence", "The U.K. government agreed.", []string{"The U.K. government agreed."}},
		{"company ends sentence", "He works at Acme Inc. She does not.", []string{"He works at Acme Inc.", "She does not."}},
		{"closing quote stays", `She said "stop." Then left.`, []string{`She said "stop."`, "Then left."}},
		{"repeated terminals", "Really?! Yes.", []string{"Really?!", "Yes."}},
		{"paragraph break", "A heading\n\nBody text here.", []string{"A heading", "Body text here."}},
		{"single newline does not split", "one line\nstill same.", []string{"one line\nstill same."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sents := tok.Sentences(tt.in)
			got := make([]string, len(sents))
			for i, s := range sents {
				got[i] = s.Text
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Sentences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

var sampleTexts = map[string]string{
	"short": "The quick brown fox jumps over the lazy dog.",
	"medium": `Apple is looking at buying a U.K. startup for $1 billion. The deal,
        first reported on Monday, would be the company's largest acquisition in
        Europe. Analysts said the price wasn't surprising. Shares rose 2% in early
        trading, while rivals declined to comment.`,
	"long": strings.Repeat(`Natural language processing turns raw text into structure.
        Tokenizers split text into words and punctuation. Lemmatizers reduce each
        word to its dictionary form. Entity recognizers find people, places and
        organisations. Summarizers pick the sentences that carry the most weight. `, 20),
}

func BenchmarkTokenize(b *testing.B) {
	tok := New([]string{"Mr.", "Dr."})
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for b.Loop() {
				_ = tok.Tokenize(text)
			}
		})
	}
}

func BenchmarkSentencesParallel(b *testing.B) {
	tok := New(nil)
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = tok.Sentences(text)
		}
	})
}
