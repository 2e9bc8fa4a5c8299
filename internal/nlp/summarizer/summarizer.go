// Package summarizer reduces text to a handful of its own sentences.
//
// Two strategies are available: a frequency strategy that scores sentences
// by the normalised frequency of their content words, and a LexRank strategy
// that ranks sentences by centrality in a TF-IDF similarity graph. Both are
// extractive: the output is made of input sentences, verbatim, in their
// original order.
package summarizer

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/nlpstudio/textlab/internal/nlp/pipeline"
	"github.com/nlpstudio/textlab/internal/nlp/textnorm"
	"github.com/nlpstudio/textlab/internal/nlp/tokenizer"
)

// ErrTooFewSentences is returned when the text has fewer sentences than the
// strategy needs.
var ErrTooFewSentences = errors.New("not enough sentences to summarize")

// ErrTooManySentences is returned when the text has more sentences than the
// strategy accepts.
var ErrTooManySentences = errors.New("too many sentences to summarize")

// Strategy selects a summarization algorithm.
type Strategy string

const (
	StrategyFrequency Strategy = "frequency"
	StrategyLexRank   Strategy = "lexrank"
)

// Strategies lists the recognised strategies in display order.
var Strategies = []Strategy{StrategyFrequency, StrategyLexRank}

// Label is the human-readable strategy name.
func (s Strategy) Label() string {
	switch s {
	case StrategyFrequency:
		return "Frequency"
	case StrategyLexRank:
		return "LexRank"
	}
	return string(s)
}

// ParseStrategy resolves a selector value. The names of the libraries the
// strategies replace are accepted as aliases.
func ParseStrategy(s string) (Strategy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "frequency", "gensim":
		return StrategyFrequency, true
	case "lexrank", "rank", "sumy":
		return StrategyLexRank, true
	}
	return "", false
}

// Result is a summary and the strategy that produced it. FellBack is set
// when the requested selector was not recognised and the default strategy
// was used instead.
type Result struct {
	Text      string   `json:"summary"`
	Strategy  Strategy `json:"strategy"`
	Requested string   `json:"requested_strategy,omitempty"`
	FellBack  bool     `json:"fell_back"`
}

// Summarize runs the strategy named by selector over text. Unrecognised
// selectors, including the empty string, fall back to the frequency
// strategy and are reported through Result.FellBack.
func Summarize(p *pipeline.Pipeline, text string, selector string) (Result, error) {
	if p == nil {
		return Result{}, pipeline.ErrPipelineUnavailable
	}
	strategy, ok := ParseStrategy(selector)
	res := Result{Strategy: strategy, Requested: selector}
	if !ok {
		res.Strategy = StrategyFrequency
		res.FellBack = true
	}

	var err error
	switch res.Strategy {
	case StrategyLexRank:
		res.Text, err = LexRank(p, text, LexRankSentences)
	default:
		res.Text, err = Frequency(p, text, DefaultRatio)
	}
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// sentenceTerms returns the folded, lemmatised content words of a sentence.
func sentenceTerms(p *pipeline.Pipeline, s tokenizer.Sentence) []string {
	terms := make([]string, 0, len(s.Tokens))
	for _, t := range s.Tokens {
		if !textnorm.IsWord(t.Text) || p.IsStopWord(t.Text) {
			continue
		}
		terms = append(terms, textnorm.Fold(p.Lemma(t.Text)))
	}
	return terms
}

func requireSentences(strategy Strategy, sentences []tokenizer.Sentence, need int) error {
	if len(sentences) < need {
		return fmt.Errorf("%w: %s needs at least %d, got %d", ErrTooFewSentences, strategy, need, len(sentences))
	}
	return nil
}

func limitSentences(strategy Strategy, sentences []tokenizer.Sentence, limit int) error {
	if len(sentences) > limit {
		return fmt.Errorf("%w: %s accepts at most %d, got %d", ErrTooManySentences, strategy, limit, len(sentences))
	}
	return nil
}

type scored struct {
	idx   int
	score float64
}

// pickTop selects the n best scores, ties broken by position, and returns
// their indices in source order.
func pickTop(scores []scored, n int) []int {
	ranked := slices.Clone(scores)
	slices.SortStableFunc(ranked, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		}
		return a.idx - b.idx
	})
	n = min(n, len(ranked))
	picked := make([]int, n)
	for i := range n {
		picked[i] = ranked[i].idx
	}
	slices.Sort(picked)
	return picked
}

func joinSentences(sentences []tokenizer.Sentence, picked []int, sep string) string {
	parts := make([]string, len(picked))
	for i, idx := range picked {
		parts[i] = strings.TrimSpace(sentences[idx].Text)
	}
	return strings.Join(parts, sep)
}
