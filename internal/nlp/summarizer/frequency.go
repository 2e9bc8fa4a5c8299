package summarizer

import (
	"math"

	"github.com/nlpstudio/textlab/internal/nlp/pipeline"
)

const (
	// DefaultRatio is the share of sentences kept by the frequency strategy.
	DefaultRatio = 0.2

	minFrequencySentences = 2
)

// Frequency keeps ceil(ratio × sentences) sentences, at least one, chosen
// by the sum of their words' normalised frequencies divided by the square
// root of the sentence length. Selected sentences are joined with newlines.
func Frequency(p *pipeline.Pipeline, text string, ratio float64) (string, error) {
	sentences := p.Sentences(text)
	if err := requireSentences(StrategyFrequency, sentences, minFrequencySentences); err != nil {
		return "", err
	}
	if ratio <= 0 || ratio > 1 {
		ratio = DefaultRatio
	}

	terms := make([][]string, len(sentences))
	freq := make(map[string]float64)
	for i, s := range sentences {
		terms[i] = sentenceTerms(p, s)
		for _, t := range terms[i] {
			freq[t]++
		}
	}
	var top float64
	for _, v := range freq {
		top = max(top, v)
	}
	if top > 0 {
		for k, v := range freq {
			freq[k] = v / top
		}
	}

	scores := make([]scored, len(sentences))
	for i, ts := range terms {
		var sum float64
		for _, t := range ts {
			sum += freq[t]
		}
		if len(ts) > 0 {
			sum /= math.Sqrt(float64(len(ts)))
		}
		scores[i] = scored{idx: i, score: sum}
	}

	keep := max(1, int(math.Ceil(ratio*float64(len(sentences))-1e-9)))
	return joinSentences(sentences, pickTop(scores, keep), "\n"), nil
}
