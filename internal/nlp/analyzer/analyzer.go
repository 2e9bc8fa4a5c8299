// Package analyzer produces per-token surface form and lemma pairs.
package analyzer

import (
	"github.com/nlpstudio/textlab/internal/nlp/pipeline"
)

// TokenRecord pairs a token with its lemma.
type TokenRecord struct {
	Text  string `json:"token"`
	Lemma string `json:"lemma"`
}

// Analyze tokenizes text and lemmatizes every token, preserving source order.
// Empty text yields an empty slice.
func Analyze(p *pipeline.Pipeline, text string) ([]TokenRecord, error) {
	if p == nil {
		return nil, pipeline.ErrPipelineUnavailable
	}
	tokens := p.Tokens(text)
	records := make([]TokenRecord, len(tokens))
	for i, t := range tokens {
		records[i] = TokenRecord{Text: t.Text, Lemma: p.Lemma(t.Text)}
	}
	return records, nil
}
