// Package sentiment scores text polarity and subjectivity from a word
// lexicon. Intensifiers scale the next sentiment word, negators flip and
// dampen it, and exclamation marks strengthen the overall polarity.
package sentiment

import (
	"fmt"
	"strconv"

	"github.com/nlpstudio/textlab/internal/nlp/pipeline"
	"github.com/nlpstudio/textlab/internal/nlp/textnorm"
)

const (
	negationFactor   = -0.5
	exclamationBoost = 0.1
	maxExclamations  = 3
)

// Result holds the two scores of a text.
type Result struct {
	Polarity     float64 `json:"polarity"`
	Subjectivity float64 `json:"subjectivity"`
}

// String renders the result as Sentiment(polarity=…, subjectivity=…).
func (r Result) String() string {
	return fmt.Sprintf("Sentiment(polarity=%s, subjectivity=%s)",
		strconv.FormatFloat(r.Polarity, 'f', -1, 64),
		strconv.FormatFloat(r.Subjectivity, 'f', -1, 64),
	)
}

// Score computes polarity in [-1, 1] and subjectivity in [0, 1]. Text
// without any lexicon word scores zero on both.
func Score(p *pipeline.Pipeline, text string) (Result, error) {
	if p == nil {
		return Result{}, pipeline.ErrPipelineUnavailable
	}

	var (
		polaritySum, subjectivitySum float64
		assessed                     int
		exclamations                 int
		intensity                    = 1.0
		negated                      bool
	)
	for _, tok := range p.Tokens(text) {
		if tok.Text == "!" {
			exclamations++
		}
		if !textnorm.HasLetter(tok.Text) {
			if tok.Text != "," && tok.Text != "'" && tok.Text != `"` {
				intensity, negated = 1.0, false
			}
			continue
		}
		if p.IsNegation(tok.Text) {
			negated = true
			continue
		}
		entry, ok := p.Sentiment(tok.Text)
		if !ok {
			continue
		}
		if entry.IsIntensifier() {
			intensity *= entry.Intensity
			continue
		}
		polarity := entry.Polarity * intensity
		if negated {
			polarity *= negationFactor
		}
		polaritySum += polarity
		subjectivitySum += entry.Subjectivity * intensity
		assessed++
		intensity, negated = 1.0, false
	}

	if assessed == 0 {
		return Result{}, nil
	}
	polarity := polaritySum / float64(assessed)
	if exclamations > 0 {
		polarity *= 1 + exclamationBoost*float64(min(exclamations, maxExclamations))
	}
	return Result{
		Polarity:     round(clamp(polarity, -1, 1)),
		Subjectivity: round(clamp(subjectivitySum/float64(assessed), 0, 1)),
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}

func round(v float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 4, 64), 64)
	return r
}
