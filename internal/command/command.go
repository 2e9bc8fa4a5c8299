// Package command maps each user action to exactly one analyzer call.
// Actions are a closed set of command types (Tokenize, Entities, Sentiment,
// Summarize) behind the Command interface; each one runs a single pure
// function against the shared pipeline and wraps its output in a Result
// that knows how to render itself as a downloadable artifact.
package command

import (
	"fmt"
	"strings"

	"github.com/nlpstudio/textlab/internal/nlp/analyzer"
	"github.com/nlpstudio/textlab/internal/nlp/entity"
	"github.com/nlpstudio/textlab/internal/nlp/pipeline"
	"github.com/nlpstudio/textlab/internal/nlp/sentiment"
	"github.com/nlpstudio/textlab/internal/nlp/summarizer"
	apperrors "github.com/nlpstudio/textlab/pkg/errors"
)

// Kind names a command on the wire and in URLs.
type Kind string

const (
	KindTokens    Kind = "tokens"
	KindEntities  Kind = "entities"
	KindSentiment Kind = "sentiment"
	KindSummarize Kind = "summarize"
)

// Kinds lists every command kind in display order.
var Kinds = []Kind{KindTokens, KindEntities, KindSentiment, KindSummarize}

// Command is one analyzer invocation.
type Command interface {
	Kind() Kind
	Run(p *pipeline.Pipeline, text string) (Result, error)
}

// Tokenize lists tokens and lemmas.
type Tokenize struct{}

// Entities lists named entities.
type Entities struct{}

// Sentiment scores polarity and subjectivity.
type Sentiment struct{}

// Summarize extracts a summary with the selected strategy.
type Summarize struct {
	Strategy string
}

func (Tokenize) Kind() Kind  { return KindTokens }
func (Entities) Kind() Kind  { return KindEntities }
func (Sentiment) Kind() Kind { return KindSentiment }
func (Summarize) Kind() Kind { return KindSummarize }

func (Tokenize) Run(p *pipeline.Pipeline, text string) (Result, error) {
	tokens, err := analyzer.Analyze(p, text)
	if err != nil {
		return nil, err
	}
	return TokensResult{Tokens: tokens}, nil
}

func (Entities) Run(p *pipeline.Pipeline, text string) (Result, error) {
	ents, err := entity.Extract(p, text)
	if err != nil {
		return nil, err
	}
	return EntitiesResult{Entities: ents}, nil
}

func (Sentiment) Run(p *pipeline.Pipeline, text string) (Result, error) {
	score, err := sentiment.Score(p, text)
	if err != nil {
		return nil, err
	}
	return SentimentResult{Sentiment: score}, nil
}

func (c Summarize) Run(p *pipeline.Pipeline, text string) (Result, error) {
	summary, err := summarizer.Summarize(p, text, c.Strategy)
	if err != nil {
		return nil, err
	}
	return SummaryResult{Summary: summary}, nil
}

// Parse builds the command for kind. strategy is only used by summarize.
func Parse(kind string, strategy string) (Command, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(kind))) {
	case KindTokens:
		return Tokenize{}, nil
	case KindEntities:
		return Entities{}, nil
	case KindSentiment:
		return Sentiment{}, nil
	case KindSummarize:
		return Summarize{Strategy: strategy}, nil
	}
	return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownCommand, kind)
}
