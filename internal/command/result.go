package command

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nlpstudio/textlab/internal/nlp/analyzer"
	"github.com/nlpstudio/textlab/internal/nlp/entity"
	"github.com/nlpstudio/textlab/internal/nlp/sentiment"
	"github.com/nlpstudio/textlab/internal/nlp/summarizer"
)

// Download file names.
const (
	FileTokens    = "Tokens_Lemmas"
	FileEntities  = "Named_Entities"
	FileSentiment = "Sentiment"
	FileSummary   = "Summary"
)

// Artifact is a downloadable rendering of a result.
type Artifact struct {
	FileName    string
	ContentType string
	Body        []byte
}

// Result is the output of one command.
type Result interface {
	Kind() Kind
	Artifact() (Artifact, error)
}

// TokensResult lists tokens with their lemmas.
type TokensResult struct {
	Tokens []analyzer.TokenRecord `json:"tokens"`
}

// EntitiesResult lists recognised entities.
type EntitiesResult struct {
	Entities []entity.EntityRecord `json:"entities"`
}

// SentimentResult carries the polarity and subjectivity scores.
type SentimentResult struct {
	Sentiment sentiment.Result `json:"sentiment"`
}

// SummaryResult carries the extracted summary.
type SummaryResult struct {
	Summary summarizer.Result `json:"summary"`
}

func (TokensResult) Kind() Kind    { return KindTokens }
func (EntitiesResult) Kind() Kind  { return KindEntities }
func (SentimentResult) Kind() Kind { return KindSentiment }
func (SummaryResult) Kind() Kind   { return KindSummarize }

// Artifact renders the token list as an indented JSON array.
func (r TokensResult) Artifact() (Artifact, error) {
	tokens := r.Tokens
	if tokens == nil {
		tokens = []analyzer.TokenRecord{}
	}
	body, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return Artifact{}, fmt.Errorf("encoding tokens: %w", err)
	}
	return Artifact{FileName: FileTokens, ContentType: "application/json", Body: body}, nil
}

// Artifact renders the entities as an indexed two-column table.
func (r EntitiesResult) Artifact() (Artifact, error) {
	return Artifact{
		FileName:    FileEntities,
		ContentType: "text/plain; charset=utf-8",
		Body:        []byte(EntityTable(r.Entities)),
	}, nil
}

// Artifact renders the scores in their textual form.
func (r SentimentResult) Artifact() (Artifact, error) {
	return Artifact{
		FileName:    FileSentiment,
		ContentType: "text/plain; charset=utf-8",
		Body:        []byte(r.Sentiment.String()),
	}, nil
}

// Artifact returns the summary text.
func (r SummaryResult) Artifact() (Artifact, error) {
	return Artifact{
		FileName:    FileSummary,
		ContentType: "text/plain; charset=utf-8",
		Body:        []byte(r.Summary.Text),
	}, nil
}

// EntityTable formats entities as a data frame dump: a row index column
// followed by columns 0 (text) and 1 (label), each right-aligned to its
// widest cell.
func EntityTable(entities []entity.EntityRecord) string {
	if len(entities) == 0 {
		return "Empty DataFrame\nColumns: []\nIndex: []"
	}

	index := make([]string, len(entities))
	indexWidth := 0
	textWidth := utf8.RuneCountInString("0")
	labelWidth := utf8.RuneCountInString("1")
	for i, e := range entities {
		index[i] = strconv.Itoa(i)
		indexWidth = max(indexWidth, len(index[i]))
		textWidth = max(textWidth, utf8.RuneCountInString(e.Text))
		labelWidth = max(labelWidth, utf8.RuneCountInString(e.Label))
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", indexWidth))
	b.WriteString("  ")
	b.WriteString(padLeft("0", textWidth))
	b.WriteString("  ")
	b.WriteString(padLeft("1", labelWidth))
	for i, e := range entities {
		b.WriteByte('\n')
		b.WriteString(padRight(index[i], indexWidth))
		b.WriteString("  ")
		b.WriteString(padLeft(e.Text, textWidth))
		b.WriteString("  ")
		b.WriteString(padLeft(e.Label, labelWidth))
	}
	return b.String()
}

func padLeft(s string, width int) string {
	return strings.Repeat(" ", max(0, width-utf8.RuneCountInString(s))) + s
}

func padRight(s string, width int) string {
	return s + strings.Repeat(" ", max(0, width-utf8.RuneCountInString(s)))
}
