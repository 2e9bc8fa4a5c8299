package command

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/nlpstudio/textlab/internal/nlp/analyzer"
	"github.com/nlpstudio/textlab/internal/nlp/entity"
	"github.com/nlpstudio/textlab/internal/nlp/pipeline"
	"github.com/nlpstudio/textlab/internal/nlp/sentiment"
	"github.com/nlpstudio/textlab/internal/nlp/summarizer"
	apperrors "github.com/nlpstudio/textlab/pkg/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		kind     string
		strategy string
		want     Command
	}{
		{"tokens", "", Tokenize{}},
		{" Entities ", "", Entities{}},
		{"SENTIMENT", "", Sentiment{}},
		{"summarize", "lexrank", Summarize{Strategy: "lexrank"}},
		{"summarize", "", Summarize{}},
	}
	for _, tt := range tests {
		got, err := Parse(tt.kind, tt.strategy)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.kind, err)
		}
		if got != tt.want {
			t.Errorf("Parse(%q, %q) = %#v, want %#v", tt.kind, tt.strategy, got, tt.want)
		}
	}
}

func TestParseUnknown(t *testing.T) {
	for _, kind := range []string{"", "translate", "tokens2"} {
		if _, err := Parse(kind, ""); !errors.Is(err, apperrors.ErrUnknownCommand) {
			t.Errorf("Parse(%q) err = %v, want ErrUnknownCommand", kind, err)
		}
	}
}

func TestRun(t *testing.T) {
	p, err := pipeline.Default()
	if err != nil {
		t.Fatal(err)
	}
	text := "Apple is looking at buying U.K. startup for $1 billion"
	for _, kind := range Kinds {
		cmd, err := Parse(string(kind), "")
		if err != nil {
			t.Fatal(err)
		}
		if kind == KindSummarize {
			text = "Apple is growing. Apple sells phones. Phones are popular."
		}
		res, err := cmd.Run(p, text)
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		if res.Kind() != kind {
			t.Errorf("%s: result kind = %s", kind, res.Kind())
		}
	}
}

func TestRunPropagatesErrors(t *testing.T) {
	p, err := pipeline.Default()
	if err != nil {
		t.Fatal(err)
	}
	_, err = Summarize{Strategy: "lexrank"}.Run(p, "One sentence only.")
	if !errors.Is(err, summarizer.ErrTooFewSentences) {
		t.Errorf("err = %v, want ErrTooFewSentences", err)
	}
	if _, err := (Tokenize{}).Run(nil, "x"); !errors.Is(err, pipeline.ErrPipelineUnavailable) {
		t.Errorf("err = %v, want ErrPipelineUnavailable", err)
	}
}

func TestTokensArtifact(t *testing.T) {
	res := TokensResult{Tokens: []analyzer.TokenRecord{{Text: "ran", Lemma: "run"}}}
	art, err := res.Artifact()
	if err != nil {
		t.Fatal(err)
	}
	if art.FileName != FileTokens || art.ContentType != "application/json" {
		t.Errorf("artifact = %s %s", art.FileName, art.ContentType)
	}
	var decoded []map[string]string
	if err := json.Unmarshal(art.Body, &decoded); err != nil {
		t.Fatalf("body is not a JSON array: %v", err)
	}
	if len(decoded) != 1 || decoded[0]["token"] != "ran" || decoded[0]["lemma"] != "run" {
		t.Errorf("decoded = %v", decoded)
	}

	empty, err := TokensResult{}.Artifact()
	if err != nil {
		t.Fatal(err)
	}
	if string(empty.Body) != "[]" {
		t.Errorf("empty body = %q, want []", empty.Body)
	}
}

func TestEntityTable(t *testing.T) {
	got := EntityTable([]entity.EntityRecord{
		{Text: "Apple", Label: entity.LabelOrg},
		{Text: "U.K.", Label: entity.LabelGPE},
		{Text: "$1 billion", Label: entity.LabelMoney},
	})
	want := strings.Join([]string{
		"            0      1",
		"0       Apple    ORG",
		"1        U.K.    GPE",
		"2  $1 billion  MONEY",
	}, "\n")
	if got != want {
		t.Errorf("EntityTable =\n%s\nwant\n%s", got, want)
	}
}

func TestEntityTableEmpty(t *testing.T) {
	want := "Empty DataFrame\nColumns: []\nIndex: []"
	if got := EntityTable(nil); got != want {
		t.Errorf("EntityTable(nil) = %q, want %q", got, want)
	}
	art, err := EntitiesResult{Entities: []entity.EntityRecord{}}.Artifact()
	if err != nil {
		t.Fatal(err)
	}
	if art.FileName != FileEntities || string(art.Body) != want {
		t.Errorf("artifact = %s %q", art.FileName, art.Body)
	}
}

func TestEntityTableWideIndex(t *testing.T) {
	entities := make([]entity.EntityRecord, 11)
	for i := range entities {
		entities[i] = entity.EntityRecord{Text: "Paris", Label: entity.LabelGPE}
	}
	lines := strings.Split(EntityTable(entities), "\n")
	if len(lines) != 12 {
		t.Fatalf("got %d lines, want 12", len(lines))
	}
	if lines[1] != "0   Paris  GPE" || lines[11] != "10  Paris  GPE" {
		t.Errorf("rows = %q, %q", lines[1], lines[11])
	}
}

func TestSentimentAndSummaryArtifacts(t *testing.T) {
	art, err := SentimentResult{Sentiment: sentiment.Result{Polarity: 0.5, Subjectivity: 0.6}}.Artifact()
	if err != nil {
		t.Fatal(err)
	}
	if art.FileName != FileSentiment || string(art.Body) != "Sentiment(polarity=0.5, subjectivity=0.6)" {
		t.Errorf("sentiment artifact = %s %q", art.FileName, art.Body)
	}

	art, err = SummaryResult{Summary: summarizer.Result{Text: "A. B. C."}}.Artifact()
	if err != nil {
		t.Fatal(err)
	}
	if art.FileName != FileSummary || string(art.Body) != "A. B. C." {
		t.Errorf("summary artifact = %s %q", art.FileName, art.Body)
	}
}
