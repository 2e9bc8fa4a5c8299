// Package pipeline holds the shared language resources every analyzer
// reads from: tokenizer exceptions, the lemma table, the entity gazetteer,
// the sentiment lexicon and the stop-word list.
//
// A Pipeline is built once at start-up and passed by reference into each
// analyzer call. It is never written after construction, so a single
// instance may serve any number of concurrent requests.
package pipeline

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/nlpstudio/textlab/internal/nlp/lemmatizer"
	"github.com/nlpstudio/textlab/internal/nlp/textnorm"
	"github.com/nlpstudio/textlab/internal/nlp/tokenizer"
)

// ErrPipelineUnavailable is returned by analyzers invoked without a loaded
// pipeline.
var ErrPipelineUnavailable = errors.New("language pipeline unavailable")

// Data file names, looked up first in the override directory passed to Load
// and then in the embedded defaults.
const (
	FileExceptions = "exceptions.txt"
	FileLemmas     = "lemmas.tsv"
	FileGazetteer  = "gazetteer.tsv"
	FileSentiment  = "sentiment.tsv"
	FileNegations  = "negations.txt"
	FileStopWords  = "stopwords.txt"
)

//go:embed data/*
var embedded embed.FS

// LexiconEntry is the sentiment weight of one word. Entries with zero
// polarity and an intensity other than 1 act as intensifiers.
type LexiconEntry struct {
	Polarity     float64
	Subjectivity float64
	Intensity    float64
}

// IsIntensifier reports whether the entry only scales its neighbour.
func (e LexiconEntry) IsIntensifier() bool {
	return e.Polarity == 0 && e.Intensity != 1
}

// Pipeline is the read-only language model shared by all analyzers.
type Pipeline struct {
	tokenizer  *tokenizer.Tokenizer
	lemmatizer *lemmatizer.Lemmatizer

	gazetteer       map[string]string
	maxEntityTokens int

	lexicon   map[string]LexiconEntry
	negations map[string]struct{}
	stopWords map[string]struct{}
}

var loadDefault = sync.OnceValues(func() (*Pipeline, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, err
	}
	return build(sub)
})

// Default returns the pipeline built from the embedded data files. It is
// constructed on first use and shared afterwards.
func Default() (*Pipeline, error) {
	return loadDefault()
}

// Load builds a pipeline reading each data file from dataDir when present
// there and from the embedded defaults otherwise. An empty dataDir is the
// same as Default.
func Load(dataDir string) (*Pipeline, error) {
	if dataDir == "" {
		return Default()
	}
	info, err := os.Stat(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening data dir %s: %w", dataDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data dir %s is not a directory", dataDir)
	}
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, err
	}
	return build(overlayFS{upper: os.DirFS(dataDir), lower: sub})
}

func build(fsys fs.FS) (*Pipeline, error) {
	exceptions, err := readLines(fsys, FileExceptions)
	if err != nil {
		return nil, err
	}
	tok := tokenizer.New(exceptions)

	lemmaRows, err := readTable(fsys, FileLemmas, 2)
	if err != nil {
		return nil, err
	}
	lemmas := make(map[string]string, len(lemmaRows))
	for _, row := range lemmaRows {
		lemmas[row[0]] = row[1]
	}

	p := &Pipeline{
		tokenizer:  tok,
		lemmatizer: lemmatizer.New(lemmas),
		gazetteer:  make(map[string]string),
		lexicon:    make(map[string]LexiconEntry),
	}

	gazRows, err := readTable(fsys, FileGazetteer, 2)
	if err != nil {
		return nil, err
	}
	for _, row := range gazRows {
		parts := tok.Tokenize(row[0])
		if len(parts) == 0 {
			continue
		}
		texts := make([]string, len(parts))
		for i, t := range parts {
			texts[i] = t.Text
		}
		p.gazetteer[strings.Join(texts, " ")] = strings.ToUpper(row[1])
		p.maxEntityTokens = max(p.maxEntityTokens, len(parts))
	}

	lexRows, err := readTable(fsys, FileSentiment, 4)
	if err != nil {
		return nil, err
	}
	for _, row := range lexRows {
		var vals [3]float64
		for i := range vals {
			v, err := strconv.ParseFloat(row[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("parsing %s entry %q: %w", FileSentiment, row[0], err)
			}
			vals[i] = v
		}
		p.lexicon[textnorm.Fold(row[0])] = LexiconEntry{Polarity: vals[0], Subjectivity: vals[1], Intensity: vals[2]}
	}

	if p.negations, err = readSet(fsys, FileNegations); err != nil {
		return nil, err
	}
	if p.stopWords, err = readSet(fsys, FileStopWords); err != nil {
		return nil, err
	}
	return p, nil
}

// Tokens segments text into tokens.
func (p *Pipeline) Tokens(text string) []tokenizer.Token {
	return p.tokenizer.Tokenize(text)
}

// Sentences segments text into sentences.
func (p *Pipeline) Sentences(text string) []tokenizer.Sentence {
	return p.tokenizer.Sentences(text)
}

// Lemma returns the dictionary base form of a token.
func (p *Pipeline) Lemma(token string) string {
	return p.lemmatizer.Lemma(token)
}

// EntityLabel looks up a space-joined token sequence in the gazetteer.
func (p *Pipeline) EntityLabel(phrase string) (string, bool) {
	label, ok := p.gazetteer[phrase]
	return label, ok
}

// MaxEntityTokens is the token length of the longest gazetteer entry.
func (p *Pipeline) MaxEntityTokens() int {
	return p.maxEntityTokens
}

// Sentiment returns the lexicon entry for word.
func (p *Pipeline) Sentiment(word string) (LexiconEntry, bool) {
	e, ok := p.lexicon[textnorm.Fold(word)]
	return e, ok
}

// IsNegation reports whether word flips the sentiment of what follows.
func (p *Pipeline) IsNegation(word string) bool {
	_, ok := p.negations[textnorm.Fold(word)]
	return ok
}

// IsStopWord reports whether word carries no content for summarisation.
func (p *Pipeline) IsStopWord(word string) bool {
	_, ok := p.stopWords[textnorm.Fold(word)]
	return ok
}

func readLines(fsys fs.FS, name string) ([]string, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()

	var lines []string
	scan := bufio.NewScanner(f)
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if line == "" || strings.HasPrefix(line, "# ") || line == "#" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scan.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return lines, nil
}

func readTable(fsys fs.FS, name string, columns int) ([][]string, error) {
	lines, err := readLines(fsys, name)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(lines))
	for n, line := range lines {
		parts := strings.Split(line, "\t")
		if len(parts) != columns {
			return nil, fmt.Errorf("%s: row %d has %d columns, want %d", name, n+1, len(parts), columns)
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		rows = append(rows, parts)
	}
	return rows, nil
}

func readSet(fsys fs.FS, name string) (map[string]struct{}, error) {
	lines, err := readLines(fsys, name)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		set[textnorm.Fold(l)] = struct{}{}
	}
	return set, nil
}

// overlayFS serves files from upper when they exist there and from lower
// otherwise.
type overlayFS struct {
	upper fs.FS
	lower fs.FS
}

func (o overlayFS) Open(name string) (fs.File, error) {
	f, err := o.upper.Open(name)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return o.lower.Open(name)
}
