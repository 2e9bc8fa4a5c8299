// Package entity recognises named entities: gazetteer names, numeric
// expressions (money, percentages, dates, times, quantities, ordinals,
// cardinals) and honorific-led person names.
package entity

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nlpstudio/textlab/internal/nlp/pipeline"
	"github.com/nlpstudio/textlab/internal/nlp/textnorm"
	"github.com/nlpstudio/textlab/internal/nlp/tokenizer"
)

// Entity labels.
const (
	LabelPerson   = "PERSON"
	LabelNORP     = "NORP"
	LabelOrg      = "ORG"
	LabelGPE      = "GPE"
	LabelLoc      = "LOC"
	LabelProduct  = "PRODUCT"
	LabelEvent    = "EVENT"
	LabelDate     = "DATE"
	LabelTime     = "TIME"
	LabelMoney    = "MONEY"
	LabelPercent  = "PERCENT"
	LabelCardinal = "CARDINAL"
	LabelOrdinal  = "ORDINAL"
	LabelQuantity = "QUANTITY"
)

// EntityRecord is one recognised span and its category.
type EntityRecord struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

var (
	reNumber  = regexp.MustCompile(`^[+-]?\d[\d,]*(?:\.\d+)?$`)
	reYear    = regexp.MustCompile(`^(1[0-9]|20)\d\d$`)
	reDecade  = regexp.MustCompile(`^(1[0-9]|20)\d0'?s$`)
	reOrdinal = regexp.MustCompile(`^\d+(?:st|nd|rd|th)$`)
	reClock   = regexp.MustCompile(`^\d{1,2}:\d{2}$`)

	currencySymbols = set("$", "£", "€", "¥")
	currencyWords   = set("dollar", "dollars", "euro", "euros", "pound", "pounds", "cent", "cents", "yen", "francs", "cfa")
	scaleWords      = set("hundred", "thousand", "million", "billion", "trillion")
	numberWords     = set("one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten",
		"eleven", "twelve", "fifteen", "twenty", "thirty", "forty", "fifty", "hundred", "thousand",
		"million", "billion", "dozen", "dozens", "hundreds", "thousands", "millions", "billions")
	ordinalWords = set("first", "second", "third", "fourth", "fifth", "sixth", "seventh", "eighth", "ninth", "tenth")
	months       = set("january", "february", "march", "april", "may", "june", "july", "august", "september",
		"october", "november", "december", "jan.", "feb.", "mar.", "apr.", "jun.", "jul.", "aug.", "sep.",
		"sept.", "oct.", "nov.", "dec.")
	ambiguousMonths = set("march", "may")
	weekdays        = set("monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday")
	relativeDays    = set("today", "yesterday", "tomorrow")
	relativeMarkers = set("last", "next", "this")
	periods         = set("week", "month", "year", "decade", "century", "weekend")
	meridiems       = set("am", "pm", "a.m.", "p.m.")
	units           = set("kg", "kilograms", "g", "grams", "km", "kilometers", "kilometres", "miles", "mile",
		"meters", "metres", "m", "cm", "feet", "foot", "inches", "tons", "tonnes", "liters", "litres",
		"mph", "degrees", "acres", "hectares", "lbs")
	honorifics = set("mr.", "mrs.", "ms.", "dr.", "prof.", "sir", "madam", "lady", "lord", "president", "senator")
)

// Extract returns the named entities of text in order of occurrence. Span
// text is sliced verbatim from the input; recurring spans are all reported.
func Extract(p *pipeline.Pipeline, text string) ([]EntityRecord, error) {
	if p == nil {
		return nil, pipeline.ErrPipelineUnavailable
	}
	tokens := p.Tokens(text)
	entities := make([]EntityRecord, 0)
	for i := 0; i < len(tokens); {
		from, to, label := match(p, tokens, i)
		if label == "" {
			i++
			continue
		}
		entities = append(entities, EntityRecord{
			Text:  text[tokens[from].Start:tokens[to-1].End],
			Label: label,
		})
		i = to
	}
	return entities, nil
}

// matcher inspects tokens starting at i and returns the half-open span
// [from, to) it recognises, or an empty label.
type matcher func(p *pipeline.Pipeline, toks []tokenizer.Token, i int) (from, to int, label string)

var matchers = []matcher{
	matchGazetteer,
	matchMoney,
	matchPercent,
	matchTime,
	matchDate,
	matchQuantity,
	matchOrdinal,
	matchCardinal,
	matchHonorific,
}

func match(p *pipeline.Pipeline, toks []tokenizer.Token, i int) (int, int, string) {
	for _, m := range matchers {
		if from, to, label := m(p, toks, i); label != "" {
			return from, to, label
		}
	}
	return 0, 0, ""
}

func matchGazetteer(p *pipeline.Pipeline, toks []tokenizer.Token, i int) (int, int, string) {
	longest := min(p.MaxEntityTokens(), len(toks)-i)
	for n := longest; n >= 1; n-- {
		if !contiguousWords(toks[i : i+n]) {
			continue
		}
		if label, ok := p.EntityLabel(joinTexts(toks[i : i+n])); ok {
			return i, i + n, label
		}
	}
	return 0, 0, ""
}

func matchMoney(_ *pipeline.Pipeline, toks []tokenizer.Token, i int) (int, int, string) {
	if has(currencySymbols, toks[i].Text) && i+1 < len(toks) && isNumeric(toks[i+1].Text) {
		return i, skipScale(toks, i+2), LabelMoney
	}
	if !isNumeric(toks[i].Text) && !has(numberWords, lower(toks[i].Text)) {
		return 0, 0, ""
	}
	j := skipScale(toks, i+1)
	if j < len(toks) && has(currencyWords, lower(toks[j].Text)) {
		return i, j + 1, LabelMoney
	}
	return 0, 0, ""
}

func matchPercent(_ *pipeline.Pipeline, toks []tokenizer.Token, i int) (int, int, string) {
	if !isNumeric(toks[i].Text) && !has(numberWords, lower(toks[i].Text)) {
		return 0, 0, ""
	}
	j := i + 1
	if j >= len(toks) {
		return 0, 0, ""
	}
	switch lower(toks[j].Text) {
	case "%", "percent":
		return i, j + 1, LabelPercent
	case "per":
		if j+1 < len(toks) && lower(toks[j+1].Text) == "cent" {
			return i, j + 2, LabelPercent
		}
	}
	return 0, 0, ""
}

func matchTime(_ *pipeline.Pipeline, toks []tokenizer.Token, i int) (int, int, string) {
	t := toks[i].Text
	if reClock.MatchString(t) {
		if i+1 < len(toks) && has(meridiems, lower(toks[i+1].Text)) {
			return i, i + 2, LabelTime
		}
		return i, i + 1, LabelTime
	}
	if reNumber.MatchString(t) && i+1 < len(toks) && has(meridiems, lower(toks[i+1].Text)) {
		return i, i + 2, LabelTime
	}
	return 0, 0, ""
}

func matchDate(_ *pipeline.Pipeline, toks []tokenizer.Token, i int) (int, int, string) {
	word := lower(toks[i].Text)
	switch {
	case has(months, word) && isCapitalized(toks[i].Text):
		j := i + 1
		if j < len(toks) && isDay(toks[j].Text) {
			j++
		}
		if j+1 < len(toks) && toks[j].Text == "," && reYear.MatchString(toks[j+1].Text) {
			j += 2
		} else if j < len(toks) && reYear.MatchString(toks[j].Text) {
			j++
		}
		if j == i+1 && has(ambiguousMonths, word) {
			return 0, 0, ""
		}
		return i, j, LabelDate
	case isDay(toks[i].Text) && i+1 < len(toks) && has(months, lower(toks[i+1].Text)):
		j := i + 2
		if j < len(toks) && reYear.MatchString(toks[j].Text) {
			j++
		}
		return i, j, LabelDate
	case reYear.MatchString(toks[i].Text), reDecade.MatchString(toks[i].Text):
		return i, i + 1, LabelDate
	case has(weekdays, word) || has(relativeDays, word):
		return i, i + 1, LabelDate
	case has(relativeMarkers, word) && i+1 < len(toks) && has(periods, lower(toks[i+1].Text)):
		return i, i + 2, LabelDate
	}
	return 0, 0, ""
}

func matchQuantity(_ *pipeline.Pipeline, toks []tokenizer.Token, i int) (int, int, string) {
	if !isNumeric(toks[i].Text) && !has(numberWords, lower(toks[i].Text)) {
		return 0, 0, ""
	}
	j := skipScale(toks, i+1)
	if j < len(toks) && has(units, lower(toks[j].Text)) {
		return i, j + 1, LabelQuantity
	}
	return 0, 0, ""
}

func matchOrdinal(_ *pipeline.Pipeline, toks []tokenizer.Token, i int) (int, int, string) {
	if reOrdinal.MatchString(lower(toks[i].Text)) || has(ordinalWords, lower(toks[i].Text)) {
		return i, i + 1, LabelOrdinal
	}
	return 0, 0, ""
}

func matchCardinal(_ *pipeline.Pipeline, toks []tokenizer.Token, i int) (int, int, string) {
	if !isNumeric(toks[i].Text) && !has(numberWords, lower(toks[i].Text)) {
		return 0, 0, ""
	}
	return i, skipScale(toks, i+1), LabelCardinal
}

func matchHonorific(_ *pipeline.Pipeline, toks []tokenizer.Token, i int) (int, int, string) {
	if !has(honorifics, lower(toks[i].Text)) || !isCapitalized(toks[i].Text) {
		return 0, 0, ""
	}
	j := i + 1
	for j < len(toks) && j-i <= 3 && isCapitalized(toks[j].Text) && textnorm.IsWord(toks[j].Text) {
		j++
	}
	if j == i+1 {
		return 0, 0, ""
	}
	return i + 1, j, LabelPerson
}

func skipScale(toks []tokenizer.Token, j int) int {
	for j < len(toks) && has(scaleWords, lower(toks[j].Text)) {
		j++
	}
	return j
}

func isNumeric(s string) bool {
	return reNumber.MatchString(s)
}

func isDay(s string) bool {
	s = strings.TrimRight(lower(s), "stndrh")
	if len(s) == 0 || len(s) > 2 {
		return false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
		n = n*10 + int(r-'0')
	}
	return n >= 1 && n <= 31
}

func isCapitalized(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

// contiguousWords rejects candidate phrases that cross a sentence boundary.
func contiguousWords(toks []tokenizer.Token) bool {
	for _, t := range toks[:len(toks)-1] {
		switch t.Text {
		case ".", "!", "?", ";":
			return false
		}
	}
	return true
}

func joinTexts(toks []tokenizer.Token) string {
	if len(toks) == 1 {
		return toks[0].Text
	}
	parts := make([]string, len(toks))
	for i, t := range toks {
		parts[i] = t.Text
	}
	return strings.Join(parts, " ")
}

func lower(s string) string {
	return strings.ToLower(s)
}

func has(m map[string]struct{}, k string) bool {
	_, ok := m[k]
	return ok
}

func set(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
