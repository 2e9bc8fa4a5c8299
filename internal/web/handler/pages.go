package handler

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/nlpstudio/textlab/internal/command"
	"github.com/nlpstudio/textlab/internal/nlp/summarizer"
	apperrors "github.com/nlpstudio/textlab/pkg/errors"
	"github.com/nlpstudio/textlab/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

// Placeholder prefills every text area.
const Placeholder = "Type Here"

type pages struct {
	home    *template.Template
	contact *template.Template
}

func loadPages() (*pages, error) {
	funcs := template.FuncMap{
		"strategyLabel": func(s summarizer.Strategy) string { return s.Label() },
	}
	home, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/home.html")
	if err != nil {
		return nil, err
	}
	contact, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/contact.html")
	if err != nil {
		return nil, err
	}
	return &pages{home: home, contact: contact}, nil
}

// section is the view model of one toggleable analysis block.
type section struct {
	Kind     command.Kind
	Toggle   string
	Heading  string
	Button   string
	Text     string
	Open     bool
	Strategy string
	Notice   string
	Warning  string
	Error    string
	Result   command.Result
}

// Strategies is the summarizer selector's option list.
func (section) Strategies() []summarizer.Strategy { return summarizer.Strategies }

func (s section) Tokens() *command.TokensResult {
	if r, ok := s.Result.(command.TokensResult); ok {
		return &r
	}
	return nil
}

func (s section) Entities() *command.EntitiesResult {
	if r, ok := s.Result.(command.EntitiesResult); ok {
		return &r
	}
	return nil
}

func (s section) Sentiment() *command.SentimentResult {
	if r, ok := s.Result.(command.SentimentResult); ok {
		return &r
	}
	return nil
}

func (s section) Summary() *command.SummaryResult {
	if r, ok := s.Result.(command.SummaryResult); ok {
		return &r
	}
	return nil
}

type pageData struct {
	Active   string
	Sections []section
	RelayURL string
}

func newSections() []section {
	return []section{
		{Kind: command.KindTokens, Toggle: "Show Tokens and Lemma", Heading: "Tokenize Your Text", Button: "Analyze"},
		{Kind: command.KindEntities, Toggle: "Show Named Entities", Heading: "Extract Entities From Your Text", Button: "Extract"},
		{Kind: command.KindSentiment, Toggle: "Show Sentiment Analysis", Heading: "Sentiment of Your Text", Button: "Analyze"},
		{Kind: command.KindSummarize, Toggle: "Show Text Summarization", Heading: "Summarize Your Text", Button: "Summarize",
			Strategy: string(summarizer.StrategyFrequency)},
	}
}

// Home renders the analysis page with every section closed.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	sections := newSections()
	for i := range sections {
		sections[i].Text = Placeholder
	}
	h.render(w, r, h.pages.home, http.StatusOK, pageData{Active: "home", Sections: sections})
}

// Contact renders the static contact form. Submissions go straight to the
// relay and never reach this server.
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, h.pages.contact, http.StatusOK, pageData{Active: "contact", RelayURL: h.cfg.RelayURL})
}

// Analyze handles a section's submit button and re-renders the page with
// that section open and its result shown.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	text, strategy, cmd, err := h.parseForm(w, r)
	if err != nil {
		h.writeFormError(w, r, err)
		return
	}

	sections := newSections()
	status := http.StatusOK
	for i := range sections {
		sec := &sections[i]
		if sec.Kind != cmd.Kind() {
			sec.Text = Placeholder
			continue
		}
		sec.Open = true
		sec.Text = text
		if strategy != "" {
			sec.Strategy = strategy
		}
		res, err := h.run(r, cmd, text, surfaceUI, false)
		if err != nil {
			status = apperrors.HTTPStatusCode(err)
			sec.Error = apperrors.Message(err)
			continue
		}
		sec.Result = res
		if s, ok := res.(command.SummaryResult); ok {
			sec.Notice, sec.Warning = summaryNotices(s.Summary)
		}
	}
	h.render(w, r, h.pages.home, status, pageData{Active: "home", Sections: sections})
}

// Download handles a section's Download button.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	text, _, cmd, err := h.parseForm(w, r)
	if err != nil {
		h.writeFormError(w, r, err)
		return
	}
	h.download(w, r, cmd, text, surfaceUI)
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) (string, string, command.Command, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	if err := r.ParseForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", "", nil, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusRequestEntityTooLarge,
				"text exceeds %d bytes", tooLarge.Limit)
		}
		return "", "", nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "malformed form")
	}
	text := r.PostForm.Get("text")
	strategy := r.PostForm.Get("strategy")
	cmd, err := command.Parse(r.PathValue("command"), strategy)
	if err != nil {
		return "", "", nil, apperrors.New(err, http.StatusNotFound, "no such analysis")
	}
	return text, strategy, cmd, nil
}

// summaryNotices returns the informational line shown above a summary and,
// when the selector was not recognised, the fallback warning.
func summaryNotices(s summarizer.Result) (notice, warning string) {
	notice = "Using " + s.Strategy.Label() + "..."
	if s.FellBack {
		warning = "Using Default Summarizer"
	}
	return notice, warning
}

func (h *Handler) writeFormError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatusCode(err)
	logger.FromContext(r.Context()).Warn("rejected form", "path", r.URL.Path, "error", err)
	http.Error(w, apperrors.Message(err), status)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, t *template.Template, status int, data pageData) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		logger.FromContext(r.Context()).Error("failed to render page", "error", err)
		http.Error(w, strings.ToLower(http.StatusText(http.StatusInternalServerError)), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		logger.FromContext(r.Context()).Error("failed to write page", "error", err)
	}
}
