// Package handler implements the HTML pages, the download endpoints and the
// JSON API. Every analysis request builds exactly one command, runs it
// against the shared pipeline and renders or serialises its result.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nlpstudio/textlab/internal/analytics"
	"github.com/nlpstudio/textlab/internal/command"
	"github.com/nlpstudio/textlab/internal/nlp/pipeline"
	"github.com/nlpstudio/textlab/internal/nlp/summarizer"
	apperrors "github.com/nlpstudio/textlab/pkg/errors"
	"github.com/nlpstudio/textlab/pkg/logger"
	"github.com/nlpstudio/textlab/pkg/metrics"
	"github.com/nlpstudio/textlab/pkg/middleware"
	"github.com/nlpstudio/textlab/pkg/tracing"
)

// Config holds the presentation settings of the handler.
type Config struct {
	RelayURL     string
	MaxBodyBytes int64
}

// Handler serves the UI and the API.
type Handler struct {
	pipeline   *pipeline.Pipeline
	pages      *pages
	metrics    *metrics.Metrics
	tracker    analytics.Tracker
	aggregator *analytics.Aggregator
	cfg        Config
	logger     *slog.Logger
}

// New creates a Handler. metrics may be nil; tracker defaults to discarding
// events.
func New(p *pipeline.Pipeline, m *metrics.Metrics, tracker analytics.Tracker, aggregator *analytics.Aggregator, cfg Config) (*Handler, error) {
	pg, err := loadPages()
	if err != nil {
		return nil, err
	}
	if tracker == nil {
		tracker = analytics.Discard{}
	}
	if aggregator == nil {
		aggregator = analytics.NewAggregator()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	return &Handler{
		pipeline:   p,
		pages:      pg,
		metrics:    m,
		tracker:    analytics.Trackers{aggregator, tracker},
		aggregator: aggregator,
		cfg:        cfg,
		logger:     slog.Default().With("component", "web-handler"),
	}, nil
}

// apiRequest is the body of the JSON endpoints.
type apiRequest struct {
	Command  string `json:"command"`
	Text     string `json:"text"`
	Strategy string `json:"strategy,omitempty"`
}

type apiResponse struct {
	Command string         `json:"command"`
	Result  command.Result `json:"result"`
}

// APIAnalyze runs a command and returns its result as JSON.
func (h *Handler) APIAnalyze(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeAPIRequest(w, r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	cmd, err := command.Parse(req.Command, req.Strategy)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	res, err := h.run(r, cmd, req.Text, surfaceAPI, false)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, apiResponse{Command: string(cmd.Kind()), Result: res})
}

// APIDownload runs a command and returns its download artifact.
func (h *Handler) APIDownload(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeAPIRequest(w, r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	cmd, err := command.Parse(req.Command, req.Strategy)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	h.download(w, r, cmd, req.Text, surfaceAPI)
}

// Stats returns the in-process usage totals.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.aggregator.Stats())
}

func (h *Handler) decodeAPIRequest(w http.ResponseWriter, r *http.Request) (apiRequest, error) {
	var req apiRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusRequestEntityTooLarge,
				"request body exceeds %d bytes", tooLarge.Limit)
		}
		return req, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "invalid JSON body")
	}
	return req, nil
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request, cmd command.Command, text, surface string) {
	ctx, span := tracing.Start(r.Context(), "download")
	defer span.End()
	r = r.WithContext(ctx)

	res, err := h.run(r, cmd, text, surface, true)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	_, artSpan := tracing.Start(ctx, "artifact")
	art, err := res.Artifact()
	artSpan.SetAttr("bytes", len(art.Body))
	artSpan.End()
	if err != nil {
		h.writeAppError(w, r, fmt.Errorf("%w: %v", apperrors.ErrInternal, err))
		return
	}
	if h.metrics != nil {
		h.metrics.DownloadsTotal.WithLabelValues(string(cmd.Kind())).Inc()
	}
	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", art.FileName))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(art.Body); err != nil {
		logger.FromContext(r.Context()).Error("failed to write artifact", "error", err)
	}
}

const (
	surfaceUI  = "ui"
	surfaceAPI = "api"
)

// run executes cmd synchronously and records its outcome.
func (h *Handler) run(r *http.Request, cmd command.Command, text, surface string, download bool) (command.Result, error) {
	kind := string(cmd.Kind())
	ctx, span := tracing.Start(r.Context(), "command."+kind)
	defer span.End()
	log := logger.FromContext(ctx)

	start := time.Now()
	res, err := cmd.Run(h.pipeline, text)
	elapsed := time.Since(start)
	span.SetAttr("input_bytes", len(text))

	event := analytics.UsageEvent{
		Command:    kind,
		Download:   download,
		Surface:    surface,
		InputBytes: len(text),
		Outcome:    analytics.OutcomeOK,
		LatencyMs:  elapsed.Milliseconds(),
		Timestamp:  time.Now().UTC(),
		RequestID:  middleware.GetRequestID(ctx),
	}
	if c, ok := cmd.(command.Summarize); ok {
		event.Strategy, event.FellBack = requestedStrategy(c.Strategy)
	}
	if s, ok := res.(command.SummaryResult); ok {
		event.Strategy = string(s.Summary.Strategy)
		event.FellBack = s.Summary.FellBack
	}
	if err != nil {
		event.Outcome = analytics.OutcomeError
	}
	span.SetAttr("outcome", event.Outcome)
	h.tracker.Track(event)

	if h.metrics != nil {
		h.metrics.CommandsTotal.WithLabelValues(kind, event.Outcome).Inc()
		h.metrics.CommandDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
		h.metrics.InputBytes.WithLabelValues(kind).Observe(float64(len(text)))
		if event.FellBack && err == nil {
			h.metrics.SummarizerFallbacks.Inc()
		}
	}

	if err != nil {
		log.Warn("command failed",
			"command", kind,
			"input_bytes", len(text),
			"error", err,
		)
		return nil, err
	}
	log.Info("command completed",
		"command", kind,
		"strategy", event.Strategy,
		"fell_back", event.FellBack,
		"input_bytes", len(text),
		"latency_ms", event.LatencyMs,
	)
	return res, nil
}

// requestedStrategy resolves a selector the way the summarizer does, so
// failed runs are attributed to the strategy that would have run.
func requestedStrategy(selector string) (string, bool) {
	if s, ok := summarizer.ParseStrategy(selector); ok {
		return string(s), false
	}
	return string(summarizer.StrategyFrequency), true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatusCode(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", "error", err)
	}
	h.writeJSON(w, status, map[string]string{"error": apperrors.Message(err)})
}
