// Package metrics defines the Prometheus metric collectors used across the
// application and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the application.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestsInFlight prometheus.Gauge
	HTTPRequestDuration  *prometheus.HistogramVec
	CommandsTotal        *prometheus.CounterVec
	CommandDuration      *prometheus.HistogramVec
	InputBytes           *prometheus.HistogramVec
	SummarizerFallbacks  prometheus.Counter
	DownloadsTotal       *prometheus.CounterVec
	RateLimitedTotal     prometheus.Counter
	UsageEventsDropped   prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil reg uses
// the default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		CommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "textlab_commands_total",
				Help: "Total analyzer commands by kind and outcome (ok, error).",
			},
			[]string{"command", "outcome"},
		),
		CommandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "textlab_command_duration_seconds",
				Help:    "Analyzer command latency in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"command"},
		),
		InputBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "textlab_input_bytes",
				Help:    "Size of submitted text in bytes.",
				Buckets: prometheus.ExponentialBuckets(64, 4, 8),
			},
			[]string{"command"},
		),
		SummarizerFallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "textlab_summarizer_fallbacks_total",
				Help: "Summaries produced by the default strategy because the selector was not recognised.",
			},
		),
		DownloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "textlab_downloads_total",
				Help: "Total download artifacts served by command.",
			},
			[]string{"command"},
		),
		RateLimitedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "textlab_rate_limited_total",
				Help: "Total requests rejected by the rate limiter.",
			},
		),
		UsageEventsDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "textlab_usage_events_dropped_total",
				Help: "Usage events dropped because the analytics buffer was full.",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestsInFlight,
		m.HTTPRequestDuration,
		m.CommandsTotal,
		m.CommandDuration,
		m.InputBytes,
		m.SummarizerFallbacks,
		m.DownloadsTotal,
		m.RateLimitedTotal,
		m.UsageEventsDropped,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
