// Package router wires up all routes and applies the middleware chain
// (RequestID → Metrics → CORS → RateLimit).
package router

import (
	"net/http"

	"github.com/nlpstudio/textlab/internal/ratelimit"
	"github.com/nlpstudio/textlab/internal/web/handler"
	webmw "github.com/nlpstudio/textlab/internal/web/middleware"
	"github.com/nlpstudio/textlab/pkg/health"
	"github.com/nlpstudio/textlab/pkg/metrics"
	pkgmw "github.com/nlpstudio/textlab/pkg/middleware"
)

// Options carries the optional collaborators of the router.
type Options struct {
	Metrics        *metrics.Metrics
	Limiter        ratelimit.Limiter
	Health         *health.Checker
	AllowedOrigins []string
}

// New builds the HTTP handler.
//
// Route table:
//
//	GET    /                      → home page with the four analysis sections
//	GET    /contact               → contact page
//	POST   /analyze/{command}     → run one analysis, re-render home
//	POST   /download/{command}    → run one analysis, return its artifact
//	POST   /api/v1/analyze        → JSON result
//	POST   /api/v1/download       → artifact
//	GET    /api/v1/stats          → usage totals
//	GET    /health/live           → liveness
//	GET    /health/ready          → readiness
//
// Middleware chain (outermost first):
//
//	RequestID → Metrics → CORS → RateLimit → handler
func New(h *handler.Handler, opts Options) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("GET /contact", h.Contact)
	mux.HandleFunc("POST /analyze/{command}", h.Analyze)
	mux.HandleFunc("POST /download/{command}", h.Download)

	mux.HandleFunc("POST /api/v1/analyze", h.APIAnalyze)
	mux.HandleFunc("POST /api/v1/download", h.APIDownload)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)

	checker := opts.Health
	if checker == nil {
		checker = health.NewChecker(0)
	}
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	if opts.Limiter != nil {
		chain = webmw.RateLimit(opts.Limiter, opts.Metrics)(chain)
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	chain = webmw.CORS(webmw.NewCORSConfig(origins))(chain)
	if opts.Metrics != nil {
		chain = pkgmw.Metrics(opts.Metrics)(chain)
	}
	chain = pkgmw.RequestID(chain)

	return chain
}
