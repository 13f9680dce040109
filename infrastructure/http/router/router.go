package router

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adsops/adsops/infrastructure/http/handler"
	"github.com/adsops/adsops/infrastructure/http/middleware"
	"github.com/adsops/adsops/infrastructure/http/response"
	"github.com/adsops/adsops/infrastructure/service/logger"
)

// Options wires the HTTP surface
type Options struct {
	Approval    *handler.ApprovalHandler
	Auth        *middleware.AuthMiddleware
	RateLimit   *middleware.RateLimitMiddleware
	Logger      logger.Logger
	Gatherer    prometheus.Gatherer
	RequestLog  bool
	CORSOrigins []string
	CORSCreds   bool
	// CorrelationHeader defaults to X-Correlation-ID
	CorrelationHeader string
}

// New builds the router with the middleware chain applied outermost-first:
// correlation ID, recovery, request log, CORS.
func New(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		response.Success(w, http.StatusOK, "healthy", map[string]string{"status": "healthy"})
	}).Methods(http.MethodGet)

	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	opts.Approval.RegisterRoutes(r, opts.Auth, opts.RateLimit)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	var h http.Handler = r
	if len(opts.CORSOrigins) > 0 {
		h = middleware.CORS(opts.CORSOrigins, opts.CORSCreds)(h)
	}
	if opts.RequestLog {
		h = middleware.RequestLogger(log)(h)
	}
	h = middleware.Recovery(log)(h)
	return middleware.CorrelationID(opts.CorrelationHeader)(h)
}
