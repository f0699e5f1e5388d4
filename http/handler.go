package http

import (
	"net/http"

	"github.com/NYTimes/gziphandler"
	"github.com/go-chi/chi"
	kithttp "github.com/parleyhq/parley/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Paths for the operational endpoints served next to the API.
const (
	MetricsPath = "/metrics"
	ReadyPath   = "/ready"
	HealthPath  = "/health"
)

// Handler is the root http handler. It serves the operational endpoints
// itself and delegates everything else to the API handler it wraps, with
// request metrics, tracing and gzip applied on the way in.
type Handler struct {
	name string
	r    chi.Router

	requests   *prometheus.CounterVec
	requestDur *prometheus.HistogramVec

	log *zap.Logger
}

// NewRootHandler creates a root handler around h, registering its request
// metrics on reg and exposing reg on /metrics.
func NewRootHandler(name string, log *zap.Logger, reg *prometheus.Registry, h http.Handler) *Handler {
	handler := &Handler{
		name: name,
		log:  log,
	}
	handler.initMetrics(reg)

	r := chi.NewRouter()
	r.Use(
		kithttp.Trace(name),
		kithttp.Metrics(name, handler.requests, handler.requestDur),
		func(next http.Handler) http.Handler {
			return gziphandler.GzipHandler(next)
		},
	)

	r.Mount(MetricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Mount(ReadyPath, ReadyHandler())
	r.Get(HealthPath, HealthHandler)
	r.Mount("/", h)

	handler.r = r
	return handler
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.r.ServeHTTP(w, r)
}

func (h *Handler) initMetrics(reg *prometheus.Registry) {
	const namespace = "http"

	h.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: h.name,
		Name:      "requests_total",
		Help:      "Number of http requests received",
	}, []string{"handler", "method", "path", "status", "user_agent", "response_code"})

	h.requestDur = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: h.name,
		Name:      "request_duration_seconds",
		Help:      "Time taken to respond to HTTP request",
	}, []string{"handler", "method", "path", "status", "user_agent", "response_code"})

	reg.MustRegister(h.requests, h.requestDur)
}
