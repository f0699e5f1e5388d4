package http

import (
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	ua "github.com/mileusna/useragent"
	"github.com/parleyhq/parley/kit/platform"
	"github.com/parleyhq/parley/kit/tracing"
	"github.com/prometheus/client_golang/prometheus"
)

// Middleware constructor.
type Middleware func(http.Handler) http.Handler

// Metrics returns a middleware instrumenting requests with the provided
// counter and duration histogram.
func Metrics(name string, reqMetric *prometheus.CounterVec, durMetric *prometheus.HistogramVec) Middleware {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			statusW := NewStatusResponseWriter(w)

			defer func(start time.Time) {
				statusCode := statusW.Code()
				// only report metrics for 2XX or 5XX requests
				if !reportFromCode(statusCode) {
					return
				}

				label := prometheus.Labels{
					"handler":       name,
					"method":        r.Method,
					"path":          normalizePath(r.URL.Path),
					"status":        statusW.StatusCodeClass(),
					"response_code": fmt.Sprintf("%d", statusCode),
					"user_agent":    UserAgent(r),
				}

				durMetric.With(label).Observe(time.Since(start).Seconds())
				reqMetric.With(label).Inc()
			}(time.Now())

			next.ServeHTTP(statusW, r)
		}
		return http.HandlerFunc(fn)
	}
}

// Trace returns a middleware continuing (or starting) an opentracing span
// from the request headers.
func Trace(name string) Middleware {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			span, r := tracing.ExtractFromHTTPRequest(r, name)
			defer span.Finish()

			span.LogKV("user_agent", UserAgent(r))
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}

// UserAgent returns the parsed user agent name of the request.
func UserAgent(r *http.Request) string {
	header := r.Header.Get("User-Agent")
	if header == "" {
		return "unknown"
	}

	return ua.Parse(header).Name
}

// only report 2XX and 5XX codes; 4XX classes are triggered by the caller and
// would let a misbehaving client blow up label cardinality.
func reportFromCode(code int) bool {
	return (code >= 200 && code < 300) || (code >= 500 && code < 600)
}

// normalizePath replaces any resource IDs in the path with an ":id" slug so
// metric labels stay low-cardinality.
func normalizePath(p string) string {
	var parts []string
	for head, tail := shiftPath(p); ; head, tail = shiftPath(tail) {
		piece := head

		if len(piece) == platform.IDLength {
			if _, err := platform.IDFromString(head); err == nil {
				piece = ":id"
			}
		}
		parts = append(parts, piece)

		if tail == "/" {
			break
		}
	}
	return "/" + path.Join(parts...)
}

func shiftPath(p string) (head, tail string) {
	p = path.Clean("/" + p)
	i := strings.Index(p[1:], "/") + 1
	if i <= 0 {
		return p[1:], "/"
	}
	return p[1:i], p[i:]
}
