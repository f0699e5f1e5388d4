package metric

import (
	"time"

	"github.com/parleyhq/parley/kit/platform/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// REDClient records RED (rate, errors, duration) metrics for the calls of a
// single service.
type REDClient struct {
	calls    *prometheus.CounterVec
	errs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New creates a new REDClient registered on reg.
func New(reg prometheus.Registerer, service string, opts ...ClientOptFn) *REDClient {
	o := ApplyMetricOpts(opts...)

	namespace := o.namespace
	if namespace == "" {
		namespace = "service"
	}

	client := &REDClient{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: service,
			Name:      "call_total",
			Help:      "Number of calls",
		}, []string{"method"}),
		errs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: service,
			Name:      "error_total",
			Help:      "Number of errors encountered",
		}, []string{"method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: service,
			Name:      "duration",
			Help:      "Duration of calls",
			Buckets:   prometheus.ExponentialBuckets(0.001, 5, 7),
		}, []string{"method"}),
	}

	reg.MustRegister(client.calls, client.errs, client.duration)

	return client
}

// Record returns a func that records the duration, call count and error count
// of the method once invoked with the resulting error.
func (c *REDClient) Record(method string) func(error) error {
	start := time.Now()
	return func(err error) error {
		c.calls.With(prometheus.Labels{"method": method}).Inc()
		if err != nil {
			c.errs.With(prometheus.Labels{
				"method": method,
				"code":   errors.ErrorCode(err),
			}).Inc()
		}
		c.duration.With(prometheus.Labels{"method": method}).Observe(time.Since(start).Seconds())
		return err
	}
}

// ClientOptFn is an option for setting options on the metrics client.
type ClientOptFn func(clientOpts) clientOpts

type clientOpts struct {
	namespace string
	suffix    string
}

// ApplyMetricOpts applies the options to a new clientOpts.
func ApplyMetricOpts(opts ...ClientOptFn) clientOpts {
	var o clientOpts
	for _, opt := range opts {
		o = opt(o)
	}
	return o
}

// WithNamespace sets the namespace of the metrics.
func WithNamespace(namespace string) ClientOptFn {
	return func(o clientOpts) clientOpts {
		o.namespace = namespace
		return o
	}
}

// WithSuffix sets a suffix appended to the service name.
func WithSuffix(suffix string) ClientOptFn {
	return func(o clientOpts) clientOpts {
		o.suffix = suffix
		return o
	}
}

// ApplySuffix returns the service name with the configured suffix applied.
func (o clientOpts) ApplySuffix(prefix string) string {
	if o.suffix != "" {
		return prefix + "_" + o.suffix
	}
	return prefix
}
