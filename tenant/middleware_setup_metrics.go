package tenant

import (
	"context"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/kit/metric"
	"github.com/prometheus/client_golang/prometheus"
)

var _ parley.SetupService = (*SetupMetrics)(nil)

type SetupMetrics struct {
	// RED metrics
	rec *metric.REDClient

	setupSvc parley.SetupService
}

// NewSetupMetrics returns a metrics service middleware for the Setup Service.
func NewSetupMetrics(reg prometheus.Registerer, s parley.SetupService, opts ...metric.ClientOptFn) *SetupMetrics {
	o := metric.ApplyMetricOpts(opts...)
	return &SetupMetrics{
		rec:      metric.New(reg, o.ApplySuffix("setup")),
		setupSvc: s,
	}
}

func (m *SetupMetrics) Setup(ctx context.Context, req *parley.SetupRequest) (*parley.SetupResults, error) {
	rec := m.rec.Record("setup")
	res, err := m.setupSvc.Setup(ctx, req)
	return res, rec(err)
}
