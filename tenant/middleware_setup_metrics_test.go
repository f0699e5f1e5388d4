package tenant_test

import (
	"context"
	"testing"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/inmem"
	"github.com/parleyhq/parley/kit/prom/promtest"
	"github.com/parleyhq/parley/tenant"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupMetrics_Record(t *testing.T) {
	store := tenant.NewStore(inmem.NewKVStore())
	reg := prometheus.NewRegistry()
	svc := tenant.NewSetupMetrics(reg, tenant.NewSetupSvc(store))

	ctx := context.Background()
	u := &parley.User{Name: "ada"}
	require.NoError(t, tenant.NewUserSvc(store).CreateUser(ctx, u))

	_, err := svc.Setup(ctx, &parley.SetupRequest{Name: "Acme", UserID: u.ID})
	require.NoError(t, err)

	// a blank name is rejected and recorded as an error
	_, err = svc.Setup(ctx, &parley.SetupRequest{Name: "   ", UserID: u.ID})
	require.Error(t, err)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	calls := promtest.MustFindMetric(t, mfs, "service_setup_call_total", map[string]string{
		"method": "setup",
	})
	assert.Equal(t, float64(2), calls.GetCounter().GetValue())

	errs := promtest.MustFindMetric(t, mfs, "service_setup_error_total", map[string]string{
		"method": "setup",
		"code":   "invalid",
	})
	assert.Equal(t, float64(1), errs.GetCounter().GetValue())
}
