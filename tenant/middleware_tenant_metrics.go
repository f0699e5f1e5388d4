package tenant

import (
	"context"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/kit/metric"
	"github.com/parleyhq/parley/kit/platform"
	"github.com/prometheus/client_golang/prometheus"
)

var _ parley.TenantService = (*TenantMetrics)(nil)

type TenantMetrics struct {
	// RED metrics
	rec *metric.REDClient

	tenantSvc parley.TenantService
}

// NewTenantMetrics returns a metrics service middleware for the Tenant Service.
func NewTenantMetrics(reg prometheus.Registerer, s parley.TenantService, opts ...metric.ClientOptFn) *TenantMetrics {
	o := metric.ApplyMetricOpts(opts...)
	return &TenantMetrics{
		rec:       metric.New(reg, o.ApplySuffix("tenant")),
		tenantSvc: s,
	}
}

func (m *TenantMetrics) FindTenantByID(ctx context.Context, id platform.ID) (*parley.Tenant, error) {
	rec := m.rec.Record("find_tenant_by_id")
	t, err := m.tenantSvc.FindTenantByID(ctx, id)
	return t, rec(err)
}

func (m *TenantMetrics) FindTenant(ctx context.Context, filter parley.TenantFilter) (*parley.Tenant, error) {
	rec := m.rec.Record("find_tenant")
	t, err := m.tenantSvc.FindTenant(ctx, filter)
	return t, rec(err)
}

func (m *TenantMetrics) FindTenants(ctx context.Context, filter parley.TenantFilter, opt ...parley.FindOptions) ([]*parley.Tenant, int, error) {
	rec := m.rec.Record("find_tenants")
	ts, n, err := m.tenantSvc.FindTenants(ctx, filter, opt...)
	return ts, n, rec(err)
}

func (m *TenantMetrics) CreateTenant(ctx context.Context, t *parley.Tenant) error {
	rec := m.rec.Record("create_tenant")
	err := m.tenantSvc.CreateTenant(ctx, t)
	return rec(err)
}

func (m *TenantMetrics) UpdateTenant(ctx context.Context, id platform.ID, upd parley.TenantUpdate) (*parley.Tenant, error) {
	rec := m.rec.Record("update_tenant")
	t, err := m.tenantSvc.UpdateTenant(ctx, id, upd)
	return t, rec(err)
}

func (m *TenantMetrics) DeleteTenant(ctx context.Context, id platform.ID) error {
	rec := m.rec.Record("delete_tenant")
	err := m.tenantSvc.DeleteTenant(ctx, id)
	return rec(err)
}

var _ parley.UserService = (*UserMetrics)(nil)

type UserMetrics struct {
	// RED metrics
	rec *metric.REDClient

	userSvc parley.UserService
}

// NewUserMetrics returns a metrics service middleware for the User Service.
func NewUserMetrics(reg prometheus.Registerer, s parley.UserService, opts ...metric.ClientOptFn) *UserMetrics {
	o := metric.ApplyMetricOpts(opts...)
	return &UserMetrics{
		rec:     metric.New(reg, o.ApplySuffix("user")),
		userSvc: s,
	}
}

func (m *UserMetrics) FindUserByID(ctx context.Context, id platform.ID) (*parley.User, error) {
	rec := m.rec.Record("find_user_by_id")
	u, err := m.userSvc.FindUserByID(ctx, id)
	return u, rec(err)
}

func (m *UserMetrics) FindUser(ctx context.Context, filter parley.UserFilter) (*parley.User, error) {
	rec := m.rec.Record("find_user")
	u, err := m.userSvc.FindUser(ctx, filter)
	return u, rec(err)
}

func (m *UserMetrics) FindUsers(ctx context.Context, filter parley.UserFilter, opt ...parley.FindOptions) ([]*parley.User, int, error) {
	rec := m.rec.Record("find_users")
	us, n, err := m.userSvc.FindUsers(ctx, filter, opt...)
	return us, n, rec(err)
}

func (m *UserMetrics) CreateUser(ctx context.Context, u *parley.User) error {
	rec := m.rec.Record("create_user")
	err := m.userSvc.CreateUser(ctx, u)
	return rec(err)
}

func (m *UserMetrics) UpdateUser(ctx context.Context, id platform.ID, upd parley.UserUpdate) (*parley.User, error) {
	rec := m.rec.Record("update_user")
	u, err := m.userSvc.UpdateUser(ctx, id, upd)
	return u, rec(err)
}

func (m *UserMetrics) DeleteUser(ctx context.Context, id platform.ID) error {
	rec := m.rec.Record("delete_user")
	err := m.userSvc.DeleteUser(ctx, id)
	return rec(err)
}

var _ parley.PasswordsService = (*PasswordMetrics)(nil)

type PasswordMetrics struct {
	// RED metrics
	rec *metric.REDClient

	pwdSvc parley.PasswordsService
}

// NewPasswordMetrics returns a metrics service middleware for the Password Service.
func NewPasswordMetrics(reg prometheus.Registerer, s parley.PasswordsService, opts ...metric.ClientOptFn) *PasswordMetrics {
	o := metric.ApplyMetricOpts(opts...)
	return &PasswordMetrics{
		rec:    metric.New(reg, o.ApplySuffix("password")),
		pwdSvc: s,
	}
}

func (m *PasswordMetrics) SetPassword(ctx context.Context, userID platform.ID, password string) error {
	rec := m.rec.Record("set_password")
	err := m.pwdSvc.SetPassword(ctx, userID, password)
	return rec(err)
}

func (m *PasswordMetrics) ComparePassword(ctx context.Context, userID platform.ID, password string) error {
	rec := m.rec.Record("compare_password")
	err := m.pwdSvc.ComparePassword(ctx, userID, password)
	return rec(err)
}

func (m *PasswordMetrics) CompareAndSetPassword(ctx context.Context, userID platform.ID, old, new string) error {
	rec := m.rec.Record("compare_and_set_password")
	err := m.pwdSvc.CompareAndSetPassword(ctx, userID, old, new)
	return rec(err)
}
