package tenant

import (
	"context"
	"fmt"
	"time"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/kit/platform"
	"go.uber.org/zap"
)

type TenantLogger struct {
	logger    *zap.Logger
	tenantSvc parley.TenantService
}

// NewTenantLogger returns a logging service middleware for the Tenant Service.
func NewTenantLogger(log *zap.Logger, s parley.TenantService) *TenantLogger {
	return &TenantLogger{
		logger:    log,
		tenantSvc: s,
	}
}

var _ parley.TenantService = (*TenantLogger)(nil)

func (l *TenantLogger) FindTenantByID(ctx context.Context, id platform.ID) (t *parley.Tenant, err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			msg := fmt.Sprintf("failed to find tenant with ID %v", id)
			l.logger.Debug(msg, zap.Error(err), dur)
			return
		}
		l.logger.Debug("tenant find by ID", dur)
	}(time.Now())
	return l.tenantSvc.FindTenantByID(ctx, id)
}

func (l *TenantLogger) FindTenant(ctx context.Context, filter parley.TenantFilter) (t *parley.Tenant, err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			l.logger.Debug("failed to find tenant matching the given filter", zap.Error(err), dur)
			return
		}
		l.logger.Debug("tenant find", dur)
	}(time.Now())
	return l.tenantSvc.FindTenant(ctx, filter)
}

func (l *TenantLogger) FindTenants(ctx context.Context, filter parley.TenantFilter, opt ...parley.FindOptions) (ts []*parley.Tenant, n int, err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			l.logger.Debug("failed to find tenants matching the given filter", zap.Error(err), dur)
			return
		}
		l.logger.Debug("tenants find", dur)
	}(time.Now())
	return l.tenantSvc.FindTenants(ctx, filter, opt...)
}

func (l *TenantLogger) CreateTenant(ctx context.Context, t *parley.Tenant) (err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			l.logger.Debug("failed to create tenant", zap.Error(err), dur)
			return
		}
		l.logger.Debug("tenant create", dur)
	}(time.Now())
	return l.tenantSvc.CreateTenant(ctx, t)
}

func (l *TenantLogger) UpdateTenant(ctx context.Context, id platform.ID, upd parley.TenantUpdate) (t *parley.Tenant, err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			msg := fmt.Sprintf("failed to update tenant with ID %v", id)
			l.logger.Debug(msg, zap.Error(err), dur)
			return
		}
		l.logger.Debug("tenant update", dur)
	}(time.Now())
	return l.tenantSvc.UpdateTenant(ctx, id, upd)
}

func (l *TenantLogger) DeleteTenant(ctx context.Context, id platform.ID) (err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			msg := fmt.Sprintf("failed to delete tenant with ID %v", id)
			l.logger.Debug(msg, zap.Error(err), dur)
			return
		}
		l.logger.Debug("tenant delete", dur)
	}(time.Now())
	return l.tenantSvc.DeleteTenant(ctx, id)
}
