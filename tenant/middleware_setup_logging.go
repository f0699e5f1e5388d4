package tenant

import (
	"context"
	"fmt"
	"time"

	"github.com/parleyhq/parley"
	"go.uber.org/zap"
)

type SetupLogger struct {
	logger   *zap.Logger
	setupSvc parley.SetupService
}

// NewSetupLogger returns a logging service middleware for the Setup Service.
func NewSetupLogger(log *zap.Logger, s parley.SetupService) *SetupLogger {
	return &SetupLogger{
		logger:   log,
		setupSvc: s,
	}
}

var _ parley.SetupService = (*SetupLogger)(nil)

func (l *SetupLogger) Setup(ctx context.Context, req *parley.SetupRequest) (res *parley.SetupResults, err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			msg := fmt.Sprintf("failed to provision tenant for user %s", req.UserID)
			l.logger.Debug(msg, zap.Error(err), dur)
			return
		}
		l.logger.Debug("tenant provisioned", zap.Stringer("tenant_id", res.Tenant.ID), dur)
	}(time.Now())
	return l.setupSvc.Setup(ctx, req)
}
