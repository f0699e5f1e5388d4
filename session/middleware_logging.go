package session

import (
	"context"
	"time"

	"github.com/parleyhq/parley"
	"go.uber.org/zap"
)

// SessionLogger is a logging middleware for the session service.
type SessionLogger struct {
	logger     *zap.Logger
	sessionSvc parley.SessionService
}

var _ parley.SessionService = (*SessionLogger)(nil)

// NewSessionLogger creates a new session logging middleware.
func NewSessionLogger(log *zap.Logger, s parley.SessionService) *SessionLogger {
	return &SessionLogger{
		logger:     log,
		sessionSvc: s,
	}
}

func (l *SessionLogger) FindSession(ctx context.Context, key string) (session *parley.Session, err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			l.logger.Debug("failed to find session", zap.Error(err), dur)
			return
		}
		l.logger.Debug("session find", dur)
	}(time.Now())
	return l.sessionSvc.FindSession(ctx, key)
}

func (l *SessionLogger) ExpireSession(ctx context.Context, key string) (err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			l.logger.Debug("failed to expire session", zap.Error(err), dur)
			return
		}
		l.logger.Debug("session expire", dur)
	}(time.Now())
	return l.sessionSvc.ExpireSession(ctx, key)
}

func (l *SessionLogger) CreateSession(ctx context.Context, user string) (s *parley.Session, err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			l.logger.Debug("failed to create session", zap.Error(err), dur)
			return
		}
		l.logger.Debug("session create", dur)
	}(time.Now())
	return l.sessionSvc.CreateSession(ctx, user)
}

func (l *SessionLogger) RenewSession(ctx context.Context, session *parley.Session, newExpiration time.Time) (err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			l.logger.Debug("failed to renew session", zap.Error(err), dur)
			return
		}
		l.logger.Debug("session renew", dur)
	}(time.Now())
	return l.sessionSvc.RenewSession(ctx, session, newExpiration)
}
