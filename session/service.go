package session

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/kit/platform"
	"github.com/parleyhq/parley/kit/platform/errors"
	"github.com/parleyhq/parley/rand"
	"github.com/parleyhq/parley/snowflake"
)

// Service implements the parley.SessionService interface and handles
// communication between sessions and the user service.
type Service struct {
	store         *Storage
	userService   parley.UserService
	sessionLength time.Duration

	idGen    platform.IDGenerator
	tokenGen parley.TokenGenerator
	clock    clock.Clock
}

// ServiceOption is a functional option for the session service.
type ServiceOption func(*Service)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c clock.Clock) ServiceOption {
	return func(s *Service) {
		s.clock = c
	}
}

// WithTokenGenerator replaces the session key generator.
func WithTokenGenerator(g parley.TokenGenerator) ServiceOption {
	return func(s *Service) {
		s.tokenGen = g
	}
}

// NewService creates a new session service.
func NewService(store *Storage, userService parley.UserService, sessionLength time.Duration, opts ...ServiceOption) *Service {
	if sessionLength <= 0 {
		sessionLength = parley.DefaultSessionLength
	}
	s := &Service{
		store:         store,
		userService:   userService,
		sessionLength: sessionLength,
		idGen:         snowflake.NewIDGenerator(),
		tokenGen:      rand.NewTokenGenerator(64),
		clock:         clock.New(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// FindSession finds a session based on the session key. Expired sessions are
// removed and reported as not found.
func (s *Service) FindSession(ctx context.Context, key string) (*parley.Session, error) {
	session, err := s.store.FindSessionByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	if s.clock.Now().After(session.ExpiresAt) {
		_ = s.store.DeleteSession(ctx, key)
		return nil, ErrSessionExpired
	}

	return session, nil
}

// ExpireSession removes a session from the system.
func (s *Service) ExpireSession(ctx context.Context, key string) error {
	return s.store.DeleteSession(ctx, key)
}

// CreateSession creates a session for the named user.
func (s *Service) CreateSession(ctx context.Context, user string) (*parley.Session, error) {
	u, err := s.userService.FindUser(ctx, parley.UserFilter{
		Name: &user,
	})
	if err != nil {
		return nil, err
	}

	token, err := s.tokenGen.Token()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	session := &parley.Session{
		ID:        s.idGen.ID(),
		Key:       token,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionLength),
		UserID:    u.ID,
	}

	return session, s.store.CreateSession(ctx, session)
}

// RenewSession updates the session's expiration time.
func (s *Service) RenewSession(ctx context.Context, session *parley.Session, newExpiration time.Time) error {
	if session == nil {
		return &errors.Error{
			Code: errors.EInternal,
			Msg:  "session is nil",
		}
	}
	return s.store.RefreshSession(ctx, session.Key, newExpiration)
}
