package parley

import (
	"context"
	"time"

	"github.com/parleyhq/parley/kit/platform"
	"github.com/parleyhq/parley/kit/platform/errors"
)

// ErrSessionNotFound is the error messages for a missing sessions.
const ErrSessionNotFound = "session not found"

// ErrSessionExpired is the error message for expired sessions.
const ErrSessionExpired = "session has expired"

// RenewSessionTime is the time to extend session, currently set to 5min.
var RenewSessionTime = time.Duration(time.Second * 300)

// DefaultSessionLength is the default session length on initial creation.
var DefaultSessionLength = time.Hour

// Operation names for session operations, used in errors.
const (
	OpFindSession   = "FindSession"
	OpExpireSession = "ExpireSession"
	OpCreateSession = "CreateSession"
	OpRenewSession  = "RenewSession"
)

// SessionAuthorizerKind defines the type of authorizer.
const SessionAuthorizerKind = "session"

// Authorizer is the interface for the resolved identity of a request.
type Authorizer interface {
	// Kind returns the kind of authorizer and is used for auditing.
	Kind() string
	// Identifier returns the identifier of the authorizer and is used for auditing.
	Identifier() platform.ID
	// GetUserID returns the user id of the authorizer.
	GetUserID() platform.ID
}

// Session is a user session.
type Session struct {
	// ID is only required for auditing purposes.
	ID        platform.ID `json:"id"`
	Key       string      `json:"key"`
	CreatedAt time.Time   `json:"createdAt"`
	ExpiresAt time.Time   `json:"expiresAt"`
	UserID    platform.ID `json:"userID,omitempty"`
}

// Expired returns an error if the session is expired.
func (s *Session) Expired() error {
	if time.Now().After(s.ExpiresAt) {
		return &errors.Error{
			Code: errors.EForbidden,
			Msg:  ErrSessionExpired,
		}
	}

	return nil
}

// Kind returns session and is used for auditing.
func (s *Session) Kind() string { return SessionAuthorizerKind }

// Identifier returns the sessions ID and is used for auditing.
func (s *Session) Identifier() platform.ID { return s.ID }

// GetUserID returns the user id.
func (s *Session) GetUserID() platform.ID {
	return s.UserID
}

// SessionService represents a service for managing user sessions.
type SessionService interface {
	FindSession(ctx context.Context, key string) (*Session, error)
	ExpireSession(ctx context.Context, key string) error
	CreateSession(ctx context.Context, user string) (*Session, error)
	RenewSession(ctx context.Context, session *Session, newExpiration time.Time) error
}

// TokenGenerator represents a generator for opaque session keys.
type TokenGenerator interface {
	// Token generates a new unique token.
	Token() (string, error)
}
