package session

import (
	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/kit/platform/errors"
)

var (
	// ErrUnauthorized when a session request is unauthorized
	// usually due to password mismatch or missing session.
	ErrUnauthorized = &errors.Error{
		Code: errors.EUnauthorized,
		Msg:  "unauthorized access",
	}

	// ErrSessionNotFound is used when a lookup misses or the session has
	// already been removed.
	ErrSessionNotFound = &errors.Error{
		Code: errors.ENotFound,
		Msg:  parley.ErrSessionNotFound,
	}

	// ErrSessionExpired is used when the session exists but its expiry has
	// passed.
	ErrSessionExpired = &errors.Error{
		Code: errors.EForbidden,
		Msg:  parley.ErrSessionExpired,
	}
)

// ErrCorruptSession is used when the session cannot be unmarshalled from the
// bytes stored in the kv.
func ErrCorruptSession(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EInternal,
		Msg:  "session could not be unmarshalled",
		Err:  err,
		Op:   "kv/unmarshalSession",
	}
}

// ErrUnprocessableSession is used when a session cannot be marshalled into
// bytes to be stored in the kv.
func ErrUnprocessableSession(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EUnprocessableEntity,
		Msg:  "session could not be marshalled",
		Err:  err,
		Op:   "kv/marshalSession",
	}
}
