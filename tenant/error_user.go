package tenant

import (
	"fmt"

	"github.com/parleyhq/parley/kit/platform/errors"
)

var (
	// ErrUserNotFound is used when the user is not found.
	ErrUserNotFound = &errors.Error{
		Msg:  "user not found",
		Code: errors.ENotFound,
	}

	// EIncorrectPassword is returned when any password operation fails in which
	// we do not want to leak information.
	EIncorrectPassword = &errors.Error{
		Code: errors.EForbidden,
		Msg:  "your username or password is incorrect",
	}

	// EIncorrectUser is returned when a password operation names a user that
	// does not exist.
	EIncorrectUser = &errors.Error{
		Code: errors.EForbidden,
		Msg:  "your userID is incorrect",
	}

	// EShortPassword is used when a password is less than the minimum
	// acceptable password length.
	EShortPassword = &errors.Error{
		Code: errors.EInvalid,
		Msg:  "passwords must be at least 8 characters long",
	}
)

// UserAlreadyExistsError is used when attempting to create a user with a name
// that already exists.
func UserAlreadyExistsError(n string) error {
	return &errors.Error{
		Code: errors.EConflict,
		Msg:  fmt.Sprintf("user with name %s already exists", n),
	}
}

// ErrCorruptUser is used when the user cannot be unmarshalled from the bytes
// stored in the kv.
func ErrCorruptUser(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EInternal,
		Msg:  "user could not be unmarshalled",
		Err:  err,
		Op:   "kv/unmarshalUser",
	}
}

// ErrUnprocessableUser is used when a user cannot be marshalled into bytes to
// be stored in the kv.
func ErrUnprocessableUser(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EUnprocessableEntity,
		Msg:  "user could not be marshalled",
		Err:  err,
		Op:   "kv/marshalUser",
	}
}

// InvalidUserIDError is used when a user ID fails to encode.
func InvalidUserIDError(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EInvalid,
		Msg:  "user id provided is invalid",
		Err:  err,
	}
}
