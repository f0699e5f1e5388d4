package tenant

import (
	"github.com/parleyhq/parley/kit/platform/errors"
)

var (
	// ErrProfileNotFound is used when the profile is not found.
	ErrProfileNotFound = &errors.Error{
		Msg:  "profile not found",
		Code: errors.ENotFound,
	}

	// ErrProfileAlreadyExists is used when the user already holds a profile
	// in the tenant.
	ErrProfileAlreadyExists = &errors.Error{
		Code: errors.EConflict,
		Msg:  "user already has a profile in this tenant",
	}

	// ErrProfileFilterMissing is used when a profile listing has no usable
	// filter field.
	ErrProfileFilterMissing = &errors.Error{
		Code: errors.EInvalid,
		Msg:  "filter requires an ID or a user ID",
	}
)

// ErrCorruptProfile is used when the profile cannot be unmarshalled from the
// bytes stored in the kv.
func ErrCorruptProfile(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EInternal,
		Msg:  "profile could not be unmarshalled",
		Err:  err,
		Op:   "kv/unmarshalProfile",
	}
}

// InvalidProfileIDError is used when a profile ID fails to encode.
func InvalidProfileIDError(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EInvalid,
		Msg:  "profile id provided is invalid",
		Err:  err,
	}
}

// ErrUnprocessableProfile is used when a profile cannot be marshalled into
// bytes to be stored in the kv.
func ErrUnprocessableProfile(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EUnprocessableEntity,
		Msg:  "profile could not be marshalled",
		Err:  err,
		Op:   "kv/marshalProfile",
	}
}
