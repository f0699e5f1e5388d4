package tenant

import (
	"github.com/parleyhq/parley/kit/platform/errors"
)

var (
	// ErrNameisEmpty is when a name is empty after trimming whitespace.
	ErrNameisEmpty = &errors.Error{
		Code: errors.EInvalid,
		Msg:  "name is empty",
	}

	// NotUniqueIDError is used when attempting to create a resource under an
	// ID that already exists.
	NotUniqueIDError = &errors.Error{
		Code: errors.EConflict,
		Msg:  "ID already exists",
	}

	// ErrFailureGeneratingID occurs only when the random number generator
	// cannot generate an ID in MaxIDGenerationN times.
	ErrFailureGeneratingID = &errors.Error{
		Code: errors.EInternal,
		Msg:  "unable to generate valid id",
	}
)

// ErrInternalServiceError is used when the error comes from an internal system.
func ErrInternalServiceError(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EInternal,
		Err:  err,
	}
}
