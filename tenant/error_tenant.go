package tenant

import (
	"fmt"

	"github.com/parleyhq/parley/kit/platform/errors"
)

var (
	// ErrTenantNotFound is used when the tenant is not found.
	ErrTenantNotFound = &errors.Error{
		Msg:  "tenant not found",
		Code: errors.ENotFound,
	}

	// ErrInvalidTenantFilter is used when a tenant lookup has neither an ID
	// nor a slug to go on.
	ErrInvalidTenantFilter = &errors.Error{
		Code: errors.EInvalid,
		Msg:  "filter requires either an ID or a slug",
	}
)

// TenantAlreadyExistsError is used when creating a tenant whose slug
// collides with an existing one.
func TenantAlreadyExistsError(slug string) error {
	return &errors.Error{
		Code: errors.EConflict,
		Msg:  fmt.Sprintf("tenant with slug %s already exists", slug),
	}
}

// ErrCorruptTenant is used when the tenant cannot be unmarshalled from the bytes
// stored in the kv.
func ErrCorruptTenant(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EInternal,
		Msg:  "tenant could not be unmarshalled",
		Err:  err,
		Op:   "kv/unmarshalTenant",
	}
}

// ErrUnprocessableTenant is used when a tenant cannot be marshalled into
// bytes to be stored in the kv.
func ErrUnprocessableTenant(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EUnprocessableEntity,
		Msg:  "tenant could not be marshalled",
		Err:  err,
		Op:   "kv/marshalTenant",
	}
}

// InvalidTenantIDError is used when a tenant ID fails to encode.
func InvalidTenantIDError(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EInvalid,
		Msg:  "tenant id provided is invalid",
		Err:  err,
	}
}
