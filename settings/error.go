package settings

import (
	"github.com/parleyhq/parley/kit/platform/errors"
)

var (
	// ErrSearchSettingsNotFound is used when a tenant has no stored search
	// settings.
	ErrSearchSettingsNotFound = &errors.Error{
		Code: errors.ENotFound,
		Msg:  "search settings not found",
	}

	// ErrUserSettingsNotFound is used when a user never stored preferences.
	ErrUserSettingsNotFound = &errors.Error{
		Code: errors.ENotFound,
		Msg:  "user settings not found",
	}
)

// InvalidIDError is used when a settings key fails to encode.
func InvalidIDError(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EInvalid,
		Msg:  "id provided is invalid",
		Err:  err,
	}
}

// ErrCorruptSearchSettings is used when stored search settings cannot be
// unmarshalled.
func ErrCorruptSearchSettings(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EInternal,
		Msg:  "search settings could not be unmarshalled",
		Err:  err,
		Op:   "kv/unmarshalSearchSettings",
	}
}

// ErrCorruptUserSettings is used when stored user settings cannot be
// unmarshalled.
func ErrCorruptUserSettings(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EInternal,
		Msg:  "user settings could not be unmarshalled",
		Err:  err,
		Op:   "kv/unmarshalUserSettings",
	}
}

// ErrUnprocessableSettings is used when settings cannot be marshalled into
// bytes to be stored in the kv.
func ErrUnprocessableSettings(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EUnprocessableEntity,
		Msg:  "settings could not be marshalled",
		Err:  err,
		Op:   "kv/marshalSettings",
	}
}
