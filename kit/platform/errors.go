package platform

import (
	"github.com/parleyhq/parley/kit/platform/errors"
)

var (
	// ErrInvalidID signifies invalid IDs.
	ErrInvalidID = &errors.Error{
		Code: errors.EInvalid,
		Msg:  "invalid ID",
	}

	// ErrInvalidIDLength is returned when an ID has the incorrect number of bytes.
	ErrInvalidIDLength = &errors.Error{
		Code: errors.EInvalid,
		Msg:  "id must have a length of 16 bytes",
	}
)

// ErrCorruptID means the ID stored in the Store is corrupt.
func ErrCorruptID(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EInvalid,
		Msg:  "corrupt ID provided",
		Err:  err,
	}
}
