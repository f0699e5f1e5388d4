package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/parleyhq/parley/kit/platform/errors"
)

// PlatformErrorCodeHeader shows the error code of platform error.
const PlatformErrorCodeHeader = "X-Platform-Error-Code"

// ErrorHandler is the error handler in http package.
type ErrorHandler int

// NewErrorHandler returns a new ErrorHandler.
func NewErrorHandler() ErrorHandler {
	return 0
}

// HandleHTTPError encodes err with the appropriate status code and format,
// sets the X-Platform-Error-Code header on the response and sets the
// response status to the corresponding status code.
func (h ErrorHandler) HandleHTTPError(ctx context.Context, err error, w http.ResponseWriter) {
	if err == nil {
		return
	}

	code := errors.ErrorCode(err)
	httpCode, ok := statusCodePlatformError[code]
	if !ok {
		httpCode = http.StatusBadRequest
	}
	w.Header().Set(PlatformErrorCodeHeader, code)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(httpCode)
	var e struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	e.Code = code
	if err, ok := err.(*errors.Error); ok {
		e.Message = err.Error()
	} else {
		e.Message = "An internal error has occurred"
	}
	b, _ := json.Marshal(e)
	_, _ = w.Write(b)
}

// StatusCodeForError returns the HTTP status code associated with the
// platform code of err.
func StatusCodeForError(err error) int {
	httpCode, ok := statusCodePlatformError[errors.ErrorCode(err)]
	if !ok {
		httpCode = http.StatusBadRequest
	}
	return httpCode
}

// statusCodePlatformError converts platform error codes to HTTP status codes.
var statusCodePlatformError = map[string]int{
	errors.EInternal:            http.StatusInternalServerError,
	errors.ENotImplemented:      http.StatusNotImplemented,
	errors.EInvalid:             http.StatusBadRequest,
	errors.EUnprocessableEntity: http.StatusUnprocessableEntity,
	errors.EEmptyValue:          http.StatusBadRequest,
	errors.EConflict:            http.StatusConflict,
	errors.ENotFound:            http.StatusNotFound,
	errors.EUnavailable:         http.StatusServiceUnavailable,
	errors.EForbidden:           http.StatusForbidden,
	errors.ETooManyRequests:     http.StatusTooManyRequests,
	errors.EUnauthorized:        http.StatusUnauthorized,
	errors.EMethodNotAllowed:    http.StatusMethodNotAllowed,
	errors.ETooLarge:            http.StatusRequestEntityTooLarge,
}
