package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/parleyhq/parley/kit/platform/errors"
	"go.uber.org/zap"
)

// API provides a consolidated means for handling API interface concerns.
// Concerns such as decoding/encoding request and response bodies as well
// as adding headers for content type and content encoding.
type API struct {
	logger *zap.Logger

	prettyJSON bool
	encodeGZIP bool

	unmarshalErrFn func(encoding string, err error) error
	okErrFn        func(err error) error
	errFn          func(ctx context.Context, err error) (interface{}, int, error)
}

// APIOptFn is a functional option for setting fields on the API type.
type APIOptFn func(*API)

// WithLog sets the logger.
func WithLog(logger *zap.Logger) APIOptFn {
	return func(api *API) {
		api.logger = logger
	}
}

// WithErrFn sets the err handling func for issues when writing to the response body.
func WithErrFn(fn func(ctx context.Context, err error) (interface{}, int, error)) APIOptFn {
	return func(api *API) {
		api.errFn = fn
	}
}

// WithOKErrFn is an error handler for failing validation for request bodies.
func WithOKErrFn(fn func(err error) error) APIOptFn {
	return func(api *API) {
		api.okErrFn = fn
	}
}

// WithPrettyJSON sets the json encoder to marshal indent or not.
func WithPrettyJSON(b bool) APIOptFn {
	return func(api *API) {
		api.prettyJSON = b
	}
}

// WithUnmarshalErrFn sets the error handler for errors that occur when unmarshalling
// the request body.
func WithUnmarshalErrFn(fn func(encoding string, err error) error) APIOptFn {
	return func(api *API) {
		api.unmarshalErrFn = fn
	}
}

// NewAPI creates a new API type.
func NewAPI(opts ...APIOptFn) *API {
	api := API{
		logger:     zap.NewNop(),
		prettyJSON: true,
		unmarshalErrFn: func(encoding string, err error) error {
			return &errors.Error{
				Code: errors.EInvalid,
				Msg:  "failed to unmarshal " + encoding + ": " + err.Error(),
			}
		},
		errFn: func(ctx context.Context, err error) (interface{}, int, error) {
			msg := err.Error()
			if msg == "" {
				msg = "an internal error has occurred"
			}
			code := errors.ErrorCode(err)
			return ErrBody{
				Code: code,
				Msg:  msg,
			}, StatusCodeForError(err), nil
		},
	}
	for _, o := range opts {
		o(&api)
	}
	return &api
}

// DecodeJSON decodes reader with json.
func (a *API) DecodeJSON(r io.Reader, v interface{}) error {
	return a.decode("json", json.NewDecoder(r), v)
}

type (
	decoder interface {
		Decode(interface{}) error
	}

	oker interface {
		OK() error
	}
)

func (a *API) decode(encoding string, dec decoder, v interface{}) error {
	if err := dec.Decode(v); err != nil {
		if a != nil && a.unmarshalErrFn != nil {
			return a.unmarshalErrFn(encoding, err)
		}
		return err
	}

	if vv, ok := v.(oker); ok {
		err := vv.OK()
		if a != nil && a.okErrFn != nil {
			return a.okErrFn(err)
		}
		return err
	}

	return nil
}

// Respond writes to the response writer, handling all errors in writing.
func (a *API) Respond(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	var writer io.WriteCloser = noopCloser{Writer: w}
	// we'll double close to make sure its always closed even
	// if there are no errors
	defer func() {
		_ = writer.Close()
	}()

	var b []byte
	if v != nil {
		var err error
		b, err = a.marshalJSON(v)
		if err != nil {
			a.Err(w, r, &errors.Error{
				Code: errors.EInternal,
				Err:  err,
			})
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}

	w.WriteHeader(status)

	if _, err := writer.Write(b); err != nil {
		a.logErr("failed to write response body", r, err)
		return
	}

	if err := writer.Close(); err != nil {
		a.logErr("failed to close response writer", r, err)
	}
}

// Err writes an error to the response writer.
func (a *API) Err(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	a.logErr("api error encountered", r, err)

	v, status, err := a.errFn(r.Context(), err)
	if err != nil {
		a.logErr("failed to write err to response writer", r, err)
		a.Respond(w, r, http.StatusInternalServerError, ErrBody{
			Code: "internal error",
			Msg:  "an unexpected error occurred",
		})
		return
	}

	if eb, ok := v.(ErrBody); ok {
		w.Header().Set(PlatformErrorCodeHeader, eb.Code)
	}

	a.Respond(w, r, status, v)
}

func (a *API) marshalJSON(v interface{}) ([]byte, error) {
	if !a.prettyJSON {
		return json.Marshal(v)
	}
	return json.MarshalIndent(v, "", "\t")
}

func (a *API) logErr(msg string, r *http.Request, err error) {
	if a == nil || a.logger == nil {
		return
	}

	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	}
	a.logger.Error(msg, fields...)
}

// ErrBody is an err response body.
type ErrBody struct {
	Code string `json:"code"`
	Msg  string `json:"message"`
}

type noopCloser struct {
	io.Writer
}

func (n noopCloser) Close() error {
	return nil
}
