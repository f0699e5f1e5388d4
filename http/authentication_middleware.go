package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/parleyhq/parley"
	pcontext "github.com/parleyhq/parley/context"
	"github.com/parleyhq/parley/kit/platform/errors"
	"github.com/parleyhq/parley/session"
	"go.uber.org/zap"
)

// AuthenticationHandler is a middleware for authenticating incoming requests.
// It rejects any request without a valid session before the wrapped handler
// runs.
type AuthenticationHandler struct {
	errors.HTTPErrorHandler
	log *zap.Logger

	SessionService       parley.SessionService
	UserService          parley.UserService
	SessionRenewDisabled bool

	// This is only really used for its lookup method, the specific http
	// handler used to register routes does not matter.
	noAuthRouter chi.Router

	Handler http.Handler
}

var _ http.Handler = (*AuthenticationHandler)(nil)

// NewAuthenticationHandler creates an authentication handler.
func NewAuthenticationHandler(log *zap.Logger, h errors.HTTPErrorHandler) *AuthenticationHandler {
	return &AuthenticationHandler{
		log:              log,
		HTTPErrorHandler: h,
		Handler:          http.DefaultServeMux,
		noAuthRouter:     chi.NewRouter(),
	}
}

// RegisterNoAuthRoute excludes routes from needing authentication.
func (h *AuthenticationHandler) RegisterNoAuthRoute(method, path string) {
	// the handler specified here does not matter.
	h.noAuthRouter.MethodFunc(method, path, func(w http.ResponseWriter, r *http.Request) {})
}

// ServeHTTP extracts the session from the http request and places the
// resulting authorizer on the request context.
func (h *AuthenticationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.noAuthRouteMatches(r) {
		h.Handler.ServeHTTP(w, r)
		return
	}

	ctx := r.Context()

	auth, err := h.extractSession(ctx, r)
	if err != nil {
		h.unauthorized(ctx, w, err)
		return
	}

	if err := h.isUserActive(ctx, auth); err != nil {
		h.HandleHTTPError(ctx, &errors.Error{
			Code: errors.EForbidden,
			Msg:  "user is inactive",
		}, w)
		return
	}

	ctx = pcontext.SetAuthorizer(ctx, auth)

	r = r.WithContext(ctx)
	h.Handler.ServeHTTP(w, r)
}

func (h *AuthenticationHandler) noAuthRouteMatches(r *http.Request) bool {
	rctx := chi.NewRouteContext()
	return h.noAuthRouter.Match(rctx, r.Method, r.URL.Path)
}

func (h *AuthenticationHandler) unauthorized(ctx context.Context, w http.ResponseWriter, err error) {
	h.log.Info("unauthorized request", zap.Error(err))
	h.HandleHTTPError(ctx, &errors.Error{
		Code: errors.EUnauthorized,
		Msg:  "unauthorized access",
	}, w)
}

func (h *AuthenticationHandler) isUserActive(ctx context.Context, auth parley.Authorizer) error {
	u, err := h.UserService.FindUserByID(ctx, auth.GetUserID())
	if err != nil {
		return err
	}

	if u.Status != parley.UserStatusInactive {
		return nil
	}

	return &errors.Error{Code: errors.EForbidden, Msg: "user is inactive"}
}

func (h *AuthenticationHandler) extractSession(ctx context.Context, r *http.Request) (*parley.Session, error) {
	k, err := session.DecodeCookieSession(ctx, r)
	if err != nil {
		return nil, err
	}

	s, err := h.SessionService.FindSession(ctx, k)
	if err != nil {
		return nil, err
	}

	if !h.SessionRenewDisabled {
		// if the session is not expired, renew the session
		if err := h.SessionService.RenewSession(ctx, s, time.Now().Add(parley.RenewSessionTime)); err != nil {
			return nil, err
		}
	}

	return s, nil
}
