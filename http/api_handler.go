package http

import (
	"net/http"

	"github.com/go-chi/chi"
	chimiddleware "github.com/go-chi/chi/middleware"
	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/chat"
	"github.com/parleyhq/parley/kit/platform/errors"
	"github.com/parleyhq/parley/session"
	"github.com/parleyhq/parley/settings"
	"github.com/parleyhq/parley/tenant"
	"go.uber.org/zap"
)

// APIBackend carries everything the API handlers need.
type APIBackend struct {
	Logger *zap.Logger

	HTTPErrorHandler     errors.HTTPErrorHandler
	SessionRenewDisabled bool

	SessionService      parley.SessionService
	UserService         parley.UserService
	PasswordsService    parley.PasswordsService
	TenantService       parley.TenantService
	ProfileService      parley.ProfileService
	SetupService        parley.SetupService
	SettingsService     *settings.Service
	ConversationService parley.ConversationService
}

// ResourceHandler is an HTTP handler for a resource. The prefix
// describes the url path prefix that relates to the handler endpoints.
type ResourceHandler interface {
	Prefix() string
	http.Handler
}

// APIHandler is the root of the /api surface. Every route it serves sits
// behind the session guard except the ones registered as no-auth.
type APIHandler struct {
	chi.Router
}

// NewAPIHandler builds the handler tree for the api.
func NewAPIHandler(b *APIBackend) *APIHandler {
	h := &APIHandler{}

	sessionHandler := session.NewSessionHandler(b.Logger.With(zap.String("handler", "session")), b.SessionService, b.UserService, b.PasswordsService)

	userHandler := tenant.NewHTTPUserHandler(b.Logger.With(zap.String("handler", "user")), b.UserService, b.PasswordsService)
	setupHandler := tenant.NewHTTPSetupHandler(b.Logger.With(zap.String("handler", "setup")), b.SetupService)
	tenantHandler := tenant.NewHTTPTenantHandler(b.Logger.With(zap.String("handler", "tenant")), b.TenantService, b.UserService, b.ProfileService)
	settingsHandler := settings.NewHTTPSettingsHandler(b.Logger.With(zap.String("handler", "settings")), b.SettingsService)
	chatHandler := chat.NewHTTPChatHandler(b.Logger.With(zap.String("handler", "chat")), b.ConversationService)

	r := chi.NewRouter()
	r.Use(
		chimiddleware.Recoverer,
		chimiddleware.RequestID,
		chimiddleware.RealIP,
	)

	auth := NewAuthenticationHandler(b.Logger, b.HTTPErrorHandler)
	auth.SessionService = b.SessionService
	auth.UserService = b.UserService
	auth.SessionRenewDisabled = b.SessionRenewDisabled

	// signup and signin happen before a session exists
	auth.RegisterNoAuthRoute("POST", "/api/v1/users")
	auth.RegisterNoAuthRoute("POST", "/api/v1/signin")

	inner := chi.NewRouter()
	for _, handler := range []ResourceHandler{
		sessionHandler.SignInResourceHandler(),
		sessionHandler.SignOutResourceHandler(),
		userHandler,
		setupHandler,
		tenantHandler,
		settingsHandler,
		chatHandler,
	} {
		inner.Mount(handler.Prefix(), handler)
	}

	auth.Handler = inner
	r.Mount("/", auth)

	h.Router = r
	return h
}
