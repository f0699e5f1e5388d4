package tenant

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/parleyhq/parley"
	pcontext "github.com/parleyhq/parley/context"
	"github.com/parleyhq/parley/kit/platform"
	"github.com/parleyhq/parley/kit/platform/errors"
	kithttp "github.com/parleyhq/parley/kit/transport/http"
	"go.uber.org/zap"
)

// SetupHandler is the HTTP API for provisioning a tenant for the caller.
type SetupHandler struct {
	chi.Router
	api *kithttp.API
	log *zap.Logger

	setupSvc parley.SetupService
}

const prefixSetup = "/api/v1/setup"

// Prefix returns the mount point of the setup handler.
func (h *SetupHandler) Prefix() string {
	return prefixSetup
}

// NewHTTPSetupHandler constructs a new http server.
func NewHTTPSetupHandler(log *zap.Logger, setupSvc parley.SetupService) *SetupHandler {
	svr := &SetupHandler{
		api:      kithttp.NewAPI(kithttp.WithLog(log)),
		log:      log,
		setupSvc: setupSvc,
	}

	r := chi.NewRouter()
	r.Post("/", svr.handlePostSetup)

	svr.Router = r
	return svr
}

type setupRequestBody struct {
	Name string `json:"name"`
}

type setupResponse struct {
	ID platform.ID `json:"id"`
}

func (h *SetupHandler) handlePostSetup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := pcontext.GetUserID(ctx)
	if err != nil {
		h.api.Err(w, r, &errors.Error{
			Code: errors.EUnauthorized,
			Msg:  "unauthorized access",
			Err:  err,
		})
		return
	}

	var body setupRequestBody
	if err := h.api.DecodeJSON(r.Body, &body); err != nil {
		h.api.Err(w, r, err)
		return
	}

	res, err := h.setupSvc.Setup(ctx, &parley.SetupRequest{
		Name:   body.Name,
		UserID: userID,
	})
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	h.api.Respond(w, r, http.StatusCreated, setupResponse{ID: res.Tenant.ID})
}

// TenantHandler serves tenant reads scoped to the caller's current profile.
type TenantHandler struct {
	chi.Router
	api *kithttp.API
	log *zap.Logger

	tenantSvc  parley.TenantService
	userSvc    parley.UserService
	profileSvc parley.ProfileService
}

const prefixTenants = "/api/v1/tenants"

// Prefix returns the mount point of the tenant handler.
func (h *TenantHandler) Prefix() string {
	return prefixTenants
}

// NewHTTPTenantHandler constructs a new http server.
func NewHTTPTenantHandler(log *zap.Logger, tenantSvc parley.TenantService, userSvc parley.UserService, profileSvc parley.ProfileService) *TenantHandler {
	svr := &TenantHandler{
		api:        kithttp.NewAPI(kithttp.WithLog(log)),
		log:        log,
		tenantSvc:  tenantSvc,
		userSvc:    userSvc,
		profileSvc: profileSvc,
	}

	r := chi.NewRouter()
	r.Get("/current", svr.handleGetCurrentTenant)
	r.Get("/{id}", svr.handleGetTenant)

	svr.Router = r
	return svr
}

// currentProfile resolves the caller's current profile, or an error when the
// caller has not completed setup.
func (h *TenantHandler) currentProfile(r *http.Request) (*parley.Profile, error) {
	ctx := r.Context()

	userID, err := pcontext.GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	u, err := h.userSvc.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !u.CurrentProfileID.Valid() {
		return nil, &errors.Error{
			Code: errors.ENotFound,
			Msg:  "no current profile; complete setup first",
		}
	}

	return h.profileSvc.FindProfileByID(ctx, u.CurrentProfileID)
}

func (h *TenantHandler) handleGetCurrentTenant(w http.ResponseWriter, r *http.Request) {
	p, err := h.currentProfile(r)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	t, err := h.tenantSvc.FindTenantByID(r.Context(), p.TenantID)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	h.api.Respond(w, r, http.StatusOK, t)
}

func (h *TenantHandler) handleGetTenant(w http.ResponseWriter, r *http.Request) {
	id, err := platform.IDFromString(chi.URLParam(r, "id"))
	if err != nil {
		h.api.Err(w, r, InvalidTenantIDError(err))
		return
	}

	t, err := h.tenantSvc.FindTenantByID(r.Context(), *id)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	h.api.Respond(w, r, http.StatusOK, t)
}

// UserHandler serves signup and the caller's own user record.
type UserHandler struct {
	chi.Router
	api *kithttp.API
	log *zap.Logger

	userSvc parley.UserService
	passSvc parley.PasswordsService
}

const prefixUsers = "/api/v1/users"

// Prefix returns the mount point of the user handler.
func (h *UserHandler) Prefix() string {
	return prefixUsers
}

// NewHTTPUserHandler constructs a new http server.
func NewHTTPUserHandler(log *zap.Logger, userSvc parley.UserService, passSvc parley.PasswordsService) *UserHandler {
	svr := &UserHandler{
		api:     kithttp.NewAPI(kithttp.WithLog(log)),
		log:     log,
		userSvc: userSvc,
		passSvc: passSvc,
	}

	r := chi.NewRouter()
	r.Post("/", svr.handlePostUser)
	r.Get("/me", svr.handleGetMe)

	svr.Router = r
	return svr
}

type postUserRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// OK validates the signup body.
func (b postUserRequest) OK() error {
	if b.Name == "" {
		return ErrNameisEmpty
	}
	if len(b.Password) < MinPasswordLength {
		return EShortPassword
	}
	return nil
}

// handlePostUser is the HTTP handler for the POST /api/v1/users route. It is
// reachable without a session so new users can sign up.
func (h *UserHandler) handlePostUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body postUserRequest
	if err := h.api.DecodeJSON(r.Body, &body); err != nil {
		h.api.Err(w, r, err)
		return
	}

	u := &parley.User{Name: body.Name}
	if err := h.userSvc.CreateUser(ctx, u); err != nil {
		h.api.Err(w, r, err)
		return
	}

	if err := h.passSvc.SetPassword(ctx, u.ID, body.Password); err != nil {
		h.api.Err(w, r, err)
		return
	}

	h.api.Respond(w, r, http.StatusCreated, u)
}

func (h *UserHandler) handleGetMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := pcontext.GetUserID(ctx)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	u, err := h.userSvc.FindUserByID(ctx, userID)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	h.api.Respond(w, r, http.StatusOK, u)
}
