package settings

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/parleyhq/parley"
	kithttp "github.com/parleyhq/parley/kit/transport/http"
	"go.uber.org/zap"
)

// SettingsHandler is the HTTP API for settings resolution and persistence.
type SettingsHandler struct {
	chi.Router
	api *kithttp.API
	log *zap.Logger

	svc *Service
}

const prefixSettings = "/api/v1/settings"

// Prefix returns the mount point of the settings handler.
func (h *SettingsHandler) Prefix() string {
	return prefixSettings
}

// NewHTTPSettingsHandler constructs a new http server.
func NewHTTPSettingsHandler(log *zap.Logger, svc *Service) *SettingsHandler {
	svr := &SettingsHandler{
		api: kithttp.NewAPI(kithttp.WithLog(log)),
		log: log,
		svc: svc,
	}

	r := chi.NewRouter()
	r.Get("/", svr.handleGetSettings)
	r.Put("/", svr.handlePutSettings)
	r.Get("/tenant", svr.handleGetTenantSettings)
	r.Put("/tenant", svr.handlePutTenantSettings)

	svr.Router = r
	return svr
}

// handleGetSettings returns the caller's fully resolved settings.
func (h *SettingsHandler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	eff, err := h.svc.Resolve(r.Context(), nil)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	h.api.Respond(w, r, http.StatusOK, eff)
}

// handlePutSettings stores the caller's preferences and responds with the
// settings as they resolve after the write.
func (h *SettingsHandler) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body parley.UserSettings
	if err := h.api.DecodeJSON(r.Body, &body); err != nil {
		h.api.Err(w, r, err)
		return
	}

	if err := h.svc.PutUserSettings(ctx, &body); err != nil {
		h.api.Err(w, r, err)
		return
	}

	eff, err := h.svc.Resolve(ctx, nil)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	h.api.Respond(w, r, http.StatusOK, eff)
}

// handleGetTenantSettings returns the tenant's stored search settings, 404
// when the tenant never configured any.
func (h *SettingsHandler) handleGetTenantSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.FindSearchSettings(r.Context())
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	h.api.Respond(w, r, http.StatusOK, s)
}

func (h *SettingsHandler) handlePutTenantSettings(w http.ResponseWriter, r *http.Request) {
	var body parley.SearchSettings
	if err := h.api.DecodeJSON(r.Body, &body); err != nil {
		h.api.Err(w, r, err)
		return
	}

	if err := h.svc.PutSearchSettings(r.Context(), &body); err != nil {
		h.api.Err(w, r, err)
		return
	}

	h.api.Respond(w, r, http.StatusOK, &body)
}
