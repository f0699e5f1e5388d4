package tenant_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/parleyhq/parley"
	pcontext "github.com/parleyhq/parley/context"
	"github.com/parleyhq/parley/inmem"
	"github.com/parleyhq/parley/settings"
	"github.com/parleyhq/parley/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestTenantHandler_CurrentCarriesSearchSettingsRef(t *testing.T) {
	kvStore := inmem.NewKVStore()
	store := tenant.NewStore(kvStore)
	userSvc := tenant.NewUserSvc(store)
	tenantSvc := tenant.NewTenantSvc(store)
	profileSvc := tenant.NewProfileSvc(store)
	setupSvc := tenant.NewSetupSvc(store)

	ctx := context.Background()
	u := &parley.User{Name: "ada"}
	require.NoError(t, userSvc.CreateUser(ctx, u))
	_, err := setupSvc.Setup(ctx, &parley.SetupRequest{Name: "Acme", UserID: u.ID})
	require.NoError(t, err)

	settingsSvc := settings.NewService(
		zaptest.NewLogger(t),
		settings.NewSearchSettingsStore(kvStore),
		settings.NewUserSettingsStore(kvStore),
		tenantSvc, userSvc, profileSvc,
	)

	handler := tenant.NewHTTPTenantHandler(zaptest.NewLogger(t), tenantSvc, userSvc, profileSvc)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			authed := pcontext.SetAuthorizer(req.Context(), &parley.Session{UserID: u.ID})
			next.ServeHTTP(w, req.WithContext(authed))
		})
	})
	r.Mount(handler.Prefix(), handler)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	getCurrent := func() *parley.Tenant {
		t.Helper()
		resp, err := http.Get(server.URL + "/api/v1/tenants/current")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		got := &parley.Tenant{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(got))
		return got
	}

	// before any settings are stored there is nothing to reference
	assert.False(t, getCurrent().SearchSettingsID.Valid())

	s := &parley.SearchSettings{IsBreadth: true}
	authedCtx := pcontext.SetAuthorizer(ctx, &parley.Session{UserID: u.ID})
	require.NoError(t, settingsSvc.PutSearchSettings(authedCtx, s))

	got := getCurrent()
	require.True(t, got.SearchSettingsID.Valid())
	assert.Equal(t, s.ID, got.SearchSettingsID)
}
