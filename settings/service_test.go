package settings_test

import (
	"context"
	"testing"

	"github.com/parleyhq/parley"
	pcontext "github.com/parleyhq/parley/context"
	"github.com/parleyhq/parley/inmem"
	"github.com/parleyhq/parley/kv"
	"github.com/parleyhq/parley/settings"
	"github.com/parleyhq/parley/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type settingsFixture struct {
	kvStore   *inmem.KVStore
	svc       *settings.Service
	tenantSvc *tenant.TenantSvc
	ctx       context.Context
	user      *parley.User
	tenant    *parley.Tenant
}

func newSettingsFixture(t *testing.T) *settingsFixture {
	t.Helper()

	kvStore := inmem.NewKVStore()
	store := tenant.NewStore(kvStore)
	userSvc := tenant.NewUserSvc(store)
	tenantSvc := tenant.NewTenantSvc(store)
	profileSvc := tenant.NewProfileSvc(store)
	setupSvc := tenant.NewSetupSvc(store)

	ctx := context.Background()
	u := &parley.User{Name: "ada"}
	require.NoError(t, userSvc.CreateUser(ctx, u))

	res, err := setupSvc.Setup(ctx, &parley.SetupRequest{Name: "Acme", UserID: u.ID})
	require.NoError(t, err)

	svc := settings.NewService(
		zaptest.NewLogger(t),
		settings.NewSearchSettingsStore(kvStore),
		settings.NewUserSettingsStore(kvStore),
		tenantSvc, userSvc, profileSvc,
	)

	return &settingsFixture{
		kvStore:   kvStore,
		svc:       svc,
		tenantSvc: tenantSvc,
		ctx:       pcontext.SetAuthorizer(ctx, &parley.Session{UserID: u.ID}),
		user:      u,
		tenant:    res.Tenant,
	}
}

func TestService_ResolveDefaults(t *testing.T) {
	f := newSettingsFixture(t)

	// nothing stored anywhere: defaults plus the first enabled model
	eff, err := f.svc.Resolve(f.ctx, nil)
	require.NoError(t, err)
	assert.False(t, eff.IsBreadth)
	assert.False(t, eff.RerankEnabled)
	assert.False(t, eff.PrioritizeRecent)
	assert.Equal(t, f.tenant.EnabledModels[0], eff.SelectedModel)
}

func TestService_ResolveLayers(t *testing.T) {
	f := newSettingsFixture(t)

	require.NoError(t, f.svc.PutSearchSettings(f.ctx, &parley.SearchSettings{
		IsBreadth:       true,
		OverrideBreadth: false,
		OverrideRerank:  true,
	}))

	on := true
	require.NoError(t, f.svc.PutUserSettings(f.ctx, &parley.UserSettings{
		IsBreadth:     &on, // locked by the tenant, must not apply
		RerankEnabled: &on,
	}))

	eff, err := f.svc.Resolve(f.ctx, nil)
	require.NoError(t, err)
	assert.True(t, eff.IsBreadth, "tenant value")
	assert.True(t, eff.RerankEnabled, "user override")

	off := false
	eff, err = f.svc.Resolve(f.ctx, &parley.UserSettings{RerankEnabled: &off})
	require.NoError(t, err)
	assert.False(t, eff.RerankEnabled, "request layer wins")
}

func TestService_CorruptUserSettingsIgnored(t *testing.T) {
	f := newSettingsFixture(t)

	// scribble over the stored record
	encodedID, err := f.user.ID.Encode()
	require.NoError(t, err)
	require.NoError(t, f.kvStore.Update(f.ctx, func(tx kv.Tx) error {
		b, err := tx.Bucket([]byte("usersettingsv1"))
		if err != nil {
			return err
		}
		return b.Put(encodedID, []byte("{not json"))
	}))

	eff, err := f.svc.Resolve(f.ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, f.tenant.EnabledModels[0], eff.SelectedModel)
}

func TestService_TenantSettingsNotFound(t *testing.T) {
	f := newSettingsFixture(t)

	_, err := f.svc.FindSearchSettings(f.ctx)
	require.Error(t, err)

	require.NoError(t, f.svc.PutSearchSettings(f.ctx, &parley.SearchSettings{IsBreadth: true}))

	s, err := f.svc.FindSearchSettings(f.ctx)
	require.NoError(t, err)
	assert.True(t, s.IsBreadth)
	assert.Equal(t, f.tenant.ID, s.TenantID)
}

func TestService_PutSearchSettingsBindsTenant(t *testing.T) {
	f := newSettingsFixture(t)

	// freshly provisioned tenants have no settings bound
	assert.False(t, f.tenant.SearchSettingsID.Valid())

	s := &parley.SearchSettings{IsBreadth: true, OverrideBreadth: true}
	require.NoError(t, f.svc.PutSearchSettings(f.ctx, s))
	require.True(t, s.ID.Valid())

	got, err := f.tenantSvc.FindTenantByID(f.ctx, f.tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.SearchSettingsID)

	// rewriting the settings keeps the bound id stable
	require.NoError(t, f.svc.PutSearchSettings(f.ctx, &parley.SearchSettings{RerankEnabled: true}))

	stored, err := f.svc.FindSearchSettings(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, s.ID, stored.ID)

	got, err = f.tenantSvc.FindTenantByID(f.ctx, f.tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.SearchSettingsID)
}
