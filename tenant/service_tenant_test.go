package tenant_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/inmem"
	"github.com/parleyhq/parley/kit/platform/errors"
	"github.com/parleyhq/parley/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantService_CreateAndFind(t *testing.T) {
	svc := tenant.NewTenantSvc(tenant.NewStore(inmem.NewKVStore()))
	ctx := context.Background()

	in := &parley.Tenant{
		Name:          "Acme Corp",
		EnabledModels: []string{"helix-4"},
	}
	require.NoError(t, svc.CreateTenant(ctx, in))
	require.True(t, in.ID.Valid())
	assert.Equal(t, "acme-corp", in.Slug)
	assert.False(t, in.CreatedAt.IsZero())

	byID, err := svc.FindTenantByID(ctx, in.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(in, byID); diff != "" {
		t.Fatalf("tenant mismatch (-want +got):\n%s", diff)
	}

	slug := "acme-corp"
	bySlug, err := svc.FindTenant(ctx, parley.TenantFilter{Slug: &slug})
	require.NoError(t, err)
	assert.Equal(t, in.ID, bySlug.ID)
}

func TestTenantService_SlugConflict(t *testing.T) {
	svc := tenant.NewTenantSvc(tenant.NewStore(inmem.NewKVStore()))
	ctx := context.Background()

	require.NoError(t, svc.CreateTenant(ctx, &parley.Tenant{Name: "Acme"}))

	err := svc.CreateTenant(ctx, &parley.Tenant{Name: "acme"})
	require.Error(t, err)
	assert.Equal(t, errors.EConflict, errors.ErrorCode(err))
}

func TestTenantService_UpdateKeepsSlug(t *testing.T) {
	svc := tenant.NewTenantSvc(tenant.NewStore(inmem.NewKVStore()))
	ctx := context.Background()

	in := &parley.Tenant{Name: "Acme"}
	require.NoError(t, svc.CreateTenant(ctx, in))

	name := "Acme Renamed"
	models := []string{"helix-4", "helix-4-mini"}
	updated, err := svc.UpdateTenant(ctx, in.ID, parley.TenantUpdate{
		Name:          &name,
		EnabledModels: models,
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Renamed", updated.Name)
	assert.Equal(t, models, updated.EnabledModels)
	// renames never move the slug
	assert.Equal(t, "acme", updated.Slug)

	slug := "acme"
	bySlug, err := svc.FindTenant(ctx, parley.TenantFilter{Slug: &slug})
	require.NoError(t, err)
	assert.Equal(t, in.ID, bySlug.ID)
}

func TestTenantService_Delete(t *testing.T) {
	svc := tenant.NewTenantSvc(tenant.NewStore(inmem.NewKVStore()))
	ctx := context.Background()

	in := &parley.Tenant{Name: "Acme"}
	require.NoError(t, svc.CreateTenant(ctx, in))
	require.NoError(t, svc.DeleteTenant(ctx, in.ID))

	_, err := svc.FindTenantByID(ctx, in.ID)
	assert.Equal(t, errors.ENotFound, errors.ErrorCode(err))

	// the slug is free again
	require.NoError(t, svc.CreateTenant(ctx, &parley.Tenant{Name: "Acme"}))
}

func TestUserService_Passwords(t *testing.T) {
	store := tenant.NewStore(inmem.NewKVStore())
	svc := tenant.NewUserSvc(store)
	ctx := context.Background()

	u := &parley.User{Name: "ada"}
	require.NoError(t, svc.CreateUser(ctx, u))
	assert.Equal(t, parley.UserStatusActive, u.Status)

	require.Error(t, svc.SetPassword(ctx, u.ID, "short"))
	require.NoError(t, svc.SetPassword(ctx, u.ID, "hunter22-long"))

	require.NoError(t, svc.ComparePassword(ctx, u.ID, "hunter22-long"))
	assert.Error(t, svc.ComparePassword(ctx, u.ID, "wrong-password"))

	require.NoError(t, svc.CompareAndSetPassword(ctx, u.ID, "hunter22-long", "new-password-1"))
	require.NoError(t, svc.ComparePassword(ctx, u.ID, "new-password-1"))
}

func TestProfileService_OnePerTenant(t *testing.T) {
	store := tenant.NewStore(inmem.NewKVStore())
	userSvc := tenant.NewUserSvc(store)
	tenantSvc := tenant.NewTenantSvc(store)
	profileSvc := tenant.NewProfileSvc(store)
	ctx := context.Background()

	u := &parley.User{Name: "ada"}
	require.NoError(t, userSvc.CreateUser(ctx, u))
	tn := &parley.Tenant{Name: "Acme"}
	require.NoError(t, tenantSvc.CreateTenant(ctx, tn))

	p := &parley.Profile{UserID: u.ID, TenantID: tn.ID}
	require.NoError(t, profileSvc.CreateProfile(ctx, p))

	err := profileSvc.CreateProfile(ctx, &parley.Profile{UserID: u.ID, TenantID: tn.ID})
	require.Error(t, err)
	assert.Equal(t, errors.EConflict, errors.ErrorCode(err))

	ps, n, err := profileSvc.FindProfiles(ctx, parley.ProfileFilter{UserID: &u.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, p.ID, ps[0].ID)
}
