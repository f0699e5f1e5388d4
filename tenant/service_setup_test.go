package tenant_test

import (
	"context"
	"testing"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/inmem"
	"github.com/parleyhq/parley/kit/platform/errors"
	"github.com/parleyhq/parley/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initSetupService(t *testing.T) (*tenant.SetupSvc, *parley.User, *tenant.Store) {
	t.Helper()

	store := tenant.NewStore(inmem.NewKVStore())
	userSvc := tenant.NewUserSvc(store)

	ctx := context.Background()
	u := &parley.User{Name: "ada"}
	require.NoError(t, userSvc.CreateUser(ctx, u))

	return tenant.NewSetupSvc(store), u, store
}

func TestSetup(t *testing.T) {
	svc, u, store := initSetupService(t)
	ctx := context.Background()

	res, err := svc.Setup(ctx, &parley.SetupRequest{
		Name:   "Acme Corp",
		UserID: u.ID,
	})
	require.NoError(t, err)

	require.NotNil(t, res.Tenant)
	require.NotNil(t, res.Profile)
	assert.True(t, res.Tenant.ID.Valid())
	assert.Equal(t, "Acme Corp", res.Tenant.Name)
	assert.Equal(t, "acme-corp", res.Tenant.Slug)
	assert.Equal(t, u.ID, res.Profile.UserID)
	assert.Equal(t, res.Tenant.ID, res.Profile.TenantID)

	// the caller's current profile must point at the new profile
	got, err := tenant.NewUserSvc(store).FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Profile.ID, got.CurrentProfileID)
}

func TestSetup_TrimsName(t *testing.T) {
	svc, u, _ := initSetupService(t)

	res, err := svc.Setup(context.Background(), &parley.SetupRequest{
		Name:   "  Acme  ",
		UserID: u.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme", res.Tenant.Name)
	assert.Equal(t, "acme", res.Tenant.Slug)
}

func TestSetup_EmptyName(t *testing.T) {
	svc, u, _ := initSetupService(t)

	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := svc.Setup(context.Background(), &parley.SetupRequest{
			Name:   name,
			UserID: u.ID,
		})
		require.Error(t, err)
		assert.Equal(t, errors.EInvalid, errors.ErrorCode(err))
	}
}

func TestSetup_UnknownUser(t *testing.T) {
	svc, _, _ := initSetupService(t)

	_, err := svc.Setup(context.Background(), &parley.SetupRequest{
		Name:   "Acme",
		UserID: 42,
	})
	require.Error(t, err)
	assert.Equal(t, errors.ENotFound, errors.ErrorCode(err))
}

func TestSetup_DuplicateSlug(t *testing.T) {
	svc, u, _ := initSetupService(t)
	ctx := context.Background()

	_, err := svc.Setup(ctx, &parley.SetupRequest{Name: "Acme", UserID: u.ID})
	require.NoError(t, err)

	// same name slugs to the same value
	_, err = svc.Setup(ctx, &parley.SetupRequest{Name: "acme", UserID: u.ID})
	require.Error(t, err)
	assert.Equal(t, errors.EConflict, errors.ErrorCode(err))
}

func TestSetup_FailureLeavesNoTenant(t *testing.T) {
	svc, u, store := initSetupService(t)
	ctx := context.Background()

	_, err := svc.Setup(ctx, &parley.SetupRequest{Name: "Acme", UserID: u.ID})
	require.NoError(t, err)

	// second setup for the same user and name collides on the slug; the
	// whole transaction must roll up into an error without touching the
	// user's current profile
	before, err := tenant.NewUserSvc(store).FindUserByID(ctx, u.ID)
	require.NoError(t, err)

	_, err = svc.Setup(ctx, &parley.SetupRequest{Name: "Acme", UserID: u.ID})
	require.Error(t, err)

	after, err := tenant.NewUserSvc(store).FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, before.CurrentProfileID, after.CurrentProfileID)
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Acme Corp":        "acme-corp",
		"  Acme  Corp  ":   "acme-corp",
		"ACME":             "acme",
		"a.b/c":            "a-b-c",
		"Héllo Wörld":      "héllo-wörld",
		"trailing punct!!": "trailing-punct",
	}
	for in, want := range cases {
		assert.Equal(t, want, tenant.Slugify(in), "Slugify(%q)", in)
	}
}
