package session

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/inmem"
	"github.com/parleyhq/parley/kit/platform/errors"
	"github.com/parleyhq/parley/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initSessionService(t *testing.T, length time.Duration, mock *clock.Mock) (*Service, *parley.User) {
	t.Helper()

	kvStore := inmem.NewKVStore()
	userSvc := tenant.NewUserSvc(tenant.NewStore(kvStore))

	ctx := context.Background()
	u := &parley.User{Name: "ada"}
	require.NoError(t, userSvc.CreateUser(ctx, u))

	opts := []ServiceOption{}
	if mock != nil {
		opts = append(opts, WithClock(mock))
	}
	svc := NewService(NewStorage(kvStore), userSvc, length, opts...)
	return svc, u
}

func TestSessionService_CreateAndFind(t *testing.T) {
	svc, u := initSessionService(t, time.Minute, nil)
	ctx := context.Background()

	s, err := svc.CreateSession(ctx, "ada")
	require.NoError(t, err)
	assert.True(t, s.ID.Valid())
	assert.NotEmpty(t, s.Key)
	assert.Equal(t, u.ID, s.UserID)
	assert.True(t, s.ExpiresAt.After(s.CreatedAt))

	found, err := svc.FindSession(ctx, s.Key)
	require.NoError(t, err)
	assert.Equal(t, s.Key, found.Key)
	assert.Equal(t, u.ID, found.UserID)
}

func TestSessionService_UnknownUser(t *testing.T) {
	svc, _ := initSessionService(t, time.Minute, nil)

	_, err := svc.CreateSession(context.Background(), "nobody")
	require.Error(t, err)
}

func TestSessionService_Expiry(t *testing.T) {
	mock := clock.NewMock()
	svc, _ := initSessionService(t, time.Minute, mock)
	ctx := context.Background()

	s, err := svc.CreateSession(ctx, "ada")
	require.NoError(t, err)

	mock.Add(30 * time.Second)
	_, err = svc.FindSession(ctx, s.Key)
	require.NoError(t, err)

	mock.Add(time.Minute)
	_, err = svc.FindSession(ctx, s.Key)
	require.Error(t, err)
	assert.Equal(t, errors.EForbidden, errors.ErrorCode(err))

	// an expired session is deleted on first sight
	_, err = svc.FindSession(ctx, s.Key)
	assert.Equal(t, errors.ENotFound, errors.ErrorCode(err))
}

func TestSessionService_Renew(t *testing.T) {
	mock := clock.NewMock()
	svc, _ := initSessionService(t, time.Minute, mock)
	ctx := context.Background()

	s, err := svc.CreateSession(ctx, "ada")
	require.NoError(t, err)

	require.NoError(t, svc.RenewSession(ctx, s, mock.Now().Add(time.Hour)))

	mock.Add(30 * time.Minute)
	found, err := svc.FindSession(ctx, s.Key)
	require.NoError(t, err)
	assert.True(t, found.ExpiresAt.After(s.ExpiresAt))

	// renewing to an earlier expiration is a no-op
	require.NoError(t, svc.RenewSession(ctx, found, found.ExpiresAt.Add(-time.Minute)))
	again, err := svc.FindSession(ctx, s.Key)
	require.NoError(t, err)
	assert.True(t, again.ExpiresAt.Equal(found.ExpiresAt))
}

func TestSessionService_Signout(t *testing.T) {
	svc, _ := initSessionService(t, time.Minute, nil)
	ctx := context.Background()

	s, err := svc.CreateSession(ctx, "ada")
	require.NoError(t, err)

	require.NoError(t, svc.ExpireSession(ctx, s.Key))

	_, err = svc.FindSession(ctx, s.Key)
	assert.Equal(t, errors.ENotFound, errors.ErrorCode(err))
}
