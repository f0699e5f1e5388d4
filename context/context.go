package context

import (
	"context"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/kit/platform"
	"github.com/parleyhq/parley/kit/platform/errors"
)

type contextKey string

const (
	authorizerCtxKey contextKey = "parley/authorizer/v1"
)

// SetAuthorizer sets an authorizer on context.
func SetAuthorizer(ctx context.Context, a parley.Authorizer) context.Context {
	return context.WithValue(ctx, authorizerCtxKey, a)
}

// GetAuthorizer retrieves an authorizer from context.
func GetAuthorizer(ctx context.Context) (parley.Authorizer, error) {
	a, ok := ctx.Value(authorizerCtxKey).(parley.Authorizer)
	if !ok {
		return nil, &errors.Error{
			Msg:  "authorizer not found on context",
			Code: errors.EInternal,
		}
	}

	return a, nil
}

// GetUserID retrieves the user ID from the authorizer on context.
func GetUserID(ctx context.Context) (platform.ID, error) {
	a, err := GetAuthorizer(ctx)
	if err != nil {
		return 0, err
	}
	return a.GetUserID(), nil
}
