package parley

import (
	"context"

	"github.com/parleyhq/parley/kit/platform"
)

// OpSetup is the operation name for tenant setup, used in errors.
const OpSetup = "Setup"

// SetupRequest is the request to provision a new tenant for a user.
type SetupRequest struct {
	// Name is the display name of the new tenant. It must be non-empty
	// after trimming whitespace.
	Name string `json:"name"`
	// UserID identifies the authenticated caller the new tenant belongs to.
	UserID platform.ID `json:"-"`
}

// SetupResults is the result of provisioning a new tenant.
type SetupResults struct {
	Tenant  *Tenant  `json:"tenant"`
	Profile *Profile `json:"profile"`
}

// SetupService provisions a tenant together with the caller's profile in it
// and flips the caller's current profile to the new one.
type SetupService interface {
	Setup(ctx context.Context, req *SetupRequest) (*SetupResults, error)
}
