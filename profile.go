package parley

import (
	"context"

	"github.com/parleyhq/parley/kit/platform"
)

// Operation names for profile operations, used in errors.
const (
	OpFindProfileByID = "FindProfileByID"
	OpFindProfiles    = "FindProfiles"
	OpCreateProfile   = "CreateProfile"
	OpDeleteProfile   = "DeleteProfile"
)

// Profile is a user's membership record within a tenant.
type Profile struct {
	ID       platform.ID `json:"id,omitempty"`
	UserID   platform.ID `json:"userId"`
	TenantID platform.ID `json:"tenantId"`

	CRUDLog
}

// ProfileFilter represents a set of filter that restrict the returned results.
type ProfileFilter struct {
	ID       *platform.ID
	UserID   *platform.ID
	TenantID *platform.ID
}

// ProfileService represents a service for managing tenant memberships.
type ProfileService interface {
	// FindProfileByID returns a single profile by ID.
	FindProfileByID(ctx context.Context, id platform.ID) (*Profile, error)

	// FindProfiles returns a list of profiles that match filter and the total count of matching profiles.
	FindProfiles(ctx context.Context, filter ProfileFilter, opt ...FindOptions) ([]*Profile, int, error)

	// CreateProfile creates a new profile and sets p.ID with the new identifier.
	CreateProfile(ctx context.Context, p *Profile) error

	// DeleteProfile removes a profile by ID.
	DeleteProfile(ctx context.Context, id platform.ID) error
}
