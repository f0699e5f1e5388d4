package tenant

import (
	"context"
	"strings"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/kv"
)

// DefaultEnabledModels is the model list a freshly provisioned tenant starts
// with. Operators can change it per tenant afterwards.
var DefaultEnabledModels = []string{"helix-4", "helix-4-mini"}

type SetupSvc struct {
	store *Store
}

func NewSetupSvc(st *Store) *SetupSvc {
	return &SetupSvc{
		store: st,
	}
}

// Setup provisions a tenant named req.Name, creates the caller's profile in
// it and points the caller's current profile at the new one. The whole
// operation happens in a single transaction so a failed step leaves nothing
// behind.
func (s *SetupSvc) Setup(ctx context.Context, req *parley.SetupRequest) (*parley.SetupResults, error) {
	if req == nil || strings.TrimSpace(req.Name) == "" {
		return nil, ErrNameisEmpty
	}

	if !req.UserID.Valid() {
		return nil, ErrUserNotFound
	}

	result := &parley.SetupResults{}

	err := s.store.Update(ctx, func(tx kv.Tx) error {
		// the caller must exist; setup is not signup
		user, err := s.store.GetUser(ctx, tx, req.UserID)
		if err != nil {
			return err
		}

		tenant := &parley.Tenant{
			Name:          strings.TrimSpace(req.Name),
			EnabledModels: DefaultEnabledModels,
		}

		if err := s.store.CreateTenant(ctx, tx, tenant); err != nil {
			return err
		}

		profile := &parley.Profile{
			UserID:   user.ID,
			TenantID: tenant.ID,
		}

		if err := s.store.CreateProfile(ctx, tx, profile); err != nil {
			return err
		}

		if _, err := s.store.UpdateUser(ctx, tx, user.ID, parley.UserUpdate{
			CurrentProfileID: &profile.ID,
		}); err != nil {
			return err
		}

		result.Tenant = tenant
		result.Profile = profile
		return nil
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}
