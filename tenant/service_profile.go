package tenant

import (
	"context"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/kit/platform"
	"github.com/parleyhq/parley/kv"
)

type ProfileSvc struct {
	store *Store
}

func NewProfileSvc(st *Store) *ProfileSvc {
	return &ProfileSvc{
		store: st,
	}
}

// FindProfileByID returns a single profile by ID.
func (s *ProfileSvc) FindProfileByID(ctx context.Context, id platform.ID) (*parley.Profile, error) {
	var profile *parley.Profile
	err := s.store.View(ctx, func(tx kv.Tx) error {
		p, err := s.store.GetProfile(ctx, tx, id)
		if err != nil {
			return err
		}
		profile = p
		return nil
	})

	if err != nil {
		return nil, err
	}

	return profile, nil
}

// FindProfiles returns a list of profiles that match filter and the total
// count of matching profiles.
func (s *ProfileSvc) FindProfiles(ctx context.Context, filter parley.ProfileFilter, opt ...parley.FindOptions) ([]*parley.Profile, int, error) {
	if filter.ID != nil {
		p, err := s.FindProfileByID(ctx, *filter.ID)
		if err != nil {
			return nil, 0, err
		}
		return []*parley.Profile{p}, 1, nil
	}

	var profiles []*parley.Profile
	err := s.store.View(ctx, func(tx kv.Tx) error {
		if filter.UserID != nil && filter.TenantID != nil {
			p, err := s.store.GetProfileByUserAndTenant(ctx, tx, *filter.UserID, *filter.TenantID)
			if err != nil {
				return err
			}
			profiles = []*parley.Profile{p}
			return nil
		}

		if filter.UserID != nil {
			ps, err := s.store.ListProfilesByUser(ctx, tx, *filter.UserID)
			if err != nil {
				return err
			}
			profiles = ps
			return nil
		}

		return ErrProfileFilterMissing
	})

	if err != nil {
		return nil, 0, err
	}

	if filter.TenantID != nil {
		filtered := profiles[:0]
		for _, p := range profiles {
			if p.TenantID == *filter.TenantID {
				filtered = append(filtered, p)
			}
		}
		profiles = filtered
	}

	return profiles, len(profiles), nil
}

// CreateProfile creates a new profile and sets p.ID with the new identifier.
func (s *ProfileSvc) CreateProfile(ctx context.Context, p *parley.Profile) error {
	return s.store.Update(ctx, func(tx kv.Tx) error {
		return s.store.CreateProfile(ctx, tx, p)
	})
}

// DeleteProfile removes a profile by ID.
func (s *ProfileSvc) DeleteProfile(ctx context.Context, id platform.ID) error {
	return s.store.Update(ctx, func(tx kv.Tx) error {
		return s.store.DeleteProfile(ctx, tx, id)
	})
}
