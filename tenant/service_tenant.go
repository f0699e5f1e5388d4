package tenant

import (
	"context"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/kit/platform"
	"github.com/parleyhq/parley/kv"
)

type TenantSvc struct {
	store *Store
}

func NewTenantSvc(st *Store) *TenantSvc {
	return &TenantSvc{
		store: st,
	}
}

// FindTenantByID returns a single tenant by ID.
func (s *TenantSvc) FindTenantByID(ctx context.Context, id platform.ID) (*parley.Tenant, error) {
	var tenant *parley.Tenant
	err := s.store.View(ctx, func(tx kv.Tx) error {
		t, err := s.store.GetTenant(ctx, tx, id)
		if err != nil {
			return err
		}
		tenant = t
		return nil
	})

	if err != nil {
		return nil, err
	}

	return tenant, nil
}

// FindTenant returns the first tenant that matches filter.
func (s *TenantSvc) FindTenant(ctx context.Context, filter parley.TenantFilter) (*parley.Tenant, error) {
	if filter.ID != nil {
		return s.FindTenantByID(ctx, *filter.ID)
	}

	if filter.Slug == nil {
		return nil, ErrInvalidTenantFilter
	}

	var tenant *parley.Tenant
	err := s.store.View(ctx, func(tx kv.Tx) error {
		t, err := s.store.GetTenantBySlug(ctx, tx, *filter.Slug)
		if err != nil {
			return err
		}
		tenant = t
		return nil
	})

	if err != nil {
		return nil, err
	}

	return tenant, nil
}

// FindTenants returns a list of tenants that match filter and the total count
// of matching tenants. Additional options provide pagination.
func (s *TenantSvc) FindTenants(ctx context.Context, filter parley.TenantFilter, opt ...parley.FindOptions) ([]*parley.Tenant, int, error) {
	// if im given an id or a slug I know I can only return 1
	if filter.ID != nil || filter.Slug != nil {
		t, err := s.FindTenant(ctx, filter)
		if err != nil {
			return nil, 0, err
		}
		return []*parley.Tenant{t}, 1, nil
	}

	var tenants []*parley.Tenant
	err := s.store.View(ctx, func(tx kv.Tx) error {
		ts, err := s.store.ListTenants(ctx, tx, opt...)
		if err != nil {
			return err
		}
		tenants = ts
		return nil
	})

	if err != nil {
		return nil, 0, err
	}

	if filter.Name != nil {
		filtered := tenants[:0]
		for _, t := range tenants {
			if t.Name == *filter.Name {
				filtered = append(filtered, t)
			}
		}
		tenants = filtered
	}

	return tenants, len(tenants), nil
}

// CreateTenant creates a new tenant and sets t.ID with the new identifier.
func (s *TenantSvc) CreateTenant(ctx context.Context, t *parley.Tenant) error {
	return s.store.Update(ctx, func(tx kv.Tx) error {
		return s.store.CreateTenant(ctx, tx, t)
	})
}

// UpdateTenant updates a single tenant with changeset.
// Returns the new tenant state after update.
func (s *TenantSvc) UpdateTenant(ctx context.Context, id platform.ID, upd parley.TenantUpdate) (*parley.Tenant, error) {
	var tenant *parley.Tenant
	err := s.store.Update(ctx, func(tx kv.Tx) error {
		t, err := s.store.UpdateTenant(ctx, tx, id, upd)
		if err != nil {
			return err
		}
		tenant = t
		return nil
	})

	if err != nil {
		return nil, err
	}

	return tenant, nil
}

// DeleteTenant removes a tenant by ID.
func (s *TenantSvc) DeleteTenant(ctx context.Context, id platform.ID) error {
	return s.store.Update(ctx, func(tx kv.Tx) error {
		return s.store.DeleteTenant(ctx, tx, id)
	})
}
