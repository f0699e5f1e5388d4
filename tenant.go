package parley

import (
	"context"

	"github.com/parleyhq/parley/kit/platform"
)

// Operation names for tenant operations, used in errors.
const (
	OpFindTenantByID = "FindTenantByID"
	OpFindTenant     = "FindTenant"
	OpFindTenants    = "FindTenants"
	OpCreateTenant   = "CreateTenant"
	OpUpdateTenant   = "UpdateTenant"
	OpDeleteTenant   = "DeleteTenant"
)

// Tenant is an isolated customer scope owning its own settings, enabled
// models and conversations.
type Tenant struct {
	ID   platform.ID `json:"id,omitempty"`
	Name string      `json:"name"`
	// Slug is derived from the name at creation time and is immutable
	// afterwards.
	Slug          string   `json:"slug"`
	LogoURL       string   `json:"logoUrl,omitempty"`
	EnabledModels []string `json:"enabledModels,omitempty"`
	// SearchSettingsID references the tenant's search settings; zero when
	// the tenant has none configured.
	SearchSettingsID platform.ID `json:"searchSettingsId,omitempty"`

	CRUDLog
}

// ModelEnabled reports whether model is in the tenant's enabled model list.
func (t *Tenant) ModelEnabled(model string) bool {
	for _, m := range t.EnabledModels {
		if m == model {
			return true
		}
	}
	return false
}

// TenantUpdate represents updates to a tenant. The slug is deliberately not
// updatable.
type TenantUpdate struct {
	Name          *string  `json:"name,omitempty"`
	LogoURL       *string  `json:"logoUrl,omitempty"`
	EnabledModels []string `json:"enabledModels,omitempty"`
	// SearchSettingsID binds a search settings record to the tenant.
	SearchSettingsID *platform.ID `json:"searchSettingsId,omitempty"`
}

// TenantFilter represents a set of filter that restrict the returned results.
type TenantFilter struct {
	ID   *platform.ID
	Slug *string
	Name *string
}

// TenantService represents a service for managing tenants.
type TenantService interface {
	// FindTenantByID returns a single tenant by ID.
	FindTenantByID(ctx context.Context, id platform.ID) (*Tenant, error)

	// FindTenant returns the first tenant that matches filter.
	FindTenant(ctx context.Context, filter TenantFilter) (*Tenant, error)

	// FindTenants returns a list of tenants that match filter and the total count of matching tenants.
	FindTenants(ctx context.Context, filter TenantFilter, opt ...FindOptions) ([]*Tenant, int, error)

	// CreateTenant creates a new tenant and sets t.ID with the new identifier.
	CreateTenant(ctx context.Context, t *Tenant) error

	// UpdateTenant updates a single tenant with changeset.
	// Returns the new tenant state after update.
	UpdateTenant(ctx context.Context, id platform.ID, upd TenantUpdate) (*Tenant, error)

	// DeleteTenant removes a tenant by ID.
	DeleteTenant(ctx context.Context, id platform.ID) error
}
