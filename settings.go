package parley

import (
	"context"

	"github.com/parleyhq/parley/kit/platform"
)

// Operation names for settings operations, used in errors.
const (
	OpFindSearchSettings = "FindSearchSettings"
	OpPutSearchSettings  = "PutSearchSettings"
	OpFindUserSettings   = "FindUserSettings"
	OpPutUserSettings    = "PutUserSettings"
)

// SearchSettings are the tenant-scoped search flags. Each flag carries an
// override marker indicating whether users of the tenant may override the
// tenant's value with their own.
type SearchSettings struct {
	ID       platform.ID `json:"id,omitempty"`
	TenantID platform.ID `json:"tenantId,omitempty"`

	IsBreadth       bool `json:"isBreadth"`
	OverrideBreadth bool `json:"overrideBreadth"`

	RerankEnabled  bool `json:"rerankEnabled"`
	OverrideRerank bool `json:"overrideRerank"`

	PrioritizeRecent         bool `json:"prioritizeRecent"`
	OverridePrioritizeRecent bool `json:"overridePrioritizeRecent"`
}

// UserSettings are a user's locally persisted preferences. Nil flags mean the
// user never stored a value for them.
type UserSettings struct {
	IsBreadth        *bool  `json:"isBreadth,omitempty"`
	RerankEnabled    *bool  `json:"rerankEnabled,omitempty"`
	PrioritizeRecent *bool  `json:"prioritizeRecent,omitempty"`
	SelectedModel    string `json:"selectedModel,omitempty"`
}

// EffectiveSettings are the settings a chat request runs with after tenant
// defaults, user preferences and per-request overrides have been merged.
type EffectiveSettings struct {
	IsBreadth        bool   `json:"isBreadth"`
	RerankEnabled    bool   `json:"rerankEnabled"`
	PrioritizeRecent bool   `json:"prioritizeRecent"`
	SelectedModel    string `json:"selectedModel,omitempty"`
}

// SearchSettingsService manages the tenant-scoped search settings.
type SearchSettingsService interface {
	// FindSearchSettings returns the search settings of a tenant.
	// Returns a not found error when the tenant has none configured.
	FindSearchSettings(ctx context.Context, tenantID platform.ID) (*SearchSettings, error)

	// PutSearchSettings stores the search settings for a tenant and binds
	// them to the tenant record.
	PutSearchSettings(ctx context.Context, tenantID platform.ID, s *SearchSettings) error
}

// UserSettingsService manages the per-user persisted preferences.
type UserSettingsService interface {
	// FindUserSettings returns the stored preferences of a user.
	// Returns a not found error when the user never stored any.
	FindUserSettings(ctx context.Context, userID platform.ID) (*UserSettings, error)

	// PutUserSettings stores the preferences of a user.
	PutUserSettings(ctx context.Context, userID platform.ID, s *UserSettings) error
}
