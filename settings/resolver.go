package settings

import (
	"github.com/parleyhq/parley"
)

// DefaultSearchSettings are what a tenant runs with before anyone configures
// it. All flags are off and users are free to override them.
func DefaultSearchSettings() *parley.SearchSettings {
	return &parley.SearchSettings{
		OverrideBreadth:          true,
		OverrideRerank:           true,
		OverridePrioritizeRecent: true,
	}
}

// Resolve merges the three settings layers into the settings a request
// actually runs with.
//
// The tenant's search settings are the base. A user preference or a
// per-request override only takes effect on a flag whose override marker the
// tenant has enabled; the per-request layer wins over the stored user
// preference. The model is the user layer's selection when the tenant has it
// enabled, otherwise the tenant's first enabled model.
func Resolve(tenant *parley.Tenant, search *parley.SearchSettings, user *parley.UserSettings, request *parley.UserSettings) parley.EffectiveSettings {
	if search == nil {
		search = DefaultSearchSettings()
	}

	eff := parley.EffectiveSettings{
		IsBreadth:        search.IsBreadth,
		RerankEnabled:    search.RerankEnabled,
		PrioritizeRecent: search.PrioritizeRecent,
	}

	for _, layer := range []*parley.UserSettings{user, request} {
		if layer == nil {
			continue
		}
		if search.OverrideBreadth && layer.IsBreadth != nil {
			eff.IsBreadth = *layer.IsBreadth
		}
		if search.OverrideRerank && layer.RerankEnabled != nil {
			eff.RerankEnabled = *layer.RerankEnabled
		}
		if search.OverridePrioritizeRecent && layer.PrioritizeRecent != nil {
			eff.PrioritizeRecent = *layer.PrioritizeRecent
		}
	}

	eff.SelectedModel = resolveModel(tenant, user, request)
	return eff
}

// resolveModel picks the requested model when the tenant allows it, then the
// user's stored selection, then falls back to the tenant's first enabled
// model.
func resolveModel(tenant *parley.Tenant, user *parley.UserSettings, request *parley.UserSettings) string {
	if tenant == nil {
		return ""
	}

	if request != nil && request.SelectedModel != "" && tenant.ModelEnabled(request.SelectedModel) {
		return request.SelectedModel
	}

	if user != nil && user.SelectedModel != "" && tenant.ModelEnabled(user.SelectedModel) {
		return user.SelectedModel
	}

	if len(tenant.EnabledModels) > 0 {
		return tenant.EnabledModels[0]
	}

	return ""
}
