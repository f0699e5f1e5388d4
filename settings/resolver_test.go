package settings_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/settings"
)

func boolPtr(b bool) *bool { return &b }

func TestResolve(t *testing.T) {
	tenant := &parley.Tenant{
		EnabledModels: []string{"helix-4", "helix-4-mini"},
	}

	tests := []struct {
		name    string
		search  *parley.SearchSettings
		user    *parley.UserSettings
		request *parley.UserSettings
		want    parley.EffectiveSettings
	}{
		{
			name:   "no layers yields tenant defaults",
			search: nil,
			want:   parley.EffectiveSettings{SelectedModel: "helix-4"},
		},
		{
			name: "tenant flags pass through untouched",
			search: &parley.SearchSettings{
				IsBreadth:        true,
				PrioritizeRecent: true,
			},
			want: parley.EffectiveSettings{
				IsBreadth:        true,
				PrioritizeRecent: true,
				SelectedModel:    "helix-4",
			},
		},
		{
			name: "user preference applies when override allowed",
			search: &parley.SearchSettings{
				IsBreadth:       false,
				OverrideBreadth: true,
			},
			user: &parley.UserSettings{IsBreadth: boolPtr(true)},
			want: parley.EffectiveSettings{IsBreadth: true, SelectedModel: "helix-4"},
		},
		{
			name: "user preference ignored when override locked",
			search: &parley.SearchSettings{
				IsBreadth:       false,
				OverrideBreadth: false,
			},
			user: &parley.UserSettings{IsBreadth: boolPtr(true)},
			want: parley.EffectiveSettings{IsBreadth: false, SelectedModel: "helix-4"},
		},
		{
			name: "request layer wins over user layer",
			search: &parley.SearchSettings{
				OverrideRerank: true,
			},
			user:    &parley.UserSettings{RerankEnabled: boolPtr(true)},
			request: &parley.UserSettings{RerankEnabled: boolPtr(false)},
			want:    parley.EffectiveSettings{RerankEnabled: false, SelectedModel: "helix-4"},
		},
		{
			name:   "user model selection honored when enabled",
			search: settings.DefaultSearchSettings(),
			user:   &parley.UserSettings{SelectedModel: "helix-4-mini"},
			want:   parley.EffectiveSettings{SelectedModel: "helix-4-mini"},
		},
		{
			name:   "disabled model falls back to first enabled",
			search: settings.DefaultSearchSettings(),
			user:   &parley.UserSettings{SelectedModel: "retired-model"},
			want:   parley.EffectiveSettings{SelectedModel: "helix-4"},
		},
		{
			name:    "request model beats user model",
			search:  settings.DefaultSearchSettings(),
			user:    &parley.UserSettings{SelectedModel: "helix-4"},
			request: &parley.UserSettings{SelectedModel: "helix-4-mini"},
			want:    parley.EffectiveSettings{SelectedModel: "helix-4-mini"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := settings.Resolve(tenant, tt.search, tt.user, tt.request)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("resolved settings mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolve_NoEnabledModels(t *testing.T) {
	tenant := &parley.Tenant{}
	got := settings.Resolve(tenant, nil, &parley.UserSettings{SelectedModel: "helix-4"}, nil)
	if got.SelectedModel != "" {
		t.Fatalf("expected empty model, got %q", got.SelectedModel)
	}
}
