package settings

import (
	"context"

	"github.com/parleyhq/parley"
	pcontext "github.com/parleyhq/parley/context"
	"github.com/parleyhq/parley/kit/platform"
	"github.com/parleyhq/parley/kit/platform/errors"
	"go.uber.org/zap"
)

// Service resolves the settings a request runs with. Layer lookups degrade
// rather than fail: a tenant without stored settings gets the defaults, and a
// corrupt or unreadable user settings record is logged and skipped so a bad
// write can never lock a user out of chat.
type Service struct {
	log *zap.Logger

	searchStore parley.SearchSettingsService
	userStore   parley.UserSettingsService

	tenantSvc  parley.TenantService
	userSvc    parley.UserService
	profileSvc parley.ProfileService
}

// NewService creates a settings resolution service.
func NewService(log *zap.Logger, searchStore parley.SearchSettingsService, userStore parley.UserSettingsService, tenantSvc parley.TenantService, userSvc parley.UserService, profileSvc parley.ProfileService) *Service {
	return &Service{
		log:         log,
		searchStore: searchStore,
		userStore:   userStore,
		tenantSvc:   tenantSvc,
		userSvc:     userSvc,
		profileSvc:  profileSvc,
	}
}

// CurrentTenant resolves the tenant of the caller's current profile.
func (s *Service) CurrentTenant(ctx context.Context) (*parley.Tenant, error) {
	userID, err := pcontext.GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	u, err := s.userSvc.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !u.CurrentProfileID.Valid() {
		return nil, &errors.Error{
			Code: errors.ENotFound,
			Msg:  "no current profile; complete setup first",
		}
	}

	p, err := s.profileSvc.FindProfileByID(ctx, u.CurrentProfileID)
	if err != nil {
		return nil, err
	}

	return s.tenantSvc.FindTenantByID(ctx, p.TenantID)
}

// Resolve merges the tenant's search settings, the caller's stored
// preferences and the optional per-request layer.
func (s *Service) Resolve(ctx context.Context, request *parley.UserSettings) (*parley.EffectiveSettings, error) {
	tenant, err := s.CurrentTenant(ctx)
	if err != nil {
		return nil, err
	}

	userID, err := pcontext.GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	search := s.searchSettings(ctx, tenant.ID)
	user := s.userSettings(ctx, userID)

	eff := Resolve(tenant, search, user, request)
	return &eff, nil
}

// searchSettings loads the tenant layer, falling back to the defaults when
// the tenant has none stored or the read fails.
func (s *Service) searchSettings(ctx context.Context, tenantID platform.ID) *parley.SearchSettings {
	search, err := s.searchStore.FindSearchSettings(ctx, tenantID)
	if err == nil {
		return search
	}

	if errors.ErrorCode(err) != errors.ENotFound {
		s.log.Warn("failed to load tenant search settings, using defaults",
			zap.Stringer("tenant_id", tenantID), zap.Error(err))
	}
	return DefaultSearchSettings()
}

// userSettings loads the user layer. A missing or unreadable record resolves
// as if the user never stored preferences.
func (s *Service) userSettings(ctx context.Context, userID platform.ID) *parley.UserSettings {
	user, err := s.userStore.FindUserSettings(ctx, userID)
	if err == nil {
		return user
	}

	if errors.ErrorCode(err) != errors.ENotFound {
		s.log.Warn("failed to load user settings, ignoring them",
			zap.Stringer("user_id", userID), zap.Error(err))
	}
	return nil
}

// PutUserSettings stores the caller's preferences.
func (s *Service) PutUserSettings(ctx context.Context, settings *parley.UserSettings) error {
	userID, err := pcontext.GetUserID(ctx)
	if err != nil {
		return err
	}

	return s.userStore.PutUserSettings(ctx, userID, settings)
}

// FindSearchSettings returns the stored search settings of the caller's
// tenant, without applying defaults.
func (s *Service) FindSearchSettings(ctx context.Context) (*parley.SearchSettings, error) {
	tenant, err := s.CurrentTenant(ctx)
	if err != nil {
		return nil, err
	}

	return s.searchStore.FindSearchSettings(ctx, tenant.ID)
}

// PutSearchSettings stores the search settings of the caller's tenant and
// binds the record to the tenant.
func (s *Service) PutSearchSettings(ctx context.Context, settings *parley.SearchSettings) error {
	tenant, err := s.CurrentTenant(ctx)
	if err != nil {
		return err
	}

	if err := s.searchStore.PutSearchSettings(ctx, tenant.ID, settings); err != nil {
		return err
	}

	if tenant.SearchSettingsID == settings.ID {
		return nil
	}
	_, err = s.tenantSvc.UpdateTenant(ctx, tenant.ID, parley.TenantUpdate{
		SearchSettingsID: &settings.ID,
	})
	return err
}
