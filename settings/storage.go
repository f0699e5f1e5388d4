package settings

import (
	"context"
	"encoding/json"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/kit/platform"
	"github.com/parleyhq/parley/kv"
	"github.com/parleyhq/parley/snowflake"
)

var (
	searchSettingsBucket = []byte("searchsettingsv1")
	userSettingsBucket   = []byte("usersettingsv1")
)

// SearchSettingsStore is the kv implementation of the tenant search settings
// repository.
type SearchSettingsStore struct {
	kvStore kv.Store

	// IDGen assigns ids to settings records on first write.
	IDGen platform.IDGenerator
}

var _ parley.SearchSettingsService = (*SearchSettingsStore)(nil)

// NewSearchSettingsStore returns a search settings store on top of kvStore.
func NewSearchSettingsStore(kvStore kv.Store) *SearchSettingsStore {
	return &SearchSettingsStore{
		kvStore: kvStore,
		IDGen:   snowflake.NewIDGenerator(),
	}
}

// FindSearchSettings returns the search settings of a tenant.
func (s *SearchSettingsStore) FindSearchSettings(ctx context.Context, tenantID platform.ID) (*parley.SearchSettings, error) {
	encodedID, err := tenantID.Encode()
	if err != nil {
		return nil, InvalidIDError(err)
	}

	var settings *parley.SearchSettings
	err = s.kvStore.View(ctx, func(tx kv.Tx) error {
		b, err := tx.Bucket(searchSettingsBucket)
		if err != nil {
			return err
		}

		v, err := b.Get(encodedID)
		if kv.IsNotFound(err) {
			return ErrSearchSettingsNotFound
		}
		if err != nil {
			return err
		}

		settings = &parley.SearchSettings{}
		if err := json.Unmarshal(v, settings); err != nil {
			return ErrCorruptSearchSettings(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return settings, nil
}

// PutSearchSettings stores the search settings for a tenant. A record keeps
// its id across rewrites so the tenant's binding stays stable.
func (s *SearchSettingsStore) PutSearchSettings(ctx context.Context, tenantID platform.ID, settings *parley.SearchSettings) error {
	encodedID, err := tenantID.Encode()
	if err != nil {
		return InvalidIDError(err)
	}

	settings.TenantID = tenantID

	return s.kvStore.Update(ctx, func(tx kv.Tx) error {
		b, err := tx.Bucket(searchSettingsBucket)
		if err != nil {
			return err
		}

		if !settings.ID.Valid() {
			settings.ID = s.IDGen.ID()
			if v, err := b.Get(encodedID); err == nil {
				existing := &parley.SearchSettings{}
				if err := json.Unmarshal(v, existing); err == nil && existing.ID.Valid() {
					settings.ID = existing.ID
				}
			}
		}

		v, err := json.Marshal(settings)
		if err != nil {
			return ErrUnprocessableSettings(err)
		}

		return b.Put(encodedID, v)
	})
}

// UserSettingsStore is the kv implementation of the per-user preferences
// repository.
type UserSettingsStore struct {
	kvStore kv.Store
}

var _ parley.UserSettingsService = (*UserSettingsStore)(nil)

// NewUserSettingsStore returns a user settings store on top of kvStore.
func NewUserSettingsStore(kvStore kv.Store) *UserSettingsStore {
	return &UserSettingsStore{kvStore: kvStore}
}

// FindUserSettings returns the stored preferences of a user.
func (s *UserSettingsStore) FindUserSettings(ctx context.Context, userID platform.ID) (*parley.UserSettings, error) {
	encodedID, err := userID.Encode()
	if err != nil {
		return nil, InvalidIDError(err)
	}

	var settings *parley.UserSettings
	err = s.kvStore.View(ctx, func(tx kv.Tx) error {
		b, err := tx.Bucket(userSettingsBucket)
		if err != nil {
			return err
		}

		v, err := b.Get(encodedID)
		if kv.IsNotFound(err) {
			return ErrUserSettingsNotFound
		}
		if err != nil {
			return err
		}

		settings = &parley.UserSettings{}
		if err := json.Unmarshal(v, settings); err != nil {
			return ErrCorruptUserSettings(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return settings, nil
}

// PutUserSettings stores the preferences of a user.
func (s *UserSettingsStore) PutUserSettings(ctx context.Context, userID platform.ID, settings *parley.UserSettings) error {
	encodedID, err := userID.Encode()
	if err != nil {
		return InvalidIDError(err)
	}

	v, err := json.Marshal(settings)
	if err != nil {
		return ErrUnprocessableSettings(err)
	}

	return s.kvStore.Update(ctx, func(tx kv.Tx) error {
		b, err := tx.Bucket(userSettingsBucket)
		if err != nil {
			return err
		}

		return b.Put(encodedID, v)
	})
}
