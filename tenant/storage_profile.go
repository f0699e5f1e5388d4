package tenant

import (
	"context"
	"encoding/json"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/kit/platform"
	"github.com/parleyhq/parley/kv"
)

var (
	profileBucket = []byte("profilesv1")
	// profileIndex maps userID+tenantID to profileID, making a user's
	// membership in a tenant unique and cheap to look up.
	profileIndex = []byte("profileuserindexv1")
)

func profileIndexKey(userID, tenantID platform.ID) ([]byte, error) {
	k1, err := userID.Encode()
	if err != nil {
		return nil, InvalidUserIDError(err)
	}
	k2, err := tenantID.Encode()
	if err != nil {
		return nil, InvalidTenantIDError(err)
	}

	key := make([]byte, 0, platform.IDLength*2)
	key = append(key, k1...)
	key = append(key, k2...)
	return key, nil
}

func unmarshalProfile(v []byte) (*parley.Profile, error) {
	p := &parley.Profile{}
	if err := json.Unmarshal(v, p); err != nil {
		return nil, ErrCorruptProfile(err)
	}

	return p, nil
}

func marshalProfile(p *parley.Profile) ([]byte, error) {
	v, err := json.Marshal(p)
	if err != nil {
		return nil, ErrUnprocessableProfile(err)
	}

	return v, nil
}

// GetProfile returns a profile by ID.
func (s *Store) GetProfile(ctx context.Context, tx kv.Tx, id platform.ID) (*parley.Profile, error) {
	encodedID, err := id.Encode()
	if err != nil {
		return nil, InvalidProfileIDError(err)
	}

	b, err := tx.Bucket(profileBucket)
	if err != nil {
		return nil, err
	}

	v, err := b.Get(encodedID)
	if kv.IsNotFound(err) {
		return nil, ErrProfileNotFound
	}

	if err != nil {
		return nil, ErrInternalServiceError(err)
	}

	return unmarshalProfile(v)
}

// GetProfileByUserAndTenant returns the user's profile in a tenant, if any.
func (s *Store) GetProfileByUserAndTenant(ctx context.Context, tx kv.Tx, userID, tenantID platform.ID) (*parley.Profile, error) {
	key, err := profileIndexKey(userID, tenantID)
	if err != nil {
		return nil, err
	}

	idx, err := tx.Bucket(profileIndex)
	if err != nil {
		return nil, err
	}

	pid, err := idx.Get(key)
	if kv.IsNotFound(err) {
		return nil, ErrProfileNotFound
	}

	if err != nil {
		return nil, ErrInternalServiceError(err)
	}

	var id platform.ID
	if err := id.Decode(pid); err != nil {
		return nil, platform.ErrCorruptID(err)
	}
	return s.GetProfile(ctx, tx, id)
}

// ListProfilesByUser returns every profile belonging to a user, in tenant key
// order.
func (s *Store) ListProfilesByUser(ctx context.Context, tx kv.Tx, userID platform.ID) ([]*parley.Profile, error) {
	prefix, err := userID.Encode()
	if err != nil {
		return nil, InvalidUserIDError(err)
	}

	idx, err := tx.Bucket(profileIndex)
	if err != nil {
		return nil, err
	}

	cursor, err := idx.ForwardCursor(prefix, kv.WithCursorPrefix(prefix))
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	ps := []*parley.Profile{}
	for k, v := cursor.Next(); k != nil; k, v = cursor.Next() {
		var id platform.ID
		if err := id.Decode(v); err != nil {
			return nil, platform.ErrCorruptID(err)
		}

		p, err := s.GetProfile(ctx, tx, id)
		if err != nil {
			return nil, err
		}

		ps = append(ps, p)
	}

	return ps, cursor.Err()
}

// CreateProfile assigns the profile an ID and persists it. A user may hold at
// most one profile per tenant.
func (s *Store) CreateProfile(ctx context.Context, tx kv.Tx, p *parley.Profile) (err error) {
	key, err := profileIndexKey(p.UserID, p.TenantID)
	if err != nil {
		return err
	}

	idx, err := tx.Bucket(profileIndex)
	if err != nil {
		return err
	}

	if _, err := idx.Get(key); err == nil {
		return ErrProfileAlreadyExists
	} else if !kv.IsNotFound(err) {
		return ErrInternalServiceError(err)
	}

	p.ID, err = s.generateSafeID(ctx, tx, profileBucket, s.IDGen)
	if err != nil {
		return err
	}

	encodedID, err := p.ID.Encode()
	if err != nil {
		return InvalidProfileIDError(err)
	}

	p.SetCreatedAt(s.now())
	p.SetUpdatedAt(s.now())

	v, err := marshalProfile(p)
	if err != nil {
		return err
	}

	if err := idx.Put(key, encodedID); err != nil {
		return ErrInternalServiceError(err)
	}

	b, err := tx.Bucket(profileBucket)
	if err != nil {
		return err
	}

	return b.Put(encodedID, v)
}

// DeleteProfile removes the profile and its user index entry.
func (s *Store) DeleteProfile(ctx context.Context, tx kv.Tx, id platform.ID) error {
	p, err := s.GetProfile(ctx, tx, id)
	if err != nil {
		return err
	}

	key, err := profileIndexKey(p.UserID, p.TenantID)
	if err != nil {
		return err
	}

	idx, err := tx.Bucket(profileIndex)
	if err != nil {
		return err
	}

	if err := idx.Delete(key); err != nil {
		return ErrInternalServiceError(err)
	}

	encodedID, err := id.Encode()
	if err != nil {
		return InvalidProfileIDError(err)
	}

	b, err := tx.Bucket(profileBucket)
	if err != nil {
		return err
	}

	return b.Delete(encodedID)
}
