package tenant

import (
	"context"
	"encoding/json"
	"strings"
	"unicode"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/kit/platform"
	"github.com/parleyhq/parley/kit/platform/errors"
	"github.com/parleyhq/parley/kv"
)

var (
	tenantBucket = []byte("tenantsv1")
	tenantIndex  = []byte("tenantslugindexv1")
)

// Slugify derives a url-safe slug from a tenant name. Letters and digits are
// kept lowercased, runs of anything else collapse into single dashes.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func tenantIndexKey(slug string) []byte {
	return []byte(slug)
}

func unmarshalTenant(v []byte) (*parley.Tenant, error) {
	t := &parley.Tenant{}
	if err := json.Unmarshal(v, t); err != nil {
		return nil, ErrCorruptTenant(err)
	}

	return t, nil
}

func marshalTenant(t *parley.Tenant) ([]byte, error) {
	v, err := json.Marshal(t)
	if err != nil {
		return nil, ErrUnprocessableTenant(err)
	}

	return v, nil
}

func (s *Store) uniqueTenantSlug(ctx context.Context, tx kv.Tx, slug string) error {
	key := tenantIndexKey(slug)
	if len(key) == 0 {
		return ErrNameisEmpty
	}

	idx, err := tx.Bucket(tenantIndex)
	if err != nil {
		return ErrInternalServiceError(err)
	}

	_, err = idx.Get(key)
	// if not found then this is unique.
	if kv.IsNotFound(err) {
		return nil
	}

	// no error means this is not unique
	if err == nil {
		return TenantAlreadyExistsError(slug)
	}

	// any other error is some sort of internal server error
	return ErrInternalServiceError(err)
}

// GetTenant returns a tenant by ID.
func (s *Store) GetTenant(ctx context.Context, tx kv.Tx, id platform.ID) (*parley.Tenant, error) {
	encodedID, err := id.Encode()
	if err != nil {
		return nil, InvalidTenantIDError(err)
	}

	b, err := tx.Bucket(tenantBucket)
	if err != nil {
		return nil, err
	}

	v, err := b.Get(encodedID)
	if kv.IsNotFound(err) {
		return nil, ErrTenantNotFound
	}

	if err != nil {
		return nil, ErrInternalServiceError(err)
	}

	return unmarshalTenant(v)
}

// GetTenantBySlug returns a tenant by its slug.
func (s *Store) GetTenantBySlug(ctx context.Context, tx kv.Tx, slug string) (*parley.Tenant, error) {
	b, err := tx.Bucket(tenantIndex)
	if err != nil {
		return nil, err
	}

	uid, err := b.Get(tenantIndexKey(slug))
	if kv.IsNotFound(err) {
		return nil, ErrTenantNotFound
	}

	if err != nil {
		return nil, ErrInternalServiceError(err)
	}

	var id platform.ID
	if err := id.Decode(uid); err != nil {
		return nil, platform.ErrCorruptID(err)
	}
	return s.GetTenant(ctx, tx, id)
}

// ListTenants returns tenants in key-ascending order.
func (s *Store) ListTenants(ctx context.Context, tx kv.Tx, opt ...parley.FindOptions) ([]*parley.Tenant, error) {
	// if we don't have any options it would be irresponsible to just give
	// back all tenants in the system
	if len(opt) == 0 {
		opt = append(opt, parley.FindOptions{
			Limit: parley.DefaultPageSize,
		})
	}
	o := opt[0]
	if o.Limit > parley.MaxPageSize || o.Limit == 0 {
		o.Limit = parley.MaxPageSize
	}

	b, err := tx.Bucket(tenantBucket)
	if err != nil {
		return nil, err
	}

	cursor, err := b.ForwardCursor(nil)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	count := 0
	ts := []*parley.Tenant{}
	for k, v := cursor.Next(); k != nil; k, v = cursor.Next() {
		if o.Offset != 0 && count < o.Offset {
			count++
			continue
		}
		t, err := unmarshalTenant(v)
		if err != nil {
			continue
		}

		ts = append(ts, t)

		if len(ts) >= o.Limit {
			break
		}
	}

	return ts, cursor.Err()
}

// CreateTenant assigns the tenant an ID and slug and persists it.
func (s *Store) CreateTenant(ctx context.Context, tx kv.Tx, t *parley.Tenant) (err error) {
	defer func() {
		err = errors.ErrInternalServiceError(err, errors.WithErrorOp(parley.OpCreateTenant))
	}()

	t.ID, err = s.generateSafeID(ctx, tx, tenantBucket, s.IDGen)
	if err != nil {
		return err
	}

	encodedID, err := t.ID.Encode()
	if err != nil {
		return InvalidTenantIDError(err)
	}

	if t.Slug == "" {
		t.Slug = Slugify(t.Name)
	}

	if err := s.uniqueTenantSlug(ctx, tx, t.Slug); err != nil {
		return err
	}

	t.SetCreatedAt(s.now())
	t.SetUpdatedAt(s.now())

	idx, err := tx.Bucket(tenantIndex)
	if err != nil {
		return err
	}

	b, err := tx.Bucket(tenantBucket)
	if err != nil {
		return err
	}

	v, err := marshalTenant(t)
	if err != nil {
		return err
	}

	if err := idx.Put(tenantIndexKey(t.Slug), encodedID); err != nil {
		return err
	}

	return b.Put(encodedID, v)
}

// UpdateTenant applies upd to the stored tenant. The slug is immutable and is
// never touched here.
func (s *Store) UpdateTenant(ctx context.Context, tx kv.Tx, id platform.ID, upd parley.TenantUpdate) (*parley.Tenant, error) {
	encodedID, err := id.Encode()
	if err != nil {
		return nil, InvalidTenantIDError(err)
	}

	t, err := s.GetTenant(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		t.Name = *upd.Name
	}

	if upd.LogoURL != nil {
		t.LogoURL = *upd.LogoURL
	}

	if upd.EnabledModels != nil {
		t.EnabledModels = upd.EnabledModels
	}

	if upd.SearchSettingsID != nil {
		t.SearchSettingsID = *upd.SearchSettingsID
	}

	t.SetUpdatedAt(s.now())

	v, err := marshalTenant(t)
	if err != nil {
		return nil, err
	}

	b, err := tx.Bucket(tenantBucket)
	if err != nil {
		return nil, err
	}
	if err := b.Put(encodedID, v); err != nil {
		return nil, err
	}

	return t, nil
}

// DeleteTenant removes the tenant and its slug index entry.
func (s *Store) DeleteTenant(ctx context.Context, tx kv.Tx, id platform.ID) error {
	t, err := s.GetTenant(ctx, tx, id)
	if err != nil {
		return err
	}

	encodedID, err := id.Encode()
	if err != nil {
		return InvalidTenantIDError(err)
	}

	idx, err := tx.Bucket(tenantIndex)
	if err != nil {
		return err
	}

	if err := idx.Delete(tenantIndexKey(t.Slug)); err != nil {
		return err
	}

	b, err := tx.Bucket(tenantBucket)
	if err != nil {
		return err
	}

	return b.Delete(encodedID)
}
