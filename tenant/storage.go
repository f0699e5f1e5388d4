package tenant

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/parleyhq/parley/kit/platform"
	"github.com/parleyhq/parley/kv"
	"github.com/parleyhq/parley/snowflake"
)

// MaxIDGenerationN is the maximum number of times an ID generation is
// attempted before giving up.
const MaxIDGenerationN = 100

// Store is the tenant storage layer. All methods expect to be called inside
// a kv transaction owned by the caller, so multi-resource operations like
// setup stay atomic.
type Store struct {
	kvStore kv.Store

	IDGen platform.IDGenerator
	clock clock.Clock
}

// StoreOption is a functional option for the Store.
type StoreOption func(*Store)

// WithClock replaces the wall clock, primarily for tests.
func WithClock(c clock.Clock) StoreOption {
	return func(s *Store) {
		s.clock = c
	}
}

// WithIDGenerator replaces the ID generator.
func WithIDGenerator(g platform.IDGenerator) StoreOption {
	return func(s *Store) {
		s.IDGen = g
	}
}

// NewStore creates a tenant store over the provided kv store.
func NewStore(kvStore kv.Store, opts ...StoreOption) *Store {
	store := &Store{
		kvStore: kvStore,
		IDGen:   snowflake.NewDefaultIDGenerator(),
		clock:   clock.New(),
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// View opens up a transaction that will not write to any data.
func (s *Store) View(ctx context.Context, fn func(kv.Tx) error) error {
	return s.kvStore.View(ctx, fn)
}

// Update opens up a transaction that will mutate data.
func (s *Store) Update(ctx context.Context, fn func(kv.Tx) error) error {
	return s.kvStore.Update(ctx, fn)
}

func (s *Store) now() time.Time {
	return s.clock.Now().UTC()
}

// generateSafeID attempts to create ids for buckets
// and will error if it cannot find one that is unused after
// MaxIDGenerationN attempts.
func (s *Store) generateSafeID(ctx context.Context, tx kv.Tx, bucket []byte, gen platform.IDGenerator) (platform.ID, error) {
	for i := 0; i < MaxIDGenerationN; i++ {
		id := gen.ID()

		err := s.uniqueID(ctx, tx, bucket, id)
		if err == nil {
			return id, nil
		}

		if err == NotUniqueIDError {
			continue
		}

		return platform.InvalidID(), err
	}
	return platform.InvalidID(), ErrFailureGeneratingID
}

func (s *Store) uniqueID(ctx context.Context, tx kv.Tx, bucket []byte, id platform.ID) error {
	encodedID, err := id.Encode()
	if err != nil {
		return platform.ErrCorruptID(err)
	}

	b, err := tx.Bucket(bucket)
	if err != nil {
		return err
	}

	_, err = b.Get(encodedID)
	if kv.IsNotFound(err) {
		return nil
	}

	return NotUniqueIDError
}
