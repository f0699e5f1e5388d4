package inmem

import (
	"bytes"
	"context"
	"sync"

	"github.com/google/btree"
	"github.com/parleyhq/parley/kv"
)

// ensure *KVStore implements kv.Store
var _ kv.Store = (*KVStore)(nil)

// KVStore is an in memory btree backed kv.Store.
type KVStore struct {
	mu      sync.RWMutex
	buckets map[string]*Bucket
}

// NewKVStore creates an instance of a KVStore.
func NewKVStore() *KVStore {
	return &KVStore{
		buckets: map[string]*Bucket{},
	}
}

// View opens up a transaction with a read lock.
func (s *KVStore) View(ctx context.Context, fn func(kv.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&Tx{
		kv:       s,
		writable: false,
		ctx:      ctx,
	})
}

// Update opens up a transaction with a write lock.
func (s *KVStore) Update(ctx context.Context, fn func(kv.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&Tx{
		kv:       s,
		writable: true,
		ctx:      ctx,
	})
}

// Flush removes all data from the buckets.
func (s *KVStore) Flush(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.buckets {
		b.btree.Clear(false)
	}
}

// Tx is an in memory transaction.
// TODO: make transactions actually transactional
type Tx struct {
	kv       *KVStore
	writable bool
	ctx      context.Context
}

// Context returns the context for the transaction.
func (t *Tx) Context() context.Context {
	return t.ctx
}

// WithContext sets the context for the transaction.
func (t *Tx) WithContext(ctx context.Context) {
	t.ctx = ctx
}

// createBucketIfNotExists creates a btree bucket at the provided key.
func (t *Tx) createBucketIfNotExists(b []byte) (kv.Bucket, error) {
	if t.writable {
		bkt, ok := t.kv.buckets[string(b)]
		if !ok {
			bkt = &Bucket{btree: btree.New(2)}
			t.kv.buckets[string(b)] = bkt
		}

		return &bucket{
			Bucket:   bkt,
			writable: t.writable,
		}, nil
	}

	// a read only tx sees a missing bucket as empty rather than erroring
	return &bucket{
		Bucket:   &Bucket{btree: btree.New(2)},
		writable: false,
	}, nil
}

// Bucket retrieves the bucket at the provided key.
func (t *Tx) Bucket(b []byte) (kv.Bucket, error) {
	bkt, ok := t.kv.buckets[string(b)]
	if !ok {
		return t.createBucketIfNotExists(b)
	}

	return &bucket{
		Bucket:   bkt,
		writable: t.writable,
	}, nil
}

// Bucket is a btree that implements kv.Bucket.
type Bucket struct {
	btree *btree.BTree
}

type bucket struct {
	*Bucket
	writable bool
}

// Put wraps the put method of a kv bucket and ensures that the
// bucket is writable.
func (b *bucket) Put(key, value []byte) error {
	if b.writable {
		return b.Bucket.put(key, value)
	}
	return kv.ErrTxNotWritable
}

// Delete wraps the delete method of a kv bucket and ensures that the
// bucket is writable.
func (b *bucket) Delete(key []byte) error {
	if b.writable {
		return b.Bucket.delete(key)
	}
	return kv.ErrTxNotWritable
}

type item struct {
	key   []byte
	value []byte
}

// Less is used to implement the btree.Item interface.
func (i *item) Less(b btree.Item) bool {
	j, ok := b.(*item)
	if !ok {
		return false
	}

	return bytes.Compare(i.key, j.key) < 0
}

// Get retrieves the value at the provided key.
func (b *Bucket) Get(key []byte) ([]byte, error) {
	i := b.btree.Get(&item{key: key})

	if i == nil {
		return nil, kv.ErrKeyNotFound
	}

	j, ok := i.(*item)
	if !ok {
		return nil, kv.ErrKeyNotFound
	}

	return j.value, nil
}

func (b *Bucket) put(key, value []byte) error {
	_ = b.btree.ReplaceOrInsert(&item{key: key, value: value})
	return nil
}

func (b *Bucket) delete(key []byte) error {
	_ = b.btree.Delete(&item{key: key})
	return nil
}

// ForwardCursor returns a directional cursor which starts at the provided seeked key.
func (b *Bucket) ForwardCursor(seek []byte, opts ...kv.CursorOption) (kv.ForwardCursor, error) {
	conf := kv.NewCursorConfig(opts...)
	if conf.Prefix != nil && !bytes.HasPrefix(seek, conf.Prefix) {
		return nil, kv.ErrSeekMissingPrefix
	}

	var pairs []item
	b.btree.AscendGreaterOrEqual(&item{key: seek}, func(i btree.Item) bool {
		j, ok := i.(*item)
		if !ok {
			return false
		}

		if conf.Prefix != nil && !bytes.HasPrefix(j.key, conf.Prefix) {
			return false
		}

		pairs = append(pairs, *j)
		return true
	})

	return &forwardCursor{pairs: pairs}, nil
}

// forwardCursor is a kv.ForwardCursor over a snapshot of btree items.
type forwardCursor struct {
	pairs []item
	idx   int
}

// Next returns the next key/value pair in the cursor.
func (c *forwardCursor) Next() ([]byte, []byte) {
	if c.idx >= len(c.pairs) {
		return nil, nil
	}

	pair := c.pairs[c.idx]
	c.idx++
	return pair.key, pair.value
}

// Err is always nil for an in memory cursor.
func (c *forwardCursor) Err() error {
	return nil
}

// Close releases the snapshot held by the cursor.
func (c *forwardCursor) Close() error {
	c.pairs = nil
	return nil
}
