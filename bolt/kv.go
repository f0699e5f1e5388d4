package bolt

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/parleyhq/parley/kv"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// ensure *KVStore implements kv.Store
var _ kv.Store = (*KVStore)(nil)

// KVStore is a kv.Store backed by boltdb.
type KVStore struct {
	path string
	db   *bolt.DB
	log  *zap.Logger
}

// NewKVStore returns an instance of KVStore with the file at
// the provided path.
func NewKVStore(log *zap.Logger, path string) *KVStore {
	return &KVStore{
		path: path,
		log:  log,
	}
}

// Open creates the boltDB file if it doesn't exist and opens it otherwise.
func (s *KVStore) Open(ctx context.Context) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "KVStore.Open")
	defer span.Finish()

	// Ensure the required directory structure exists.
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("unable to create directory %s: %v", s.path, err)
	}

	if _, err := os.Stat(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}

	// Open database file.
	db, err := bolt.Open(s.path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return fmt.Errorf("unable to open boltdb file %v", err)
	}
	s.db = db

	s.log.Info("Resources opened", zap.String("path", s.path))
	return nil
}

// Close the connection to the bolt database.
func (s *KVStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// View opens up a view transaction against the store.
func (s *KVStore) View(ctx context.Context, fn func(tx kv.Tx) error) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "KVStore.View")
	defer span.Finish()

	return s.db.View(func(tx *bolt.Tx) error {
		return fn(&Tx{
			tx:  tx,
			ctx: ctx,
		})
	})
}

// Update opens up an update transaction against the store.
func (s *KVStore) Update(ctx context.Context, fn func(tx kv.Tx) error) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "KVStore.Update")
	defer span.Finish()

	return s.db.Update(func(tx *bolt.Tx) error {
		return fn(&Tx{
			tx:  tx,
			ctx: ctx,
		})
	})
}

// Tx is a light wrapper around a boltdb transaction. It implements kv.Tx.
type Tx struct {
	tx  *bolt.Tx
	ctx context.Context
}

// Context returns the context for the transaction.
func (tx *Tx) Context() context.Context {
	return tx.ctx
}

// WithContext sets the context for the transaction.
func (tx *Tx) WithContext(ctx context.Context) {
	tx.ctx = ctx
}

// Bucket creates and returns bucket, b.
func (tx *Tx) Bucket(b []byte) (kv.Bucket, error) {
	bkt := tx.tx.Bucket(b)
	if bkt == nil {
		if !tx.tx.Writable() {
			// cannot create a bucket in a non-writable transaction;
			// hand the caller an empty one instead.
			return &emptyBucket{}, nil
		}

		var err error
		bkt, err = tx.tx.CreateBucketIfNotExists(b)
		if err != nil {
			return nil, err
		}
	}

	return &Bucket{
		bucket: bkt,
	}, nil
}

// Bucket implements kv.Bucket.
type Bucket struct {
	bucket *bolt.Bucket
}

// Get retrieves the value at the provided key.
func (b *Bucket) Get(key []byte) ([]byte, error) {
	val := b.bucket.Get(key)
	if len(val) == 0 {
		return nil, kv.ErrKeyNotFound
	}

	return val, nil
}

// Put sets the value at the provided key.
func (b *Bucket) Put(key []byte, value []byte) error {
	err := b.bucket.Put(key, value)
	if err == bolt.ErrTxNotWritable {
		return kv.ErrTxNotWritable
	}
	return err
}

// Delete removes the provided key.
func (b *Bucket) Delete(key []byte) error {
	err := b.bucket.Delete(key)
	if err == bolt.ErrTxNotWritable {
		return kv.ErrTxNotWritable
	}
	return err
}

// ForwardCursor retrieves a cursor for iterating through the entries
// in the key value store in a given direction (ascending).
func (b *Bucket) ForwardCursor(seek []byte, opts ...kv.CursorOption) (kv.ForwardCursor, error) {
	conf := kv.NewCursorConfig(opts...)
	if conf.Prefix != nil && !bytes.HasPrefix(seek, conf.Prefix) {
		return nil, kv.ErrSeekMissingPrefix
	}

	cursor := b.bucket.Cursor()
	k, v := cursor.Seek(seek)

	return &Cursor{
		cursor: cursor,
		key:    k,
		value:  v,
		config: conf,
	}, nil
}

// Cursor is a struct for iterating through the entries
// in the key value store.
type Cursor struct {
	cursor *bolt.Cursor
	config kv.CursorConfig

	key   []byte
	value []byte

	seen bool
}

// Next retrieves the next entry in the bucket.
func (c *Cursor) Next() ([]byte, []byte) {
	var k, v []byte
	if !c.seen {
		c.seen = true
		k, v = c.key, c.value
	} else {
		k, v = c.cursor.Next()
	}

	if c.config.Prefix != nil && !bytes.HasPrefix(k, c.config.Prefix) {
		return nil, nil
	}

	return k, v
}

// Err always returns nil as nothing can go wrong with a bolt cursor.
func (c *Cursor) Err() error {
	return nil
}

// Close sets the cursor to nil.
func (c *Cursor) Close() error {
	c.cursor = nil
	return nil
}

// emptyBucket is returned for missing buckets in read-only transactions.
type emptyBucket struct{}

func (emptyBucket) Get([]byte) ([]byte, error) {
	return nil, kv.ErrKeyNotFound
}

func (emptyBucket) Put([]byte, []byte) error {
	return kv.ErrTxNotWritable
}

func (emptyBucket) Delete([]byte) error {
	return kv.ErrTxNotWritable
}

func (emptyBucket) ForwardCursor([]byte, ...kv.CursorOption) (kv.ForwardCursor, error) {
	return emptyCursor{}, nil
}

type emptyCursor struct{}

func (emptyCursor) Next() ([]byte, []byte) { return nil, nil }
func (emptyCursor) Err() error             { return nil }
func (emptyCursor) Close() error           { return nil }
