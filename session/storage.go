package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/kv"
)

var sessionBucket = []byte("sessionsv1")

// Storage is a kv backed store for sessions, keyed by the opaque session key.
type Storage struct {
	kvStore kv.Store
}

// NewStorage creates a session store on top of the provided kv store.
func NewStorage(kvStore kv.Store) *Storage {
	return &Storage{kvStore: kvStore}
}

func unmarshalSession(v []byte) (*parley.Session, error) {
	s := &parley.Session{}
	if err := json.Unmarshal(v, s); err != nil {
		return nil, ErrCorruptSession(err)
	}

	return s, nil
}

func marshalSession(s *parley.Session) ([]byte, error) {
	v, err := json.Marshal(s)
	if err != nil {
		return nil, ErrUnprocessableSession(err)
	}

	return v, nil
}

// FindSessionByKey returns the session stored under key.
func (s *Storage) FindSessionByKey(ctx context.Context, key string) (*parley.Session, error) {
	var session *parley.Session
	err := s.kvStore.View(ctx, func(tx kv.Tx) error {
		b, err := tx.Bucket(sessionBucket)
		if err != nil {
			return err
		}

		v, err := b.Get([]byte(key))
		if kv.IsNotFound(err) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}

		session, err = unmarshalSession(v)
		return err
	})
	if err != nil {
		return nil, err
	}

	return session, nil
}

// CreateSession persists the session under its key.
func (s *Storage) CreateSession(ctx context.Context, session *parley.Session) error {
	v, err := marshalSession(session)
	if err != nil {
		return err
	}

	return s.kvStore.Update(ctx, func(tx kv.Tx) error {
		b, err := tx.Bucket(sessionBucket)
		if err != nil {
			return err
		}

		return b.Put([]byte(session.Key), v)
	})
}

// RefreshSession moves the session's expiration to newExpiration when it is
// later than the current one.
func (s *Storage) RefreshSession(ctx context.Context, key string, newExpiration time.Time) error {
	return s.kvStore.Update(ctx, func(tx kv.Tx) error {
		b, err := tx.Bucket(sessionBucket)
		if err != nil {
			return err
		}

		v, err := b.Get([]byte(key))
		if kv.IsNotFound(err) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}

		session, err := unmarshalSession(v)
		if err != nil {
			return err
		}

		if !newExpiration.After(session.ExpiresAt) {
			return nil
		}

		session.ExpiresAt = newExpiration
		v, err = marshalSession(session)
		if err != nil {
			return err
		}

		return b.Put([]byte(session.Key), v)
	})
}

// DeleteSession removes the session stored under key. Deleting a session that
// does not exist is not an error.
func (s *Storage) DeleteSession(ctx context.Context, key string) error {
	return s.kvStore.Update(ctx, func(tx kv.Tx) error {
		b, err := tx.Bucket(sessionBucket)
		if err != nil {
			return err
		}

		return b.Delete([]byte(key))
	})
}
