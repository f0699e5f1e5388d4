package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/kit/platform"
	"github.com/parleyhq/parley/kv"
	"github.com/parleyhq/parley/snowflake"
)

var (
	conversationBucket = []byte("conversationsv1")
	// messageBucket keys are conversationID+messageID. Snowflake ids are
	// time sortable, so a prefix scan yields the transcript in order.
	messageBucket = []byte("messagesv1")
	sourcesBucket = []byte("messagesourcesv1")
)

// Store is the chat storage layer.
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

// NewStore creates a chat store over the provided kv store.
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

func messageKey(conversationID, messageID platform.ID) ([]byte, error) {
	k1, err := conversationID.Encode()
	if err != nil {
		return nil, InvalidChatIDError(err)
	}
	k2, err := messageID.Encode()
	if err != nil {
		return nil, InvalidChatIDError(err)
	}

	key := make([]byte, 0, platform.IDLength*2)
	key = append(key, k1...)
	key = append(key, k2...)
	return key, nil
}

func unmarshalConversation(v []byte) (*parley.Conversation, error) {
	c := &parley.Conversation{}
	if err := json.Unmarshal(v, c); err != nil {
		return nil, ErrCorruptConversation(err)
	}

	return c, nil
}

func unmarshalMessage(v []byte) (*parley.Message, error) {
	m := &parley.Message{}
	if err := json.Unmarshal(v, m); err != nil {
		return nil, ErrCorruptMessage(err)
	}

	return m, nil
}

// CreateConversation assigns the conversation an ID and persists it.
func (s *Store) CreateConversation(ctx context.Context, tx kv.Tx, c *parley.Conversation) error {
	id := s.IDGen.ID()
	c.ID = id

	encodedID, err := id.Encode()
	if err != nil {
		return InvalidChatIDError(err)
	}

	c.SetCreatedAt(s.now())
	c.SetUpdatedAt(s.now())

	v, err := json.Marshal(c)
	if err != nil {
		return ErrUnprocessableChat(err)
	}

	b, err := tx.Bucket(conversationBucket)
	if err != nil {
		return err
	}

	return b.Put(encodedID, v)
}

// GetConversation returns a conversation by ID.
func (s *Store) GetConversation(ctx context.Context, tx kv.Tx, id platform.ID) (*parley.Conversation, error) {
	encodedID, err := id.Encode()
	if err != nil {
		return nil, InvalidChatIDError(err)
	}

	b, err := tx.Bucket(conversationBucket)
	if err != nil {
		return nil, err
	}

	v, err := b.Get(encodedID)
	if kv.IsNotFound(err) {
		return nil, ErrConversationNotFound
	}

	if err != nil {
		return nil, ErrInternalServiceError(err)
	}

	return unmarshalConversation(v)
}

// TouchConversation bumps the conversation's updated time.
func (s *Store) TouchConversation(ctx context.Context, tx kv.Tx, id platform.ID) error {
	c, err := s.GetConversation(ctx, tx, id)
	if err != nil {
		return err
	}

	encodedID, err := id.Encode()
	if err != nil {
		return InvalidChatIDError(err)
	}

	c.SetUpdatedAt(s.now())

	v, err := json.Marshal(c)
	if err != nil {
		return ErrUnprocessableChat(err)
	}

	b, err := tx.Bucket(conversationBucket)
	if err != nil {
		return err
	}

	return b.Put(encodedID, v)
}

// ListConversationsByProfile returns the conversations owned by a profile.
func (s *Store) ListConversationsByProfile(ctx context.Context, tx kv.Tx, profileID platform.ID) ([]*parley.Conversation, error) {
	b, err := tx.Bucket(conversationBucket)
	if err != nil {
		return nil, err
	}

	cursor, err := b.ForwardCursor(nil)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	cs := []*parley.Conversation{}
	for k, v := cursor.Next(); k != nil; k, v = cursor.Next() {
		c, err := unmarshalConversation(v)
		if err != nil {
			continue
		}

		if c.ProfileID == profileID {
			cs = append(cs, c)
		}
	}

	return cs, cursor.Err()
}

// PutMessage persists a message under its conversation.
func (s *Store) PutMessage(ctx context.Context, tx kv.Tx, m *parley.Message) error {
	if !m.ID.Valid() {
		m.ID = s.IDGen.ID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}

	key, err := messageKey(m.ConversationID, m.ID)
	if err != nil {
		return err
	}

	v, err := json.Marshal(m)
	if err != nil {
		return ErrUnprocessableChat(err)
	}

	b, err := tx.Bucket(messageBucket)
	if err != nil {
		return err
	}

	return b.Put(key, v)
}

// GetMessage returns a single message of a conversation.
func (s *Store) GetMessage(ctx context.Context, tx kv.Tx, conversationID, messageID platform.ID) (*parley.Message, error) {
	key, err := messageKey(conversationID, messageID)
	if err != nil {
		return nil, err
	}

	b, err := tx.Bucket(messageBucket)
	if err != nil {
		return nil, err
	}

	v, err := b.Get(key)
	if kv.IsNotFound(err) {
		return nil, ErrMessageNotFound
	}

	if err != nil {
		return nil, ErrInternalServiceError(err)
	}

	return unmarshalMessage(v)
}

// ListMessages returns the transcript of a conversation in append order.
func (s *Store) ListMessages(ctx context.Context, tx kv.Tx, conversationID platform.ID, opt ...parley.FindOptions) ([]*parley.Message, error) {
	prefix, err := conversationID.Encode()
	if err != nil {
		return nil, InvalidChatIDError(err)
	}

	b, err := tx.Bucket(messageBucket)
	if err != nil {
		return nil, err
	}

	cursor, err := b.ForwardCursor(prefix, kv.WithCursorPrefix(prefix))
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	o := parley.FindOptions{}
	if len(opt) > 0 {
		o = opt[0]
	}

	count := 0
	ms := []*parley.Message{}
	for k, v := cursor.Next(); k != nil; k, v = cursor.Next() {
		if o.Offset != 0 && count < o.Offset {
			count++
			continue
		}

		m, err := unmarshalMessage(v)
		if err != nil {
			return nil, err
		}

		ms = append(ms, m)

		if o.Limit != 0 && len(ms) >= o.Limit {
			break
		}
	}

	return ms, cursor.Err()
}

// PutMessageSources stores the citations of a message.
func (s *Store) PutMessageSources(ctx context.Context, tx kv.Tx, conversationID platform.ID, ms *parley.MessageSources) error {
	key, err := messageKey(conversationID, ms.ID)
	if err != nil {
		return err
	}

	v, err := json.Marshal(ms)
	if err != nil {
		return ErrUnprocessableChat(err)
	}

	b, err := tx.Bucket(sourcesBucket)
	if err != nil {
		return err
	}

	return b.Put(key, v)
}

// GetMessageSources returns the citations of a message. A message without
// stored citations yields an empty set rather than an error.
func (s *Store) GetMessageSources(ctx context.Context, tx kv.Tx, conversationID, messageID platform.ID) (*parley.MessageSources, error) {
	key, err := messageKey(conversationID, messageID)
	if err != nil {
		return nil, err
	}

	b, err := tx.Bucket(sourcesBucket)
	if err != nil {
		return nil, err
	}

	v, err := b.Get(key)
	if kv.IsNotFound(err) {
		return &parley.MessageSources{ID: messageID, Sources: []parley.SourceCitation{}}, nil
	}

	if err != nil {
		return nil, ErrInternalServiceError(err)
	}

	ms := &parley.MessageSources{}
	if err := json.Unmarshal(v, ms); err != nil {
		return nil, ErrCorruptMessage(err)
	}

	return ms, nil
}
