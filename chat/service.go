package chat

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/parleyhq/parley"
	pcontext "github.com/parleyhq/parley/context"
	"github.com/parleyhq/parley/kit/platform"
	"github.com/parleyhq/parley/kit/platform/errors"
	"github.com/parleyhq/parley/kv"
	"github.com/parleyhq/parley/settings"
	"go.uber.org/zap"
)

// Service implements parley.ConversationService. It owns the transcript
// storage and drives the answer backend, holding at most one in-flight
// assistant response per conversation.
type Service struct {
	log *zap.Logger

	store       *Store
	settingsSvc *settings.Service
	userSvc     parley.UserService
	profileSvc  parley.ProfileService
	answerer    parley.Answerer

	mu sync.Mutex
	// pending correlates each conversation with the assistant message id
	// currently being streamed for it.
	pending map[platform.ID]platform.ID
}

var _ parley.ConversationService = (*Service)(nil)

// NewService creates a conversation service.
func NewService(log *zap.Logger, store *Store, settingsSvc *settings.Service, userSvc parley.UserService, profileSvc parley.ProfileService, answerer parley.Answerer) *Service {
	return &Service{
		log:         log,
		store:       store,
		settingsSvc: settingsSvc,
		userSvc:     userSvc,
		profileSvc:  profileSvc,
		answerer:    answerer,
	}
}

// currentProfile resolves the caller's current profile.
func (s *Service) currentProfile(ctx context.Context) (*parley.Profile, error) {
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

	return s.profileSvc.FindProfileByID(ctx, u.CurrentProfileID)
}

// conversationForCaller loads a conversation and verifies the caller's
// current profile owns it. Foreign conversations read as not found.
func (s *Service) conversationForCaller(ctx context.Context, id platform.ID) (*parley.Conversation, error) {
	p, err := s.currentProfile(ctx)
	if err != nil {
		return nil, err
	}

	var c *parley.Conversation
	err = s.store.View(ctx, func(tx kv.Tx) error {
		got, err := s.store.GetConversation(ctx, tx, id)
		if err != nil {
			return err
		}
		c = got
		return nil
	})
	if err != nil {
		return nil, err
	}

	if c.ProfileID != p.ID {
		return nil, ErrConversationNotFound
	}

	return c, nil
}

// CreateConversation creates a new conversation owned by the caller's
// current profile.
func (s *Service) CreateConversation(ctx context.Context, c *parley.Conversation) error {
	p, err := s.currentProfile(ctx)
	if err != nil {
		return err
	}

	c.TenantID = p.TenantID
	c.ProfileID = p.ID

	return s.store.Update(ctx, func(tx kv.Tx) error {
		return s.store.CreateConversation(ctx, tx, c)
	})
}

// FindConversationByID returns a single conversation by ID.
func (s *Service) FindConversationByID(ctx context.Context, id platform.ID) (*parley.Conversation, error) {
	return s.conversationForCaller(ctx, id)
}

// FindConversations returns the conversations of the caller's current profile.
func (s *Service) FindConversations(ctx context.Context) ([]*parley.Conversation, error) {
	p, err := s.currentProfile(ctx)
	if err != nil {
		return nil, err
	}

	var cs []*parley.Conversation
	err = s.store.View(ctx, func(tx kv.Tx) error {
		got, err := s.store.ListConversationsByProfile(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		cs = got
		return nil
	})
	if err != nil {
		return nil, err
	}

	return cs, nil
}

// ListMessages returns the full ordered transcript of a conversation.
func (s *Service) ListMessages(ctx context.Context, conversationID platform.ID, opt ...parley.FindOptions) ([]*parley.Message, error) {
	if _, err := s.conversationForCaller(ctx, conversationID); err != nil {
		return nil, err
	}

	var ms []*parley.Message
	err := s.store.View(ctx, func(tx kv.Tx) error {
		got, err := s.store.ListMessages(ctx, tx, conversationID, opt...)
		if err != nil {
			return err
		}
		ms = got
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ms, nil
}

// FindMessageSources returns the source citations of a single message.
func (s *Service) FindMessageSources(ctx context.Context, conversationID, messageID platform.ID) (*parley.MessageSources, error) {
	if _, err := s.conversationForCaller(ctx, conversationID); err != nil {
		return nil, err
	}

	var ms *parley.MessageSources
	err := s.store.View(ctx, func(tx kv.Tx) error {
		got, err := s.store.GetMessageSources(ctx, tx, conversationID, messageID)
		if err != nil {
			return err
		}
		ms = got
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ms, nil
}

// acquire reserves the conversation's response slot. The assistant message
// id is recorded with track once it has been allocated.
func (s *Service) acquire(conversationID platform.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		s.pending = map[platform.ID]platform.ID{}
	}

	if _, ok := s.pending[conversationID]; ok {
		return ErrResponsePending
	}

	s.pending[conversationID] = platform.InvalidID()
	return nil
}

// track records the assistant message id being streamed for the conversation.
func (s *Service) track(conversationID, assistantID platform.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[conversationID] = assistantID
}

func (s *Service) release(conversationID platform.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, conversationID)
}

// SendMessage appends the user message to the transcript and begins
// streaming the assistant response. At most one response may be in flight
// per conversation; concurrent submissions are rejected.
func (s *Service) SendMessage(ctx context.Context, req *parley.SendMessageRequest) (parley.MessageStream, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	c, err := s.conversationForCaller(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}

	// resolve the settings this request runs with before anything is
	// persisted, so a tenant without models rejects cleanly
	eff, err := s.settingsSvc.Resolve(ctx, requestLayer(req))
	if err != nil {
		return nil, err
	}
	if eff.SelectedModel == "" {
		return nil, ErrNoModelAvailable
	}

	if err := s.acquire(c.ID); err != nil {
		return nil, err
	}

	userMsg := &parley.Message{
		ConversationID: c.ID,
		Role:           parley.MessageRoleUser,
		Content:        content,
	}

	var (
		history     []*parley.Message
		assistantID platform.ID
	)
	err = s.store.Update(ctx, func(tx kv.Tx) error {
		if err := s.store.PutMessage(ctx, tx, userMsg); err != nil {
			return err
		}
		// allocated after the user message got its id, so the reply keys
		// after it in the transcript
		assistantID = s.store.IDGen.ID()

		if err := s.store.TouchConversation(ctx, tx, c.ID); err != nil {
			return err
		}

		history, err = s.store.ListMessages(ctx, tx, c.ID)
		return err
	})
	if err != nil {
		s.release(c.ID)
		return nil, err
	}
	s.track(c.ID, assistantID)

	answer, err := s.answerer.Answer(ctx, &parley.AnswerRequest{
		TenantID:       c.TenantID,
		ConversationID: c.ID,
		Prompt:         content,
		History:        history,
		Settings:       *eff,
	})
	if err != nil {
		s.release(c.ID)
		return nil, err
	}

	return &messageStream{
		svc:            s,
		answer:         answer,
		conversationID: c.ID,
		messageID:      assistantID,
		model:          eff.SelectedModel,
		ctx:            ctx,
	}, nil
}

// requestLayer converts the submitted flags into the per-request settings
// layer.
func requestLayer(req *parley.SendMessageRequest) *parley.UserSettings {
	isBreadth := req.IsBreadth
	rerank := req.RerankEnabled
	recent := req.PrioritizeRecent
	return &parley.UserSettings{
		IsBreadth:        &isBreadth,
		RerankEnabled:    &rerank,
		PrioritizeRecent: &recent,
		SelectedModel:    req.Model,
	}
}

// messageStream adapts an answer stream into a parley.MessageStream. Once
// the answer is drained the finalized assistant message and its citations
// are persisted and the conversation's response slot is released.
type messageStream struct {
	svc    *Service
	answer parley.AnswerStream
	ctx    context.Context

	conversationID platform.ID
	messageID      platform.ID
	model          string

	content  strings.Builder
	done     sync.Once
	finalErr error
}

var _ parley.MessageStream = (*messageStream)(nil)

func (m *messageStream) MessageID() platform.ID { return m.messageID }
func (m *messageStream) Model() string          { return m.model }

func (m *messageStream) Recv() (string, error) {
	chunk, err := m.answer.Recv()
	if err == io.EOF {
		m.finish(true)
		if m.finalErr != nil {
			return "", m.finalErr
		}
		return "", io.EOF
	}
	if err != nil {
		m.finish(false)
		return "", err
	}

	m.content.WriteString(chunk)
	return chunk, nil
}

func (m *messageStream) Close() error {
	// an abandoned stream releases the slot without appending anything
	m.finish(false)
	return m.answer.Close()
}

// finish releases the conversation slot, and when the answer completed,
// appends the assistant message exactly once.
func (m *messageStream) finish(completed bool) {
	m.done.Do(func() {
		defer m.svc.release(m.conversationID)

		if !completed {
			return
		}

		msg := &parley.Message{
			ID:             m.messageID,
			ConversationID: m.conversationID,
			Role:           parley.MessageRoleAssistant,
			Content:        m.content.String(),
			Model:          m.model,
			Sources:        m.answer.Sources(),
		}

		m.finalErr = m.svc.store.Update(m.ctx, func(tx kv.Tx) error {
			if err := m.svc.store.PutMessage(m.ctx, tx, msg); err != nil {
				return err
			}
			if err := m.svc.store.PutMessageSources(m.ctx, tx, m.conversationID, &parley.MessageSources{
				ID:      m.messageID,
				Sources: msg.Sources,
			}); err != nil {
				return err
			}
			return m.svc.store.TouchConversation(m.ctx, tx, m.conversationID)
		})
		if m.finalErr != nil {
			m.svc.log.Error("failed to persist assistant message",
				zap.Stringer("conversation_id", m.conversationID),
				zap.Stringer("message_id", m.messageID),
				zap.Error(m.finalErr))
		}
	})
}
