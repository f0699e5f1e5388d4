package chat_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/chat"
	pcontext "github.com/parleyhq/parley/context"
	"github.com/parleyhq/parley/inmem"
	"github.com/parleyhq/parley/kit/platform"
	"github.com/parleyhq/parley/kit/platform/errors"
	"github.com/parleyhq/parley/mock"
	"github.com/parleyhq/parley/settings"
	"github.com/parleyhq/parley/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type chatFixture struct {
	kvStore   *inmem.KVStore
	svc       *chat.Service
	answerer  *mock.Answerer
	tenantSvc *tenant.TenantSvc
	ctx       context.Context
	user      *parley.User
	tenant    *parley.Tenant
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()

	kvStore := inmem.NewKVStore()
	store := tenant.NewStore(kvStore)
	userSvc := tenant.NewUserSvc(store)
	tenantSvc := tenant.NewTenantSvc(store)
	profileSvc := tenant.NewProfileSvc(store)
	setupSvc := tenant.NewSetupSvc(store)

	ctx := context.Background()
	u := &parley.User{Name: "ada"}
	require.NoError(t, userSvc.CreateUser(ctx, u))

	res, err := setupSvc.Setup(ctx, &parley.SetupRequest{Name: "Acme", UserID: u.ID})
	require.NoError(t, err)

	settingsSvc := settings.NewService(
		zaptest.NewLogger(t),
		settings.NewSearchSettingsStore(kvStore),
		settings.NewUserSettingsStore(kvStore),
		tenantSvc, userSvc, profileSvc,
	)

	answerer := mock.NewAnswerer(
		[]string{"The answer ", "is 42."},
		[]parley.SourceCitation{{ID: "doc-1", Title: "Hitchhiker notes"}},
	)

	svc := chat.NewService(
		zaptest.NewLogger(t),
		chat.NewStore(kvStore),
		settingsSvc,
		userSvc, profileSvc,
		answerer,
	)

	return &chatFixture{
		kvStore:   kvStore,
		svc:       svc,
		answerer:  answerer,
		tenantSvc: tenantSvc,
		ctx:       pcontext.SetAuthorizer(ctx, &parley.Session{UserID: u.ID}),
		user:      u,
		tenant:    res.Tenant,
	}
}

func (f *chatFixture) newConversation(t *testing.T) *parley.Conversation {
	t.Helper()
	c := &parley.Conversation{Title: "testing"}
	require.NoError(t, f.svc.CreateConversation(f.ctx, c))
	return c
}

// drain reads the stream to completion and returns the concatenated content.
func drain(t *testing.T, stream parley.MessageStream) string {
	t.Helper()
	var sb strings.Builder
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			return sb.String()
		}
		require.NoError(t, err)
		sb.WriteString(chunk)
	}
}

func TestService_SendMessage(t *testing.T) {
	f := newChatFixture(t)
	c := f.newConversation(t)

	stream, err := f.svc.SendMessage(f.ctx, &parley.SendMessageRequest{
		ConversationID: c.ID,
		Content:        "what is the answer?",
	})
	require.NoError(t, err)
	defer stream.Close()

	require.True(t, stream.MessageID().Valid())
	assert.Equal(t, "helix-4", stream.Model())

	got := drain(t, stream)
	assert.Equal(t, "The answer is 42.", got)

	// both messages are in the transcript, user first
	msgs, err := f.svc.ListMessages(f.ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, parley.MessageRoleUser, msgs[0].Role)
	assert.Equal(t, "what is the answer?", msgs[0].Content)
	// ids key the transcript, so the reply must be allocated after the
	// user message
	assert.Less(t, msgs[0].ID, msgs[1].ID)
	assert.Equal(t, parley.MessageRoleAssistant, msgs[1].Role)
	assert.Equal(t, "The answer is 42.", msgs[1].Content)
	assert.Equal(t, stream.MessageID(), msgs[1].ID)
	assert.Equal(t, "helix-4", msgs[1].Model)

	// the citations are retrievable by the streamed message id
	ms, err := f.svc.FindMessageSources(f.ctx, c.ID, stream.MessageID())
	require.NoError(t, err)
	require.Len(t, ms.Sources, 1)
	assert.Equal(t, "doc-1", ms.Sources[0].ID)
}

func TestService_SendMessage_TranscriptOrder(t *testing.T) {
	f := newChatFixture(t)
	c := f.newConversation(t)

	for _, content := range []string{"first question", "second question"} {
		stream, err := f.svc.SendMessage(f.ctx, &parley.SendMessageRequest{
			ConversationID: c.ID,
			Content:        content,
		})
		require.NoError(t, err)
		drain(t, stream)
		require.NoError(t, stream.Close())
	}

	msgs, err := f.svc.ListMessages(f.ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 4)

	// every exchange reads user then assistant, in strictly increasing
	// id order
	wantRoles := []parley.MessageRole{
		parley.MessageRoleUser, parley.MessageRoleAssistant,
		parley.MessageRoleUser, parley.MessageRoleAssistant,
	}
	for i, m := range msgs {
		assert.Equal(t, wantRoles[i], m.Role)
		if i > 0 {
			assert.Less(t, msgs[i-1].ID, m.ID)
		}
	}
	assert.Equal(t, "first question", msgs[0].Content)
	assert.Equal(t, "second question", msgs[2].Content)
}

func TestService_SendMessage_TrimsAndRejectsEmpty(t *testing.T) {
	f := newChatFixture(t)
	c := f.newConversation(t)

	for _, content := range []string{"", "   ", "\t\n"} {
		_, err := f.svc.SendMessage(f.ctx, &parley.SendMessageRequest{
			ConversationID: c.ID,
			Content:        content,
		})
		require.Error(t, err)
		assert.Equal(t, errors.EInvalid, errors.ErrorCode(err))
	}

	msgs, err := f.svc.ListMessages(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestService_SendMessage_ConcurrentRejected(t *testing.T) {
	f := newChatFixture(t)
	c := f.newConversation(t)

	stream, err := f.svc.SendMessage(f.ctx, &parley.SendMessageRequest{
		ConversationID: c.ID,
		Content:        "first",
	})
	require.NoError(t, err)

	// a second submission while the first response is in flight conflicts
	_, err = f.svc.SendMessage(f.ctx, &parley.SendMessageRequest{
		ConversationID: c.ID,
		Content:        "second",
	})
	require.Error(t, err)
	assert.Equal(t, errors.EConflict, errors.ErrorCode(err))

	// draining the first response frees the slot
	drain(t, stream)
	require.NoError(t, stream.Close())

	stream2, err := f.svc.SendMessage(f.ctx, &parley.SendMessageRequest{
		ConversationID: c.ID,
		Content:        "second",
	})
	require.NoError(t, err)
	drain(t, stream2)
	require.NoError(t, stream2.Close())
}

func TestService_SendMessage_AbandonedStreamFreesSlot(t *testing.T) {
	f := newChatFixture(t)
	c := f.newConversation(t)

	stream, err := f.svc.SendMessage(f.ctx, &parley.SendMessageRequest{
		ConversationID: c.ID,
		Content:        "first",
	})
	require.NoError(t, err)

	// closing before the answer completes abandons the response
	require.NoError(t, stream.Close())

	// the user message stays, no assistant message was appended
	msgs, err := f.svc.ListMessages(f.ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, parley.MessageRoleUser, msgs[0].Role)

	// the conversation accepts a new submission
	stream2, err := f.svc.SendMessage(f.ctx, &parley.SendMessageRequest{
		ConversationID: c.ID,
		Content:        "retry",
	})
	require.NoError(t, err)
	drain(t, stream2)
	require.NoError(t, stream2.Close())
}

func TestService_SendMessage_NoModelAvailable(t *testing.T) {
	f := newChatFixture(t)
	c := f.newConversation(t)

	// strip the tenant of every enabled model
	_, err := f.tenantSvc.UpdateTenant(f.ctx, f.tenant.ID, parley.TenantUpdate{
		EnabledModels: []string{},
	})
	require.NoError(t, err)

	_, err = f.svc.SendMessage(f.ctx, &parley.SendMessageRequest{
		ConversationID: c.ID,
		Content:        "hello",
	})
	require.Error(t, err)
	assert.Equal(t, errors.EUnprocessableEntity, errors.ErrorCode(err))

	// nothing was appended
	msgs, err := f.svc.ListMessages(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestService_SendMessage_UnknownModelFallsBack(t *testing.T) {
	f := newChatFixture(t)
	c := f.newConversation(t)

	stream, err := f.svc.SendMessage(f.ctx, &parley.SendMessageRequest{
		ConversationID: c.ID,
		Content:        "hello",
		Model:          "not-a-model",
	})
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, tenant.DefaultEnabledModels[0], stream.Model())
	drain(t, stream)
}

func TestService_SendMessage_UnknownConversation(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.svc.SendMessage(f.ctx, &parley.SendMessageRequest{
		ConversationID: 404,
		Content:        "hello",
	})
	require.Error(t, err)
	assert.Equal(t, errors.ENotFound, errors.ErrorCode(err))
}

func TestService_ConversationOwnership(t *testing.T) {
	f := newChatFixture(t)
	c := f.newConversation(t)

	// a second user with their own tenant cannot see the conversation
	store := tenant.NewStore(f.kvStore)
	other := &parley.User{Name: "grace"}
	userSvc := tenant.NewUserSvc(store)
	require.NoError(t, userSvc.CreateUser(context.Background(), other))

	setupSvc := tenant.NewSetupSvc(store)
	_, err := setupSvc.Setup(context.Background(), &parley.SetupRequest{Name: "Globex", UserID: other.ID})
	require.NoError(t, err)

	otherCtx := pcontext.SetAuthorizer(context.Background(), &parley.Session{UserID: other.ID})

	_, err = f.svc.FindConversationByID(otherCtx, c.ID)
	require.Error(t, err)
	assert.Equal(t, errors.ENotFound, errors.ErrorCode(err))

	_, err = f.svc.ListMessages(otherCtx, c.ID)
	require.Error(t, err)
	assert.Equal(t, errors.ENotFound, errors.ErrorCode(err))

	_, err = f.svc.SendMessage(otherCtx, &parley.SendMessageRequest{
		ConversationID: c.ID,
		Content:        "mine now",
	})
	require.Error(t, err)
	assert.Equal(t, errors.ENotFound, errors.ErrorCode(err))
}

func TestService_FindConversations(t *testing.T) {
	f := newChatFixture(t)

	first := f.newConversation(t)
	second := f.newConversation(t)

	cs, err := f.svc.FindConversations(f.ctx)
	require.NoError(t, err)
	require.Len(t, cs, 2)
	ids := map[platform.ID]bool{cs[0].ID: true, cs[1].ID: true}
	assert.True(t, ids[first.ID])
	assert.True(t, ids[second.ID])
}

func TestService_FindMessageSources_NoSources(t *testing.T) {
	f := newChatFixture(t)
	c := f.newConversation(t)

	f.answerer.AnswerFn = func(ctx context.Context, req *parley.AnswerRequest) (parley.AnswerStream, error) {
		return &mock.AnswerStream{Chunks: []string{"no citations"}, ModelVal: req.Settings.SelectedModel}, nil
	}

	stream, err := f.svc.SendMessage(f.ctx, &parley.SendMessageRequest{
		ConversationID: c.ID,
		Content:        "hello",
	})
	require.NoError(t, err)
	drain(t, stream)
	require.NoError(t, stream.Close())

	ms, err := f.svc.FindMessageSources(f.ctx, c.ID, stream.MessageID())
	require.NoError(t, err)
	assert.Empty(t, ms.Sources)
}
