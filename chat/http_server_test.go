package chat_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/chat"
	pcontext "github.com/parleyhq/parley/context"
	"github.com/parleyhq/parley/kit/platform"
	"github.com/parleyhq/parley/kit/platform/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// newChatServer mounts the chat handler behind a middleware that
// authenticates every request as the fixture user.
func newChatServer(t *testing.T, f *chatFixture) *httptest.Server {
	t.Helper()

	handler := chat.NewHTTPChatHandler(zaptest.NewLogger(t), f.svc)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := pcontext.SetAuthorizer(req.Context(), &parley.Session{UserID: f.user.ID})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Mount(handler.Prefix(), handler)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func postMessage(t *testing.T, server *httptest.Server, conversationID platform.ID, body string) *http.Response {
	t.Helper()

	url := server.URL + "/api/v1/conversations/" + conversationID.String() + "/messages"
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	return resp
}

func TestChatHandler_PostMessageStreams(t *testing.T) {
	f := newChatFixture(t)
	c := f.newConversation(t)
	server := newChatServer(t, f)

	resp := postMessage(t, server, c.ID, `{"content": "what is the answer?"}`)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	// correlation headers are present before the body is drained
	messageID, err := platform.IDFromString(resp.Header.Get(chat.HeaderMessageID))
	require.NoError(t, err)
	assert.Equal(t, "helix-4", resp.Header.Get(chat.HeaderModel))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "The answer is 42.", string(body))

	// the streamed message landed in the transcript under the header id
	msgs, err := f.svc.ListMessages(f.ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, *messageID, msgs[1].ID)
}

func TestChatHandler_PostMessageEmptyContent(t *testing.T) {
	f := newChatFixture(t)
	c := f.newConversation(t)
	server := newChatServer(t, f)

	resp := postMessage(t, server, c.ID, `{"content": "   "}`)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatHandler_PostMessageUnknownConversation(t *testing.T) {
	f := newChatFixture(t)
	server := newChatServer(t, f)

	resp := postMessage(t, server, platform.ID(404), `{"content": "hello"}`)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestChatHandler_GetMessageSources(t *testing.T) {
	f := newChatFixture(t)
	c := f.newConversation(t)
	server := newChatServer(t, f)

	resp := postMessage(t, server, c.ID, `{"content": "cite me"}`)
	messageID := resp.Header.Get(chat.HeaderMessageID)
	_, err := io.Copy(io.Discard, resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	url := server.URL + "/api/v1/conversations/" + c.ID.String() + "/messages/" + messageID + "/sources"
	resp, err = http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ms parley.MessageSources
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ms))
	assert.Equal(t, messageID, ms.ID.String())
	require.Len(t, ms.Sources, 1)
	assert.Equal(t, "doc-1", ms.Sources[0].ID)
}

func TestChatHandler_PostConversationWithoutBody(t *testing.T) {
	f := newChatFixture(t)
	server := newChatServer(t, f)

	resp, err := http.Post(server.URL+"/api/v1/conversations", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var c parley.Conversation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&c))
	assert.True(t, c.ID.Valid())
	assert.Empty(t, c.Title)
}

func TestClient_Submit(t *testing.T) {
	f := newChatFixture(t)
	c := f.newConversation(t)
	server := newChatServer(t, f)

	client := chat.NewClient(server.URL, "test-session", chat.WithLogger(zaptest.NewLogger(t)))

	var streamed bytes.Buffer
	msg, err := client.Submit(context.Background(), c.ID, "what is the answer?", chat.SubmitOptions{
		OnChunk: func(chunk string) { streamed.WriteString(chunk) },
	})
	require.NoError(t, err)

	assert.Equal(t, "The answer is 42.", msg.Content)
	assert.Equal(t, "The answer is 42.", streamed.String())
	assert.Equal(t, "helix-4", msg.Model)
	assert.True(t, msg.ID.Valid())

	// the local transcript holds the user message then the assistant reply
	transcript := client.Transcript(c.ID)
	require.Len(t, transcript, 2)
	assert.Equal(t, parley.MessageRoleUser, transcript[0].Role)
	assert.Equal(t, "what is the answer?", transcript[0].Content)
	assert.Equal(t, parley.MessageRoleAssistant, transcript[1].Role)
	assert.Equal(t, msg.ID, transcript[1].ID)

	// the citation fetch runs out of band and merges by message id
	client.Wait()
	transcript = client.Transcript(c.ID)
	require.Len(t, transcript[1].Sources, 1)
	assert.Equal(t, "doc-1", transcript[1].Sources[0].ID)
	assert.Empty(t, transcript[0].Sources)
}

// blockingStream parks Recv on a channel so a test can hold a response in
// flight.
type blockingStream struct {
	ch    chan string
	model string
}

func (s *blockingStream) Recv() (string, error) {
	chunk, ok := <-s.ch
	if !ok {
		return "", io.EOF
	}
	return chunk, nil
}

func (s *blockingStream) Model() string                    { return s.model }
func (s *blockingStream) Sources() []parley.SourceCitation { return nil }
func (s *blockingStream) Close() error                     { return nil }

func TestClient_ConcurrentSubmitRejected(t *testing.T) {
	f := newChatFixture(t)
	c := f.newConversation(t)

	ch := make(chan string)
	f.answerer.AnswerFn = func(ctx context.Context, req *parley.AnswerRequest) (parley.AnswerStream, error) {
		return &blockingStream{ch: ch, model: req.Settings.SelectedModel}, nil
	}

	server := newChatServer(t, f)
	client := chat.NewClient(server.URL, "test-session")

	done := make(chan error, 1)
	go func() {
		_, err := client.Submit(context.Background(), c.ID, "first", chat.SubmitOptions{})
		done <- err
	}()

	// wait until the first submission holds the conversation slot
	require.Eventually(t, func() bool {
		_, pending := client.Pending(c.ID)
		return pending
	}, 5*time.Second, 10*time.Millisecond)

	_, err := client.Submit(context.Background(), c.ID, "second", chat.SubmitOptions{})
	require.Error(t, err)
	assert.Equal(t, errors.EConflict, errors.ErrorCode(err))

	// completing the first response frees the conversation
	ch <- "done"
	close(ch)
	require.NoError(t, <-done)

	_, pending := client.Pending(c.ID)
	assert.False(t, pending)

	client.Wait()
	transcript := client.Transcript(c.ID)
	require.Len(t, transcript, 2)
	assert.Equal(t, "done", transcript[1].Content)
}

func TestClient_ConflictSurfacedFromServer(t *testing.T) {
	f := newChatFixture(t)
	c := f.newConversation(t)

	ch := make(chan string)
	f.answerer.AnswerFn = func(ctx context.Context, req *parley.AnswerRequest) (parley.AnswerStream, error) {
		return &blockingStream{ch: ch, model: req.Settings.SelectedModel}, nil
	}

	server := newChatServer(t, f)

	// hold a response open directly against the service
	stream, err := f.svc.SendMessage(f.ctx, &parley.SendMessageRequest{
		ConversationID: c.ID,
		Content:        "first",
	})
	require.NoError(t, err)

	// a second client submitting over HTTP sees the conflict
	client := chat.NewClient(server.URL, "test-session")
	_, err = client.Submit(context.Background(), c.ID, "second", chat.SubmitOptions{})
	require.Error(t, err)
	assert.Equal(t, errors.EConflict, errors.ErrorCode(err))

	close(ch)
	_, err = stream.Recv()
	require.Equal(t, io.EOF, err)
	require.NoError(t, stream.Close())
}
