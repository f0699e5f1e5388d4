package chat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/kit/platform"
	"github.com/parleyhq/parley/kit/platform/errors"
	"github.com/parleyhq/parley/session"
	"go.uber.org/zap"
)

// Client drives a chat conversation against the HTTP API. It keeps a local
// transcript per conversation, appending the user message optimistically and
// the assistant message exactly once when its stream completes. At most one
// submission may be in flight per conversation.
type Client struct {
	httpClient *http.Client
	addr       string
	sessionKey string
	log        *zap.Logger

	mu sync.Mutex
	// transcripts is the client's local copy of each conversation.
	transcripts map[platform.ID][]*parley.Message
	// pending is the request correlation table: one entry per conversation
	// with a response in flight.
	pending map[platform.ID]*pendingResponse

	wg sync.WaitGroup
}

// pendingResponse correlates an in-flight submission with the assistant
// message being streamed for it.
type pendingResponse struct {
	messageID platform.ID
	model     string
}

// ClientOption is a functional option for the chat client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) ClientOption {
	return func(cl *Client) {
		cl.log = log
	}
}

// NewClient creates a chat client for the API at addr, authenticating with
// the given session key.
func NewClient(addr, sessionKey string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient:  http.DefaultClient,
		addr:        addr,
		sessionKey:  sessionKey,
		log:         zap.NewNop(),
		transcripts: map[platform.ID][]*parley.Message{},
		pending:     map[platform.ID]*pendingResponse{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Transcript returns a copy of the client's local transcript for the
// conversation.
func (c *Client) Transcript(conversationID platform.ID) []*parley.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	ms := c.transcripts[conversationID]
	out := make([]*parley.Message, len(ms))
	copy(out, ms)
	return out
}

// Pending reports whether the conversation has a response in flight, and the
// id of the assistant message being streamed when it does.
func (c *Client) Pending(conversationID platform.ID) (platform.ID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pending[conversationID]
	if !ok {
		return platform.InvalidID(), false
	}
	return p.messageID, true
}

// Wait blocks until all in-flight source fetches have completed.
func (c *Client) Wait() {
	c.wg.Wait()
}

// SubmitOptions carry the per-request settings layer alongside the message
// content.
type SubmitOptions struct {
	Model            string
	IsBreadth        bool
	RerankEnabled    bool
	PrioritizeRecent bool

	// OnChunk, when set, observes each content chunk as it arrives.
	OnChunk func(chunk string)
}

// Submit sends a user message and streams the assistant response. The user
// message joins the local transcript before the request is made; the
// assistant message joins it exactly once, when the stream completes.
// Submitting to a conversation with a response already in flight fails with
// a conflict.
func (c *Client) Submit(ctx context.Context, conversationID platform.ID, content string, opts SubmitOptions) (*parley.Message, error) {
	c.mu.Lock()
	if _, ok := c.pending[conversationID]; ok {
		c.mu.Unlock()
		return nil, ErrResponsePending
	}
	// reserve the slot before the request goes out; the message id is
	// filled in once the headers arrive
	c.pending[conversationID] = &pendingResponse{}

	// optimistic append: the user message is part of the local transcript
	// whether or not the submission succeeds
	userMsg := &parley.Message{
		ConversationID: conversationID,
		Role:           parley.MessageRoleUser,
		Content:        content,
	}
	c.transcripts[conversationID] = append(c.transcripts[conversationID], userMsg)
	c.mu.Unlock()

	msg, err := c.stream(ctx, conversationID, content, opts)

	c.mu.Lock()
	delete(c.pending, conversationID)
	if msg != nil {
		c.transcripts[conversationID] = append(c.transcripts[conversationID], msg)
	}
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}

	// the citations arrive out of band and are merged into the message by
	// id once the fetch lands
	c.wg.Add(1)
	go c.fetchSources(conversationID, msg.ID)

	return msg, nil
}

func (c *Client) stream(ctx context.Context, conversationID platform.ID, content string, opts SubmitOptions) (*parley.Message, error) {
	body, err := json.Marshal(postMessageRequest{
		Content:          content,
		Model:            opts.Model,
		IsBreadth:        opts.IsBreadth,
		RerankEnabled:    opts.RerankEnabled,
		PrioritizeRecent: opts.PrioritizeRecent,
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s%s/%s/messages", c.addr, prefixConversations, conversationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	session.SetCookieSession(c.sessionKey, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	messageID, err := platform.IDFromString(resp.Header.Get(HeaderMessageID))
	if err != nil {
		// a streamed response we cannot correlate is useless; drop it
		return nil, ErrMissingMessageID
	}
	model := resp.Header.Get(HeaderModel)

	c.mu.Lock()
	if p, ok := c.pending[conversationID]; ok {
		p.messageID = *messageID
		p.model = model
	}
	c.mu.Unlock()

	// the provisional buffer accumulates chunks until the stream is done
	var buf bytes.Buffer
	reader := bufio.NewReader(resp.Body)
	chunk := make([]byte, 4096)
	for {
		n, err := reader.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			if opts.OnChunk != nil {
				opts.OnChunk(string(chunk[:n]))
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	return &parley.Message{
		ID:             *messageID,
		ConversationID: conversationID,
		Role:           parley.MessageRoleAssistant,
		Content:        buf.String(),
		Model:          model,
	}, nil
}

// fetchSources retrieves the citations of a finished message and merges them
// into the local transcript. The merge matches on the message id alone, so a
// late or failed fetch can never attach sources to the wrong message.
func (c *Client) fetchSources(conversationID, messageID platform.ID) {
	defer c.wg.Done()

	url := fmt.Sprintf("%s%s/%s/messages/%s/sources", c.addr, prefixConversations, conversationID, messageID)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		c.log.Debug("failed to build sources request", zap.Error(err))
		return
	}
	session.SetCookieSession(c.sessionKey, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("failed to fetch message sources", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Debug("unexpected status fetching message sources", zap.Int("status", resp.StatusCode))
		return
	}

	var ms parley.MessageSources
	if err := json.NewDecoder(resp.Body).Decode(&ms); err != nil {
		c.log.Debug("failed to decode message sources", zap.Error(err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.transcripts[conversationID] {
		if m.ID == ms.ID {
			m.Sources = ms.Sources
			return
		}
	}
}

func decodeError(resp *http.Response) error {
	e := &errors.Error{}
	if err := json.NewDecoder(resp.Body).Decode(e); err != nil || e.Code == "" {
		return &errors.Error{
			Code: errors.EInternal,
			Msg:  fmt.Sprintf("unexpected status %d", resp.StatusCode),
		}
	}
	return e
}
