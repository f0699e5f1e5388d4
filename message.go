package parley

import (
	"context"
	"time"

	"github.com/parleyhq/parley/kit/platform"
	"github.com/parleyhq/parley/kit/platform/errors"
)

// Operation names for conversation operations, used in errors.
const (
	OpCreateConversation   = "CreateConversation"
	OpFindConversationByID = "FindConversationByID"
	OpFindConversations    = "FindConversations"
	OpListMessages         = "ListMessages"
	OpFindMessageSources   = "FindMessageSources"
	OpSendMessage          = "SendMessage"
)

// MessageRole identifies the author of a conversation message.
type MessageRole string

const (
	// MessageRoleUser marks messages submitted by people.
	MessageRoleUser MessageRole = "user"
	// MessageRoleAssistant marks messages produced by the assistant.
	MessageRoleAssistant MessageRole = "assistant"
	// MessageRoleSystem marks injected system messages.
	MessageRoleSystem MessageRole = "system"
)

// Valid validates the message role.
func (r MessageRole) Valid() error {
	switch r {
	case MessageRoleUser, MessageRoleAssistant, MessageRoleSystem:
		return nil
	default:
		return &errors.Error{
			Code: errors.EInvalid,
			Msg:  "invalid message role",
		}
	}
}

// Conversation is an ordered, append-only sequence of messages within a tenant.
type Conversation struct {
	ID       platform.ID `json:"id,omitempty"`
	TenantID platform.ID `json:"tenantId"`
	// ProfileID identifies the membership the conversation belongs to.
	ProfileID platform.ID `json:"profileId"`
	Title     string      `json:"title,omitempty"`

	CRUDLog
}

// SourceCitation identifies a document an assistant response drew upon.
type SourceCitation struct {
	ID      string `json:"id,omitempty"`
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// Message is a single entry in a conversation transcript.
type Message struct {
	ID             platform.ID      `json:"id,omitempty"`
	ConversationID platform.ID      `json:"conversationId"`
	Role           MessageRole      `json:"role"`
	Content        string           `json:"content"`
	Model          string           `json:"model,omitempty"`
	Sources        []SourceCitation `json:"sources,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
}

// MessageSources is the citation payload of a single message.
type MessageSources struct {
	ID      platform.ID      `json:"id"`
	Sources []SourceCitation `json:"sources"`
}

// SendMessageRequest is the payload submitted with a new user message.
// The three boolean flags are the per-request settings layer; they are
// resolved against the tenant settings before the answer is produced.
type SendMessageRequest struct {
	ConversationID   platform.ID `json:"conversationId"`
	Content          string      `json:"content"`
	Model            string      `json:"model,omitempty"`
	IsBreadth        bool        `json:"isBreadth"`
	RerankEnabled    bool        `json:"rerankEnabled"`
	PrioritizeRecent bool        `json:"prioritizeRecent"`
}

// MessageStream is a single in-flight assistant response. The message id and
// resolved model are known before the first chunk is received.
type MessageStream interface {
	// MessageID returns the server-assigned id of the assistant message
	// being streamed.
	MessageID() platform.ID
	// Model returns the resolved model producing the response.
	Model() string
	// Recv returns the next content chunk. It returns io.EOF once the
	// response is complete and has been appended to the transcript.
	Recv() (string, error)
	// Close releases the stream. It is safe to call after Recv returned io.EOF.
	Close() error
}

// ConversationService represents a service for managing conversations and
// their transcripts.
type ConversationService interface {
	// CreateConversation creates a new conversation and sets c.ID with the new identifier.
	CreateConversation(ctx context.Context, c *Conversation) error

	// FindConversationByID returns a single conversation by ID.
	FindConversationByID(ctx context.Context, id platform.ID) (*Conversation, error)

	// FindConversations returns the conversations owned by the caller's
	// current profile.
	FindConversations(ctx context.Context) ([]*Conversation, error)

	// ListMessages returns the full ordered transcript of a conversation.
	ListMessages(ctx context.Context, conversationID platform.ID, opt ...FindOptions) ([]*Message, error)

	// FindMessageSources returns the source citations of a single message.
	FindMessageSources(ctx context.Context, conversationID, messageID platform.ID) (*MessageSources, error)

	// SendMessage appends the user message to the transcript and begins
	// streaming the assistant response. The finalized assistant message is
	// appended once the returned stream is drained.
	SendMessage(ctx context.Context, req *SendMessageRequest) (MessageStream, error)
}
