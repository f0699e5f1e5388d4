package parley

import (
	"context"

	"github.com/parleyhq/parley/kit/platform"
)

// AnswerRequest carries everything an answer backend needs to produce an
// assistant response for a single user message.
type AnswerRequest struct {
	TenantID       platform.ID
	ConversationID platform.ID
	// Prompt is the content of the user message being answered.
	Prompt string
	// History is the transcript so far, oldest first.
	History []*Message
	// Settings are the fully resolved search settings for this request,
	// including the model to answer with.
	Settings EffectiveSettings
}

// AnswerStream is a streamed assistant response from an answer backend.
type AnswerStream interface {
	// Recv returns the next content chunk. It returns io.EOF once the
	// answer is complete.
	Recv() (string, error)
	// Model returns the model that is producing the answer.
	Model() string
	// Sources returns the citations backing the answer. Only valid after
	// Recv has returned io.EOF.
	Sources() []SourceCitation
	// Close releases the stream.
	Close() error
}

// Answerer produces assistant responses. The document retrieval backend and
// LLM provider live behind this interface.
type Answerer interface {
	Answer(ctx context.Context, req *AnswerRequest) (AnswerStream, error)
}
