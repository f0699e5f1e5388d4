package chat

import (
	"github.com/parleyhq/parley/kit/platform/errors"
)

var (
	// ErrConversationNotFound is used when the conversation is not found.
	ErrConversationNotFound = &errors.Error{
		Code: errors.ENotFound,
		Msg:  "conversation not found",
	}

	// ErrMessageNotFound is used when the message is not found.
	ErrMessageNotFound = &errors.Error{
		Code: errors.ENotFound,
		Msg:  "message not found",
	}

	// ErrEmptyMessage is used when a submitted message has no content after
	// trimming whitespace.
	ErrEmptyMessage = &errors.Error{
		Code: errors.EInvalid,
		Msg:  "message content is empty",
	}

	// ErrResponsePending is used when a conversation already has an
	// assistant response in flight. Submissions are rejected rather than
	// queued.
	ErrResponsePending = &errors.Error{
		Code: errors.EConflict,
		Msg:  "a response is already pending for this conversation",
	}

	// ErrNoModelAvailable is used when the tenant has no enabled model to
	// answer with.
	ErrNoModelAvailable = &errors.Error{
		Code: errors.EUnprocessableEntity,
		Msg:  "tenant has no enabled model",
	}

	// ErrMissingMessageID is used when a streamed response arrives without
	// its message id header.
	ErrMissingMessageID = &errors.Error{
		Code: errors.EInternal,
		Msg:  "response stream is missing a message id",
	}
)

// ErrCorruptConversation is used when the conversation cannot be unmarshalled
// from the bytes stored in the kv.
func ErrCorruptConversation(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EInternal,
		Msg:  "conversation could not be unmarshalled",
		Err:  err,
		Op:   "kv/unmarshalConversation",
	}
}

// ErrCorruptMessage is used when the message cannot be unmarshalled from the
// bytes stored in the kv.
func ErrCorruptMessage(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EInternal,
		Msg:  "message could not be unmarshalled",
		Err:  err,
		Op:   "kv/unmarshalMessage",
	}
}

// ErrUnprocessableChat is used when a chat record cannot be marshalled into
// bytes to be stored in the kv.
func ErrUnprocessableChat(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EUnprocessableEntity,
		Msg:  "chat record could not be marshalled",
		Err:  err,
		Op:   "kv/marshalChat",
	}
}

// InvalidChatIDError is used when a conversation or message ID fails to
// encode.
func InvalidChatIDError(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EInvalid,
		Msg:  "id provided is invalid",
		Err:  err,
	}
}

// ErrInternalServiceError is used when the error comes from an internal system.
func ErrInternalServiceError(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EInternal,
		Err:  err,
	}
}
