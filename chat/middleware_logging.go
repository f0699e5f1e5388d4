package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/kit/platform"
	"go.uber.org/zap"
)

type ConversationLogger struct {
	logger  *zap.Logger
	convSvc parley.ConversationService
}

// NewConversationLogger returns a logging service middleware for the
// Conversation Service.
func NewConversationLogger(log *zap.Logger, s parley.ConversationService) *ConversationLogger {
	return &ConversationLogger{
		logger:  log,
		convSvc: s,
	}
}

var _ parley.ConversationService = (*ConversationLogger)(nil)

func (l *ConversationLogger) CreateConversation(ctx context.Context, c *parley.Conversation) (err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			l.logger.Debug("failed to create conversation", zap.Error(err), dur)
			return
		}
		l.logger.Debug("conversation create", dur)
	}(time.Now())
	return l.convSvc.CreateConversation(ctx, c)
}

func (l *ConversationLogger) FindConversationByID(ctx context.Context, id platform.ID) (c *parley.Conversation, err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			msg := fmt.Sprintf("failed to find conversation with ID %v", id)
			l.logger.Debug(msg, zap.Error(err), dur)
			return
		}
		l.logger.Debug("conversation find by ID", dur)
	}(time.Now())
	return l.convSvc.FindConversationByID(ctx, id)
}

func (l *ConversationLogger) FindConversations(ctx context.Context) (cs []*parley.Conversation, err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			l.logger.Debug("failed to find conversations", zap.Error(err), dur)
			return
		}
		l.logger.Debug("conversations find", dur)
	}(time.Now())
	return l.convSvc.FindConversations(ctx)
}

func (l *ConversationLogger) ListMessages(ctx context.Context, conversationID platform.ID, opt ...parley.FindOptions) (ms []*parley.Message, err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			msg := fmt.Sprintf("failed to list messages of conversation %v", conversationID)
			l.logger.Debug(msg, zap.Error(err), dur)
			return
		}
		l.logger.Debug("messages list", dur)
	}(time.Now())
	return l.convSvc.ListMessages(ctx, conversationID, opt...)
}

func (l *ConversationLogger) FindMessageSources(ctx context.Context, conversationID, messageID platform.ID) (ms *parley.MessageSources, err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			msg := fmt.Sprintf("failed to find sources of message %v", messageID)
			l.logger.Debug(msg, zap.Error(err), dur)
			return
		}
		l.logger.Debug("message sources find", dur)
	}(time.Now())
	return l.convSvc.FindMessageSources(ctx, conversationID, messageID)
}

func (l *ConversationLogger) SendMessage(ctx context.Context, req *parley.SendMessageRequest) (stream parley.MessageStream, err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			msg := fmt.Sprintf("failed to send message to conversation %v", req.ConversationID)
			l.logger.Debug(msg, zap.Error(err), dur)
			return
		}
		l.logger.Debug("message send", dur)
	}(time.Now())
	return l.convSvc.SendMessage(ctx, req)
}
