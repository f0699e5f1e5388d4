package chat

import (
	"context"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/kit/metric"
	"github.com/parleyhq/parley/kit/platform"
	"github.com/prometheus/client_golang/prometheus"
)

var _ parley.ConversationService = (*ConversationMetrics)(nil)

type ConversationMetrics struct {
	// RED metrics
	rec *metric.REDClient

	convSvc parley.ConversationService
}

// NewConversationMetrics returns a metrics service middleware for the
// Conversation Service.
func NewConversationMetrics(reg prometheus.Registerer, s parley.ConversationService, opts ...metric.ClientOptFn) *ConversationMetrics {
	o := metric.ApplyMetricOpts(opts...)
	return &ConversationMetrics{
		rec:     metric.New(reg, o.ApplySuffix("conversation")),
		convSvc: s,
	}
}

func (m *ConversationMetrics) CreateConversation(ctx context.Context, c *parley.Conversation) error {
	rec := m.rec.Record("create_conversation")
	err := m.convSvc.CreateConversation(ctx, c)
	return rec(err)
}

func (m *ConversationMetrics) FindConversationByID(ctx context.Context, id platform.ID) (*parley.Conversation, error) {
	rec := m.rec.Record("find_conversation_by_id")
	c, err := m.convSvc.FindConversationByID(ctx, id)
	return c, rec(err)
}

func (m *ConversationMetrics) FindConversations(ctx context.Context) ([]*parley.Conversation, error) {
	rec := m.rec.Record("find_conversations")
	cs, err := m.convSvc.FindConversations(ctx)
	return cs, rec(err)
}

func (m *ConversationMetrics) ListMessages(ctx context.Context, conversationID platform.ID, opt ...parley.FindOptions) ([]*parley.Message, error) {
	rec := m.rec.Record("list_messages")
	ms, err := m.convSvc.ListMessages(ctx, conversationID, opt...)
	return ms, rec(err)
}

func (m *ConversationMetrics) FindMessageSources(ctx context.Context, conversationID, messageID platform.ID) (*parley.MessageSources, error) {
	rec := m.rec.Record("find_message_sources")
	ms, err := m.convSvc.FindMessageSources(ctx, conversationID, messageID)
	return ms, rec(err)
}

func (m *ConversationMetrics) SendMessage(ctx context.Context, req *parley.SendMessageRequest) (parley.MessageStream, error) {
	rec := m.rec.Record("send_message")
	stream, err := m.convSvc.SendMessage(ctx, req)
	return stream, rec(err)
}
