// Package session orchestrates sends, loads and deletes across the state
// store, the conversation store backend and the delivery client.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/skybridge-ai/chat-client/internal/auth"
	"github.com/skybridge-ai/chat-client/internal/delivery"
	"github.com/skybridge-ai/chat-client/internal/id"
	"github.com/skybridge-ai/chat-client/internal/model"
	"github.com/skybridge-ai/chat-client/internal/state"
	"github.com/skybridge-ai/chat-client/internal/store"
	"github.com/skybridge-ai/chat-client/pkg/logger"
	"github.com/skybridge-ai/chat-client/pkg/metrics"
)

// titleLimit caps the conversation title derived from the first message.
const titleLimit = 50

// ErrNoActiveConversation means a send was attempted with nothing selected.
var ErrNoActiveConversation = errors.New("session: no active conversation")

// Orchestrator composes the state store, store backend, delivery sender and
// credential provider. It owns exactly one compensating action: marking a
// user message as errored when anything downstream of the optimistic add
// fails.
type Orchestrator struct {
	state   *state.Store
	backend store.Backend
	sender  delivery.Sender
	creds   auth.Provider
	logger  *logger.Logger
	tracer  trace.Tracer
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(st *state.Store, backend store.Backend, sender delivery.Sender, creds auth.Provider, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		state:   st,
		backend: backend,
		sender:  sender,
		creds:   creds,
		logger:  log,
		tracer:  otel.Tracer("session"),
	}
}

// State exposes the state store for subscribers (the UI boundary).
func (o *Orchestrator) State() *state.Store {
	return o.state
}

// Bootstrap probes the identity session and, when authenticated, loads the
// conversation list.
func (o *Orchestrator) Bootstrap(ctx context.Context) error {
	authenticated := o.creds.IsAuthenticated(ctx)
	o.state.Dispatch(state.SetAuthState{
		IsAuthenticated: ptr(authenticated),
		IsLoading:       ptr(false),
	})

	if !authenticated {
		return nil
	}
	return o.LoadConversations(ctx)
}

// LoadConversations replaces the conversation list from the store.
func (o *Orchestrator) LoadConversations(ctx context.Context) error {
	conversations, err := o.backend.ListConversations(ctx)
	if err != nil {
		o.state.Dispatch(state.SetError{Err: err.Error()})
		return err
	}
	o.state.Dispatch(state.SetConversations{Conversations: conversations})
	return nil
}

// NewConversation creates a conversation, makes it active and returns it.
func (o *Orchestrator) NewConversation(ctx context.Context) (model.Conversation, error) {
	conversationID := id.NewConversationID()

	conv, err := o.backend.CreateConversation(ctx, conversationID)
	if err != nil {
		o.state.Dispatch(state.SetError{Err: err.Error()})
		return model.Conversation{}, err
	}

	o.state.Dispatch(state.AddConversation{Conversation: conv})
	o.state.Dispatch(state.SetActiveConversation{ConversationID: conversationID})
	metrics.ConversationsTotal.Inc()

	o.logger.WithConversation(conversationID).Info("conversation created")
	return conv, nil
}

// OpenConversation selects a conversation and loads its message history.
func (o *Orchestrator) OpenConversation(ctx context.Context, conversationID string) error {
	o.state.Dispatch(state.SetActiveConversation{ConversationID: conversationID})
	o.state.Dispatch(state.SetLoading{Loading: true})
	defer o.state.Dispatch(state.SetLoading{Loading: false})

	messages, err := o.backend.QueryMessages(ctx, conversationID)
	if err != nil {
		o.state.Dispatch(state.SetError{Err: err.Error()})
		return err
	}

	o.state.Dispatch(state.SetMessages{ConversationID: conversationID, Messages: messages})
	return nil
}

// SendMessage runs the send state machine: optimistic add, persist,
// status->sent, deliver, append+persist the reply, reconcile conversation
// metadata. Any failure after the optimistic add marks the user message as
// errored and re-raises; the system message is never added on failure.
func (o *Orchestrator) SendMessage(ctx context.Context, content string) error {
	snapshot := o.state.Snapshot()
	if snapshot.ActiveConversationID == "" {
		return ErrNoActiveConversation
	}
	conversationID := snapshot.ActiveConversationID
	previousCount := len(snapshot.Messages[conversationID])

	ctx, span := o.tracer.Start(ctx, "session.SendMessage",
		trace.WithAttributes(attribute.String("conversation.id", conversationID)))
	defer span.End()

	userMsg := model.Message{
		MessageID:      id.NewUserMessageID(),
		ConversationID: conversationID,
		MessageType:    model.MessageTypeUser,
		Content:        content,
		Timestamp:      time.Now().UnixMilli(),
		Status:         model.StatusSending,
	}

	// Optimistic update, visible before any network call.
	o.state.Dispatch(state.AddMessage{ConversationID: conversationID, Message: userMsg})
	metrics.MessagesTotal.WithLabelValues(string(model.MessageTypeUser)).Inc()

	fail := func(err error) error {
		o.state.Dispatch(state.UpdateMessageStatus{
			ConversationID: conversationID,
			MessageID:      userMsg.MessageID,
			Status:         model.StatusError,
		})
		span.RecordError(err)
		o.logger.WithConversation(conversationID).Warn("send failed", zap.Error(err))
		return fmt.Errorf("send message: %w", err)
	}

	if err := o.backend.PutMessage(ctx, userMsg); err != nil {
		return fail(err)
	}
	o.state.Dispatch(state.UpdateMessageStatus{
		ConversationID: conversationID,
		MessageID:      userMsg.MessageID,
		Status:         model.StatusSent,
	})

	reply, err := o.sender.Send(ctx, conversationID, content)
	if err != nil {
		return fail(err)
	}

	sysMsg := model.Message{
		MessageID:      id.NewSystemMessageID(),
		ConversationID: conversationID,
		MessageType:    model.MessageTypeSystem,
		Content:        reply,
		Timestamp:      time.Now().UnixMilli(),
		Status:         model.StatusSent,
	}

	if err := o.backend.PutMessage(ctx, sysMsg); err != nil {
		return fail(err)
	}
	o.state.Dispatch(state.AddMessage{ConversationID: conversationID, Message: sysMsg})
	metrics.MessagesTotal.WithLabelValues(string(model.MessageTypeSystem)).Inc()

	update := model.ConversationUpdate{
		LastMessageAt: ptr(sysMsg.Timestamp),
		AddMessages:   2,
	}
	if previousCount == 0 {
		update.Title = ptr(truncateTitle(content))
	}

	if err := o.backend.UpdateConversation(ctx, conversationID, update); err != nil {
		return fail(err)
	}
	o.state.Dispatch(state.UpdateConversation{ConversationID: conversationID, Update: update})

	return nil
}

// DeleteConversation cascades the delete through the backend, then drops the
// conversation from local state.
func (o *Orchestrator) DeleteConversation(ctx context.Context, conversationID string) error {
	if err := o.backend.DeleteConversation(ctx, conversationID); err != nil {
		o.state.Dispatch(state.SetError{Err: err.Error()})
		return err
	}
	o.state.Dispatch(state.DeleteConversation{ConversationID: conversationID})
	o.logger.WithConversation(conversationID).Info("conversation deleted")
	return nil
}

// SignOut ends the identity session, best effort. The local session is
// treated as ended even when the remote sign-out fails.
func (o *Orchestrator) SignOut(ctx context.Context) error {
	err := o.creds.SignOut(ctx)
	o.state.Dispatch(state.SetAuthState{
		IsAuthenticated: ptr(false),
	})
	if err != nil {
		o.logger.Warn("remote sign-out failed", zap.Error(err))
	}
	return err
}

// truncateTitle caps a title at titleLimit runes.
func truncateTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= titleLimit {
		return content
	}
	return string(runes[:titleLimit])
}

func ptr[T any](v T) *T {
	return &v
}
