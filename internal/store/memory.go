package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/skybridge-ai/chat-client/internal/model"
)

// Memory is an in-process backend for mock-data mode and tests.
type Memory struct {
	mu            sync.RWMutex
	conversations map[string]model.Conversation
	messages      map[string][]model.Message
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		conversations: make(map[string]model.Conversation),
		messages:      make(map[string][]model.Message),
	}
}

// SeedSampleData loads one canned conversation so mock-data mode has
// something to show.
func (m *Memory) SeedSampleData() {
	now := time.Now().UnixMilli()
	conv := model.Conversation{
		ConversationID: "conv_sample",
		Title:          "Sample conversation",
		CreatedAt:      now - 60000,
		LastMessageAt:  now - 55000,
		MessageCount:   2,
	}
	msgs := []model.Message{
		{
			MessageID:      "user_msg_sample",
			ConversationID: conv.ConversationID,
			MessageType:    model.MessageTypeUser,
			Content:        "Hello! This is a sample message.",
			Timestamp:      now - 60000,
			Status:         model.StatusSent,
		},
		{
			MessageID:      "sys_msg_sample",
			ConversationID: conv.ConversationID,
			MessageType:    model.MessageTypeSystem,
			Content:        "Hi! This is a mock response from the system.",
			Timestamp:      now - 55000,
			Status:         model.StatusSent,
		},
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversations[conv.ConversationID] = conv
	m.messages[conv.ConversationID] = msgs
}

func (m *Memory) PutMessage(ctx context.Context, msg model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	msgs := m.messages[msg.ConversationID]
	for i, existing := range msgs {
		if existing.MessageID == msg.MessageID {
			msgs[i] = msg
			return nil
		}
	}
	m.messages[msg.ConversationID] = append(msgs, msg)
	return nil
}

func (m *Memory) QueryMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	m.mu.RLock()
	msgs := make([]model.Message, len(m.messages[conversationID]))
	copy(msgs, m.messages[conversationID])
	m.mu.RUnlock()

	sortMessages(msgs)
	return msgs, nil
}

func (m *Memory) CreateConversation(ctx context.Context, conversationID string) (model.Conversation, error) {
	now := time.Now().UnixMilli()
	conv := model.Conversation{
		ConversationID: conversationID,
		Title:          model.DefaultConversationTitle,
		CreatedAt:      now,
		LastMessageAt:  now,
	}

	m.mu.Lock()
	m.conversations[conversationID] = conv
	m.mu.Unlock()
	return conv, nil
}

func (m *Memory) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	m.mu.RLock()
	convs := make([]model.Conversation, 0, len(m.conversations))
	for _, conv := range m.conversations {
		convs = append(convs, conv)
	}
	m.mu.RUnlock()

	sortConversations(convs)
	return convs, nil
}

func (m *Memory) UpdateConversation(ctx context.Context, conversationID string, update model.ConversationUpdate) error {
	if update.IsZero() {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.conversations[conversationID]
	if !ok {
		return fmt.Errorf("%w: conversation %s not found", ErrWriteFailed, conversationID)
	}
	m.conversations[conversationID] = update.Apply(conv)
	return nil
}

func (m *Memory) DeleteConversation(ctx context.Context, conversationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.conversations, conversationID)
	delete(m.messages, conversationID)
	return nil
}
