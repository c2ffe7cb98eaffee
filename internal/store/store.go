// Package store persists conversations and messages. The Backend capability
// has three implementations: the remote DynamoDB store, an in-memory stub for
// mock-data mode, and a Redis-backed local cache for local-persistence mode.
// The orchestrator depends only on the interface; one implementation is picked
// at composition time.
package store

import (
	"context"
	"errors"
	"sort"

	"github.com/skybridge-ai/chat-client/internal/model"
)

var (
	// ErrReadFailed wraps failures of query/scan operations.
	ErrReadFailed = errors.New("store: read failed")

	// ErrWriteFailed wraps failures of put/update operations.
	ErrWriteFailed = errors.New("store: write failed")

	// ErrDeleteFailed wraps failures of the cascading delete. The
	// conversation may be left partially deleted; there is no rollback.
	ErrDeleteFailed = errors.New("store: delete failed")
)

// Backend is the conversation store capability.
type Backend interface {
	// PutMessage upserts one message into the history table.
	PutMessage(ctx context.Context, msg model.Message) error

	// QueryMessages returns all messages of a conversation, ascending by
	// timestamp, aggregating every page the store returns.
	QueryMessages(ctx context.Context, conversationID string) ([]model.Message, error)

	// CreateConversation writes a metadata item with default title and
	// timestamps and returns it.
	CreateConversation(ctx context.Context, conversationID string) (model.Conversation, error)

	// ListConversations returns all conversations, most recent first.
	ListConversations(ctx context.Context) ([]model.Conversation, error)

	// UpdateConversation applies a sparse metadata update. A zero update is
	// a no-op and performs no I/O.
	UpdateConversation(ctx context.Context, conversationID string, update model.ConversationUpdate) error

	// DeleteConversation removes a conversation and all its messages.
	DeleteConversation(ctx context.Context, conversationID string) error
}

// sortMessages orders messages ascending by timestamp. Backends re-sort
// defensively even when the underlying store returns sort-key order.
func sortMessages(msgs []model.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp < msgs[j].Timestamp
	})
}

// sortConversations orders conversations descending by lastMessageAt.
func sortConversations(convs []model.Conversation) {
	sort.SliceStable(convs, func(i, j int) bool {
		return convs[i].LastMessageAt > convs[j].LastMessageAt
	})
}
