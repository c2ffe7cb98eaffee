// Package state holds the single source of truth for session-visible state.
// State is mutated only by dispatching one of a closed set of actions through
// a Store; each action application runs to completion under the store lock,
// so dispatches never observe a half-applied transition.
package state

import (
	"sync"

	"github.com/skybridge-ai/chat-client/internal/model"
)

// AuthState is the authentication sub-state.
type AuthState struct {
	IsAuthenticated bool
	IsLoading       bool
	Err             string
}

// AppState is the full session state. Conversations keep insertion order;
// message lists are chronological.
type AppState struct {
	Conversations        []model.Conversation
	ActiveConversationID string
	Messages             map[string][]model.Message
	Loading              bool
	Err                  string
	Auth                 AuthState
}

// ActiveMessages returns the message list of the active conversation.
func (s AppState) ActiveMessages() []model.Message {
	if s.ActiveConversationID == "" {
		return nil
	}
	return s.Messages[s.ActiveConversationID]
}

// Conversation looks up a conversation by id.
func (s AppState) Conversation(conversationID string) (model.Conversation, bool) {
	for _, conv := range s.Conversations {
		if conv.ConversationID == conversationID {
			return conv, true
		}
	}
	return model.Conversation{}, false
}

// Store owns one AppState value and serializes all mutations.
type Store struct {
	mu        sync.Mutex
	state     AppState
	listeners []func(AppState)
}

// NewStore creates a store with the initial session state.
func NewStore() *Store {
	return &Store{
		state: AppState{
			Messages: make(map[string][]model.Message),
			Auth:     AuthState{IsLoading: true},
		},
	}
}

// Dispatch applies one action and notifies subscribers with the new state.
// Unknown actions leave the state unchanged.
func (s *Store) Dispatch(action Action) {
	s.mu.Lock()
	s.state = reduce(s.state, action)
	snapshot := cloneState(s.state)
	listeners := s.listeners
	s.mu.Unlock()

	for _, notify := range listeners {
		notify(snapshot)
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneState(s.state)
}

// Subscribe registers a listener invoked after every dispatch, outside the
// store lock.
func (s *Store) Subscribe(fn func(AppState)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func cloneState(s AppState) AppState {
	out := s
	out.Conversations = append([]model.Conversation(nil), s.Conversations...)
	out.Messages = make(map[string][]model.Message, len(s.Messages))
	for id, msgs := range s.Messages {
		out.Messages[id] = append([]model.Message(nil), msgs...)
	}
	return out
}
