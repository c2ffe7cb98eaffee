package state

import "github.com/skybridge-ai/chat-client/internal/model"

// Action is the sealed set of state transitions.
type Action interface {
	isAction()
}

// SetConversations replaces the conversation list wholesale.
type SetConversations struct {
	Conversations []model.Conversation
}

// AddConversation prepends one conversation.
type AddConversation struct {
	Conversation model.Conversation
}

// UpdateConversation merges partial fields into the matching conversation.
// No-op if the id is absent.
type UpdateConversation struct {
	ConversationID string
	Update         model.ConversationUpdate
}

// SetActiveConversation sets or clears (empty id) the active conversation.
type SetActiveConversation struct {
	ConversationID string
}

// DeleteConversation removes a conversation, its message bucket, and clears
// the active id if it matched.
type DeleteConversation struct {
	ConversationID string
}

// SetMessages replaces the message list for one conversation.
type SetMessages struct {
	ConversationID string
	Messages       []model.Message
}

// AddMessage appends one message, creating the bucket if absent.
type AddMessage struct {
	ConversationID string
	Message        model.Message
}

// UpdateMessageStatus replaces the status of the matching message. No-op if
// conversation or message is absent.
type UpdateMessageStatus struct {
	ConversationID string
	MessageID      string
	Status         model.MessageStatus
}

// SetAuthState shallow-merges into the auth sub-state.
type SetAuthState struct {
	IsAuthenticated *bool
	IsLoading       *bool
	Err             *string
}

// SetLoading replaces the top-level loading flag.
type SetLoading struct {
	Loading bool
}

// SetError replaces the top-level error text.
type SetError struct {
	Err string
}

func (SetConversations) isAction()       {}
func (AddConversation) isAction()        {}
func (UpdateConversation) isAction()     {}
func (SetActiveConversation) isAction()  {}
func (DeleteConversation) isAction()     {}
func (SetMessages) isAction()            {}
func (AddMessage) isAction()             {}
func (UpdateMessageStatus) isAction()    {}
func (SetAuthState) isAction()           {}
func (SetLoading) isAction()             {}
func (SetError) isAction()               {}
