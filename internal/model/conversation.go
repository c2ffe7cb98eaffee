package model

// DefaultConversationTitle is used until the first user message overwrites it.
const DefaultConversationTitle = "New Conversation"

// Conversation represents a titled thread of messages with recency metadata.
type Conversation struct {
	ConversationID string `json:"conversationId" dynamodbav:"conversationId"`
	Title          string `json:"title" dynamodbav:"title"`
	CreatedAt      int64  `json:"createdAt" dynamodbav:"createdAt"`
	LastMessageAt  int64  `json:"lastMessageAt" dynamodbav:"lastMessageAt"`
	MessageCount   int    `json:"messageCount" dynamodbav:"messageCount"`
}

// ConversationUpdate is a sparse update of conversation metadata. Nil fields
// are left untouched. AddMessages is applied as an atomic increment so that
// concurrent sends cannot lose updates to the count.
type ConversationUpdate struct {
	Title         *string
	LastMessageAt *int64
	MessageCount  *int
	AddMessages   int
}

// IsZero reports whether the update would touch nothing.
func (u ConversationUpdate) IsZero() bool {
	return u.Title == nil && u.LastMessageAt == nil && u.MessageCount == nil && u.AddMessages == 0
}

// Apply merges the update into a conversation value.
func (u ConversationUpdate) Apply(c Conversation) Conversation {
	if u.Title != nil {
		c.Title = *u.Title
	}
	if u.LastMessageAt != nil {
		c.LastMessageAt = *u.LastMessageAt
	}
	if u.MessageCount != nil {
		c.MessageCount = *u.MessageCount
	}
	c.MessageCount += u.AddMessages
	return c
}
