// Package model defines data structures for the chat client core.
package model

// MessageType identifies who produced a message.
type MessageType string

const (
	MessageTypeUser   MessageType = "user"
	MessageTypeSystem MessageType = "system"
)

// MessageStatus tracks delivery progress of a message.
type MessageStatus string

const (
	StatusSending MessageStatus = "sending"
	StatusSent    MessageStatus = "sent"
	StatusError   MessageStatus = "error"
)

// Message represents a single user or system utterance.
//
// Timestamp is Unix milliseconds; together with ConversationID it forms the
// natural key in the message history table (sort key = timestamp).
type Message struct {
	MessageID      string        `json:"messageId" dynamodbav:"messageId"`
	ConversationID string        `json:"conversationId" dynamodbav:"conversationId"`
	MessageType    MessageType   `json:"messageType" dynamodbav:"messageType"`
	Content        string        `json:"content" dynamodbav:"content"`
	Timestamp      int64         `json:"timestamp" dynamodbav:"timestamp"`
	Status         MessageStatus `json:"status,omitempty" dynamodbav:"status,omitempty"`
}
