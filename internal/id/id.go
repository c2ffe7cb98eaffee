// Package id generates namespaced identifiers for conversations and messages.
package id

import "github.com/google/uuid"

// NewConversationID returns a fresh conversation identifier.
func NewConversationID() string {
	return "conv_" + uuid.NewString()
}

// NewUserMessageID returns a fresh identifier for a user message.
func NewUserMessageID() string {
	return "user_msg_" + uuid.NewString()
}

// NewSystemMessageID returns a fresh identifier for a system message.
func NewSystemMessageID() string {
	return "sys_msg_" + uuid.NewString()
}
