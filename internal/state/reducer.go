package state

import "github.com/skybridge-ai/chat-client/internal/model"

// reduce is a pure transition function: (state, action) -> state. It never
// mutates the input; touched slices and maps are copied first.
func reduce(s AppState, action Action) AppState {
	switch a := action.(type) {
	case SetConversations:
		s.Conversations = append([]model.Conversation(nil), a.Conversations...)

	case AddConversation:
		next := make([]model.Conversation, 0, len(s.Conversations)+1)
		next = append(next, a.Conversation)
		next = append(next, s.Conversations...)
		s.Conversations = next

	case UpdateConversation:
		next := append([]model.Conversation(nil), s.Conversations...)
		for i, conv := range next {
			if conv.ConversationID == a.ConversationID {
				next[i] = a.Update.Apply(conv)
			}
		}
		s.Conversations = next

	case SetActiveConversation:
		s.ActiveConversationID = a.ConversationID

	case DeleteConversation:
		next := make([]model.Conversation, 0, len(s.Conversations))
		for _, conv := range s.Conversations {
			if conv.ConversationID != a.ConversationID {
				next = append(next, conv)
			}
		}
		s.Conversations = next
		s.Messages = withoutBucket(s.Messages, a.ConversationID)
		if s.ActiveConversationID == a.ConversationID {
			s.ActiveConversationID = ""
		}

	case SetMessages:
		s.Messages = withBucket(s.Messages, a.ConversationID,
			append([]model.Message(nil), a.Messages...))

	case AddMessage:
		bucket := s.Messages[a.ConversationID]
		next := make([]model.Message, 0, len(bucket)+1)
		next = append(next, bucket...)
		next = append(next, a.Message)
		s.Messages = withBucket(s.Messages, a.ConversationID, next)

	case UpdateMessageStatus:
		bucket, ok := s.Messages[a.ConversationID]
		if !ok {
			return s
		}
		next := append([]model.Message(nil), bucket...)
		for i, msg := range next {
			if msg.MessageID == a.MessageID {
				next[i].Status = a.Status
			}
		}
		s.Messages = withBucket(s.Messages, a.ConversationID, next)

	case SetAuthState:
		if a.IsAuthenticated != nil {
			s.Auth.IsAuthenticated = *a.IsAuthenticated
		}
		if a.IsLoading != nil {
			s.Auth.IsLoading = *a.IsLoading
		}
		if a.Err != nil {
			s.Auth.Err = *a.Err
		}

	case SetLoading:
		s.Loading = a.Loading

	case SetError:
		s.Err = a.Err

	default:
		// Unknown actions leave state unchanged.
	}
	return s
}

func withBucket(m map[string][]model.Message, conversationID string, msgs []model.Message) map[string][]model.Message {
	out := make(map[string][]model.Message, len(m)+1)
	for id, bucket := range m {
		out[id] = bucket
	}
	out[conversationID] = msgs
	return out
}

func withoutBucket(m map[string][]model.Message, conversationID string) map[string][]model.Message {
	out := make(map[string][]model.Message, len(m))
	for id, bucket := range m {
		if id != conversationID {
			out[id] = bucket
		}
	}
	return out
}
