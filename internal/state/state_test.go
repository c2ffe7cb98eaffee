package state

import (
	"sync"
	"testing"

	"github.com/skybridge-ai/chat-client/internal/model"
)

func msg(id, convID string, ts int64) model.Message {
	return model.Message{
		MessageID:      id,
		ConversationID: convID,
		MessageType:    model.MessageTypeUser,
		Content:        "hi",
		Timestamp:      ts,
		Status:         model.StatusSending,
	}
}

func TestAddMessagePreservesTimestampOrder(t *testing.T) {
	s := NewStore()
	for i := int64(1); i <= 10; i++ {
		s.Dispatch(AddMessage{ConversationID: "conv_1", Message: msg("m", "conv_1", i*100)})
	}

	msgs := s.Snapshot().Messages["conv_1"]
	if len(msgs) != 10 {
		t.Fatalf("expected 10 messages, got %d", len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i-1].Timestamp > msgs[i].Timestamp {
			t.Fatalf("messages out of order at %d: %d > %d", i, msgs[i-1].Timestamp, msgs[i].Timestamp)
		}
	}
}

func TestAddConversationPrepends(t *testing.T) {
	s := NewStore()
	s.Dispatch(AddConversation{Conversation: model.Conversation{ConversationID: "conv_1"}})
	s.Dispatch(AddConversation{Conversation: model.Conversation{ConversationID: "conv_2"}})

	convs := s.Snapshot().Conversations
	if len(convs) != 2 || convs[0].ConversationID != "conv_2" {
		t.Fatalf("expected conv_2 first, got %+v", convs)
	}
}

func TestUpdateConversationMergesPartialFields(t *testing.T) {
	s := NewStore()
	s.Dispatch(AddConversation{Conversation: model.Conversation{
		ConversationID: "conv_1",
		Title:          "old",
		MessageCount:   4,
	}})

	title := "new"
	s.Dispatch(UpdateConversation{
		ConversationID: "conv_1",
		Update:         model.ConversationUpdate{Title: &title},
	})

	conv, ok := s.Snapshot().Conversation("conv_1")
	if !ok {
		t.Fatal("conversation missing")
	}
	if conv.Title != "new" || conv.MessageCount != 4 {
		t.Fatalf("unexpected merge result: %+v", conv)
	}
}

func TestUpdateConversationUnknownIDIsNoOp(t *testing.T) {
	s := NewStore()
	before := s.Snapshot()

	title := "x"
	s.Dispatch(UpdateConversation{ConversationID: "missing", Update: model.ConversationUpdate{Title: &title}})

	after := s.Snapshot()
	if len(after.Conversations) != len(before.Conversations) {
		t.Fatalf("state changed for unknown conversation")
	}
}

func TestAddMessagesIncrementIsNotLostAcrossConcurrentDispatches(t *testing.T) {
	s := NewStore()
	s.Dispatch(AddConversation{Conversation: model.Conversation{ConversationID: "conv_1"}})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Dispatch(UpdateConversation{
				ConversationID: "conv_1",
				Update:         model.ConversationUpdate{AddMessages: 2},
			})
		}()
	}
	wg.Wait()

	conv, _ := s.Snapshot().Conversation("conv_1")
	if conv.MessageCount != 100 {
		t.Fatalf("expected 100, got %d", conv.MessageCount)
	}
}

func TestDeleteConversationCascades(t *testing.T) {
	s := NewStore()
	s.Dispatch(AddConversation{Conversation: model.Conversation{ConversationID: "conv_1"}})
	s.Dispatch(AddConversation{Conversation: model.Conversation{ConversationID: "conv_2"}})
	s.Dispatch(AddMessage{ConversationID: "conv_1", Message: msg("m1", "conv_1", 1)})
	s.Dispatch(SetActiveConversation{ConversationID: "conv_1"})

	s.Dispatch(DeleteConversation{ConversationID: "conv_1"})

	got := s.Snapshot()
	if len(got.Conversations) != 1 || got.Conversations[0].ConversationID != "conv_2" {
		t.Fatalf("expected only conv_2 to remain, got %+v", got.Conversations)
	}
	if _, ok := got.Messages["conv_1"]; ok {
		t.Fatal("message bucket not removed")
	}
	if got.ActiveConversationID != "" {
		t.Fatalf("active conversation not cleared: %q", got.ActiveConversationID)
	}
}

func TestDeleteConversationKeepsUnrelatedActive(t *testing.T) {
	s := NewStore()
	s.Dispatch(AddConversation{Conversation: model.Conversation{ConversationID: "conv_1"}})
	s.Dispatch(AddConversation{Conversation: model.Conversation{ConversationID: "conv_2"}})
	s.Dispatch(SetActiveConversation{ConversationID: "conv_2"})

	s.Dispatch(DeleteConversation{ConversationID: "conv_1"})

	if got := s.Snapshot().ActiveConversationID; got != "conv_2" {
		t.Fatalf("expected conv_2 active, got %q", got)
	}
}

func TestUpdateMessageStatus(t *testing.T) {
	s := NewStore()
	s.Dispatch(AddMessage{ConversationID: "conv_1", Message: msg("m1", "conv_1", 1)})
	s.Dispatch(AddMessage{ConversationID: "conv_1", Message: msg("m2", "conv_1", 2)})

	s.Dispatch(UpdateMessageStatus{ConversationID: "conv_1", MessageID: "m2", Status: model.StatusSent})

	msgs := s.Snapshot().Messages["conv_1"]
	if msgs[0].Status != model.StatusSending {
		t.Fatalf("wrong message updated: %+v", msgs[0])
	}
	if msgs[1].Status != model.StatusSent {
		t.Fatalf("expected m2 sent, got %+v", msgs[1])
	}
}

func TestUpdateMessageStatusAbsentConversationIsNoOp(t *testing.T) {
	s := NewStore()
	s.Dispatch(UpdateMessageStatus{ConversationID: "missing", MessageID: "m1", Status: model.StatusSent})

	if len(s.Snapshot().Messages) != 0 {
		t.Fatal("expected no message buckets")
	}
}

func TestSetAuthStateMergesShallow(t *testing.T) {
	s := NewStore()

	authenticated := true
	s.Dispatch(SetAuthState{IsAuthenticated: &authenticated})

	got := s.Snapshot().Auth
	if !got.IsAuthenticated {
		t.Fatal("expected authenticated")
	}
	if !got.IsLoading {
		t.Fatal("IsLoading should be untouched by a partial patch")
	}
}

type bogusAction struct{}

func (bogusAction) isAction() {}

func TestUnknownActionLeavesStateUnchanged(t *testing.T) {
	s := NewStore()
	s.Dispatch(AddConversation{Conversation: model.Conversation{ConversationID: "conv_1"}})
	before := s.Snapshot()

	s.Dispatch(bogusAction{})

	after := s.Snapshot()
	if len(after.Conversations) != len(before.Conversations) || after.ActiveConversationID != before.ActiveConversationID {
		t.Fatal("unknown action mutated state")
	}
}

func TestSubscribeSeesEachDispatch(t *testing.T) {
	s := NewStore()
	var seen int
	s.Subscribe(func(AppState) { seen++ })

	s.Dispatch(SetLoading{Loading: true})
	s.Dispatch(SetLoading{Loading: false})

	if seen != 2 {
		t.Fatalf("expected 2 notifications, got %d", seen)
	}
}

func TestSnapshotIsIsolatedFromLaterDispatches(t *testing.T) {
	s := NewStore()
	s.Dispatch(AddMessage{ConversationID: "conv_1", Message: msg("m1", "conv_1", 1)})

	snap := s.Snapshot()
	s.Dispatch(UpdateMessageStatus{ConversationID: "conv_1", MessageID: "m1", Status: model.StatusSent})

	if snap.Messages["conv_1"][0].Status != model.StatusSending {
		t.Fatal("snapshot mutated by later dispatch")
	}
}
