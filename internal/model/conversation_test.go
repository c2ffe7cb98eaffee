package model

import "testing"

func TestConversationUpdateIsZero(t *testing.T) {
	if !(ConversationUpdate{}).IsZero() {
		t.Fatal("empty update should be zero")
	}
	title := "x"
	if (ConversationUpdate{Title: &title}).IsZero() {
		t.Fatal("title update is not zero")
	}
	if (ConversationUpdate{AddMessages: 1}).IsZero() {
		t.Fatal("increment update is not zero")
	}
}

func TestConversationUpdateApply(t *testing.T) {
	conv := Conversation{
		ConversationID: "conv_1",
		Title:          "old",
		CreatedAt:      1,
		LastMessageAt:  2,
		MessageCount:   4,
	}

	title := "new"
	ts := int64(99)
	got := ConversationUpdate{Title: &title, LastMessageAt: &ts, AddMessages: 2}.Apply(conv)

	if got.Title != "new" || got.LastMessageAt != 99 {
		t.Fatalf("fields not merged: %+v", got)
	}
	if got.MessageCount != 6 {
		t.Fatalf("expected incremented count 6, got %d", got.MessageCount)
	}
	if got.CreatedAt != 1 {
		t.Fatalf("untouched field changed: %+v", got)
	}
	if conv.Title != "old" {
		t.Fatal("apply must not mutate its input")
	}
}

func TestConversationUpdateAbsoluteCountWins(t *testing.T) {
	count := 10
	got := ConversationUpdate{MessageCount: &count, AddMessages: 2}.Apply(Conversation{MessageCount: 4})
	if got.MessageCount != 12 {
		t.Fatalf("expected set-then-add semantics, got %d", got.MessageCount)
	}
}
