package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewMessage_Validation(t *testing.T) {
	now := time.Now()

	_, err := NewMessage("", "conv-1", "user-1", "hello", MessageText, ConversationNormal, now)
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for missing id, got %v", err)
	}

	_, err = NewMessage("msg-1", "conv-1", "user-1", "", MessageText, ConversationNormal, now)
	if !errors.Is(err, ErrEmptyContent) {
		t.Errorf("expected ErrEmptyContent, got %v", err)
	}

	huge := strings.Repeat("a", MaxMessageSize+1)
	_, err = NewMessage("msg-1", "conv-1", "user-1", huge, MessageText, ConversationNormal, now)
	if !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("expected ErrMessageTooLarge, got %v", err)
	}
}

func TestNewMessage_DefaultsToText(t *testing.T) {
	msg, err := NewMessage("msg-1", "conv-1", "user-1", "hello", "", ConversationGroup, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Type != MessageText {
		t.Errorf("expected default type text, got %s", msg.Type)
	}
	if msg.IsRead {
		t.Error("new message must start unread")
	}
	if len(msg.SeenBy) != 0 {
		t.Errorf("new message must start with empty seen_by, got %v", msg.SeenBy)
	}
	if msg.SeenBy == nil {
		t.Error("seen_by must be an empty set, not nil")
	}
}

func TestNormalLookupKey_Symmetric(t *testing.T) {
	k1 := NormalLookupKey("user-a", "user-b")
	k2 := NormalLookupKey("user-b", "user-a")
	if k1 != k2 {
		t.Errorf("lookup key must not depend on argument order: %s != %s", k1, k2)
	}
	if k1 != "normal:user-a:user-b" {
		t.Errorf("unexpected key format: %s", k1)
	}
}

func TestConversation_Participants(t *testing.T) {
	conv := &Conversation{
		ID:           "conv-1",
		Type:         ConversationGroup,
		Participants: []string{"u1", "u2", "u3"},
	}

	if !conv.IsParticipant("u2") {
		t.Error("u2 should be a participant")
	}
	if conv.IsParticipant("u4") {
		t.Error("u4 should not be a participant")
	}

	others := conv.OtherParticipants("u2")
	if len(others) != 2 || others[0] != "u1" || others[1] != "u3" {
		t.Errorf("unexpected others: %v", others)
	}
}
