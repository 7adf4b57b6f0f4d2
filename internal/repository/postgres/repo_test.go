package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ajshan23/chat-app-backend-chat-service/internal/domain"
)

func TestSeenByArray_NeverEncodesNull(t *testing.T) {
	v, err := seenByArray(nil).Value()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v == nil {
		t.Fatal("nil slice must encode as an empty array, not NULL")
	}
	if v != "{}" {
		t.Errorf("expected {}, got %v", v)
	}
}

func TestSeenByArray_FreshMessageEncodesEmptyArray(t *testing.T) {
	msg, err := domain.NewMessage("msg-1", "conv-1", "user-1", "hello", domain.MessageText, domain.ConversationNormal, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, err := seenByArray(msg.SeenBy).Value()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "{}" {
		t.Errorf("expected {}, got %v", v)
	}
}

func TestMalformedIDsShortCircuit(t *testing.T) {
	// The guards reject before any query runs, so a nil DB never gets touched.
	r := &Repository{}
	ctx := context.Background()

	if _, err := r.GetConversation(ctx, nil, "not-a-uuid"); !errors.Is(err, domain.ErrConversationNotFound) {
		t.Errorf("expected ErrConversationNotFound, got %v", err)
	}
	if _, err := r.GetMessage(ctx, nil, "not-a-uuid"); !errors.Is(err, domain.ErrMessageNotFound) {
		t.Errorf("expected ErrMessageNotFound, got %v", err)
	}
	if _, err := r.ListMessages(ctx, "not-a-uuid", 20, nil); !errors.Is(err, domain.ErrConversationNotFound) {
		t.Errorf("expected ErrConversationNotFound, got %v", err)
	}
}
