package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ajshan23/chat-app-backend-chat-service/internal/domain"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/events"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/presence"
)

type fakeRelay struct {
	to      string
	from    string
	stopped bool
	calls   int
}

func (f *fakeRelay) Typing(ctx context.Context, to, from string, stopped bool) {
	f.to, f.from, f.stopped = to, from, stopped
	f.calls++
}

type fakeSeen struct {
	userID    string
	messageID string
	err       error
	calls     int
}

func (f *fakeSeen) MarkSeen(ctx context.Context, userID, messageID, conversationID string) error {
	f.userID, f.messageID = userID, messageID
	f.calls++
	return f.err
}

func newTestHandler(relay *fakeRelay, seen *fakeSeen) *Handler {
	return NewHandler(NewRegistry(), presence.New(nil), relay, seen, "inst-1", "test")
}

func envelope(t *testing.T, event string, data interface{}) *events.Envelope {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return &events.Envelope{Event: event, Data: raw}
}

func TestHandleEvent_TypingRelay(t *testing.T) {
	relay := &fakeRelay{}
	h := newTestHandler(relay, &fakeSeen{})
	s := NewSession("s1", "user-1", nil)

	h.handleEvent(context.Background(), s, envelope(t, events.Typing, events.TypingRequest{To: "user-2"}))

	if relay.calls != 1 || relay.to != "user-2" || relay.from != "user-1" || relay.stopped {
		t.Errorf("unexpected relay call: %+v", relay)
	}

	h.handleEvent(context.Background(), s, envelope(t, events.StopTyping, events.TypingRequest{To: "user-2"}))

	if relay.calls != 2 || !relay.stopped {
		t.Errorf("expected stopped relay, got %+v", relay)
	}
}

func TestHandleEvent_TypingWithoutTargetDropped(t *testing.T) {
	relay := &fakeRelay{}
	h := newTestHandler(relay, &fakeSeen{})
	s := NewSession("s1", "user-1", nil)

	h.handleEvent(context.Background(), s, envelope(t, events.Typing, events.TypingRequest{}))

	if relay.calls != 0 {
		t.Error("typing without a target must be ignored")
	}
}

func TestHandleEvent_MarkSeenAcks(t *testing.T) {
	seen := &fakeSeen{}
	h := newTestHandler(&fakeRelay{}, seen)
	s := NewSession("s1", "user-1", nil)

	h.handleEvent(context.Background(), s, envelope(t, events.MarkSeen, events.MarkSeenRequest{
		MessageID:      "msg-1",
		ConversationID: "conv-1",
	}))

	if seen.calls != 1 || seen.userID != "user-1" || seen.messageID != "msg-1" {
		t.Fatalf("unexpected seen call: %+v", seen)
	}

	if len(s.SendQueue) != 1 {
		t.Fatalf("expected 1 ack in the queue, got %d", len(s.SendQueue))
	}

	var env events.Envelope
	if err := json.Unmarshal(<-s.SendQueue, &env); err != nil {
		t.Fatalf("bad ack: %v", err)
	}
	if env.Event != events.MessageSeenAck {
		t.Errorf("expected %s, got %s", events.MessageSeenAck, env.Event)
	}
}

func TestHandleEvent_MarkSeenErrorSkipsAck(t *testing.T) {
	seen := &fakeSeen{err: errors.New("db down")}
	h := newTestHandler(&fakeRelay{}, seen)
	s := NewSession("s1", "user-1", nil)

	h.handleEvent(context.Background(), s, envelope(t, events.MarkSeen, events.MarkSeenRequest{MessageID: "msg-1"}))

	if len(s.SendQueue) != 0 {
		t.Error("failed markSeen must not be acked")
	}
}

func TestHandleEvent_MarkSeenUnknownMessageSkipsAck(t *testing.T) {
	seen := &fakeSeen{err: domain.ErrMessageNotFound}
	h := newTestHandler(&fakeRelay{}, seen)
	s := NewSession("s1", "user-1", nil)

	h.handleEvent(context.Background(), s, envelope(t, events.MarkSeen, events.MarkSeenRequest{
		MessageID:      "gone",
		ConversationID: "conv-1",
	}))

	if seen.calls != 1 {
		t.Fatalf("expected one seen call, got %d", seen.calls)
	}
	if len(s.SendQueue) != 0 {
		t.Error("a receipt against an unknown message must not be acked")
	}
}

func TestHandleEvent_UnknownEventIgnored(t *testing.T) {
	relay := &fakeRelay{}
	seen := &fakeSeen{}
	h := newTestHandler(relay, seen)
	s := NewSession("s1", "user-1", nil)

	h.handleEvent(context.Background(), s, envelope(t, "somethingElse", map[string]string{"x": "y"}))

	if relay.calls != 0 || seen.calls != 0 || len(s.SendQueue) != 0 {
		t.Error("unknown events must be ignored")
	}
}
