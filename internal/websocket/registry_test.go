package websocket

import (
	"os"
	"testing"

	"github.com/ajshan23/chat-app-backend-chat-service/internal/observability"
)

func TestMain(m *testing.M) {
	observability.InitLogger("test")
	os.Exit(m.Run())
}

func TestRegistry_SessionReplacement(t *testing.T) {
	r := NewRegistry()

	s1 := NewSession("s1", "user1", nil)
	r.Add(s1)

	if got := r.User("user1"); got == nil || got.ID != "s1" {
		t.Fatalf("expected session s1, got %v", got)
	}

	// Add s2 for same user
	s2 := NewSession("s2", "user1", nil)
	r.Add(s2)

	// Verify s1 is closed (done channel closed)
	select {
	case <-s1.Done():
	default:
		t.Error("old session s1 should have been closed")
	}

	if got := r.User("user1"); got == nil || got.ID != "s2" {
		t.Fatalf("expected only session s2, got %v", got)
	}

	// Remove s1 (simulating late cleanup of old session)
	r.Remove(s1)

	if got := r.User("user1"); got == nil || got.ID != "s2" {
		t.Errorf("session s2 should still be registered after late Remove(s1), got %v", got)
	}

	r.Remove(s2)

	if got := r.User("user1"); got != nil {
		t.Errorf("expected no session for user1, got %v", got)
	}
	if got := r.Get("s2"); got != nil {
		t.Errorf("expected no session s2, got %v", got)
	}
}

func TestRegistry_SendTo(t *testing.T) {
	r := NewRegistry()

	s := NewSession("s1", "user1", nil)
	r.Add(s)

	if !r.SendTo("s1", []byte("hello")) {
		t.Fatal("SendTo should succeed for a registered session")
	}
	if len(s.SendQueue) != 1 {
		t.Errorf("expected 1 queued payload, got %d", len(s.SendQueue))
	}

	if r.SendTo("unknown", []byte("hello")) {
		t.Error("SendTo should report false for an unknown session")
	}
}

func TestRegistry_Broadcast(t *testing.T) {
	r := NewRegistry()

	s1 := NewSession("s1", "user1", nil)
	s2 := NewSession("s2", "user2", nil)
	r.Add(s1)
	r.Add(s2)

	r.Broadcast([]byte("everyone"))

	if len(s1.SendQueue) != 1 || len(s2.SendQueue) != 1 {
		t.Errorf("expected payload in both queues, got %d and %d", len(s1.SendQueue), len(s2.SendQueue))
	}
}
