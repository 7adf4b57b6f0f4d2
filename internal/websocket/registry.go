package websocket

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ajshan23/chat-app-backend-chat-service/internal/observability"
)

// Registry owns the live sessions of this process. A user holds at most one
// session; a new connection for the same user replaces the old one.
type Registry struct {
	mu        sync.RWMutex
	byUser    map[string]*Session
	bySession map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{
		byUser:    make(map[string]*Session),
		bySession: make(map[string]*Session),
	}
}

func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byUser[s.UserID]; ok {
		observability.Log.Info("session: replacing existing connection",
			zap.String("user_id", s.UserID),
			zap.String("old_sid", old.ID),
			zap.String("new_sid", s.ID))
		delete(r.bySession, old.ID)
		old.CloseWithReason(4000, "session_replaced")
	}

	r.byUser[s.UserID] = s
	r.bySession[s.ID] = s
}

// Remove drops the session only if it is still the user's current one, so a
// late cleanup from a replaced session cannot kill its successor.
func (r *Registry) Remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.byUser[s.UserID]; ok && current.ID == s.ID {
		delete(r.byUser, s.UserID)
	}
	if current, ok := r.bySession[s.ID]; ok && current == s {
		delete(r.bySession, s.ID)
	}
}

func (r *Registry) Get(sessionID string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bySession[sessionID]
}

func (r *Registry) User(userID string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byUser[userID]
}

// SendTo pushes a payload to a local session by id. False when the session is
// gone or cannot accept the payload.
func (r *Registry) SendTo(sessionID string, payload []byte) bool {
	s := r.Get(sessionID)
	if s == nil {
		return false
	}
	return s.TrySend(payload)
}

// Broadcast pushes a payload to every local session.
func (r *Registry) Broadcast(payload []byte) {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.bySession))
	for _, s := range r.bySession {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	for _, s := range sessions {
		s.TrySend(payload)
	}
}

func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.bySession {
		s.Close()
	}
}
