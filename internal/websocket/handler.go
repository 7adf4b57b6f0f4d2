package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ajshan23/chat-app-backend-chat-service/internal/domain"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/events"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/observability"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/presence"
)

const maxFrameSize = 16 * 1024

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// TypingRelay forwards typing indicators to their target.
type TypingRelay interface {
	Typing(ctx context.Context, to, from string, stopped bool)
}

// SeenMarker records that a user has seen a message.
type SeenMarker interface {
	MarkSeen(ctx context.Context, userID, messageID, conversationID string) error
}

// Handler upgrades HTTP requests to live connections and runs their read side.
type Handler struct {
	registry    *Registry
	presence    *presence.Registry
	relay       TypingRelay
	seen        SeenMarker
	instanceID  string
	serviceName string
}

func NewHandler(registry *Registry, p *presence.Registry, relay TypingRelay, seen SeenMarker, instanceID, serviceName string) *Handler {
	return &Handler{
		registry:    registry,
		presence:    p,
		relay:       relay,
		seen:        seen,
		instanceID:  instanceID,
		serviceName: serviceName,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := observability.GetLogger(r.Context())

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId query parameter is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("ws: upgrade failed", zap.Error(err))
		return
	}

	session := NewSession(uuid.NewString(), userID, conn)
	handle := presence.Handle{InstanceID: h.instanceID, SessionID: session.ID}

	// The connection is useless if nobody can route to it.
	if err := h.presence.SetOnline(r.Context(), userID, handle); err != nil {
		log.Error("ws: presence registration failed, dropping connection",
			zap.String("user_id", userID), zap.Error(err))
		conn.Close()
		return
	}

	h.registry.Add(session)
	session.Start()
	observability.WebSocketConnectionsActive.WithLabelValues(h.serviceName).Inc()

	log.Info("ws: connection established",
		zap.String("user_id", userID), zap.String("session_id", session.ID))

	if err := h.presence.PublishUpdate(r.Context(), userID, presence.StatusOnline); err != nil {
		log.Error("ws: error publishing presence update", zap.Error(err))
	}

	h.readLoop(r.Context(), session)
	h.cleanup(session, handle)
}

func (h *Handler) readLoop(ctx context.Context, s *Session) {
	log := observability.GetLogger(ctx)

	s.Conn.SetReadLimit(maxFrameSize)
	_ = s.Conn.SetReadDeadline(time.Now().Add(pongWait))
	s.Conn.SetPongHandler(func(string) error {
		return s.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("ws: read error",
					zap.String("user_id", s.UserID), zap.Error(err))
			}
			return
		}

		var env events.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			log.Warn("ws: malformed frame", zap.String("user_id", s.UserID), zap.Error(err))
			continue
		}
		h.handleEvent(ctx, s, &env)
	}
}

func (h *Handler) handleEvent(ctx context.Context, s *Session, env *events.Envelope) {
	log := observability.GetLogger(ctx)

	switch env.Event {
	case events.Typing, events.StopTyping:
		var req events.TypingRequest
		if err := json.Unmarshal(env.Data, &req); err != nil || req.To == "" {
			return
		}
		h.relay.Typing(ctx, req.To, s.UserID, env.Event == events.StopTyping)

	case events.MarkSeen:
		var req events.MarkSeenRequest
		if err := json.Unmarshal(env.Data, &req); err != nil || req.MessageID == "" {
			return
		}
		// No ack on failure: the client treats a missing ack as the receipt
		// not being recorded.
		if err := h.seen.MarkSeen(ctx, s.UserID, req.MessageID, req.ConversationID); err != nil {
			if errors.Is(err, domain.ErrMessageNotFound) {
				log.Debug("ws: markSeen for unknown message",
					zap.String("user_id", s.UserID),
					zap.String("message_id", req.MessageID))
			} else {
				log.Error("ws: markSeen failed",
					zap.String("user_id", s.UserID),
					zap.String("message_id", req.MessageID),
					zap.Error(err))
			}
			return
		}
		ack, err := events.Encode(events.MessageSeenAck, events.MessageSeen{
			MessageID:      req.MessageID,
			ConversationID: req.ConversationID,
		})
		if err != nil {
			log.Error("ws: error encoding ack", zap.Error(err))
			return
		}
		s.TrySend(ack)

	default:
		log.Debug("ws: ignoring unknown event",
			zap.String("event", env.Event), zap.String("user_id", s.UserID))
	}
}

// cleanup runs after the read loop exits. The request context is gone by then,
// so presence calls get a fresh short-lived one.
func (h *Handler) cleanup(s *Session, handle presence.Handle) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log := observability.Log

	h.registry.Remove(s)
	s.Close()
	observability.WebSocketConnectionsActive.WithLabelValues(h.serviceName).Dec()

	cleared, err := h.presence.ClearOnline(ctx, s.UserID, handle)
	if err != nil {
		log.Error("ws: error clearing presence",
			zap.String("user_id", s.UserID), zap.Error(err))
		return
	}
	if !cleared {
		// A newer connection owns the entry now.
		return
	}
	if err := h.presence.PublishUpdate(ctx, s.UserID, presence.StatusOffline); err != nil {
		log.Error("ws: error publishing presence update", zap.Error(err))
	}

	log.Info("ws: connection closed",
		zap.String("user_id", s.UserID), zap.String("session_id", s.ID))
}
