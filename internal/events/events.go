// Package events defines the wire-level event names and payload shapes pushed
// over live connections. Names and field casing are part of the client
// contract and must not change.
package events

import (
	"encoding/json"
	"time"

	"github.com/ajshan23/chat-app-backend-chat-service/internal/domain"
)

// Server -> client events.
const (
	GetOnlineUsers          = "getOnlineUsers"
	NewMessageEvent         = "newMessage"
	UserTyping              = "userTyping"
	UserTypingStopped       = "userTypingStopped"
	MessageSeenNotification = "messageSeenNotification"
	MessageSeenAck          = "messageSeen"
)

// Client -> server events.
const (
	Typing     = "typing"
	StopTyping = "stopTyping"
	MarkSeen   = "markSeen"
)

// Envelope is the framing for every event in either direction.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func Encode(event string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// MessagePayload is a message as clients see it.
type MessagePayload struct {
	MessageID        string    `json:"messageId"`
	ConversationID   string    `json:"conversationId"`
	SenderID         string    `json:"senderId"`
	Content          string    `json:"content"`
	Type             string    `json:"type"`
	ConversationType string    `json:"conversationType"`
	IsRead           bool      `json:"isRead"`
	SeenBy           []string  `json:"seenBy"`
	Timestamp        time.Time `json:"timestamp"`
}

func FromMessage(m *domain.Message) MessagePayload {
	seenBy := m.SeenBy
	if seenBy == nil {
		seenBy = []string{}
	}
	return MessagePayload{
		MessageID:        m.ID,
		ConversationID:   m.ConversationID,
		SenderID:         m.SenderID,
		Content:          m.Content,
		Type:             string(m.Type),
		ConversationType: string(m.ConversationType),
		IsRead:           m.IsRead,
		SeenBy:           seenBy,
		Timestamp:        m.Timestamp,
	}
}

// NewMessage is the payload of a newMessage push. Participant fields describe
// the sender as the recipient should display them.
type NewMessage struct {
	ConversationID   string         `json:"conversationId"`
	Message          MessagePayload `json:"message"`
	ParticipantID    string         `json:"participantId"`
	ParticipantName  string         `json:"participantName"`
	ParticipantImage string         `json:"participantImage"`
}

// TypingPayload is pushed as userTyping / userTypingStopped.
type TypingPayload struct {
	From string `json:"from"`
}

// TypingRequest is received as typing / stopTyping.
type TypingRequest struct {
	To string `json:"to"`
}

// MessageSeen is both the messageSeenNotification payload (to the original
// sender) and the messageSeen ack payload (to the reporting client).
type MessageSeen struct {
	MessageID      string `json:"messageId"`
	ConversationID string `json:"conversationId"`
}

// MarkSeenRequest is received as markSeen.
type MarkSeenRequest struct {
	MessageID      string `json:"messageId"`
	ConversationID string `json:"conversationId"`
}
