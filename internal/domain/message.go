package domain

import "time"

const MaxMessageSize = 5000

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageVideo MessageType = "video"
)

// Message Invariants:
// 1. ConversationID references an existing conversation whose participants
//    include SenderID at the moment of send.
// 2. Timestamp is server-assigned; per-conversation order is (timestamp, id).
// 3. IsRead flips false->true at most once (normal conversations only).
// 4. SeenBy grows monotonically (group conversations only).
type Message struct {
	ID               string
	ConversationID   string
	SenderID         string
	Content          string
	Type             MessageType
	ConversationType ConversationType
	IsRead           bool
	SeenBy           []string
	Timestamp        time.Time
}

func NewMessage(
	id string,
	conversationID string,
	senderID string,
	content string,
	msgType MessageType,
	convType ConversationType,
	now time.Time,
) (*Message, error) {

	if id == "" || conversationID == "" || senderID == "" {
		return nil, ErrInvalidInput
	}

	if content == "" {
		return nil, ErrEmptyContent
	}

	if len(content) > MaxMessageSize {
		return nil, ErrMessageTooLarge
	}

	if msgType == "" {
		msgType = MessageText
	}

	return &Message{
		ID:               id,
		ConversationID:   conversationID,
		SenderID:         senderID,
		Content:          content,
		Type:             msgType,
		ConversationType: convType,
		IsRead:           false,
		SeenBy:           []string{},
		Timestamp:        now,
	}, nil
}
