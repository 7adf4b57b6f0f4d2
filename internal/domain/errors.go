package domain

import "errors"

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrNotParticipant       = errors.New("sender is not part of this conversation")
	ErrInvalidInput         = errors.New("invalid input")
	ErrEmptyContent         = errors.New("message content cannot be empty")
	ErrReceiverRequired     = errors.New("receiverId is required for normal chat messages")
	ErrGroupNeedsID         = errors.New("conversationId is required for group messages")
	ErrMessageTooLarge      = errors.New("message too large")
)
