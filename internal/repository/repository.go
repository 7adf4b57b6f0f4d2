package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/ajshan23/chat-app-backend-chat-service/internal/domain"
)

// ConversationSummary is a conversation as it appears in a user's list view,
// with the unseen-message count computed for that user.
type ConversationSummary struct {
	Conversation domain.Conversation
	UnseenCount  int
}

type Repository interface {
	// Conversations
	GetConversation(ctx context.Context, tx *sql.Tx, id string) (*domain.Conversation, error)
	GetConversationByLookupKey(ctx context.Context, tx *sql.Tx, key string) (*domain.Conversation, error)
	// InsertConversation reports false when another writer already holds the
	// lookup key; the caller refetches instead of treating it as a failure.
	InsertConversation(ctx context.Context, tx *sql.Tx, conv *domain.Conversation, lookupKey *string) (bool, error)
	UpdateConversationSummary(ctx context.Context, tx *sql.Tx, convID, lastMessage string, at time.Time) error
	ListConversationsByUser(ctx context.Context, userID string, offset, limit int) ([]*ConversationSummary, error)
	CountConversationsByUser(ctx context.Context, userID string) (int, error)

	// Messages
	InsertMessage(ctx context.Context, tx *sql.Tx, msg *domain.Message) error
	GetMessage(ctx context.Context, tx *sql.Tx, id string) (*domain.Message, error)
	ListMessages(ctx context.Context, convID string, limit int, until *time.Time) ([]*domain.Message, error)

	// Receipts. Both report whether this call changed the row, so the caller
	// can emit the seen notification exactly once.
	MarkRead(ctx context.Context, tx *sql.Tx, messageID string) (bool, error)
	AddSeenBy(ctx context.Context, tx *sql.Tx, messageID, userID string) (bool, error)
}
