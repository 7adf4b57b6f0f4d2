package application

import (
	"context"
	"time"

	"github.com/ajshan23/chat-app-backend-chat-service/internal/domain"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/repository"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ConversationPage is one page of a user's conversation list, newest activity
// first, with pagination totals for the client.
type ConversationPage struct {
	Conversations      []*repository.ConversationSummary
	CurrentPage        int
	TotalConversations int
	TotalPages         int
}

// ListConversations returns the user's conversations ordered by most recent
// activity. Pages are 1-indexed.
func (s *Service) ListConversations(ctx context.Context, userID string, page, limit int) (*ConversationPage, error) {
	if userID == "" {
		return nil, domain.ErrInvalidInput
	}
	if page < 1 {
		page = 1
	}
	limit = clampLimit(limit)

	total, err := s.repo.CountConversationsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries, err := s.repo.ListConversationsByUser(ctx, userID, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []*repository.ConversationSummary{}
	}

	totalPages := (total + limit - 1) / limit

	return &ConversationPage{
		Conversations:      summaries,
		CurrentPage:        page,
		TotalConversations: total,
		TotalPages:         totalPages,
	}, nil
}

// ListMessages returns up to limit messages of a conversation, newest first.
// A non-nil until bounds the page to messages strictly older than it, which
// is how clients walk backwards through history.
func (s *Service) ListMessages(ctx context.Context, conversationID string, limit int, until *time.Time) ([]*domain.Message, error) {
	if conversationID == "" {
		return nil, domain.ErrInvalidInput
	}
	limit = clampLimit(limit)

	messages, err := s.repo.ListMessages(ctx, conversationID, limit, until)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []*domain.Message{}
	}
	return messages, nil
}

func clampLimit(limit int) int {
	if limit < 1 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}
