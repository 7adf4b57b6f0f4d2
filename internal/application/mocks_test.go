package application

import (
	"context"
	"database/sql"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ajshan23/chat-app-backend-chat-service/internal/domain"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/events"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/repository"
)

// MockRepo is a mock for the Repository interface
type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) GetConversation(ctx context.Context, tx *sql.Tx, id string) (*domain.Conversation, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}

func (m *MockRepo) GetConversationByLookupKey(ctx context.Context, tx *sql.Tx, key string) (*domain.Conversation, error) {
	args := m.Called(ctx, tx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}

func (m *MockRepo) InsertConversation(ctx context.Context, tx *sql.Tx, conv *domain.Conversation, lookupKey *string) (bool, error) {
	args := m.Called(ctx, tx, conv, lookupKey)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepo) UpdateConversationSummary(ctx context.Context, tx *sql.Tx, convID, lastMessage string, at time.Time) error {
	return m.Called(ctx, tx, convID, lastMessage, at).Error(0)
}

func (m *MockRepo) ListConversationsByUser(ctx context.Context, userID string, offset, limit int) ([]*repository.ConversationSummary, error) {
	args := m.Called(ctx, userID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.ConversationSummary), args.Error(1)
}

func (m *MockRepo) CountConversationsByUser(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockRepo) InsertMessage(ctx context.Context, tx *sql.Tx, msg *domain.Message) error {
	return m.Called(ctx, tx, msg).Error(0)
}

func (m *MockRepo) GetMessage(ctx context.Context, tx *sql.Tx, id string) (*domain.Message, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockRepo) ListMessages(ctx context.Context, convID string, limit int, until *time.Time) ([]*domain.Message, error) {
	args := m.Called(ctx, convID, limit, until)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Message), args.Error(1)
}

func (m *MockRepo) MarkRead(ctx context.Context, tx *sql.Tx, messageID string) (bool, error) {
	args := m.Called(ctx, tx, messageID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepo) AddSeenBy(ctx context.Context, tx *sql.Tx, messageID, userID string) (bool, error) {
	args := m.Called(ctx, tx, messageID, userID)
	return args.Bool(0), args.Error(1)
}

// MockTransactor runs the function without a real transaction.
type MockTransactor struct{}

func (m *MockTransactor) WithTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	return fn(ctx, nil)
}

type sentPush struct {
	recipient string
	evt       events.NewMessage
}

type seenPush struct {
	recipient string
	evt       events.MessageSeen
}

// fakeNotifier records pushes on channels so tests can await the async fan-out.
type fakeNotifier struct {
	newMsg chan sentPush
	seen   chan seenPush
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		newMsg: make(chan sentPush, 8),
		seen:   make(chan seenPush, 8),
	}
}

func (f *fakeNotifier) NewMessage(ctx context.Context, recipientID string, evt events.NewMessage) {
	f.newMsg <- sentPush{recipient: recipientID, evt: evt}
}

func (f *fakeNotifier) MessageSeen(ctx context.Context, recipientID string, evt events.MessageSeen) {
	f.seen <- seenPush{recipient: recipientID, evt: evt}
}
