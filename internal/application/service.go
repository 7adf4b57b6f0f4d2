// Package application implements the chat operations behind the HTTP and
// live-connection surfaces: sending messages, listing history, and recording
// read receipts. Persistence is transactional; pushes to recipients are
// best effort and happen after commit.
package application

import (
	"context"
	"database/sql"

	"github.com/ajshan23/chat-app-backend-chat-service/internal/events"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/repository"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/tx"
)

// Identity is the authenticated caller as the token describes them. The
// display fields ride along on pushes so recipients can render the sender
// without another lookup.
type Identity struct {
	UserID         string
	Username       string
	ProfilePicture string
}

// Notifier pushes events to a recipient's live connection, if any.
type Notifier interface {
	NewMessage(ctx context.Context, recipientID string, evt events.NewMessage)
	MessageSeen(ctx context.Context, recipientID string, evt events.MessageSeen)
}

// OutboxWriter records an integration event in the same transaction as the
// business write that caused it.
type OutboxWriter interface {
	InsertTx(ctx context.Context, dbtx *sql.Tx, topic, key string, payload []byte) error
}

type Service struct {
	repo        repository.Repository
	tx          tx.Transactor
	notifier    Notifier
	outbox      OutboxWriter // nil disables integration events
	serviceName string
}

func NewService(
	repo repository.Repository,
	transactor tx.Transactor,
	notifier Notifier,
	outbox OutboxWriter,
	serviceName string,
) *Service {
	return &Service{
		repo:        repo,
		tx:          transactor,
		notifier:    notifier,
		outbox:      outbox,
		serviceName: serviceName,
	}
}
