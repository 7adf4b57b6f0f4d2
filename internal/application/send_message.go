package application

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ajshan23/chat-app-backend-chat-service/internal/domain"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/events"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/observability"
)

const topicMessageSent = "chat.message.sent"

const fanoutTimeout = 10 * time.Second

// SendMessageInput carries one send request. Exactly one of ConversationID or
// ReceiverID addresses the destination: an explicit conversation, or the other
// party of a normal chat that may not exist yet.
type SendMessageInput struct {
	ConversationID   string
	ReceiverID       string
	Content          string
	Type             domain.MessageType
	ConversationType domain.ConversationType
}

type SendMessageResult struct {
	ConversationID string
	Message        *domain.Message
	UpdatedAt      time.Time
}

// SendMessage resolves the destination conversation, authorizes the sender,
// persists the message together with the conversation summary, and hands the
// recipients' pushes to a background goroutine. The caller's response never
// waits on delivery.
func (s *Service) SendMessage(ctx context.Context, sender Identity, in SendMessageInput) (*SendMessageResult, error) {
	if in.Content == "" {
		return nil, domain.ErrEmptyContent
	}
	if len(in.Content) > domain.MaxMessageSize {
		return nil, domain.ErrMessageTooLarge
	}
	if in.ConversationID == "" {
		if in.ConversationType == domain.ConversationGroup {
			return nil, domain.ErrGroupNeedsID
		}
		if in.ReceiverID == "" {
			return nil, domain.ErrReceiverRequired
		}
		if in.ReceiverID == sender.UserID {
			return nil, domain.ErrInvalidInput
		}
	}

	var (
		conv *domain.Conversation
		msg  *domain.Message
	)

	err := s.tx.WithTx(ctx, func(ctx context.Context, dbtx *sql.Tx) error {
		var err error

		if in.ConversationID != "" {
			conv, err = s.repo.GetConversation(ctx, dbtx, in.ConversationID)
		} else {
			conv, err = s.findOrCreateNormal(ctx, dbtx, sender.UserID, in.ReceiverID)
		}
		if err != nil {
			return err
		}

		if !conv.IsParticipant(sender.UserID) {
			return domain.ErrNotParticipant
		}

		now := time.Now().UTC()
		msg, err = domain.NewMessage(uuid.NewString(), conv.ID, sender.UserID, in.Content, in.Type, conv.Type, now)
		if err != nil {
			return err
		}

		if err := s.repo.InsertMessage(ctx, dbtx, msg); err != nil {
			return err
		}
		if err := s.repo.UpdateConversationSummary(ctx, dbtx, conv.ID, msg.Content, now); err != nil {
			return err
		}
		conv.LastMessage = msg.Content
		conv.UpdatedAt = now

		if s.outbox != nil {
			payload, err := json.Marshal(events.FromMessage(msg))
			if err != nil {
				return err
			}
			if err := s.outbox.InsertTx(ctx, dbtx, topicMessageSent, conv.ID, payload); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.MessagesSentTotal.WithLabelValues(s.serviceName, string(conv.Type)).Inc()

	go s.fanOut(conv, msg, sender)

	return &SendMessageResult{
		ConversationID: conv.ID,
		Message:        msg,
		UpdatedAt:      conv.UpdatedAt,
	}, nil
}

// findOrCreateNormal returns the single normal conversation between the two
// users, creating it when absent. A concurrent creator winning the lookup key
// is handled by refetching.
func (s *Service) findOrCreateNormal(ctx context.Context, dbtx *sql.Tx, senderID, receiverID string) (*domain.Conversation, error) {
	key := domain.NormalLookupKey(senderID, receiverID)

	conv, err := s.repo.GetConversationByLookupKey(ctx, dbtx, key)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, domain.ErrConversationNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	conv = &domain.Conversation{
		ID:           uuid.NewString(),
		Type:         domain.ConversationNormal,
		Participants: []string{senderID, receiverID},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	inserted, err := s.repo.InsertConversation(ctx, dbtx, conv, &key)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return s.repo.GetConversationByLookupKey(ctx, dbtx, key)
	}
	return conv, nil
}

// fanOut pushes the new message to every other participant. It runs after
// commit on a fresh context so a canceled request cannot interrupt delivery.
func (s *Service) fanOut(conv *domain.Conversation, msg *domain.Message, sender Identity) {
	ctx, cancel := context.WithTimeout(context.Background(), fanoutTimeout)
	defer cancel()

	start := time.Now()
	evt := events.NewMessage{
		ConversationID:   conv.ID,
		Message:          events.FromMessage(msg),
		ParticipantID:    sender.UserID,
		ParticipantName:  sender.Username,
		ParticipantImage: sender.ProfilePicture,
	}
	for _, recipient := range conv.OtherParticipants(sender.UserID) {
		s.notifier.NewMessage(ctx, recipient, evt)
	}
	observability.FanoutLatency.WithLabelValues(s.serviceName).Observe(time.Since(start).Seconds())

	observability.GetLogger(ctx).Debug("message fan-out complete",
		zap.String("conversation_id", conv.ID),
		zap.String("message_id", msg.ID),
		zap.Int("recipients", len(conv.Participants)-1))
}
