package application

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/ajshan23/chat-app-backend-chat-service/internal/domain"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/events"
)

const topicMessageSeen = "chat.message.seen"

// MarkSeen records that userID has seen the message. Repeat reports succeed
// silently; the original sender is notified only on the first state change.
// Unknown messages return ErrMessageNotFound so the caller never gets an
// acknowledgment for a receipt that was not recorded.
func (s *Service) MarkSeen(ctx context.Context, userID, messageID, conversationID string) error {
	if userID == "" || messageID == "" {
		return domain.ErrInvalidInput
	}

	var (
		msg     *domain.Message
		changed bool
	)

	err := s.tx.WithTx(ctx, func(ctx context.Context, dbtx *sql.Tx) error {
		var err error
		msg, err = s.repo.GetMessage(ctx, dbtx, messageID)
		if err != nil {
			return err
		}
		if msg.SenderID == userID {
			return nil
		}

		if msg.ConversationType == domain.ConversationGroup {
			changed, err = s.repo.AddSeenBy(ctx, dbtx, messageID, userID)
		} else {
			changed, err = s.repo.MarkRead(ctx, dbtx, messageID)
		}
		if err != nil {
			return err
		}

		if changed && s.outbox != nil {
			payload, err := json.Marshal(events.MessageSeen{
				MessageID:      msg.ID,
				ConversationID: msg.ConversationID,
			})
			if err != nil {
				return err
			}
			return s.outbox.InsertTx(ctx, dbtx, topicMessageSeen, msg.ConversationID, payload)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if changed {
		go s.notifySeen(msg)
	}
	return nil
}

func (s *Service) notifySeen(msg *domain.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), fanoutTimeout)
	defer cancel()

	s.notifier.MessageSeen(ctx, msg.SenderID, events.MessageSeen{
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
	})
}
