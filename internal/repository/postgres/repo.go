package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ajshan23/chat-app-backend-chat-service/internal/domain"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/repository"
)

type Repository struct {
	DB *sql.DB
}

type queryable interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (r *Repository) getter(tx *sql.Tx) queryable {
	if tx != nil {
		return tx
	}
	return r.DB
}

// validUUID screens ids that come from request input. Postgres raises a cast
// error when a malformed string hits a UUID column, which would surface as a
// 500 instead of a not-found.
func validUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// seenByArray never encodes NULL: the column is NOT NULL and a nil slice
// would bypass its default.
func seenByArray(seenBy []string) driver.Valuer {
	if seenBy == nil {
		seenBy = []string{}
	}
	return pq.Array(seenBy)
}

func (r *Repository) GetConversation(
	ctx context.Context,
	tx *sql.Tx,
	id string,
) (*domain.Conversation, error) {
	if !validUUID(id) {
		return nil, domain.ErrConversationNotFound
	}
	return r.fetchConversation(ctx, tx, `id = $1`, id)
}

func (r *Repository) GetConversationByLookupKey(
	ctx context.Context,
	tx *sql.Tx,
	key string,
) (*domain.Conversation, error) {
	return r.fetchConversation(ctx, tx, `lookup_key = $1`, key)
}

func (r *Repository) fetchConversation(
	ctx context.Context,
	tx *sql.Tx,
	where string,
	arg interface{},
) (*domain.Conversation, error) {

	q := r.getter(tx)

	var conv domain.Conversation
	var admin sql.NullString
	err := q.QueryRowContext(ctx, `
		SELECT id, type, admin_id, group_name, group_image, last_message, created_at, updated_at
		FROM conversations
		WHERE `+where, arg).Scan(
		&conv.ID,
		&conv.Type,
		&admin,
		&conv.GroupName,
		&conv.GroupImage,
		&conv.LastMessage,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrConversationNotFound
		}
		return nil, err
	}
	conv.Admin = admin.String

	rows, err := q.QueryContext(ctx, `
		SELECT user_id
		FROM conversation_participants
		WHERE conversation_id = $1
		ORDER BY user_id
	`, conv.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		conv.Participants = append(conv.Participants, userID)
	}

	return &conv, rows.Err()
}

func (r *Repository) InsertConversation(
	ctx context.Context,
	tx *sql.Tx,
	conv *domain.Conversation,
	lookupKey *string,
) (bool, error) {

	var admin interface{}
	if conv.Admin != "" {
		admin = conv.Admin
	}

	q := r.getter(tx)
	result, err := q.ExecContext(ctx, `
		INSERT INTO conversations (id, type, admin_id, group_name, group_image, last_message, lookup_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (lookup_key) DO NOTHING
	`, conv.ID, conv.Type, admin, conv.GroupName, conv.GroupImage, conv.LastMessage, lookupKey, conv.CreatedAt)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		// Lost the race for the lookup key.
		return false, nil
	}

	for _, userID := range conv.Participants {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO conversation_participants (conversation_id, user_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, conv.ID, userID); err != nil {
			return false, err
		}
	}

	return true, nil
}

func (r *Repository) UpdateConversationSummary(
	ctx context.Context,
	tx *sql.Tx,
	convID, lastMessage string,
	at time.Time,
) error {
	q := r.getter(tx)
	_, err := q.ExecContext(ctx, `
		UPDATE conversations
		SET last_message = $2, updated_at = $3
		WHERE id = $1
	`, convID, lastMessage, at)
	return err
}

func (r *Repository) ListConversationsByUser(
	ctx context.Context,
	userID string,
	offset, limit int,
) ([]*repository.ConversationSummary, error) {

	rows, err := r.DB.QueryContext(ctx, `
		SELECT c.id, c.type, c.admin_id, c.group_name, c.group_image, c.last_message,
		       c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM messages m
		         WHERE m.conversation_id = c.id
		           AND CASE WHEN c.type = 'group'
		               THEN NOT ($1 = ANY(m.seen_by))
		               ELSE m.sender_id <> $1 AND NOT m.is_read
		               END) AS unseen
		FROM conversations c
		JOIN conversation_participants cp ON cp.conversation_id = c.id
		WHERE cp.user_id = $1
		ORDER BY c.updated_at DESC
		OFFSET $2 LIMIT $3
	`, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*repository.ConversationSummary
	for rows.Next() {
		var s repository.ConversationSummary
		var admin sql.NullString
		if err := rows.Scan(
			&s.Conversation.ID,
			&s.Conversation.Type,
			&admin,
			&s.Conversation.GroupName,
			&s.Conversation.GroupImage,
			&s.Conversation.LastMessage,
			&s.Conversation.CreatedAt,
			&s.Conversation.UpdatedAt,
			&s.UnseenCount,
		); err != nil {
			return nil, err
		}
		s.Conversation.Admin = admin.String
		summaries = append(summaries, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, s := range summaries {
		if err := r.loadParticipants(ctx, &s.Conversation); err != nil {
			return nil, err
		}
	}

	return summaries, nil
}

func (r *Repository) CountConversationsByUser(
	ctx context.Context,
	userID string,
) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM conversation_participants
		WHERE user_id = $1
	`, userID).Scan(&count)
	return count, err
}

func (r *Repository) loadParticipants(ctx context.Context, conv *domain.Conversation) error {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT user_id
		FROM conversation_participants
		WHERE conversation_id = $1
		ORDER BY user_id
	`, conv.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return err
		}
		conv.Participants = append(conv.Participants, userID)
	}
	return rows.Err()
}

func (r *Repository) InsertMessage(
	ctx context.Context,
	tx *sql.Tx,
	msg *domain.Message,
) error {
	q := r.getter(tx)
	_, err := q.ExecContext(ctx, `
		INSERT INTO messages (
			id, conversation_id, sender_id,
			content, type, conversation_type, is_read, seen_by, timestamp
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		msg.ID,
		msg.ConversationID,
		msg.SenderID,
		msg.Content,
		msg.Type,
		msg.ConversationType,
		msg.IsRead,
		seenByArray(msg.SeenBy),
		msg.Timestamp,
	)
	return err
}

func (r *Repository) GetMessage(
	ctx context.Context,
	tx *sql.Tx,
	id string,
) (*domain.Message, error) {

	if !validUUID(id) {
		return nil, domain.ErrMessageNotFound
	}

	q := r.getter(tx)
	row := q.QueryRowContext(ctx, `
		SELECT id, conversation_id, sender_id, content, type,
		       conversation_type, is_read, seen_by, timestamp
		FROM messages
		WHERE id = $1
	`, id)

	var msg domain.Message
	err := row.Scan(
		&msg.ID,
		&msg.ConversationID,
		&msg.SenderID,
		&msg.Content,
		&msg.Type,
		&msg.ConversationType,
		&msg.IsRead,
		pq.Array(&msg.SeenBy),
		&msg.Timestamp,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}

	return &msg, nil
}

func (r *Repository) ListMessages(
	ctx context.Context,
	convID string,
	limit int,
	until *time.Time,
) ([]*domain.Message, error) {

	if !validUUID(convID) {
		return nil, domain.ErrConversationNotFound
	}

	query := `
		SELECT id, conversation_id, sender_id, content, type,
		       conversation_type, is_read, seen_by, timestamp
		FROM messages
		WHERE conversation_id = $1`
	args := []interface{}{convID}

	if until != nil {
		query += ` AND timestamp < $2`
		args = append(args, *until)
	}

	query += ` ORDER BY timestamp DESC, id DESC LIMIT $` + strconv.Itoa(len(args)+1)
	args = append(args, limit)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.SenderID,
			&msg.Content,
			&msg.Type,
			&msg.ConversationType,
			&msg.IsRead,
			pq.Array(&msg.SeenBy),
			&msg.Timestamp,
		); err != nil {
			return nil, err
		}
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}

func (r *Repository) MarkRead(
	ctx context.Context,
	tx *sql.Tx,
	messageID string,
) (bool, error) {
	q := r.getter(tx)
	result, err := q.ExecContext(ctx, `
		UPDATE messages
		SET is_read = TRUE
		WHERE id = $1 AND conversation_type = 'normal' AND is_read = FALSE
	`, messageID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *Repository) AddSeenBy(
	ctx context.Context,
	tx *sql.Tx,
	messageID, userID string,
) (bool, error) {
	q := r.getter(tx)
	result, err := q.ExecContext(ctx, `
		UPDATE messages
		SET seen_by = array_append(seen_by, $2)
		WHERE id = $1 AND conversation_type = 'group' AND NOT ($2 = ANY(seen_by))
	`, messageID, userID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
