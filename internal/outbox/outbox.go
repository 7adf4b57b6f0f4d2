// Package outbox implements the transactional outbox: integration events are
// written in the same transaction as the business change and drained to the
// broker by a background publisher.
package outbox

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// Row represents a single unpublished outbox entry.
type Row struct {
	ID      string
	Topic   string
	Key     string
	Payload []byte
}

// Repository manages the transactional outbox table.
type Repository struct{ DB *sql.DB }

func NewRepository(db *sql.DB) *Repository { return &Repository{DB: db} }

// InsertTx inserts a new outbox event inside an existing transaction.
func (r *Repository) InsertTx(ctx context.Context, tx *sql.Tx, topic, key string, payload []byte) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO outbox (id, topic, key, payload) VALUES ($1,$2,$3,$4)`,
		uuid.NewString(), topic, key, payload)
	return err
}

// Fetch returns up to limit unpublished outbox rows ordered by creation time.
func (r *Repository) Fetch(ctx context.Context, limit int) ([]Row, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, topic, key, payload FROM outbox WHERE published_at IS NULL ORDER BY created_at LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.ID, &row.Topic, &row.Key, &row.Payload); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// MarkPublished sets the published_at timestamp for the given outbox row.
func (r *Repository) MarkPublished(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE outbox SET published_at = NOW() WHERE id = $1`, id)
	return err
}
