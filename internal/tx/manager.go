package tx

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// Manager runs a function inside a database transaction and retries it when
// Postgres reports a serialization failure. Concurrent sends into the same
// conversation contend on the summary row (last_message/updated_at), so a
// retry usually succeeds immediately.
type Manager struct {
	DB *sql.DB
}

const maxRetries = 5

// WithTx begins a transaction, runs fn, and commits. fn must be safe to run
// more than once; a message insert plus summary update is, because ids are
// generated before the transaction starts.
func (m *Manager) WithTx(
	ctx context.Context,
	fn func(ctx context.Context, tx *sql.Tx) error,
) error {

	for i := 0; i < maxRetries; i++ {

		tx, err := m.DB.BeginTx(ctx, &sql.TxOptions{
			Isolation: sql.LevelReadCommitted,
		})
		if err != nil {
			return err
		}

		err = fn(ctx, tx)
		if err != nil {
			tx.Rollback()
			if isSerializationError(err) {
				continue
			}
			return err
		}

		if err := tx.Commit(); err != nil {
			if isSerializationError(err) {
				continue
			}
			return err
		}

		return nil
	}

	return errors.New("transaction retry exhausted")
}

// lib/pq surfaces SQLSTATE 40001 with this message text.
func isSerializationError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "could not serialize")
}
