// Package archive persists finished session histories to Postgres. The
// archive is write-only: nothing in the serving path reads it back, it
// exists for offline inspection of what the demo sessions did.
package archive

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tappay/wallet-api/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS archived_transactions (
    session_id  TEXT        NOT NULL,
    identifier  TEXT        NOT NULL,
    tx_id       TEXT        NOT NULL,
    tx_type     TEXT        NOT NULL,
    amount      BIGINT      NOT NULL,
    currency    TEXT        NOT NULL,
    status      TEXT        NOT NULL,
    description TEXT        NOT NULL,
    recipient   TEXT        NOT NULL DEFAULT '',
    sender      TEXT        NOT NULL DEFAULT '',
    category    TEXT        NOT NULL,
    occurred_at TIMESTAMPTZ NOT NULL,
    archived_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (session_id, tx_id)
)`

// Store writes session histories into the archived_transactions table.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates the archive store and ensures its table exists.
func NewStore(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("ensure archive schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// ArchiveSession writes the full history of one ended session in a single
// transaction. Re-archiving the same session is a no-op per row.
func (s *Store) ArchiveSession(ctx context.Context, sessionID, identifier string, txs []models.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin archive transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, t := range txs {
		batch.Queue(`
			INSERT INTO archived_transactions
			    (session_id, identifier, tx_id, tx_type, amount, currency,
			     status, description, recipient, sender, category, occurred_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (session_id, tx_id) DO NOTHING`,
			sessionID, identifier, t.ID, t.Type, t.Amount, t.Currency,
			t.Status, t.Description, t.Recipient, t.Sender, t.Category, t.Timestamp,
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("archive batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit archive transaction: %w", err)
	}
	return nil
}
