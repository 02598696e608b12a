package idempotency

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGLedger persists idempotency records in the idempotency_record table.
// The unique constraint on key makes InsertIfAbsent the serialization point
// for concurrent first-time submissions.
type PGLedger struct {
	pool *pgxpool.Pool
}

func NewPGLedger(pool *pgxpool.Pool) *PGLedger {
	return &PGLedger{pool: pool}
}

func (l *PGLedger) Get(ctx context.Context, key string) (*Record, error) {
	var rec Record
	err := l.pool.QueryRow(ctx, `
		SELECT key, operation, status, result, error_message, created_at, completed_at
		FROM idempotency_record WHERE key = $1`, key).
		Scan(&rec.Key, &rec.Operation, &rec.Status, &rec.Result, &rec.ErrorMessage, &rec.CreatedAt, &rec.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("idempotency ledger get: %w", err)
	}
	return &rec, nil
}

func (l *PGLedger) InsertIfAbsent(ctx context.Context, key, operation string) (bool, error) {
	tag, err := l.pool.Exec(ctx, `
		INSERT INTO idempotency_record (key, operation, status, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO NOTHING`, key, operation, StatusInProgress)
	if err != nil {
		return false, fmt.Errorf("idempotency ledger insert: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (l *PGLedger) MarkCompleted(ctx context.Context, key string, result []byte) error {
	_, err := l.pool.Exec(ctx, `
		UPDATE idempotency_record
		SET status = $2, result = $3, completed_at = NOW()
		WHERE key = $1`, key, StatusCompleted, result)
	if err != nil {
		return fmt.Errorf("idempotency ledger mark completed: %w", err)
	}
	return nil
}

func (l *PGLedger) MarkFailed(ctx context.Context, key, errMsg string) error {
	_, err := l.pool.Exec(ctx, `
		UPDATE idempotency_record
		SET status = $2, error_message = $3, completed_at = NOW()
		WHERE key = $1`, key, StatusFailed, errMsg)
	if err != nil {
		return fmt.Errorf("idempotency ledger mark failed: %w", err)
	}
	return nil
}
