package idempotency

import "context"

// Ledger is the persistence contract for idempotency records.
// Implementations must be safe for concurrent use, and InsertIfAbsent must be
// atomic: when two first-time submissions race, exactly one inserter wins.
type Ledger interface {
	// Get retrieves a record by key. A missing key returns (nil, nil).
	Get(ctx context.Context, key string) (*Record, error)
	// InsertIfAbsent inserts an in-progress record for key. It returns false
	// without error when the key already exists.
	InsertIfAbsent(ctx context.Context, key, operation string) (bool, error)
	// MarkCompleted stores the serialized result and flips the record to
	// StatusCompleted.
	MarkCompleted(ctx context.Context, key string, result []byte) error
	// MarkFailed stores the error message and flips the record to
	// StatusFailed.
	MarkFailed(ctx context.Context, key, errMsg string) error
}
