// Package idempotency provides at-most-once execution for mutating requests
// identified by a client-supplied idempotency key. Outcomes are persisted in
// a durable ledger so that retried submissions replay the original result
// instead of re-executing the operation.
package idempotency

import "time"

// Status is the lifecycle state of an idempotency record.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Record tracks one client-originated mutating request.
type Record struct {
	Key          string     `db:"key" json:"key"`
	Operation    string     `db:"operation" json:"operation"`
	Status       Status     `db:"status" json:"status"`
	Result       []byte     `db:"result" json:"result,omitempty"`
	ErrorMessage string     `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	CompletedAt  *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}
