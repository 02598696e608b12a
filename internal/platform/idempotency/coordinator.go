package idempotency

import (
	"context"
	"encoding/json"

	"github.com/dermclinic/dermclinic/internal/platform/apperr"
)

// Coordinator wraps mutating operations with at-most-once semantics.
//
// State machine per key: absent -> in_progress -> completed | failed.
// A second request while the first is in flight is rejected, not queued.
// Completed keys replay the stored result without re-executing; failed keys
// replay the stored error without retrying.
type Coordinator struct {
	ledger Ledger
}

func NewCoordinator(ledger Ledger) *Coordinator {
	return &Coordinator{ledger: ledger}
}

// Execute runs op under the given key at most once and returns its serialized
// result. The second return value reports whether the result was replayed
// from the ledger rather than produced by this call.
//
// Keys are namespaced by operation: reusing a key for a different operation
// is a conflict, never a replay of the wrong payload.
func (co *Coordinator) Execute(ctx context.Context, key, operation string, op func(context.Context) ([]byte, error)) ([]byte, bool, error) {
	if key == "" {
		return nil, false, apperr.Validation("idempotency key is required")
	}

	rec, err := co.ledger.Get(ctx, key)
	if err != nil {
		return nil, false, apperr.Wrap(apperr.KindInternal, err, "idempotency lookup failed")
	}

	if rec != nil {
		return co.replay(rec, operation)
	}

	inserted, err := co.ledger.InsertIfAbsent(ctx, key, operation)
	if err != nil {
		return nil, false, apperr.Wrap(apperr.KindInternal, err, "idempotency insert failed")
	}
	if !inserted {
		// Lost the race against a concurrent first submission. The winner is
		// still running (or just finished); either way this request must not
		// execute the operation.
		return nil, false, apperr.OperationInProgress("a request with idempotency key %q is already being processed", key)
	}

	result, opErr := op(ctx)
	if opErr != nil {
		if err := co.ledger.MarkFailed(ctx, key, opErr.Error()); err != nil {
			return nil, false, apperr.Wrap(apperr.KindInternal, err, "recording failed operation for key %q", key)
		}
		return nil, false, opErr
	}

	if err := co.ledger.MarkCompleted(ctx, key, result); err != nil {
		return nil, false, apperr.Wrap(apperr.KindInternal, err, "recording completed operation for key %q", key)
	}
	return result, false, nil
}

func (co *Coordinator) replay(rec *Record, operation string) ([]byte, bool, error) {
	if rec.Operation != operation {
		return nil, false, apperr.Conflict("idempotency key %q was already used for a different operation", rec.Key)
	}

	switch rec.Status {
	case StatusCompleted:
		return rec.Result, true, nil
	case StatusInProgress:
		return nil, false, apperr.OperationInProgress("a request with idempotency key %q is already being processed", rec.Key)
	case StatusFailed:
		return nil, true, apperr.ReplayedFailure("a previous request with idempotency key %q failed: %s", rec.Key, rec.ErrorMessage)
	default:
		return nil, false, apperr.Internal("idempotency record %q has unknown status %q", rec.Key, rec.Status)
	}
}

// Execute runs a typed operation through the coordinator, handling JSON
// serialization of the result. A stored result that no longer decodes into T
// is an internal error: the payload is corrupt or the replay type changed,
// and silently dropping data is not acceptable.
func Execute[T any](ctx context.Context, co *Coordinator, key, operation string, op func(context.Context) (T, error)) (T, bool, error) {
	var zero T

	raw, replayed, err := co.Execute(ctx, key, operation, func(ctx context.Context) ([]byte, error) {
		v, err := op(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, err, "serializing result for key %q", key)
		}
		return data, nil
	})
	if err != nil {
		return zero, replayed, err
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, replayed, apperr.Wrap(apperr.KindInternal, err, "stored result for key %q cannot be decoded", key)
	}
	return out, replayed, nil
}
