package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemLedger is a concurrency-safe, in-memory Ledger. It backs tests and
// single-process development runs; production uses PGLedger. Records are kept
// until the process exits (stranded in-progress entries are an operator
// concern, mirroring the durable ledger).
type MemLedger struct {
	mu      sync.Mutex
	records map[string]*Record
	nowFunc func() time.Time // for testing; defaults to time.Now
}

func NewMemLedger() *MemLedger {
	return &MemLedger{
		records: make(map[string]*Record),
		nowFunc: time.Now,
	}
}

func (l *MemLedger) Get(_ context.Context, key string) (*Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.records[key]
	if !ok {
		return nil, nil
	}
	// Return a copy to prevent callers from mutating the stored record.
	cp := *rec
	cp.Result = append([]byte(nil), rec.Result...)
	return &cp, nil
}

func (l *MemLedger) InsertIfAbsent(_ context.Context, key, operation string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.records[key]; ok {
		return false, nil
	}
	l.records[key] = &Record{
		Key:       key,
		Operation: operation,
		Status:    StatusInProgress,
		CreatedAt: l.nowFunc(),
	}
	return true, nil
}

func (l *MemLedger) MarkCompleted(_ context.Context, key string, result []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.records[key]
	if !ok {
		return nil
	}
	now := l.nowFunc()
	rec.Status = StatusCompleted
	rec.Result = append([]byte(nil), result...)
	rec.CompletedAt = &now
	return nil
}

func (l *MemLedger) MarkFailed(_ context.Context, key, errMsg string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.records[key]
	if !ok {
		return nil
	}
	now := l.nowFunc()
	rec.Status = StatusFailed
	rec.ErrorMessage = errMsg
	rec.CompletedAt = &now
	return nil
}
