package occ

import (
	"context"

	"github.com/google/uuid"

	"github.com/dermclinic/dermclinic/internal/platform/apperr"
)

// Versioned is implemented by domain models that carry a version counter.
type Versioned interface {
	GetVersionID() int64
	SetVersionID(v int64)
}

// RecordStore is the narrow persistence contract a repository must satisfy
// for its entity type to participate in conditional mutations.
//
// UpdateIfVersion must compare and write atomically in a single conditional
// statement (WHERE id = $1 AND version_id = $2) and mint the new version as
// part of that same write. It returns apperr.KindNotFound when the row does
// not exist and apperr.KindVersionMismatch when another writer got there
// first, so a race between the Store's token comparison and the write is
// still detected.
type RecordStore[T Versioned] interface {
	Get(ctx context.Context, id uuid.UUID) (T, error)
	UpdateIfVersion(ctx context.Context, entity T, expected int64) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// Store layers token handling and conflict detection over a RecordStore.
// It holds no locks; correctness comes from the store's atomic conditional
// write.
type Store[T Versioned] struct {
	records RecordStore[T]
}

func NewStore[T Versioned](records RecordStore[T]) *Store[T] {
	return &Store[T]{records: records}
}

// Load fetches an entity and its current version token.
func (s *Store[T]) Load(ctx context.Context, id uuid.UUID) (T, Token, error) {
	e, err := s.records.Get(ctx, id)
	if err != nil {
		var zero T
		return zero, "", err
	}
	return e, FormatToken(e.GetVersionID()), nil
}

// ConditionalUpdate applies mutate to the entity identified by id, but only
// if presented matches the entity's current version token. On success the
// updated entity and its freshly minted token are returned.
//
// A malformed presented token is reported as a version mismatch rather than
// a decoding failure: from the caller's point of view the token is unusable
// either way, and re-fetching is the correct recovery in both cases.
func (s *Store[T]) ConditionalUpdate(ctx context.Context, id uuid.UUID, presented Token, mutate func(T) error) (T, Token, error) {
	var zero T

	want, err := ParseToken(presented)
	if err != nil {
		return zero, "", apperr.Wrap(apperr.KindVersionMismatch, err, "invalid version token")
	}

	e, err := s.records.Get(ctx, id)
	if err != nil {
		return zero, "", err
	}

	if e.GetVersionID() != want {
		return zero, "", apperr.VersionMismatch("the resource has been modified since it was last retrieved")
	}

	if err := mutate(e); err != nil {
		return zero, "", err
	}

	newVersion, err := s.records.UpdateIfVersion(ctx, e, want)
	if err != nil {
		return zero, "", err
	}

	e.SetVersionID(newVersion)
	return e, FormatToken(newVersion), nil
}

// ConditionalDelete removes the entity. Deletion does not require a version
// token, but the existence check is atomic with the delete so that two
// racing deletes cannot both report success.
func (s *Store[T]) ConditionalDelete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.records.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.NotFound("resource %s not found", id)
	}
	return nil
}
