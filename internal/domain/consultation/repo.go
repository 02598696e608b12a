package consultation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dermclinic/dermclinic/internal/platform/occ"
)

type ConsultationRepository interface {
	occ.RecordStore[*Consultation]

	Create(ctx context.Context, c *Consultation) error
	List(ctx context.Context, limit, offset int) ([]*Consultation, int, error)

	// SlotTaken reports whether the dermatologist already has a consultation
	// at the given time, ignoring the consultation identified by exclude
	// (uuid.Nil to exclude nothing).
	SlotTaken(ctx context.Context, dermatologistID uuid.UUID, at time.Time, exclude uuid.UUID) (bool, error)
}

// Directory answers referential questions about entities owned by the
// registry domain.
type Directory interface {
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
	DermatologistExists(ctx context.Context, id uuid.UUID) (bool, error)
}
