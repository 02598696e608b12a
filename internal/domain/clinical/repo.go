package clinical

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dermclinic/dermclinic/internal/platform/occ"
)

type LesionRepository interface {
	occ.RecordStore[*Lesion]

	Create(ctx context.Context, l *Lesion) error
	List(ctx context.Context, limit, offset int) ([]*Lesion, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Lesion, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type DiagnosisRepository interface {
	occ.RecordStore[*Diagnosis]

	Create(ctx context.Context, d *Diagnosis) error
	List(ctx context.Context, limit, offset int) ([]*Diagnosis, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Diagnosis, error)

	// ExistsForVisit reports whether a diagnosis is already recorded for the
	// patient by the dermatologist on the given calendar day.
	ExistsForVisit(ctx context.Context, patientID, dermatologistID uuid.UUID, day time.Time) (bool, error)
}

// Directory answers referential questions about entities owned by another
// domain. The registry service satisfies it.
type Directory interface {
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
	DermatologistExists(ctx context.Context, id uuid.UUID) (bool, error)
}
