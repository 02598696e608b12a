package registry

import (
	"context"

	"github.com/google/uuid"

	"github.com/dermclinic/dermclinic/internal/platform/occ"
)

type PatientRepository interface {
	occ.RecordStore[*Patient]

	Create(ctx context.Context, p *Patient) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type DermatologistRepository interface {
	occ.RecordStore[*Dermatologist]

	Create(ctx context.Context, d *Dermatologist) error
	List(ctx context.Context, limit, offset int) ([]*Dermatologist, int, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
