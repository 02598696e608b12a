package registry

import (
	"context"

	"github.com/google/uuid"

	"github.com/dermclinic/dermclinic/internal/platform/apperr"
	"github.com/dermclinic/dermclinic/internal/platform/occ"
)

type Service struct {
	patients       PatientRepository
	dermatologists DermatologistRepository
	patientStore   *occ.Store[*Patient]
	dermStore      *occ.Store[*Dermatologist]
}

func NewService(patients PatientRepository, dermatologists DermatologistRepository) *Service {
	return &Service{
		patients:       patients,
		dermatologists: dermatologists,
		patientStore:   occ.NewStore[*Patient](patients),
		dermStore:      occ.NewStore[*Dermatologist](dermatologists),
	}
}

// -- Patient --

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.FirstName == "" || p.LastName == "" {
		return apperr.Validation("first_name and last_name are required")
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, occ.Token, error) {
	return s.patientStore.Load(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}

func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, token occ.Token, in *Patient) (*Patient, occ.Token, error) {
	if in.FirstName == "" || in.LastName == "" {
		return nil, "", apperr.Validation("first_name and last_name are required")
	}
	return s.patientStore.ConditionalUpdate(ctx, id, token, func(p *Patient) error {
		p.FirstName = in.FirstName
		p.LastName = in.LastName
		p.DateOfBirth = in.DateOfBirth
		p.PhoneNumber = in.PhoneNumber
		p.Email = in.Email
		p.Address = in.Address
		return nil
	})
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.patientStore.ConditionalDelete(ctx, id)
}

// PatientExists reports whether a patient row exists; used by other domains
// for referential checks before insert.
func (s *Service) PatientExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.patients.Exists(ctx, id)
}

// -- Dermatologist --

func (s *Service) CreateDermatologist(ctx context.Context, d *Dermatologist) error {
	if d.FirstName == "" || d.LastName == "" {
		return apperr.Validation("first_name and last_name are required")
	}
	if d.LicenseNumber == "" {
		return apperr.Validation("license_number is required")
	}
	return s.dermatologists.Create(ctx, d)
}

func (s *Service) GetDermatologist(ctx context.Context, id uuid.UUID) (*Dermatologist, occ.Token, error) {
	return s.dermStore.Load(ctx, id)
}

func (s *Service) ListDermatologists(ctx context.Context, limit, offset int) ([]*Dermatologist, int, error) {
	return s.dermatologists.List(ctx, limit, offset)
}

func (s *Service) UpdateDermatologist(ctx context.Context, id uuid.UUID, token occ.Token, in *Dermatologist) (*Dermatologist, occ.Token, error) {
	if in.FirstName == "" || in.LastName == "" {
		return nil, "", apperr.Validation("first_name and last_name are required")
	}
	if in.LicenseNumber == "" {
		return nil, "", apperr.Validation("license_number is required")
	}
	return s.dermStore.ConditionalUpdate(ctx, id, token, func(d *Dermatologist) error {
		d.FirstName = in.FirstName
		d.LastName = in.LastName
		d.LicenseNumber = in.LicenseNumber
		d.Specialization = in.Specialization
		d.Email = in.Email
		d.PhoneNumber = in.PhoneNumber
		return nil
	})
}

func (s *Service) DeleteDermatologist(ctx context.Context, id uuid.UUID) error {
	return s.dermStore.ConditionalDelete(ctx, id)
}

func (s *Service) DermatologistExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.dermatologists.Exists(ctx, id)
}
