package clinical

import (
	"context"

	"github.com/google/uuid"

	"github.com/dermclinic/dermclinic/internal/platform/apperr"
	"github.com/dermclinic/dermclinic/internal/platform/idempotency"
	"github.com/dermclinic/dermclinic/internal/platform/occ"
)

// OpCreateDiagnosis is the operation name diagnosis creations are recorded
// under in the idempotency ledger. Reusing a key under any other name is a
// conflict.
const OpCreateDiagnosis = "diagnosis.create"

type Service struct {
	lesions     LesionRepository
	diagnoses   DiagnosisRepository
	directory   Directory
	coordinator *idempotency.Coordinator

	lesionStore    *occ.Store[*Lesion]
	diagnosisStore *occ.Store[*Diagnosis]
}

func NewService(lesions LesionRepository, diagnoses DiagnosisRepository, directory Directory, coordinator *idempotency.Coordinator) *Service {
	return &Service{
		lesions:        lesions,
		diagnoses:      diagnoses,
		directory:      directory,
		coordinator:    coordinator,
		lesionStore:    occ.NewStore[*Lesion](lesions),
		diagnosisStore: occ.NewStore[*Diagnosis](diagnoses),
	}
}

// -- Lesion --

func (s *Service) CreateLesion(ctx context.Context, l *Lesion) error {
	if l.PatientID == uuid.Nil {
		return apperr.Validation("patient_id is required")
	}
	if l.Location == "" {
		return apperr.Validation("location is required")
	}
	ok, err := s.directory.PatientExists(ctx, l.PatientID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("patient %s not found", l.PatientID)
	}
	return s.lesions.Create(ctx, l)
}

func (s *Service) GetLesion(ctx context.Context, id uuid.UUID) (*Lesion, occ.Token, error) {
	return s.lesionStore.Load(ctx, id)
}

func (s *Service) ListLesions(ctx context.Context, limit, offset int) ([]*Lesion, int, error) {
	return s.lesions.List(ctx, limit, offset)
}

func (s *Service) ListPatientLesions(ctx context.Context, patientID uuid.UUID) ([]*Lesion, error) {
	ok, err := s.directory.PatientExists(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("patient %s not found", patientID)
	}
	return s.lesions.ListByPatient(ctx, patientID)
}

func (s *Service) UpdateLesion(ctx context.Context, id uuid.UUID, token occ.Token, in *Lesion) (*Lesion, occ.Token, error) {
	if in.Location == "" {
		return nil, "", apperr.Validation("location is required")
	}
	return s.lesionStore.ConditionalUpdate(ctx, id, token, func(l *Lesion) error {
		l.Location = in.Location
		l.DiscoveryDate = in.DiscoveryDate
		l.Description = in.Description
		return nil
	})
}

func (s *Service) DeleteLesion(ctx context.Context, id uuid.UUID) error {
	return s.lesionStore.ConditionalDelete(ctx, id)
}

// -- Diagnosis --

// CreateDiagnosis records a diagnosis after verifying every referenced
// entity exists and that the patient was not already diagnosed by the same
// dermatologist on the same day.
func (s *Service) CreateDiagnosis(ctx context.Context, d *Diagnosis) error {
	if err := s.validateDiagnosis(d); err != nil {
		return err
	}

	ok, err := s.directory.PatientExists(ctx, d.PatientID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("patient %s not found", d.PatientID)
	}

	ok, err = s.directory.DermatologistExists(ctx, d.DermatologistID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("dermatologist %s not found", d.DermatologistID)
	}

	if d.LesionID != nil {
		ok, err = s.lesions.Exists(ctx, *d.LesionID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound("lesion %s not found", *d.LesionID)
		}
	}

	dup, err := s.diagnoses.ExistsForVisit(ctx, d.PatientID, d.DermatologistID, d.DiagnosisDate)
	if err != nil {
		return err
	}
	if dup {
		return apperr.Conflict("a diagnosis for this patient by this dermatologist already exists on %s",
			d.DiagnosisDate.Format("2006-01-02"))
	}

	// The unique index on (patient, dermatologist, day) is the backstop for
	// two creates racing past the check above; the repo maps it to Conflict.
	return s.diagnoses.Create(ctx, d)
}

// CreateDiagnosisIdempotent runs CreateDiagnosis under the idempotency
// coordinator. A replayed completed request returns the originally created
// diagnosis without inserting again; the second return value reports replay.
func (s *Service) CreateDiagnosisIdempotent(ctx context.Context, key string, d *Diagnosis) (*Diagnosis, bool, error) {
	return idempotency.Execute(ctx, s.coordinator, key, OpCreateDiagnosis, func(ctx context.Context) (*Diagnosis, error) {
		if err := s.CreateDiagnosis(ctx, d); err != nil {
			return nil, err
		}
		return d, nil
	})
}

func (s *Service) GetDiagnosis(ctx context.Context, id uuid.UUID) (*Diagnosis, occ.Token, error) {
	return s.diagnosisStore.Load(ctx, id)
}

func (s *Service) ListDiagnoses(ctx context.Context, limit, offset int) ([]*Diagnosis, int, error) {
	return s.diagnoses.List(ctx, limit, offset)
}

func (s *Service) ListPatientDiagnoses(ctx context.Context, patientID uuid.UUID) ([]*Diagnosis, error) {
	ok, err := s.directory.PatientExists(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("patient %s not found", patientID)
	}
	return s.diagnoses.ListByPatient(ctx, patientID)
}

func (s *Service) UpdateDiagnosis(ctx context.Context, id uuid.UUID, token occ.Token, in *Diagnosis) (*Diagnosis, occ.Token, error) {
	if in.Description == "" {
		return nil, "", apperr.Validation("description is required")
	}
	if in.DiagnosisDate.IsZero() {
		return nil, "", apperr.Validation("diagnosis_date is required")
	}
	return s.diagnosisStore.ConditionalUpdate(ctx, id, token, func(d *Diagnosis) error {
		d.LesionID = in.LesionID
		d.DiagnosisDate = in.DiagnosisDate
		d.Description = in.Description
		return nil
	})
}

func (s *Service) DeleteDiagnosis(ctx context.Context, id uuid.UUID) error {
	return s.diagnosisStore.ConditionalDelete(ctx, id)
}

func (s *Service) validateDiagnosis(d *Diagnosis) error {
	if d.PatientID == uuid.Nil {
		return apperr.Validation("patient_id is required")
	}
	if d.DermatologistID == uuid.Nil {
		return apperr.Validation("dermatologist_id is required")
	}
	if d.DiagnosisDate.IsZero() {
		return apperr.Validation("diagnosis_date is required")
	}
	if d.Description == "" {
		return apperr.Validation("description is required")
	}
	return nil
}
