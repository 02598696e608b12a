package consultation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dermclinic/dermclinic/internal/platform/apperr"
	"github.com/dermclinic/dermclinic/internal/platform/db"
	"github.com/dermclinic/dermclinic/internal/platform/occ"
)

type Service struct {
	consultations ConsultationRepository
	directory     Directory
	tx            db.TxRunner
	store         *occ.Store[*Consultation]
}

func NewService(consultations ConsultationRepository, directory Directory, tx db.TxRunner) *Service {
	return &Service{
		consultations: consultations,
		directory:     directory,
		tx:            tx,
		store:         occ.NewStore[*Consultation](consultations),
	}
}

func (s *Service) CreateConsultation(ctx context.Context, c *Consultation) error {
	if c.PatientID == uuid.Nil {
		return apperr.Validation("patient_id is required")
	}
	if c.DermatologistID == uuid.Nil {
		return apperr.Validation("dermatologist_id is required")
	}
	if c.ConsultationDate.IsZero() {
		return apperr.Validation("consultation_date is required")
	}

	ok, err := s.directory.PatientExists(ctx, c.PatientID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("patient %s not found", c.PatientID)
	}

	ok, err = s.directory.DermatologistExists(ctx, c.DermatologistID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("dermatologist %s not found", c.DermatologistID)
	}

	taken, err := s.consultations.SlotTaken(ctx, c.DermatologistID, c.ConsultationDate, uuid.Nil)
	if err != nil {
		return err
	}
	if taken {
		return apperr.Conflict("the dermatologist already has a consultation at %s",
			c.ConsultationDate.Format(time.RFC3339))
	}

	// Unique (dermatologist, slot) index backstops two creates racing past
	// the check; the repo maps it to Conflict.
	return s.consultations.Create(ctx, c)
}

func (s *Service) GetConsultation(ctx context.Context, id uuid.UUID) (*Consultation, occ.Token, error) {
	return s.store.Load(ctx, id)
}

func (s *Service) ListConsultations(ctx context.Context, limit, offset int) ([]*Consultation, int, error) {
	return s.consultations.List(ctx, limit, offset)
}

func (s *Service) UpdateConsultation(ctx context.Context, id uuid.UUID, token occ.Token, in *Consultation) (*Consultation, occ.Token, error) {
	if in.ConsultationDate.IsZero() {
		return nil, "", apperr.Validation("consultation_date is required")
	}
	return s.store.ConditionalUpdate(ctx, id, token, func(c *Consultation) error {
		if !in.ConsultationDate.Equal(c.ConsultationDate) {
			taken, err := s.consultations.SlotTaken(ctx, c.DermatologistID, in.ConsultationDate, c.ID)
			if err != nil {
				return err
			}
			if taken {
				return apperr.Conflict("the dermatologist already has a consultation at %s",
					in.ConsultationDate.Format(time.RFC3339))
			}
		}
		c.ConsultationDate = in.ConsultationDate
		c.Description = in.Description
		return nil
	})
}

func (s *Service) DeleteConsultation(ctx context.Context, id uuid.UUID) error {
	return s.store.ConditionalDelete(ctx, id)
}

// Transfer moves a batch of consultations to new time slots in one
// transaction. Every move must land on a free slot and every consultation
// must exist; the first failure rolls back the moves already applied.
func (s *Service) Transfer(ctx context.Context, items []TransferItem) ([]*Consultation, error) {
	if len(items) == 0 {
		return nil, apperr.Validation("transfers must not be empty")
	}
	for _, item := range items {
		if item.ConsultationID == uuid.Nil {
			return nil, apperr.Validation("consultation_id is required on every transfer")
		}
		if item.NewDate.IsZero() {
			return nil, apperr.Validation("new_date is required on every transfer")
		}
	}

	var moved []*Consultation
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		for _, item := range items {
			c, err := s.consultations.Get(ctx, item.ConsultationID)
			if err != nil {
				return err
			}

			taken, err := s.consultations.SlotTaken(ctx, c.DermatologistID, item.NewDate, c.ID)
			if err != nil {
				return err
			}
			if taken {
				return apperr.Conflict("the dermatologist already has a consultation at %s",
					item.NewDate.Format(time.RFC3339))
			}

			c.ConsultationDate = item.NewDate
			newVersion, err := s.consultations.UpdateIfVersion(ctx, c, c.VersionID)
			if err != nil {
				return err
			}
			c.SetVersionID(newVersion)
			moved = append(moved, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}
