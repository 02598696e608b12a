package consultation

import (
	"time"

	"github.com/google/uuid"
)

// Consultation maps to the consultation table. A dermatologist holds at most
// one consultation per time slot.
type Consultation struct {
	ID               uuid.UUID `db:"id" json:"id"`
	PatientID        uuid.UUID `db:"patient_id" json:"patient_id"`
	DermatologistID  uuid.UUID `db:"dermatologist_id" json:"dermatologist_id"`
	ConsultationDate time.Time `db:"consultation_date" json:"consultation_date"`
	Description      *string   `db:"description" json:"description,omitempty"`
	VersionID        int64     `db:"version_id" json:"version_id"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

func (c *Consultation) GetVersionID() int64  { return c.VersionID }
func (c *Consultation) SetVersionID(v int64) { c.VersionID = v }

// TransferItem moves one consultation to a new time slot.
type TransferItem struct {
	ConsultationID uuid.UUID `json:"consultation_id"`
	NewDate        time.Time `json:"new_date"`
}

// TransferRequest is the body of POST /transfers. The whole batch is applied
// in one transaction; any failure rolls back every move.
type TransferRequest struct {
	Transfers []TransferItem `json:"transfers"`
}
