package clinical

import (
	"time"

	"github.com/google/uuid"
)

// Lesion maps to the lesion table.
type Lesion struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	Location      string     `db:"location" json:"location"`
	DiscoveryDate *time.Time `db:"discovery_date" json:"discovery_date,omitempty"`
	Description   *string    `db:"description" json:"description,omitempty"`
	VersionID     int64      `db:"version_id" json:"version_id"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

func (l *Lesion) GetVersionID() int64  { return l.VersionID }
func (l *Lesion) SetVersionID(v int64) { l.VersionID = v }

// Diagnosis maps to the diagnosis table. At most one diagnosis may exist per
// patient, dermatologist and calendar day.
type Diagnosis struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	PatientID       uuid.UUID  `db:"patient_id" json:"patient_id"`
	DermatologistID uuid.UUID  `db:"dermatologist_id" json:"dermatologist_id"`
	LesionID        *uuid.UUID `db:"lesion_id" json:"lesion_id,omitempty"`
	DiagnosisDate   time.Time  `db:"diagnosis_date" json:"diagnosis_date"`
	Description     string     `db:"description" json:"description"`
	VersionID       int64      `db:"version_id" json:"version_id"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

func (d *Diagnosis) GetVersionID() int64  { return d.VersionID }
func (d *Diagnosis) SetVersionID(v int64) { d.VersionID = v }
