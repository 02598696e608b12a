package registry

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patient table.
type Patient struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	FirstName   string     `db:"first_name" json:"first_name"`
	LastName    string     `db:"last_name" json:"last_name"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	PhoneNumber *string    `db:"phone_number" json:"phone_number,omitempty"`
	Email       *string    `db:"email" json:"email,omitempty"`
	Address     *string    `db:"address" json:"address,omitempty"`
	VersionID   int64      `db:"version_id" json:"version_id"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

func (p *Patient) GetVersionID() int64  { return p.VersionID }
func (p *Patient) SetVersionID(v int64) { p.VersionID = v }

// Dermatologist maps to the dermatologist table.
type Dermatologist struct {
	ID             uuid.UUID `db:"id" json:"id"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	LicenseNumber  string    `db:"license_number" json:"license_number"`
	Specialization *string   `db:"specialization" json:"specialization,omitempty"`
	Email          *string   `db:"email" json:"email,omitempty"`
	PhoneNumber    *string   `db:"phone_number" json:"phone_number,omitempty"`
	VersionID      int64     `db:"version_id" json:"version_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

func (d *Dermatologist) GetVersionID() int64  { return d.VersionID }
func (d *Dermatologist) SetVersionID(v int64) { d.VersionID = v }
