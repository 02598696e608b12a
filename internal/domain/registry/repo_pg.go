package registry

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dermclinic/dermclinic/internal/platform/apperr"
	"github.com/dermclinic/dermclinic/internal/platform/db"
)

// -- Patient Repository --

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const patientCols = `id, first_name, last_name, date_of_birth, phone_number, email, address,
	version_id, created_at, updated_at`

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient (id, first_name, last_name, date_of_birth, phone_number, email, address)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING version_id, created_at, updated_at`,
		p.ID, p.FirstName, p.LastName, p.DateOfBirth, p.PhoneNumber, p.Email, p.Address,
	).Scan(&p.VersionID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *patientRepoPG) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var p Patient
	err := r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id).Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.PhoneNumber, &p.Email, &p.Address,
		&p.VersionID, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("patient %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateIfVersion writes the patient only if the stored version still matches
// expected; the new version is minted in the same statement.
func (r *patientRepoPG) UpdateIfVersion(ctx context.Context, p *Patient, expected int64) (int64, error) {
	var newVersion int64
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE patient SET
			first_name=$2, last_name=$3, date_of_birth=$4, phone_number=$5, email=$6, address=$7,
			version_id = version_id + 1, updated_at = NOW()
		WHERE id = $1 AND version_id = $8
		RETURNING version_id, updated_at`,
		p.ID, p.FirstName, p.LastName, p.DateOfBirth, p.PhoneNumber, p.Email, p.Address,
		expected,
	).Scan(&newVersion, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Zero rows means either the row is gone or another writer moved the
		// version; probe to tell the two apart.
		var exists bool
		if probeErr := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM patient WHERE id = $1)`, p.ID).Scan(&exists); probeErr != nil {
			return 0, probeErr
		}
		if !exists {
			return 0, apperr.NotFound("patient %s not found", p.ID)
		}
		return 0, apperr.VersionMismatch("patient %s was modified by another request", p.ID)
	}
	if err != nil {
		return 0, err
	}
	return newVersion, nil
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *patientRepoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+patientCols+` FROM patient ORDER BY last_name, first_name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		var p Patient
		if err := rows.Scan(
			&p.ID, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.PhoneNumber, &p.Email, &p.Address,
			&p.VersionID, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		patients = append(patients, &p)
	}
	return patients, total, rows.Err()
}

func (r *patientRepoPG) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM patient WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// -- Dermatologist Repository --

type dermatologistRepoPG struct {
	pool *pgxpool.Pool
}

func NewDermatologistRepo(pool *pgxpool.Pool) DermatologistRepository {
	return &dermatologistRepoPG{pool: pool}
}

func (r *dermatologistRepoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const dermatologistCols = `id, first_name, last_name, license_number, specialization, email, phone_number,
	version_id, created_at, updated_at`

func (r *dermatologistRepoPG) Create(ctx context.Context, d *Dermatologist) error {
	d.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO dermatologist (id, first_name, last_name, license_number, specialization, email, phone_number)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING version_id, created_at, updated_at`,
		d.ID, d.FirstName, d.LastName, d.LicenseNumber, d.Specialization, d.Email, d.PhoneNumber,
	).Scan(&d.VersionID, &d.CreatedAt, &d.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return apperr.Conflict("a dermatologist with license number %q already exists", d.LicenseNumber)
	}
	return err
}

func (r *dermatologistRepoPG) Get(ctx context.Context, id uuid.UUID) (*Dermatologist, error) {
	var d Dermatologist
	err := r.conn(ctx).QueryRow(ctx, `SELECT `+dermatologistCols+` FROM dermatologist WHERE id = $1`, id).Scan(
		&d.ID, &d.FirstName, &d.LastName, &d.LicenseNumber, &d.Specialization, &d.Email, &d.PhoneNumber,
		&d.VersionID, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("dermatologist %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *dermatologistRepoPG) UpdateIfVersion(ctx context.Context, d *Dermatologist, expected int64) (int64, error) {
	var newVersion int64
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE dermatologist SET
			first_name=$2, last_name=$3, license_number=$4, specialization=$5, email=$6, phone_number=$7,
			version_id = version_id + 1, updated_at = NOW()
		WHERE id = $1 AND version_id = $8
		RETURNING version_id, updated_at`,
		d.ID, d.FirstName, d.LastName, d.LicenseNumber, d.Specialization, d.Email, d.PhoneNumber,
		expected,
	).Scan(&newVersion, &d.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return 0, apperr.Conflict("a dermatologist with license number %q already exists", d.LicenseNumber)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if probeErr := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM dermatologist WHERE id = $1)`, d.ID).Scan(&exists); probeErr != nil {
			return 0, probeErr
		}
		if !exists {
			return 0, apperr.NotFound("dermatologist %s not found", d.ID)
		}
		return 0, apperr.VersionMismatch("dermatologist %s was modified by another request", d.ID)
	}
	if err != nil {
		return 0, err
	}
	return newVersion, nil
}

func (r *dermatologistRepoPG) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM dermatologist WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *dermatologistRepoPG) List(ctx context.Context, limit, offset int) ([]*Dermatologist, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM dermatologist`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+dermatologistCols+` FROM dermatologist ORDER BY last_name, first_name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var derms []*Dermatologist
	for rows.Next() {
		var d Dermatologist
		if err := rows.Scan(
			&d.ID, &d.FirstName, &d.LastName, &d.LicenseNumber, &d.Specialization, &d.Email, &d.PhoneNumber,
			&d.VersionID, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		derms = append(derms, &d)
	}
	return derms, total, rows.Err()
}

func (r *dermatologistRepoPG) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM dermatologist WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}
