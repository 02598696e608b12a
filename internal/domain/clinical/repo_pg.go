package clinical

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dermclinic/dermclinic/internal/platform/apperr"
	"github.com/dermclinic/dermclinic/internal/platform/db"
)

// -- Lesion Repository --

type lesionRepoPG struct {
	pool *pgxpool.Pool
}

func NewLesionRepo(pool *pgxpool.Pool) LesionRepository {
	return &lesionRepoPG{pool: pool}
}

func (r *lesionRepoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const lesionCols = `id, patient_id, location, discovery_date, description, version_id, created_at, updated_at`

func (r *lesionRepoPG) Create(ctx context.Context, l *Lesion) error {
	l.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO lesion (id, patient_id, location, discovery_date, description)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING version_id, created_at, updated_at`,
		l.ID, l.PatientID, l.Location, l.DiscoveryDate, l.Description,
	).Scan(&l.VersionID, &l.CreatedAt, &l.UpdatedAt)
}

func (r *lesionRepoPG) Get(ctx context.Context, id uuid.UUID) (*Lesion, error) {
	var l Lesion
	err := r.conn(ctx).QueryRow(ctx, `SELECT `+lesionCols+` FROM lesion WHERE id = $1`, id).Scan(
		&l.ID, &l.PatientID, &l.Location, &l.DiscoveryDate, &l.Description,
		&l.VersionID, &l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("lesion %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *lesionRepoPG) UpdateIfVersion(ctx context.Context, l *Lesion, expected int64) (int64, error) {
	var newVersion int64
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE lesion SET
			location=$2, discovery_date=$3, description=$4,
			version_id = version_id + 1, updated_at = NOW()
		WHERE id = $1 AND version_id = $5
		RETURNING version_id, updated_at`,
		l.ID, l.Location, l.DiscoveryDate, l.Description, expected,
	).Scan(&newVersion, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if probeErr := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM lesion WHERE id = $1)`, l.ID).Scan(&exists); probeErr != nil {
			return 0, probeErr
		}
		if !exists {
			return 0, apperr.NotFound("lesion %s not found", l.ID)
		}
		return 0, apperr.VersionMismatch("lesion %s was modified by another request", l.ID)
	}
	if err != nil {
		return 0, err
	}
	return newVersion, nil
}

func (r *lesionRepoPG) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM lesion WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *lesionRepoPG) List(ctx context.Context, limit, offset int) ([]*Lesion, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM lesion`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+lesionCols+` FROM lesion ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return scanLesions(rows, total)
}

func (r *lesionRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Lesion, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+lesionCols+` FROM lesion WHERE patient_id = $1 ORDER BY created_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lesions, _, err := scanLesions(rows, 0)
	return lesions, err
}

func (r *lesionRepoPG) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM lesion WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func scanLesions(rows pgx.Rows, total int) ([]*Lesion, int, error) {
	var lesions []*Lesion
	for rows.Next() {
		var l Lesion
		if err := rows.Scan(
			&l.ID, &l.PatientID, &l.Location, &l.DiscoveryDate, &l.Description,
			&l.VersionID, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		lesions = append(lesions, &l)
	}
	return lesions, total, rows.Err()
}

// -- Diagnosis Repository --

type diagnosisRepoPG struct {
	pool *pgxpool.Pool
}

func NewDiagnosisRepo(pool *pgxpool.Pool) DiagnosisRepository {
	return &diagnosisRepoPG{pool: pool}
}

func (r *diagnosisRepoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const diagnosisCols = `id, patient_id, dermatologist_id, lesion_id, diagnosis_date, description,
	version_id, created_at, updated_at`

func (r *diagnosisRepoPG) Create(ctx context.Context, d *Diagnosis) error {
	d.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO diagnosis (id, patient_id, dermatologist_id, lesion_id, diagnosis_date, description)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING version_id, created_at, updated_at`,
		d.ID, d.PatientID, d.DermatologistID, d.LesionID, d.DiagnosisDate, d.Description,
	).Scan(&d.VersionID, &d.CreatedAt, &d.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return apperr.Conflict("a diagnosis for this patient by this dermatologist already exists on %s",
			d.DiagnosisDate.Format("2006-01-02"))
	}
	return err
}

func (r *diagnosisRepoPG) Get(ctx context.Context, id uuid.UUID) (*Diagnosis, error) {
	var d Diagnosis
	err := r.conn(ctx).QueryRow(ctx, `SELECT `+diagnosisCols+` FROM diagnosis WHERE id = $1`, id).Scan(
		&d.ID, &d.PatientID, &d.DermatologistID, &d.LesionID, &d.DiagnosisDate, &d.Description,
		&d.VersionID, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("diagnosis %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *diagnosisRepoPG) UpdateIfVersion(ctx context.Context, d *Diagnosis, expected int64) (int64, error) {
	var newVersion int64
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE diagnosis SET
			lesion_id=$2, diagnosis_date=$3, description=$4,
			version_id = version_id + 1, updated_at = NOW()
		WHERE id = $1 AND version_id = $5
		RETURNING version_id, updated_at`,
		d.ID, d.LesionID, d.DiagnosisDate, d.Description, expected,
	).Scan(&newVersion, &d.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return 0, apperr.Conflict("a diagnosis for this patient by this dermatologist already exists on %s",
			d.DiagnosisDate.Format("2006-01-02"))
	}
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if probeErr := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM diagnosis WHERE id = $1)`, d.ID).Scan(&exists); probeErr != nil {
			return 0, probeErr
		}
		if !exists {
			return 0, apperr.NotFound("diagnosis %s not found", d.ID)
		}
		return 0, apperr.VersionMismatch("diagnosis %s was modified by another request", d.ID)
	}
	if err != nil {
		return 0, err
	}
	return newVersion, nil
}

func (r *diagnosisRepoPG) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM diagnosis WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *diagnosisRepoPG) List(ctx context.Context, limit, offset int) ([]*Diagnosis, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM diagnosis`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+diagnosisCols+` FROM diagnosis ORDER BY diagnosis_date DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return scanDiagnoses(rows, total)
}

func (r *diagnosisRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Diagnosis, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+diagnosisCols+` FROM diagnosis WHERE patient_id = $1 ORDER BY diagnosis_date DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	diagnoses, _, err := scanDiagnoses(rows, 0)
	return diagnoses, err
}

func (r *diagnosisRepoPG) ExistsForVisit(ctx context.Context, patientID, dermatologistID uuid.UUID, day time.Time) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM diagnosis
			WHERE patient_id = $1 AND dermatologist_id = $2
			  AND (diagnosis_date AT TIME ZONE 'UTC')::date = ($3 AT TIME ZONE 'UTC')::date
		)`, patientID, dermatologistID, day).Scan(&exists)
	return exists, err
}

func scanDiagnoses(rows pgx.Rows, total int) ([]*Diagnosis, int, error) {
	var diagnoses []*Diagnosis
	for rows.Next() {
		var d Diagnosis
		if err := rows.Scan(
			&d.ID, &d.PatientID, &d.DermatologistID, &d.LesionID, &d.DiagnosisDate, &d.Description,
			&d.VersionID, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		diagnoses = append(diagnoses, &d)
	}
	return diagnoses, total, rows.Err()
}
