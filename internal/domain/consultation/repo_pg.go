package consultation

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

type consultationRepoPG struct {
	pool *pgxpool.Pool
}

func NewConsultationRepo(pool *pgxpool.Pool) ConsultationRepository {
	return &consultationRepoPG{pool: pool}
}

func (r *consultationRepoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const consultationCols = `id, patient_id, dermatologist_id, consultation_date, description,
	version_id, created_at, updated_at`

func (r *consultationRepoPG) Create(ctx context.Context, c *Consultation) error {
	c.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO consultation (id, patient_id, dermatologist_id, consultation_date, description)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING version_id, created_at, updated_at`,
		c.ID, c.PatientID, c.DermatologistID, c.ConsultationDate, c.Description,
	).Scan(&c.VersionID, &c.CreatedAt, &c.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return apperr.Conflict("the dermatologist already has a consultation at %s",
			c.ConsultationDate.Format(time.RFC3339))
	}
	return err
}

func (r *consultationRepoPG) Get(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	var c Consultation
	err := r.conn(ctx).QueryRow(ctx, `SELECT `+consultationCols+` FROM consultation WHERE id = $1`, id).Scan(
		&c.ID, &c.PatientID, &c.DermatologistID, &c.ConsultationDate, &c.Description,
		&c.VersionID, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("consultation %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *consultationRepoPG) UpdateIfVersion(ctx context.Context, c *Consultation, expected int64) (int64, error) {
	var newVersion int64
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE consultation SET
			consultation_date=$2, description=$3,
			version_id = version_id + 1, updated_at = NOW()
		WHERE id = $1 AND version_id = $4
		RETURNING version_id, updated_at`,
		c.ID, c.ConsultationDate, c.Description, expected,
	).Scan(&newVersion, &c.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return 0, apperr.Conflict("the dermatologist already has a consultation at %s",
			c.ConsultationDate.Format(time.RFC3339))
	}
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if probeErr := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM consultation WHERE id = $1)`, c.ID).Scan(&exists); probeErr != nil {
			return 0, probeErr
		}
		if !exists {
			return 0, apperr.NotFound("consultation %s not found", c.ID)
		}
		return 0, apperr.VersionMismatch("consultation %s was modified by another request", c.ID)
	}
	if err != nil {
		return 0, err
	}
	return newVersion, nil
}

func (r *consultationRepoPG) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM consultation WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *consultationRepoPG) List(ctx context.Context, limit, offset int) ([]*Consultation, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM consultation`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+consultationCols+` FROM consultation ORDER BY consultation_date LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var consultations []*Consultation
	for rows.Next() {
		var c Consultation
		if err := rows.Scan(
			&c.ID, &c.PatientID, &c.DermatologistID, &c.ConsultationDate, &c.Description,
			&c.VersionID, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		consultations = append(consultations, &c)
	}
	return consultations, total, rows.Err()
}

func (r *consultationRepoPG) SlotTaken(ctx context.Context, dermatologistID uuid.UUID, at time.Time, exclude uuid.UUID) (bool, error) {
	var taken bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM consultation
			WHERE dermatologist_id = $1 AND consultation_date = $2 AND id <> $3
		)`, dermatologistID, at, exclude).Scan(&taken)
	return taken, err
}
