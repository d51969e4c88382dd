package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-booking/internal/model"
)

const doctorColumns = `id, user_id, name, degree, specialization, bio, availability,
	fees, rating, location, contact_info, verified, visit_types, created_at`

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	if err := insertDoctor(ctx, r.db, doctor); err != nil {
		return fmt.Errorf("failed to create doctor: %w", err)
	}
	return nil
}

func insertDoctor(ctx context.Context, q sqlx.QueryerContext, d *model.Doctor) error {
	query := `
		INSERT INTO doctors (
			user_id, name, degree, specialization, bio, availability,
			fees, rating, location, contact_info, verified, visit_types
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at
	`
	err := q.QueryRowxContext(ctx, query,
		d.UserID,
		d.Name,
		d.Degree,
		d.Specialization,
		d.Bio,
		d.Availability,
		d.Fees,
		d.Rating,
		d.Location,
		d.ContactInfo,
		d.Verified,
		d.VisitTypes,
	).Scan(&d.ID, &d.CreatedAt)
	return translate(err, "doctor")
}

func (r *doctorRepository) Get(ctx context.Context, id int64) (*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE id = $1`

	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, id); err != nil {
		return nil, fmt.Errorf("failed to get doctor: %w", translate(err, "doctor"))
	}
	return &doctor, nil
}

func (r *doctorRepository) GetByUserID(ctx context.Context, userID int64) (*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE user_id = $1`

	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get doctor by user: %w", translate(err, "doctor"))
	}
	return &doctor, nil
}

func (r *doctorRepository) List(ctx context.Context) ([]*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors ORDER BY created_at DESC, id DESC`

	var doctors []*model.Doctor
	if err := r.db.SelectContext(ctx, &doctors, query); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

func (r *doctorRepository) Search(ctx context.Context, filter model.DoctorFilter) ([]*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE verified = true`
	var args []interface{}
	argPos := 1

	if s := strings.TrimSpace(filter.Specialization); s != "" {
		query += fmt.Sprintf(" AND specialization ILIKE $%d", argPos)
		args = append(args, "%"+escapeLike(s)+"%")
		argPos++
	}
	if c := strings.TrimSpace(filter.City); c != "" {
		query += fmt.Sprintf(" AND location ILIKE $%d", argPos)
		args = append(args, "%"+escapeLike(c)+"%")
		argPos++
	}
	if filter.MaxFees > 0 {
		query += fmt.Sprintf(" AND fees <= $%d", argPos)
		args = append(args, filter.MaxFees)
		argPos++
	}
	if filter.MinRating > 0 {
		query += fmt.Sprintf(" AND rating >= $%d", argPos)
		args = append(args, filter.MinRating)
	}
	query += " ORDER BY id"

	var doctors []*model.Doctor
	if err := r.db.SelectContext(ctx, &doctors, query, args...); err != nil {
		return nil, fmt.Errorf("failed to search doctors: %w", err)
	}
	return doctors, nil
}

// escapeLike makes user input match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *doctorRepository) SetVerified(ctx context.Context, id int64, verified bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE doctors SET verified = $1 WHERE id = $2`, verified, id)
	if err != nil {
		return fmt.Errorf("failed to update doctor: %w", err)
	}
	return expectOne(result, "doctor")
}

func (r *doctorRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM doctors`); err != nil {
		return 0, fmt.Errorf("failed to count doctors: %w", err)
	}
	return n, nil
}

func (r *doctorRepository) Delete(ctx context.Context, id int64) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		return deleteDoctor(ctx, tx, id)
	})
}

func deleteDoctor(ctx context.Context, tx *sqlx.Tx, id int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM appointments WHERE doctor_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete doctor appointments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM feedbacks WHERE doctor_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete doctor feedback: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete doctor: %w", err)
	}
	return expectOne(result, "doctor")
}
