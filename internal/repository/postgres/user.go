package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-booking/internal/model"
)

const userColumns = `id, username, email, password_hash, role, contact, address, city, dob, created_at`

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if err := insertUser(ctx, r.db, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) CreateDoctorAccount(ctx context.Context, user *model.User, doctor *model.Doctor) error {
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}
		doctor.UserID = &user.ID
		return insertDoctor(ctx, tx, doctor)
	})
	if err != nil {
		return fmt.Errorf("failed to create doctor account: %w", err)
	}
	return nil
}

func insertUser(ctx context.Context, q sqlx.QueryerContext, user *model.User) error {
	query := `
		INSERT INTO users (
			username, email, password_hash, role, contact, address, city, dob
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	err := q.QueryRowxContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Contact,
		user.Address,
		user.City,
		user.DOB,
	).Scan(&user.ID, &user.CreatedAt)
	return translate(err, "user")
}

func (r *userRepository) Get(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", translate(err, "user"))
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", translate(err, "user"))
	}
	return &user, nil
}

func (r *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`
	if err := r.db.GetContext(ctx, &exists, query, username); err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}

func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

func (r *userRepository) List(ctx context.Context) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`

	var users []*model.User
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id int64, p model.ProfileUpdate) error {
	query := `UPDATE users SET address = $1, city = $2, dob = $3 WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query, p.Address, p.City, p.DOB, id)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return expectOne(result, "user")
}

func (r *userRepository) UpdateRole(ctx context.Context, id int64, role model.Role) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET role = $1 WHERE id = $2`, role, id)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	return expectOne(result, "user")
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var doctorIDs []int64
		if err := tx.SelectContext(ctx, &doctorIDs, `SELECT id FROM doctors WHERE user_id = $1`, id); err != nil {
			return fmt.Errorf("failed to find doctor profile: %w", err)
		}
		for _, doctorID := range doctorIDs {
			if err := deleteDoctor(ctx, tx, doctorID); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM appointments WHERE patient_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete patient appointments: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM feedbacks WHERE user_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete user feedback: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return expectOne(result, "user")
	})
}
