package repository

import (
	"context"

	"github.com/jwalitptl/clinic-booking/internal/model"
	apperrors "github.com/jwalitptl/clinic-booking/pkg/errors"
)

// Unique-constraint violations surface as these errors.
var (
	ErrSlotTaken     = apperrors.Conflict("This slot is already taken. Choose another time.")
	ErrUsernameTaken = apperrors.Conflict("Username already taken")
	ErrEmailTaken    = apperrors.Conflict("Email already registered")
)

// All repository interfaces in one file
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		// CreateDoctorAccount stores the user and its unverified profile atomically.
		CreateDoctorAccount(ctx context.Context, user *model.User, doctor *model.Doctor) error
		Get(ctx context.Context, id int64) (*model.User, error)
		GetByUsername(ctx context.Context, username string) (*model.User, error)
		UsernameExists(ctx context.Context, username string) (bool, error)
		EmailExists(ctx context.Context, email string) (bool, error)
		List(ctx context.Context) ([]*model.User, error)
		UpdateProfile(ctx context.Context, id int64, p model.ProfileUpdate) error
		UpdateRole(ctx context.Context, id int64, role model.Role) error
		// Delete removes the user together with its doctor profile, its
		// appointments on both sides and its feedback.
		Delete(ctx context.Context, id int64) error
	}

	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id int64) (*model.Doctor, error)
		GetByUserID(ctx context.Context, userID int64) (*model.Doctor, error)
		// List returns every doctor, newest first.
		List(ctx context.Context) ([]*model.Doctor, error)
		// Search returns verified doctors matching filter, ordered by id.
		Search(ctx context.Context, filter model.DoctorFilter) ([]*model.Doctor, error)
		SetVerified(ctx context.Context, id int64, verified bool) error
		Count(ctx context.Context) (int, error)
		// Delete removes the doctor with its appointments and feedback.
		Delete(ctx context.Context, id int64) error
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id int64) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		// SlotTaken reports whether an active appointment other than excludeID
		// holds the slot. Pass 0 to exclude nothing.
		SlotTaken(ctx context.Context, doctorID int64, date, clock string, excludeID int64) (bool, error)
		ListByPatient(ctx context.Context, patientID int64) ([]*model.AppointmentDetail, error)
		ListByDoctor(ctx context.Context, doctorID int64) ([]*model.AppointmentDetail, error)
		ListByDoctorOnDate(ctx context.Context, doctorID int64, date string) ([]*model.AppointmentDetail, error)
	}

	FeedbackRepository interface {
		ListByDoctor(ctx context.Context, doctorID int64) ([]*model.Feedback, error)
	}
)
