package doctor

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
	apperrors "github.com/jwalitptl/clinic-booking/pkg/errors"
)

type Service struct {
	doctors  repository.DoctorRepository
	users    repository.UserRepository
	feedback repository.FeedbackRepository
}

func NewService(doctors repository.DoctorRepository, users repository.UserRepository, feedback repository.FeedbackRepository) *Service {
	return &Service{
		doctors:  doctors,
		users:    users,
		feedback: feedback,
	}
}

// Profile is a doctor together with the feedback left for it.
type Profile struct {
	Doctor   *model.Doctor
	Feedback []*model.Feedback
}

// Search returns verified doctors only.
func (s *Service) Search(ctx context.Context, filter model.DoctorFilter) ([]*model.Doctor, error) {
	return s.doctors.Search(ctx, filter)
}

// List returns every doctor, verified or not, newest first.
func (s *Service) List(ctx context.Context) ([]*model.Doctor, error) {
	return s.doctors.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*model.Doctor, error) {
	return s.doctors.Get(ctx, id)
}

// Profile is visible for unverified doctors too.
func (s *Service) Profile(ctx context.Context, id int64) (*Profile, error) {
	doctor, err := s.doctors.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	feedback, err := s.feedback.ListByDoctor(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Profile{Doctor: doctor, Feedback: feedback}, nil
}

// Add creates a verified doctor without a login.
func (s *Service) Add(ctx context.Context, req model.DoctorProfileRequest) (*model.Doctor, error) {
	doctor := req.Doctor()
	doctor.Verified = true

	if err := s.doctors.Create(ctx, doctor); err != nil {
		return nil, err
	}
	log.Info().Int64("doctor_id", doctor.ID).Msg("doctor added by admin")
	return doctor, nil
}

// Approve verifies the profile of a doctor account. It returns nil when the
// user is not a doctor or has no profile; that is not an error.
func (s *Service) Approve(ctx context.Context, userID int64) (*model.Doctor, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != model.RoleDoctor {
		return nil, nil
	}

	doctor, err := s.doctors.GetByUserID(ctx, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	if err := s.doctors.SetVerified(ctx, doctor.ID, true); err != nil {
		return nil, err
	}
	doctor.Verified = true
	log.Info().Int64("doctor_id", doctor.ID).Int64("user_id", userID).Msg("doctor approved")
	return doctor, nil
}

// Delete removes the doctor with its appointments and feedback.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.doctors.Delete(ctx, id); err != nil {
		return err
	}
	log.Info().Int64("doctor_id", id).Msg("doctor deleted")
	return nil
}

// SeedAccount is one sample doctor with its login.
type SeedAccount struct {
	Username string
	Email    string
	Contact  string
	Doctor   model.Doctor
}

// Seed creates the given doctor accounts, all sharing passwordHash. Nothing
// happens when any doctor already exists; the number created is returned.
func (s *Service) Seed(ctx context.Context, accounts []SeedAccount, passwordHash string) (int, error) {
	n, err := s.doctors.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	for i := range accounts {
		a := accounts[i]
		user := &model.User{
			Username:     a.Username,
			Email:        a.Email,
			PasswordHash: passwordHash,
			Role:         model.RoleDoctor,
			Contact:      a.Contact,
		}
		doctor := a.Doctor
		if err := s.users.CreateDoctorAccount(ctx, user, &doctor); err != nil {
			return i, fmt.Errorf("failed to seed %s: %w", a.Username, err)
		}
	}
	return len(accounts), nil
}
