package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
	apperrors "github.com/jwalitptl/clinic-booking/pkg/errors"
	"github.com/jwalitptl/clinic-booking/pkg/metrics"
	"github.com/jwalitptl/clinic-booking/pkg/security"
)

var ErrInvalidCredentials = &apperrors.AppError{
	Code:    apperrors.ErrUnauthorized,
	Message: "Invalid credentials",
}

type Service struct {
	users         repository.UserRepository
	hasher        security.PasswordHasher
	adminUsername string
	metrics       *metrics.Metrics
}

// NewService creates the account service. Registering adminUsername yields an
// admin account.
func NewService(users repository.UserRepository, hasher security.PasswordHasher, adminUsername string, m *metrics.Metrics) *Service {
	return &Service{
		users:         users,
		hasher:        hasher,
		adminUsername: adminUsername,
		metrics:       m,
	}
}

// Register creates a patient, doctor or (for the bootstrap username) admin
// account.
func (s *Service) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return nil, apperrors.BadRequest("Not a valid choice.", err)
	}

	user, err := s.newUser(ctx, req.Username, req.Email, req.Contact, req.Password, role)
	if err != nil {
		return nil, err
	}
	if s.adminUsername != "" && user.Username == s.adminUsername {
		user.Role = model.RoleAdmin
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.metrics.Registered(string(user.Role))
	log.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")
	return user, nil
}

// RegisterDoctor creates a doctor account and its unverified profile in one
// transaction.
func (s *Service) RegisterDoctor(ctx context.Context, req model.DoctorRegisterRequest) (*model.User, *model.Doctor, error) {
	user, err := s.newUser(ctx, req.Username, req.Email, req.Contact, req.Password, model.RoleDoctor)
	if err != nil {
		return nil, nil, err
	}

	doctor := req.DoctorProfileRequest.Doctor()
	doctor.Verified = false

	if err := s.users.CreateDoctorAccount(ctx, user, doctor); err != nil {
		return nil, nil, err
	}

	s.metrics.Registered(string(model.RoleDoctor))
	log.Info().Int64("user_id", user.ID).Int64("doctor_id", doctor.ID).Msg("doctor registration submitted")
	return user, doctor, nil
}

// newUser checks uniqueness and hashes the password.
func (s *Service) newUser(ctx context.Context, username, email, contact, password string, role model.Role) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	taken, err := s.users.UsernameExists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		return nil, repository.ErrUsernameTaken
	}

	taken, err = s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return nil, repository.ErrEmailTaken
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return nil, apperrors.BadRequest(fmt.Sprintf("Field must be at least %d characters long.", security.MinPasswordLen), err)
		}
		return nil, apperrors.Internal(err)
	}

	return &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Contact:      strings.TrimSpace(contact),
	}, nil
}

// Authenticate returns the user for valid credentials and
// ErrInvalidCredentials otherwise.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.metrics.LoginFailed()
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if !errors.Is(err, security.ErrMismatch) {
			log.Warn().Err(err).Int64("user_id", user.ID).Msg("stored password hash is unusable")
		}
		s.metrics.LoginFailed()
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
