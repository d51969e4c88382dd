package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
	apperrors "github.com/jwalitptl/clinic-booking/pkg/errors"
	"github.com/jwalitptl/clinic-booking/pkg/security"
	"github.com/jwalitptl/clinic-booking/pkg/validator"
)

type Service struct {
	repo   repository.UserRepository
	hasher security.PasswordHasher
}

func NewService(repo repository.UserRepository, hasher security.PasswordHasher) *Service {
	return &Service{repo: repo, hasher: hasher}
}

func (s *Service) Get(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.Get(ctx, id)
}

// List returns all users ordered by id.
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	return s.repo.List(ctx)
}

// UpdateProfile stores address, city and date of birth. An empty dob clears it.
func (s *Service) UpdateProfile(ctx context.Context, id int64, req model.ProfileRequest) error {
	update := model.ProfileUpdate{
		Address: strings.TrimSpace(req.Address),
		City:    strings.TrimSpace(req.City),
	}
	if dob := strings.TrimSpace(req.DOB); dob != "" {
		t, err := time.Parse(validator.DateLayout, dob)
		if err != nil {
			return apperrors.BadRequest("Not a valid date value.", err)
		}
		update.DOB = &t
	}

	if err := s.repo.UpdateProfile(ctx, id, update); err != nil {
		return err
	}
	return nil
}

// Delete removes the user and everything that hangs off it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	log.Info().Int64("user_id", id).Msg("user deleted")
	return nil
}

// EnsureAdmin creates an admin account, or promotes the existing user with
// that username. It reports whether a new account was created.
func (s *Service) EnsureAdmin(ctx context.Context, username, email, password, contact string) (bool, error) {
	existing, err := s.repo.GetByUsername(ctx, username)
	switch {
	case err == nil:
		if existing.Role == model.RoleAdmin {
			return false, nil
		}
		if err := s.repo.UpdateRole(ctx, existing.ID, model.RoleAdmin); err != nil {
			return false, err
		}
		log.Info().Int64("user_id", existing.ID).Msg("user promoted to admin")
		return false, nil
	case !apperrors.IsNotFound(err):
		return false, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		Contact:      contact,
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		return false, err
	}
	log.Info().Int64("user_id", admin.ID).Msg("admin created")
	return true, nil
}
