package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
	"github.com/jwalitptl/clinic-booking/internal/repository/repotest"
	"github.com/jwalitptl/clinic-booking/pkg/security"
)

func newService(t *testing.T) (*Service, *repotest.Store) {
	t.Helper()
	store := repotest.NewStore()
	return NewService(store.Users(), security.NewBcryptHasher(4), "admin123", nil), store
}

func registerReq(username, email string) model.RegisterRequest {
	return model.RegisterRequest{
		Username:        username,
		Email:           email,
		Contact:         "9876543210",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

func TestRegisterDefaultsToPatient(t *testing.T) {
	svc, _ := newService(t)

	u, err := svc.Register(context.Background(), registerReq("alice", "alice@example.com"))
	require.NoError(t, err)
	assert.Equal(t, model.RolePatient, u.Role)
	assert.NotEqual(t, "secret1", u.PasswordHash)
}

func TestRegisterBootstrapAdmin(t *testing.T) {
	svc, _ := newService(t)

	req := registerReq("admin123", "admin@example.com")
	req.Role = "patient"
	u, err := svc.Register(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)
}

func TestRegisterDuplicates(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerReq("alice", "alice@example.com"))
	require.NoError(t, err)

	_, err = svc.Register(ctx, registerReq("alice", "other@example.com"))
	assert.ErrorIs(t, err, repository.ErrUsernameTaken)

	_, err = svc.Register(ctx, registerReq("alice2", "alice@example.com"))
	assert.ErrorIs(t, err, repository.ErrEmailTaken)
}

func TestRegisterDoctorIsUnverified(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	req := model.DoctorRegisterRequest{
		DoctorProfileRequest: model.DoctorProfileRequest{
			Name:           "Dr. Who",
			Degree:         "MD",
			Specialization: "Cardiology",
			Bio:            "Time travelling cardiologist",
			Fees:           500,
			VisitTypes:     "both",
		},
		Username:        "drwho",
		Email:           "who@example.com",
		Contact:         "9876543210",
		Password:        "tardis1",
		ConfirmPassword: "tardis1",
	}
	u, d, err := svc.RegisterDoctor(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, model.RoleDoctor, u.Role)
	assert.False(t, d.Verified)
	require.NotNil(t, d.UserID)
	assert.Equal(t, u.ID, *d.UserID)
	assert.Equal(t, model.StringList{"clinic", "online"}, d.VisitTypes)

	found, err := store.Doctors().Search(ctx, model.DoctorFilter{})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerReq("alice", "alice@example.com"))
	require.NoError(t, err)

	u, err := svc.Authenticate(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = svc.Authenticate(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
