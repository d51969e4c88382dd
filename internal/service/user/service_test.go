package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository/repotest"
	apperrors "github.com/jwalitptl/clinic-booking/pkg/errors"
	"github.com/jwalitptl/clinic-booking/pkg/security"
)

func TestUpdateProfile(t *testing.T) {
	store := repotest.NewStore()
	svc := NewService(store.Users(), security.NewBcryptHasher(4))
	ctx := context.Background()

	u := &model.User{Username: "alice", Email: "alice@example.com", Role: model.RolePatient}
	require.NoError(t, store.Users().Create(ctx, u))

	require.NoError(t, svc.UpdateProfile(ctx, u.ID, model.ProfileRequest{Address: " 1 Main St ", City: "Pune", DOB: "1990-05-01"}))
	got, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "1 Main St", got.Address)
	assert.Equal(t, "1990-05-01", got.DOBString())

	require.NoError(t, svc.UpdateProfile(ctx, u.ID, model.ProfileRequest{City: "Pune"}))
	got, _ = svc.Get(ctx, u.ID)
	assert.Empty(t, got.DOBString())

	assert.True(t, apperrors.IsNotFound(svc.UpdateProfile(ctx, 999, model.ProfileRequest{})))
}

func TestDeleteRemovesDoctorProfileAndAppointments(t *testing.T) {
	store := repotest.NewStore()
	svc := NewService(store.Users(), security.NewBcryptHasher(4))
	ctx := context.Background()

	doc := &model.User{Username: "drwho", Email: "who@example.com", Role: model.RoleDoctor}
	profile := &model.Doctor{Name: "Dr. Who", Verified: true}
	require.NoError(t, store.Users().CreateDoctorAccount(ctx, doc, profile))
	patient := &model.User{Username: "alice", Email: "alice@example.com", Role: model.RolePatient}
	require.NoError(t, store.Users().Create(ctx, patient))
	a := &model.Appointment{DoctorID: profile.ID, PatientID: patient.ID, Date: "2024-01-01", Time: "10:00", Status: model.AppointmentStatusPending}
	require.NoError(t, store.Appointments().Create(ctx, a))

	require.NoError(t, svc.Delete(ctx, doc.ID))

	_, err := store.Doctors().Get(ctx, profile.ID)
	assert.True(t, apperrors.IsNotFound(err))
	_, ok := store.Appointment(a.ID)
	assert.False(t, ok)
	_, err = svc.Get(ctx, patient.ID)
	assert.NoError(t, err)
}

func TestEnsureAdmin(t *testing.T) {
	store := repotest.NewStore()
	svc := NewService(store.Users(), security.NewBcryptHasher(4))
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx, "root", "root@example.com", "rootpw", "")
	require.NoError(t, err)
	assert.True(t, created)

	patient := &model.User{Username: "yash", Email: "yash@example.com", Role: model.RolePatient}
	require.NoError(t, store.Users().Create(ctx, patient))

	created, err = svc.EnsureAdmin(ctx, "yash", "ignored@example.com", "whatever", "")
	require.NoError(t, err)
	assert.False(t, created)

	got, _ := svc.Get(ctx, patient.ID)
	assert.Equal(t, model.RoleAdmin, got.Role)
}
