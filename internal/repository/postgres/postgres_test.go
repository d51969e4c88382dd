package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
	apperrors "github.com/jwalitptl/clinic-booking/pkg/errors"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

var doctorRowColumns = []string{
	"id", "user_id", "name", "degree", "specialization", "bio", "availability",
	"fees", "rating", "location", "contact_info", "verified", "visit_types", "created_at",
}

func TestAppointmentCreate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAppointmentRepository(db)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(1, 2, "2024-01-01", "10:00", "clinic", "", "pending", 0, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(7, now))

	appt := &model.Appointment{
		DoctorID:  1,
		PatientID: 2,
		Date:      "2024-01-01",
		Time:      "10:00",
		VisitType: "clinic",
		Status:    model.AppointmentStatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), appt))
	assert.Equal(t, int64(7), appt.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentCreateSlotTaken(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAppointmentRepository(db)

	mock.ExpectQuery("INSERT INTO appointments").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "appointments_active_slot_idx"})

	err := repo.Create(context.Background(), &model.Appointment{DoctorID: 1, PatientID: 2, Date: "2024-01-01", Time: "10:00"})
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrSlotTaken)
	assert.True(t, apperrors.IsConflict(err))
}

func TestAppointmentUpdateSlotTaken(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAppointmentRepository(db)

	mock.ExpectExec("UPDATE appointments").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "appointments_active_slot_idx"})

	err := repo.Update(context.Background(), &model.Appointment{Base: model.Base{ID: 3}})
	assert.ErrorIs(t, err, repository.ErrSlotTaken)
}

func TestAppointmentGetNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAppointmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM appointments a WHERE a.id = $1")).
		WithArgs(42).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), 42)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSlotTaken(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAppointmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("a.status <> 'cancelled' AND a.id <> $4")).
		WithArgs(1, "2024-01-01", "10:00", 0).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := repo.SlotTaken(context.Background(), 1, "2024-01-01", "10:00", 0)
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestDoctorSearchBuildsFilters(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDoctorRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE verified = true AND specialization ILIKE $1 AND location ILIKE $2 AND fees <= $3 AND rating >= $4 ORDER BY id")).
		WithArgs("%cardio%", "%mum%", 1500.0, 4.0).
		WillReturnRows(sqlmock.NewRows(doctorRowColumns).
			AddRow(1, nil, "Dr. Smith", "MD", "Cardiology", "", "", 1500.0, 4.5, "Mumbai", "", true, `["clinic","online"]`, time.Now()))

	doctors, err := repo.Search(context.Background(), model.DoctorFilter{
		Specialization: "cardio",
		City:           "mum",
		MaxFees:        1500,
		MinRating:      4,
	})
	require.NoError(t, err)
	require.Len(t, doctors, 1)
	assert.Nil(t, doctors[0].UserID)
	assert.Equal(t, model.StringList{"clinic", "online"}, doctors[0].VisitTypes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorSearchWithoutFilters(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDoctorRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM doctors WHERE verified = true ORDER BY id")).
		WithArgs().
		WillReturnRows(sqlmock.NewRows(doctorRowColumns))

	doctors, err := repo.Search(context.Background(), model.DoctorFilter{})
	require.NoError(t, err)
	assert.Empty(t, doctors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%\_x`, escapeLike("100%_x"))
}

func TestCreateDoctorAccountRollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(5, time.Now()))
	mock.ExpectQuery("INSERT INTO doctors").
		WithArgs(5, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), false, sqlmock.AnyArg()).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	user := &model.User{Username: "drwho", Email: "who@clinic.test", Role: model.RoleDoctor}
	doctor := &model.Doctor{Name: "Dr. Who", VisitTypes: model.StringList{"clinic"}}
	err := repo.CreateDoctorAccount(context.Background(), user, doctor)

	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_username_key"})

	err := repo.Create(context.Background(), &model.User{Username: "alice"})
	assert.ErrorIs(t, err, repository.ErrUsernameTaken)
}

func TestUserDeleteCascades(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM doctors WHERE user_id = $1")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM appointments WHERE doctor_id = $1")).WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM feedbacks WHERE doctor_id = $1")).WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM doctors WHERE id = $1")).WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM appointments WHERE patient_id = $1")).WithArgs(9).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM feedbacks WHERE user_id = $1")).WithArgs(9).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).WithArgs(9).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), 9))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorDeleteMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDoctorRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM appointments").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM feedbacks").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM doctors").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), 77)
	assert.True(t, apperrors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Migrate(context.Background(), db))
	assert.Contains(t, schema, "appointments_active_slot_idx")
	assert.NoError(t, mock.ExpectationsWereMet())
}
