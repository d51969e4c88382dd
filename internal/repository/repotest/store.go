// Package repotest provides in-memory implementations of the repository
// interfaces for tests. They enforce the same uniqueness rules as the
// Postgres schema.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
	apperrors "github.com/jwalitptl/clinic-booking/pkg/errors"
)

type Store struct {
	mu           sync.Mutex
	nextID       int64
	clock        time.Time
	users        map[int64]model.User
	doctors      map[int64]model.Doctor
	appointments map[int64]model.Appointment
	feedback     map[int64]model.Feedback
}

func NewStore() *Store {
	return &Store{
		clock:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		users:        make(map[int64]model.User),
		doctors:      make(map[int64]model.Doctor),
		appointments: make(map[int64]model.Appointment),
		feedback:     make(map[int64]model.Feedback),
	}
}

func (s *Store) Users() repository.UserRepository               { return userRepo{s} }
func (s *Store) Doctors() repository.DoctorRepository           { return doctorRepo{s} }
func (s *Store) Appointments() repository.AppointmentRepository { return appointmentRepo{s} }
func (s *Store) Feedback() repository.FeedbackRepository        { return feedbackRepo{s} }

// AddFeedback inserts a review directly; no service writes feedback.
func (s *Store) AddFeedback(f model.Feedback) model.Feedback {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.Base = s.base()
	s.feedback[f.ID] = f
	return f
}

// Appointment returns a copy of the stored row.
func (s *Store) Appointment(id int64) (model.Appointment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	return a, ok
}

// base allocates an id and a strictly increasing creation time.
func (s *Store) base() model.Base {
	s.nextID++
	s.clock = s.clock.Add(time.Second)
	return model.Base{ID: s.nextID, CreatedAt: s.clock}
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.insertUser(user)
}

func (s *Store) insertUser(user *model.User) error {
	for _, u := range s.users {
		if u.Username == user.Username {
			return repository.ErrUsernameTaken
		}
		if u.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	user.Base = s.base()
	s.users[user.ID] = *user
	return nil
}

func (r userRepo) CreateDoctorAccount(_ context.Context, user *model.User, doctor *model.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.insertUser(user); err != nil {
		return err
	}
	id := user.ID
	doctor.UserID = &id
	doctor.Base = r.s.base()
	r.s.doctors[doctor.ID] = *doctor
	return nil
}

func (r userRepo) Get(_ context.Context, id int64) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", nil)
	}
	return &u, nil
}

func (r userRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, apperrors.NotFound("user", nil)
}

func (r userRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	return err == nil, nil
}

func (r userRepo) EmailExists(_ context.Context, email string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r userRepo) List(_ context.Context) ([]*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*model.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r userRepo) UpdateProfile(_ context.Context, id int64, p model.ProfileUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return apperrors.NotFound("user", nil)
	}
	u.Address, u.City, u.DOB = p.Address, p.City, p.DOB
	r.s.users[id] = u
	return nil
}

func (r userRepo) UpdateRole(_ context.Context, id int64, role model.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return apperrors.NotFound("user", nil)
	}
	u.Role = role
	r.s.users[id] = u
	return nil
}

func (r userRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return apperrors.NotFound("user", nil)
	}
	for did, d := range r.s.doctors {
		if d.UserID != nil && *d.UserID == id {
			r.s.deleteDoctor(did)
		}
	}
	for aid, a := range r.s.appointments {
		if a.PatientID == id {
			delete(r.s.appointments, aid)
		}
	}
	for fid, f := range r.s.feedback {
		if f.UserID == id {
			delete(r.s.feedback, fid)
		}
	}
	delete(r.s.users, id)
	return nil
}

type doctorRepo struct{ s *Store }

func (r doctorRepo) Create(_ context.Context, doctor *model.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	doctor.Base = r.s.base()
	r.s.doctors[doctor.ID] = *doctor
	return nil
}

func (r doctorRepo) Get(_ context.Context, id int64) (*model.Doctor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.doctors[id]
	if !ok {
		return nil, apperrors.NotFound("doctor", nil)
	}
	return &d, nil
}

func (r doctorRepo) GetByUserID(_ context.Context, userID int64) (*model.Doctor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.doctors {
		if d.UserID != nil && *d.UserID == userID {
			d := d
			return &d, nil
		}
	}
	return nil, apperrors.NotFound("doctor", nil)
}

func (r doctorRepo) List(_ context.Context) ([]*model.Doctor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := r.s.doctorList(func(model.Doctor) bool { return true })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r doctorRepo) Search(_ context.Context, f model.DoctorFilter) ([]*model.Doctor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := r.s.doctorList(func(d model.Doctor) bool {
		switch {
		case !d.Verified:
			return false
		case f.Specialization != "" && !containsFold(d.Specialization, f.Specialization):
			return false
		case f.City != "" && !containsFold(d.Location, f.City):
			return false
		case f.MaxFees > 0 && d.Fees > f.MaxFees:
			return false
		case f.MinRating > 0 && d.Rating < f.MinRating:
			return false
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(sub)))
}

func (s *Store) doctorList(keep func(model.Doctor) bool) []*model.Doctor {
	out := make([]*model.Doctor, 0, len(s.doctors))
	for _, d := range s.doctors {
		if keep(d) {
			d := d
			out = append(out, &d)
		}
	}
	return out
}

func (r doctorRepo) SetVerified(_ context.Context, id int64, verified bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.doctors[id]
	if !ok {
		return apperrors.NotFound("doctor", nil)
	}
	d.Verified = verified
	r.s.doctors[id] = d
	return nil
}

func (r doctorRepo) Count(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.doctors), nil
}

func (r doctorRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.doctors[id]; !ok {
		return apperrors.NotFound("doctor", nil)
	}
	r.s.deleteDoctor(id)
	return nil
}

func (s *Store) deleteDoctor(id int64) {
	for aid, a := range s.appointments {
		if a.DoctorID == id {
			delete(s.appointments, aid)
		}
	}
	for fid, f := range s.feedback {
		if f.DoctorID == id {
			delete(s.feedback, fid)
		}
	}
	delete(s.doctors, id)
}

type appointmentRepo struct{ s *Store }

// slotHeld mirrors the partial unique index on active appointments.
func (s *Store) slotHeld(a *model.Appointment) bool {
	if !a.IsActive() {
		return false
	}
	for id, other := range s.appointments {
		if id != a.ID && other.IsActive() &&
			other.DoctorID == a.DoctorID && other.Date == a.Date && other.Time == a.Time {
			return true
		}
	}
	return false
}

func (r appointmentRepo) Create(_ context.Context, a *model.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.slotHeld(a) {
		return repository.ErrSlotTaken
	}
	a.Base = r.s.base()
	r.s.appointments[a.ID] = *a
	return nil
}

func (r appointmentRepo) Get(_ context.Context, id int64) (*model.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.appointments[id]
	if !ok {
		return nil, apperrors.NotFound("appointment", nil)
	}
	return &a, nil
}

func (r appointmentRepo) Update(_ context.Context, a *model.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.appointments[a.ID]; !ok {
		return apperrors.NotFound("appointment", nil)
	}
	if r.s.slotHeld(a) {
		return repository.ErrSlotTaken
	}
	r.s.appointments[a.ID] = *a
	return nil
}

func (r appointmentRepo) SlotTaken(_ context.Context, doctorID int64, date, clock string, excludeID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	probe := &model.Appointment{
		Base:     model.Base{ID: excludeID},
		DoctorID: doctorID,
		Date:     date,
		Time:     clock,
		Status:   model.AppointmentStatusPending,
	}
	return r.s.slotHeld(probe), nil
}

func (r appointmentRepo) ListByPatient(_ context.Context, patientID int64) ([]*model.AppointmentDetail, error) {
	return r.list(func(a model.Appointment) bool { return a.PatientID == patientID }), nil
}

func (r appointmentRepo) ListByDoctor(_ context.Context, doctorID int64) ([]*model.AppointmentDetail, error) {
	return r.list(func(a model.Appointment) bool { return a.DoctorID == doctorID }), nil
}

func (r appointmentRepo) ListByDoctorOnDate(_ context.Context, doctorID int64, date string) ([]*model.AppointmentDetail, error) {
	return r.list(func(a model.Appointment) bool { return a.DoctorID == doctorID && a.Date == date }), nil
}

func (r appointmentRepo) list(keep func(model.Appointment) bool) []*model.AppointmentDetail {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*model.AppointmentDetail, 0)
	for _, a := range r.s.appointments {
		if !keep(a) {
			continue
		}
		out = append(out, &model.AppointmentDetail{
			Appointment:          a,
			DoctorName:           r.s.doctors[a.DoctorID].Name,
			DoctorSpecialization: r.s.doctors[a.DoctorID].Specialization,
			PatientName:          r.s.users[a.PatientID].Username,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type feedbackRepo struct{ s *Store }

func (r feedbackRepo) ListByDoctor(_ context.Context, doctorID int64) ([]*model.Feedback, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*model.Feedback, 0)
	for _, f := range r.s.feedback {
		if f.DoctorID == doctorID {
			f := f
			f.Username = r.s.users[f.UserID].Username
			out = append(out, &f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
