package appointment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-booking/internal/email"
	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
	apperrors "github.com/jwalitptl/clinic-booking/pkg/errors"
	"github.com/jwalitptl/clinic-booking/pkg/metrics"
	"github.com/jwalitptl/clinic-booking/pkg/validator"
)

var (
	ErrAdminCannotBook   = apperrors.Forbidden("Admins cannot book appointments. Please manage doctors from the admin panel.")
	ErrAdminCannotCancel = apperrors.Forbidden("Admins cannot cancel appointments.")
	ErrDoctorNotVerified = apperrors.Conflict("This doctor is not yet verified.")
	ErrNotOwner          = apperrors.Forbidden("appointment belongs to another patient")
	ErrNotAssigned       = apperrors.Forbidden("appointment is assigned to another doctor")
	ErrNotDoctor         = apperrors.Forbidden("doctor account required")
	ErrSlotTaken         = repository.ErrSlotTaken
)

type Service struct {
	appointments repository.AppointmentRepository
	doctors      repository.DoctorRepository
	users        repository.UserRepository
	mailer       email.Service
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewService(
	appointments repository.AppointmentRepository,
	doctors repository.DoctorRepository,
	users repository.UserRepository,
	mailer email.Service,
	m *metrics.Metrics,
) *Service {
	if mailer == nil {
		mailer = email.NoopService{}
	}
	return &Service{
		appointments: appointments,
		doctors:      doctors,
		users:        users,
		mailer:       mailer,
		metrics:      m,
		now:          time.Now,
	}
}

// BookableDoctor returns the doctor if requester may book it.
func (s *Service) BookableDoctor(ctx context.Context, requester *model.User, doctorID int64) (*model.Doctor, error) {
	if requester.IsAdmin() {
		return nil, ErrAdminCannotBook
	}
	doctor, err := s.doctors.Get(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if !doctor.Verified {
		return nil, ErrDoctorNotVerified
	}
	return doctor, nil
}

// Book creates a pending appointment. ErrSlotTaken means an active
// appointment already holds the slot and nothing was written.
func (s *Service) Book(ctx context.Context, requester *model.User, doctorID int64, req model.AppointmentRequest) (*model.Appointment, error) {
	doctor, err := s.BookableDoctor(ctx, requester, doctorID)
	if err != nil {
		return nil, err
	}

	date, clock, err := normalizeSlot(req.Date, req.Time)
	if err != nil {
		return nil, err
	}

	taken, err := s.appointments.SlotTaken(ctx, doctor.ID, date, clock, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		s.metrics.Conflict("book", "precheck")
		return nil, ErrSlotTaken
	}

	visitType := req.VisitType
	if visitType == "" {
		visitType = model.VisitClinic
	}

	appt := &model.Appointment{
		DoctorID:  doctor.ID,
		PatientID: requester.ID,
		Date:      date,
		Time:      clock,
		VisitType: visitType,
		Notes:     req.Notes,
		Status:    model.AppointmentStatusPending,
	}
	if err := s.appointments.Create(ctx, appt); err != nil {
		if apperrors.IsConflict(err) {
			s.metrics.Conflict("book", "constraint")
			return nil, ErrSlotTaken
		}
		return nil, err
	}

	s.metrics.Booked()
	log.Info().
		Int64("appointment_id", appt.ID).
		Int64("doctor_id", doctor.ID).
		Int64("patient_id", requester.ID).
		Msg("appointment booked")

	s.notifyDoctor(ctx, doctor, requester, appt)
	return appt, nil
}

// ListForPatient returns the requester's appointments ordered by date and time.
func (s *Service) ListForPatient(ctx context.Context, requester *model.User) ([]*model.AppointmentDetail, error) {
	return s.appointments.ListByPatient(ctx, requester.ID)
}

// Cancel cancels one of the requester's appointments. Cancelling twice is a
// no-op.
func (s *Service) Cancel(ctx context.Context, requester *model.User, id int64) error {
	if requester.IsAdmin() {
		return ErrAdminCannotCancel
	}
	appt, err := s.owned(ctx, requester, id)
	if err != nil {
		return err
	}
	if appt.Status == model.AppointmentStatusCancelled {
		return nil
	}

	appt.Cancel()
	if err := s.appointments.Update(ctx, appt); err != nil {
		return err
	}
	s.metrics.Transition("cancel")
	log.Info().Int64("appointment_id", id).Msg("appointment cancelled by patient")
	return nil
}

// ReschedulableAppointment returns the appointment if requester may move it.
func (s *Service) ReschedulableAppointment(ctx context.Context, requester *model.User, id int64) (*model.Appointment, error) {
	appt, err := s.owned(ctx, requester, id)
	if err != nil {
		return nil, err
	}
	if !appt.CanReschedule() {
		return nil, model.ErrNotReschedulable
	}
	return appt, nil
}

// Reschedule moves the appointment to a new slot and resets it to pending.
func (s *Service) Reschedule(ctx context.Context, requester *model.User, id int64, req model.RescheduleRequest) (*model.Appointment, error) {
	appt, err := s.ReschedulableAppointment(ctx, requester, id)
	if err != nil {
		return nil, err
	}

	date, clock, err := normalizeSlot(req.Date, req.Time)
	if err != nil {
		return nil, err
	}

	taken, err := s.appointments.SlotTaken(ctx, appt.DoctorID, date, clock, appt.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		s.metrics.Conflict("reschedule", "precheck")
		return nil, ErrSlotTaken
	}

	if err := appt.Reschedule(date, clock, req.Notes); err != nil {
		return nil, err
	}
	if err := s.appointments.Update(ctx, appt); err != nil {
		if apperrors.IsConflict(err) {
			s.metrics.Conflict("reschedule", "constraint")
			return nil, ErrSlotTaken
		}
		return nil, err
	}

	s.metrics.Transition("reschedule")
	log.Info().Int64("appointment_id", appt.ID).Int("reschedule_count", appt.RescheduleCount).Msg("appointment rescheduled")
	return appt, nil
}

// DoctorDashboard lists the appointments of the requester's verified profile.
func (s *Service) DoctorDashboard(ctx context.Context, requester *model.User) (*model.Doctor, []*model.AppointmentDetail, error) {
	if !requester.IsDoctor() {
		return nil, nil, ErrNotDoctor
	}
	doctor, err := s.doctors.GetByUserID(ctx, requester.ID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil, ErrNotDoctor
		}
		return nil, nil, err
	}
	if !doctor.Verified {
		return nil, nil, ErrNotDoctor
	}

	appts, err := s.appointments.ListByDoctor(ctx, doctor.ID)
	if err != nil {
		return nil, nil, err
	}
	return doctor, appts, nil
}

// Respond records the assigned doctor's accept or decline.
func (s *Service) Respond(ctx context.Context, requester *model.User, id int64, accept bool) (*model.Appointment, error) {
	if !requester.IsDoctor() {
		return nil, ErrNotDoctor
	}
	appt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	doctor, err := s.doctors.GetByUserID(ctx, requester.ID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, ErrNotAssigned
		}
		return nil, err
	}
	if doctor.ID != appt.DoctorID {
		return nil, ErrNotAssigned
	}

	action := model.ResponseDecline
	if accept {
		action = model.ResponseAccept
		if err := appt.Accept(); err != nil {
			return nil, err
		}
	} else {
		appt.Decline()
	}

	if err := s.appointments.Update(ctx, appt); err != nil {
		return nil, err
	}

	s.metrics.Transition(action)
	log.Info().Int64("appointment_id", appt.ID).Str("response", action).Msg("doctor responded")

	s.notifyPatient(ctx, doctor, appt)
	return appt, nil
}

// Schedule returns a doctor's appointments on date, ordered by time. A missing
// or malformed date means today (UTC). The resolved date is returned.
func (s *Service) Schedule(ctx context.Context, doctorID int64, date string) (*model.Doctor, string, []*model.AppointmentDetail, error) {
	day, err := validator.NormalizeDate(date)
	if err != nil {
		day = s.now().UTC().Format(validator.DateLayout)
	}

	doctor, err := s.doctors.Get(ctx, doctorID)
	if err != nil {
		return nil, "", nil, err
	}

	appts, err := s.appointments.ListByDoctorOnDate(ctx, doctorID, day)
	if err != nil {
		return nil, "", nil, err
	}
	return doctor, day, appts, nil
}

func (s *Service) owned(ctx context.Context, requester *model.User, id int64) (*model.Appointment, error) {
	appt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.PatientID != requester.ID {
		return nil, ErrNotOwner
	}
	return appt, nil
}

func normalizeSlot(date, clock string) (string, string, error) {
	d, err := validator.NormalizeDate(date)
	if err != nil {
		return "", "", apperrors.BadRequest("Not a valid date value.", err)
	}
	c, err := validator.NormalizeClock(clock)
	if err != nil {
		return "", "", apperrors.BadRequest("Not a valid time value.", err)
	}
	return d, c, nil
}

func (s *Service) notifyDoctor(ctx context.Context, doctor *model.Doctor, patient *model.User, appt *model.Appointment) {
	if doctor.UserID == nil {
		return
	}
	account, err := s.users.Get(ctx, *doctor.UserID)
	if err != nil {
		log.Warn().Err(err).Int64("doctor_id", doctor.ID).Msg("cannot resolve doctor account for notification")
		return
	}

	body := fmt.Sprintf("%s requested a %s appointment on %s at %s.", patient.Username, appt.VisitType, appt.Date, appt.Time)
	if notes := strings.TrimSpace(appt.Notes); notes != "" {
		body += "\n\nNotes: " + notes
	}
	s.send(ctx, email.Message{To: account.Email, Subject: "New appointment request", Body: body})
}

func (s *Service) notifyPatient(ctx context.Context, doctor *model.Doctor, appt *model.Appointment) {
	patient, err := s.users.Get(ctx, appt.PatientID)
	if err != nil {
		log.Warn().Err(err).Int64("appointment_id", appt.ID).Msg("cannot resolve patient for notification")
		return
	}

	verb := "declined"
	if appt.Response() == model.ResponseAccept {
		verb = "accepted"
	}
	s.send(ctx, email.Message{
		To:      patient.Email,
		Subject: fmt.Sprintf("Your appointment was %s", verb),
		Body:    fmt.Sprintf("%s %s your appointment on %s at %s.", doctor.Name, verb, appt.Date, appt.Time),
	})
}

func (s *Service) send(ctx context.Context, msg email.Message) {
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.metrics.NotificationFailed()
		log.Warn().Err(err).Str("subject", msg.Subject).Msg("notification not sent")
	}
}
