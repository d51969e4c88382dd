package model

import (
	apperrors "github.com/jwalitptl/clinic-booking/pkg/errors"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

const (
	ResponseAccept  = "accept"
	ResponseDecline = "decline"
)

var (
	ErrNotReschedulable = apperrors.Conflict("Cannot reschedule this appointment.")
	ErrAlreadyCancelled = apperrors.Conflict("This appointment has been cancelled.")
)

// Appointment is a booking of one doctor slot. Date is YYYY-MM-DD and Time is
// HH:MM.
type Appointment struct {
	Base
	DoctorID        int64             `json:"doctor_id" db:"doctor_id"`
	PatientID       int64             `json:"patient_id" db:"patient_id"`
	Date            string            `json:"date" db:"date"`
	Time            string            `json:"time" db:"time"`
	VisitType       string            `json:"visit_type" db:"visit_type"`
	Notes           string            `json:"notes" db:"notes"`
	Status          AppointmentStatus `json:"status" db:"status"`
	RescheduleCount int               `json:"reschedule_count" db:"reschedule_count"`
	DoctorResponse  *string           `json:"doctor_response,omitempty" db:"doctor_response"`
}

// IsActive reports whether the appointment occupies its slot.
func (a *Appointment) IsActive() bool {
	return a.Status != AppointmentStatusCancelled
}

func (a *Appointment) CanReschedule() bool {
	return a.Status == AppointmentStatusPending || a.Status == AppointmentStatusConfirmed
}

// Cancel is idempotent.
func (a *Appointment) Cancel() {
	a.Status = AppointmentStatusCancelled
}

// Reschedule moves the appointment and puts it back to pending. The doctor's
// earlier response is kept.
func (a *Appointment) Reschedule(date, clock, notes string) error {
	if !a.CanReschedule() {
		return ErrNotReschedulable
	}
	a.Date = date
	a.Time = clock
	a.Notes = notes
	a.RescheduleCount++
	a.Status = AppointmentStatusPending
	return nil
}

// Accept confirms the appointment. Repeated accepts overwrite silently.
func (a *Appointment) Accept() error {
	if a.Status == AppointmentStatusCancelled {
		return ErrAlreadyCancelled
	}
	a.Status = AppointmentStatusConfirmed
	a.setResponse(ResponseAccept)
	return nil
}

func (a *Appointment) Decline() {
	a.Status = AppointmentStatusCancelled
	a.setResponse(ResponseDecline)
}

func (a *Appointment) setResponse(r string) {
	a.DoctorResponse = &r
}

// Response returns the doctor's response or "".
func (a *Appointment) Response() string {
	if a.DoctorResponse == nil {
		return ""
	}
	return *a.DoctorResponse
}

// AppointmentDetail is an appointment joined with display names.
type AppointmentDetail struct {
	Appointment
	DoctorName           string `json:"doctor_name" db:"doctor_name"`
	DoctorSpecialization string `json:"doctor_specialization" db:"doctor_specialization"`
	PatientName          string `json:"patient_name" db:"patient_name"`
}
