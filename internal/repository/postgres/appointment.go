package postgres

import (
	"context"
	"fmt"

	"github.com/jwalitptl/clinic-booking/internal/model"
)

const appointmentColumns = `a.id, a.doctor_id, a.patient_id,
	to_char(a.date, 'YYYY-MM-DD') AS date, to_char(a.time, 'HH24:MI') AS time,
	a.visit_type, a.notes, a.status, a.reschedule_count, a.doctor_response, a.created_at`

const appointmentDetailQuery = `
	SELECT ` + appointmentColumns + `,
		d.name AS doctor_name, d.specialization AS doctor_specialization,
		u.username AS patient_name
	FROM appointments a
	JOIN doctors d ON d.id = a.doctor_id
	JOIN users u ON u.id = a.patient_id
`

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			doctor_id, patient_id, date, time, visit_type, notes,
			status, reschedule_count, doctor_response
		) VALUES ($1, $2, $3::date, $4::time, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		appointment.DoctorID,
		appointment.PatientID,
		appointment.Date,
		appointment.Time,
		appointment.VisitType,
		appointment.Notes,
		appointment.Status,
		appointment.RescheduleCount,
		appointment.DoctorResponse,
	).Scan(&appointment.ID, &appointment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", translate(err, "appointment"))
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments a WHERE a.id = $1`

	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", translate(err, "appointment"))
	}
	return &appointment, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET date = $1::date, time = $2::time, notes = $3, status = $4,
			reschedule_count = $5, doctor_response = $6
		WHERE id = $7
	`
	result, err := r.db.ExecContext(ctx, query,
		appointment.Date,
		appointment.Time,
		appointment.Notes,
		appointment.Status,
		appointment.RescheduleCount,
		appointment.DoctorResponse,
		appointment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", translate(err, "appointment"))
	}
	return expectOne(result, "appointment")
}

func (r *appointmentRepository) SlotTaken(ctx context.Context, doctorID int64, date, clock string, excludeID int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM appointments a
			WHERE a.doctor_id = $1 AND a.date = $2::date AND a.time = $3::time
				AND a.status <> 'cancelled' AND a.id <> $4
		)
	`
	var taken bool
	if err := r.db.GetContext(ctx, &taken, query, doctorID, date, clock, excludeID); err != nil {
		return false, fmt.Errorf("failed to check slot: %w", err)
	}
	return taken, nil
}

func (r *appointmentRepository) ListByPatient(ctx context.Context, patientID int64) ([]*model.AppointmentDetail, error) {
	query := appointmentDetailQuery + ` WHERE a.patient_id = $1 ORDER BY a.date, a.time, a.id`

	var appointments []*model.AppointmentDetail
	if err := r.db.SelectContext(ctx, &appointments, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list patient appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListByDoctor(ctx context.Context, doctorID int64) ([]*model.AppointmentDetail, error) {
	query := appointmentDetailQuery + ` WHERE a.doctor_id = $1 ORDER BY a.date, a.time, a.id`

	var appointments []*model.AppointmentDetail
	if err := r.db.SelectContext(ctx, &appointments, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list doctor appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListByDoctorOnDate(ctx context.Context, doctorID int64, date string) ([]*model.AppointmentDetail, error) {
	query := appointmentDetailQuery + ` WHERE a.doctor_id = $1 AND a.date = $2::date ORDER BY a.time, a.id`

	var appointments []*model.AppointmentDetail
	if err := r.db.SelectContext(ctx, &appointments, query, doctorID, date); err != nil {
		return nil, fmt.Errorf("failed to list schedule: %w", err)
	}
	return appointments, nil
}
