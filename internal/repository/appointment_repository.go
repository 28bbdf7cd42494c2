package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campus-clinic/clinic-api/internal/models"
)

// AppointmentRepository provides database access for appointments.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository creates a new instance of AppointmentRepository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// CountActiveAt counts non-cancelled appointments occupying a slot.
func (r *AppointmentRepository) CountActiveAt(ctx context.Context, date time.Time, slot string) (int, error) {
	const query = `SELECT COUNT(*) FROM appointments WHERE date = $1 AND time = $2 AND status <> 'cancelled'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, date, slot); err != nil {
		return 0, fmt.Errorf("count slot occupancy: %w", err)
	}
	return count, nil
}

// Create inserts a new appointment. The partial unique index over
// (date, time) for non-cancelled rows makes the insert the serialization
// point for concurrent bookings; callers detect the loser with
// IsUniqueViolation.
func (r *AppointmentRepository) Create(ctx context.Context, appt *models.Appointment) error {
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO appointments (id, student_id, date, time, reason, status, created_at)
        VALUES (:id, :student_id, :date, :time, :reason, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, appt); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

// CancelOwned cancels the appointment only when it belongs to the student
// and is still pending or confirmed. Returns the number of rows changed.
func (r *AppointmentRepository) CancelOwned(ctx context.Context, id, studentID string) (int64, error) {
	const query = `UPDATE appointments SET status = 'cancelled'
        WHERE id = $1 AND student_id = $2 AND status IN ('pending', 'confirmed')`
	res, err := r.db.ExecContext(ctx, query, id, studentID)
	if err != nil {
		return 0, fmt.Errorf("cancel appointment: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cancel appointment rows: %w", err)
	}
	return rows, nil
}

// UpdateStatus sets any of the three statuses without an ownership check;
// staff access is enforced upstream.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) (int64, error) {
	const query = `UPDATE appointments SET status = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return 0, fmt.Errorf("update appointment status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update appointment status rows: %w", err)
	}
	return rows, nil
}

// ListUpcomingByStudent returns the student's pending and confirmed
// appointments from the given date onward.
func (r *AppointmentRepository) ListUpcomingByStudent(ctx context.Context, studentID string, from time.Time) ([]models.Appointment, error) {
	const query = `SELECT id, student_id, date, time, reason, status, created_at
        FROM appointments
        WHERE student_id = $1 AND status IN ('pending', 'confirmed') AND date >= $2
        ORDER BY date ASC, time ASC`
	var appts []models.Appointment
	if err := r.db.SelectContext(ctx, &appts, query, studentID, from); err != nil {
		return nil, fmt.Errorf("list upcoming appointments: %w", err)
	}
	return appts, nil
}

// ListPending returns the triage queue with student names.
func (r *AppointmentRepository) ListPending(ctx context.Context) ([]models.AppointmentDetail, error) {
	const query = `SELECT a.id, a.student_id, a.date, a.time, a.reason, a.status, a.created_at,
            u.name AS student_name, u.surname AS student_surname
        FROM appointments a
        JOIN users u ON u.id = a.student_id
        WHERE a.status = 'pending'
        ORDER BY a.date ASC, a.time ASC`
	var appts []models.AppointmentDetail
	if err := r.db.SelectContext(ctx, &appts, query); err != nil {
		return nil, fmt.Errorf("list pending appointments: %w", err)
	}
	return appts, nil
}

// ListAll returns every appointment with student names for staff management.
func (r *AppointmentRepository) ListAll(ctx context.Context) ([]models.AppointmentDetail, error) {
	const query = `SELECT a.id, a.student_id, a.date, a.time, a.reason, a.status, a.created_at,
            u.name AS student_name, u.surname AS student_surname
        FROM appointments a
        JOIN users u ON u.id = a.student_id
        ORDER BY a.date DESC, a.time ASC`
	var appts []models.AppointmentDetail
	if err := r.db.SelectContext(ctx, &appts, query); err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}
