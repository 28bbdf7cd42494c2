package models

import "time"

// AppointmentStatus enumerates the appointment lifecycle. Cancellation is
// terminal; the row is kept for history.
type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// Valid reports whether the value is one of the three known statuses.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentPending, AppointmentConfirmed, AppointmentCancelled:
		return true
	}
	return false
}

// Appointment is one bookable clinic slot claimed by a student. The
// (date, time) pair is globally unique among non-cancelled rows.
type Appointment struct {
	ID        string            `db:"id" json:"id"`
	StudentID string            `db:"student_id" json:"student_id"`
	Date      time.Time         `db:"date" json:"date"`
	Time      string            `db:"time" json:"time"`
	Reason    string            `db:"reason" json:"reason"`
	Status    AppointmentStatus `db:"status" json:"status"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
}

// AppointmentDetail adds the student's name for staff listings.
type AppointmentDetail struct {
	Appointment
	StudentName    string `db:"student_name" json:"student_name"`
	StudentSurname string `db:"student_surname" json:"student_surname"`
}

// UpcomingAppointment decorates a student's own appointment with a
// next-day marker for the dashboard.
type UpcomingAppointment struct {
	Appointment
	IsTomorrow bool `json:"is_tomorrow"`
}

// BookAppointmentRequest is the student booking payload.
type BookAppointmentRequest struct {
	Date   string `json:"date" validate:"required"`
	Time   string `json:"time" validate:"required"`
	Reason string `json:"reason"`
}

// SetAppointmentStatusRequest is the staff triage payload.
type SetAppointmentStatusRequest struct {
	Status AppointmentStatus `json:"status" validate:"required"`
}
