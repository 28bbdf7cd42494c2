package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-clinic/clinic-api/internal/models"
)

func TestCountActiveAt(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM appointments WHERE date = $1 AND time = $2 AND status <> 'cancelled'")).
		WithArgs(date, "09:00").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	count, err := repo.CountActiveAt(context.Background(), date, "09:00")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCreateSurfacesUniqueViolation(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectExec("INSERT INTO appointments").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_appointments_slot"})

	err := repo.Create(context.Background(), &models.Appointment{
		StudentID: "u1",
		Date:      time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Time:      "09:00",
		Reason:    "flu",
		Status:    models.AppointmentPending,
	})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}

func TestCancelOwnedReportsRowsAffected(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectExec("UPDATE appointments SET status = 'cancelled'").
		WithArgs("a1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	rows, err := repo.CancelOwned(context.Background(), "a1", "u1")
	require.NoError(t, err)
	assert.Zero(t, rows)
}

func TestUpdateStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE appointments SET status = $2 WHERE id = $1")).
		WithArgs("a1", models.AppointmentConfirmed).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rows, err := repo.UpdateStatus(context.Background(), "a1", models.AppointmentConfirmed)
	require.NoError(t, err)
	assert.EqualValues(t, 1, rows)
}

func TestListPendingJoinsStudentNames(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "date", "time", "reason", "status", "created_at", "student_name", "student_surname"}).
		AddRow("a1", "u1", now, "09:00", "flu", string(models.AppointmentPending), now, "Thandi", "Nkosi")
	mock.ExpectQuery("SELECT a.id, a.student_id, .* WHERE a.status = 'pending'").
		WillReturnRows(rows)

	appts, err := repo.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, "Thandi", appts[0].StudentName)
}
