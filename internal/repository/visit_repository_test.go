package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-clinic/clinic-api/internal/models"
)

func TestCreateWithPrescriptionCommitsBoth(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVisitRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO visits").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO prescriptions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	visit := &models.Visit{
		StudentID: "u1",
		Date:      time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Diagnosis: "flu",
	}
	duration := 5
	prescription := &models.Prescription{
		Medication:   "paracetamol",
		Dosage:       "500mg",
		DurationDays: &duration,
	}

	err := repo.CreateWithPrescription(context.Background(), visit, prescription)
	require.NoError(t, err)
	assert.NotEmpty(t, visit.ID)
	assert.Equal(t, visit.ID, prescription.VisitID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithPrescriptionRollsBackOnPrescriptionError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVisitRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO visits").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO prescriptions").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := repo.CreateWithPrescription(context.Background(), &models.Visit{
		StudentID: "u1",
		Date:      time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Diagnosis: "flu",
	}, &models.Prescription{Medication: "paracetamol", Dosage: "500mg"})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithoutPrescriptionSkipsSecondInsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVisitRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO visits").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.CreateWithPrescription(context.Background(), &models.Visit{
		StudentID: "u1",
		Date:      time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Diagnosis: "checkup",
	}, nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryByStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVisitRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "clinician_id", "date", "diagnosis", "notes", "created_at", "medication", "dosage", "instructions", "duration_days", "clinician_name", "clinician_surname"}).
		AddRow("v1", "u1", "c1", now, "flu", "", now, "paracetamol", "500mg", "after meals", 5, "Nomsa", "Dlamini").
		AddRow("v2", "u1", nil, now, "checkup", "", now, nil, nil, nil, nil, nil, nil)
	mock.ExpectQuery("SELECT v.id, v.student_id, .* FROM visits v").
		WithArgs("u1").
		WillReturnRows(rows)

	visits, err := repo.HistoryByStudent(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, visits, 2)
	require.NotNil(t, visits[0].Medication)
	assert.Equal(t, "paracetamol", *visits[0].Medication)
	assert.Nil(t, visits[1].Medication)
}
