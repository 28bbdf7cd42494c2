package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-clinic/clinic-api/internal/models"
	appErrors "github.com/campus-clinic/clinic-api/pkg/errors"
)

type mockVisitRepo struct {
	createdVisit        *models.Visit
	createdPrescription *models.Prescription
	createErr           error
	history             []models.VisitDetail
	prescriptions       []models.ActivePrescription
}

func (m *mockVisitRepo) CreateWithPrescription(ctx context.Context, visit *models.Visit, prescription *models.Prescription) error {
	if m.createErr != nil {
		return m.createErr
	}
	visit.ID = "v1"
	m.createdVisit = visit
	m.createdPrescription = prescription
	return nil
}

func (m *mockVisitRepo) HistoryByStudent(ctx context.Context, studentID string) ([]models.VisitDetail, error) {
	return m.history, nil
}

func (m *mockVisitRepo) RecentByStudent(ctx context.Context, studentID string, limit int) ([]models.VisitDetail, error) {
	if limit < len(m.history) {
		return m.history[:limit], nil
	}
	return m.history, nil
}

func (m *mockVisitRepo) PrescriptionsByStudent(ctx context.Context, studentID string) ([]models.ActivePrescription, error) {
	return m.prescriptions, nil
}

type mockStudentLookup struct {
	student *models.User
	err     error
}

func (m *mockStudentLookup) FindStudentByID(ctx context.Context, id string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.student, nil
}

func newRecordService(visits *mockVisitRepo, students *mockStudentLookup) *RecordService {
	return NewRecordService(visits, students, validator.New(), zap.NewNop(), "Africa/Johannesburg")
}

func intPtr(n int) *int { return &n }

func TestRecordVisitWithPrescription(t *testing.T) {
	visits := &mockVisitRepo{}
	students := &mockStudentLookup{student: &models.User{ID: "s1", Role: models.RoleStudent}}
	svc := newRecordService(visits, students)

	visit, err := svc.RecordVisit(context.Background(), "c1", "s1", models.RecordVisitRequest{
		Date:         "2025-03-10",
		Diagnosis:    "flu",
		Medication:   "paracetamol",
		Dosage:       "500mg",
		Instructions: "after meals",
		DurationDays: intPtr(5),
	})
	require.NoError(t, err)
	assert.Equal(t, "v1", visit.ID)
	require.NotNil(t, visits.createdPrescription)
	assert.Equal(t, "paracetamol", visits.createdPrescription.Medication)
	require.NotNil(t, visit.ClinicianID)
	assert.Equal(t, "c1", *visit.ClinicianID)
}

func TestRecordVisitWithoutPrescription(t *testing.T) {
	visits := &mockVisitRepo{}
	students := &mockStudentLookup{student: &models.User{ID: "s1"}}
	svc := newRecordService(visits, students)

	_, err := svc.RecordVisit(context.Background(), "c1", "s1", models.RecordVisitRequest{
		Date:      "2025-03-10",
		Diagnosis: "routine checkup",
	})
	require.NoError(t, err)
	assert.Nil(t, visits.createdPrescription)
}

func TestRecordVisitMedicationWithoutDosage(t *testing.T) {
	svc := newRecordService(&mockVisitRepo{}, &mockStudentLookup{student: &models.User{ID: "s1"}})

	_, err := svc.RecordVisit(context.Background(), "c1", "s1", models.RecordVisitRequest{
		Date:       "2025-03-10",
		Diagnosis:  "flu",
		Medication: "paracetamol",
	})
	assertValidationError(t, err)
}

func TestRecordVisitDosageWithoutMedication(t *testing.T) {
	svc := newRecordService(&mockVisitRepo{}, &mockStudentLookup{student: &models.User{ID: "s1"}})

	_, err := svc.RecordVisit(context.Background(), "c1", "s1", models.RecordVisitRequest{
		Date:      "2025-03-10",
		Diagnosis: "flu",
		Dosage:    "500mg",
	})
	assertValidationError(t, err)
}

func TestRecordVisitDurationOptional(t *testing.T) {
	visits := &mockVisitRepo{}
	svc := newRecordService(visits, &mockStudentLookup{student: &models.User{ID: "s1"}})

	_, err := svc.RecordVisit(context.Background(), "c1", "s1", models.RecordVisitRequest{
		Date:       "2025-03-10",
		Diagnosis:  "flu",
		Medication: "paracetamol",
		Dosage:     "500mg",
	})
	require.NoError(t, err)
	require.NotNil(t, visits.createdPrescription)
	assert.Nil(t, visits.createdPrescription.DurationDays)
}

func TestRecordVisitRejectsNonPositiveDuration(t *testing.T) {
	svc := newRecordService(&mockVisitRepo{}, &mockStudentLookup{student: &models.User{ID: "s1"}})

	_, err := svc.RecordVisit(context.Background(), "c1", "s1", models.RecordVisitRequest{
		Date:         "2025-03-10",
		Diagnosis:    "flu",
		Medication:   "paracetamol",
		Dosage:       "500mg",
		DurationDays: intPtr(0),
	})
	assertValidationError(t, err)
}

func TestRecordVisitRequiresDiagnosis(t *testing.T) {
	svc := newRecordService(&mockVisitRepo{}, &mockStudentLookup{student: &models.User{ID: "s1"}})

	_, err := svc.RecordVisit(context.Background(), "c1", "s1", models.RecordVisitRequest{
		Date: "2025-03-10",
	})
	assertValidationError(t, err)
}

func TestRecordVisitUnknownStudent(t *testing.T) {
	svc := newRecordService(&mockVisitRepo{}, &mockStudentLookup{err: sql.ErrNoRows})

	_, err := svc.RecordVisit(context.Background(), "c1", "missing", models.RecordVisitRequest{
		Date:      "2025-03-10",
		Diagnosis: "flu",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestActivePrescriptionsFiltersExpired(t *testing.T) {
	loc, _ := time.LoadLocation("Africa/Johannesburg")
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, loc)

	visits := &mockVisitRepo{prescriptions: []models.ActivePrescription{
		{Prescription: models.Prescription{ID: "p1", DurationDays: intPtr(7)}, VisitDate: now.AddDate(0, 0, -3)},
		{Prescription: models.Prescription{ID: "p2", DurationDays: intPtr(2)}, VisitDate: now.AddDate(0, 0, -5)},
		{Prescription: models.Prescription{ID: "p3", DurationDays: intPtr(5)}, VisitDate: now.AddDate(0, 0, -5)},
		{Prescription: models.Prescription{ID: "p4"}, VisitDate: now},
	}}
	svc := newRecordService(visits, &mockStudentLookup{})
	svc.now = func() time.Time { return now }

	// p2 expired, p4 has no duration so no window; neither is active.
	active, err := svc.ActivePrescriptions(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "p1", active[0].ID)
	assert.Equal(t, 4, active[0].DaysLeft)
	// p3's window closes today: still active with zero days left.
	assert.Equal(t, "p3", active[1].ID)
	assert.Equal(t, 0, active[1].DaysLeft)
}

func TestHistoryDerivesPrescriptionStatus(t *testing.T) {
	loc, _ := time.LoadLocation("Africa/Johannesburg")
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, loc)
	med := "paracetamol"

	visits := &mockVisitRepo{history: []models.VisitDetail{
		{Visit: models.Visit{ID: "v1", Date: now.AddDate(0, 0, -2)}, Medication: &med, DurationDays: intPtr(7)},
		{Visit: models.Visit{ID: "v2", Date: now.AddDate(0, 0, -30)}, Medication: &med, DurationDays: intPtr(5)},
		{Visit: models.Visit{ID: "v3", Date: now.AddDate(0, 0, -1)}},
		{Visit: models.Visit{ID: "v4", Date: now.AddDate(0, 0, -1)}, Medication: &med},
	}}
	svc := newRecordService(visits, &mockStudentLookup{})
	svc.now = func() time.Time { return now }

	history, err := svc.History(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, prescriptionActive, history[0].PrescriptionStatus)
	assert.Equal(t, prescriptionExpired, history[1].PrescriptionStatus)
	assert.Empty(t, history[2].PrescriptionStatus)
	// Medication without a duration carries no window to derive from.
	assert.Empty(t, history[3].PrescriptionStatus)
}
