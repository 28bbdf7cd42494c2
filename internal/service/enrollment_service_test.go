package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campus-clinic/clinic-api/internal/models"
	appErrors "github.com/campus-clinic/clinic-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	batchRows  []models.EnrollmentRow
	batchHash  string
	created    int
	skipped    int
	batchErr   error
	studentErr error
	createdOne *models.EnrollmentRow
}

func (m *mockEnrollmentRepo) CreateBatch(ctx context.Context, rows []models.EnrollmentRow, passwordHash, emailDomain string) (int, int, error) {
	if m.batchErr != nil {
		return 0, 0, m.batchErr
	}
	m.batchRows = rows
	m.batchHash = passwordHash
	return m.created, m.skipped, nil
}

func (m *mockEnrollmentRepo) CreateStudent(ctx context.Context, row models.EnrollmentRow, passwordHash, emailDomain string) (string, error) {
	if m.studentErr != nil {
		return "", m.studentErr
	}
	m.createdOne = &row
	return "new-id", nil
}

func newEnrollmentService(repo *mockEnrollmentRepo) *EnrollmentService {
	return NewEnrollmentService(repo, validator.New(), zap.NewNop(), EnrollmentConfig{
		DefaultPassword: "Ump@2025",
		EmailDomain:     "ump.ac.za",
		ImportMaxRows:   100,
	})
}

func workbookBytes(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestParseWorkbookReadsRows(t *testing.T) {
	svc := newEnrollmentService(&mockEnrollmentRepo{})
	buf := workbookBytes(t, [][]interface{}{
		{"student_number", "name", "surname", "id_number"},
		{"202412345", "Thandi", "Nkosi", "0001015000000"},
		{"", "", "", ""},
		{"202412346", "Sipho", "Dube", "0001015000001"},
	})

	rows, err := svc.ParseWorkbook(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "202412345", rows[0].StudentNumber)
	assert.Equal(t, 2, rows[0].Row)
	assert.Equal(t, "Sipho", rows[1].Name)
	assert.Equal(t, 4, rows[1].Row)
}

func TestParseWorkbookMissingColumnAborts(t *testing.T) {
	svc := newEnrollmentService(&mockEnrollmentRepo{})
	buf := workbookBytes(t, [][]interface{}{
		{"student_number", "name", "surname"},
		{"202412345", "Thandi", "Nkosi"},
	})

	_, err := svc.ParseWorkbook(buf)
	assertValidationError(t, err)
}

func TestParseWorkbookRejectsGarbage(t *testing.T) {
	svc := newEnrollmentService(&mockEnrollmentRepo{})
	_, err := svc.ParseWorkbook(bytes.NewBufferString("not an xlsx file"))
	assertValidationError(t, err)
}

func TestEnrollCountsIncompleteRowsAsErrors(t *testing.T) {
	repo := &mockEnrollmentRepo{created: 2}
	svc := newEnrollmentService(repo)

	report, err := svc.Enroll(context.Background(), []models.EnrollmentRow{
		{Row: 2, StudentNumber: "202412345", Name: "Thandi", Surname: "Nkosi", IDNumber: "0001015000000"},
		{Row: 3, StudentNumber: "202412346", Name: "Sipho", Surname: "Dube", IDNumber: "0001015000001"},
		{Row: 4, StudentNumber: "202412347", Name: "", Surname: "Zulu", IDNumber: "0001015000002"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.Errors)
	// Only the complete rows reach the database.
	require.Len(t, repo.batchRows, 2)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.batchHash), []byte("Ump@2025")))
}

func TestEnrollReportsSkippedDuplicates(t *testing.T) {
	repo := &mockEnrollmentRepo{created: 1, skipped: 1}
	svc := newEnrollmentService(repo)

	report, err := svc.Enroll(context.Background(), []models.EnrollmentRow{
		{Row: 2, StudentNumber: "202412345", Name: "Thandi", Surname: "Nkosi", IDNumber: "0001015000000"},
		{Row: 3, StudentNumber: "202412345", Name: "Thandi", Surname: "Nkosi", IDNumber: "0001015000000"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, report.Errors)
}

func TestEnrollAllRowsInvalid(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	svc := newEnrollmentService(repo)

	report, err := svc.Enroll(context.Background(), []models.EnrollmentRow{
		{Row: 2, StudentNumber: "202412345"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Errors)
	assert.Nil(t, repo.batchRows)
}

func TestAddStudentMapsDuplicateToConflict(t *testing.T) {
	repo := &mockEnrollmentRepo{studentErr: &pq.Error{Code: "23505"}}
	svc := newEnrollmentService(repo)

	_, err := svc.AddStudent(context.Background(), models.AddStudentRequest{
		StudentNumber: "202412345", Name: "Thandi", Surname: "Nkosi", IDNumber: "0001015000000",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestAddStudentSucceeds(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	svc := newEnrollmentService(repo)

	id, err := svc.AddStudent(context.Background(), models.AddStudentRequest{
		StudentNumber: " 202412345 ", Name: "Thandi", Surname: "Nkosi", IDNumber: "0001015000000",
	})
	require.NoError(t, err)
	assert.Equal(t, "new-id", id)
	require.NotNil(t, repo.createdOne)
	assert.Equal(t, "202412345", repo.createdOne.StudentNumber)
}
