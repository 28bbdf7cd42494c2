package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/campus-clinic/clinic-api/internal/models"
	appErrors "github.com/campus-clinic/clinic-api/pkg/errors"
	"github.com/campus-clinic/clinic-api/pkg/export"
)

type exportUserRepository interface {
	FindStudentByID(ctx context.Context, id string) (*models.User, error)
	ListStudents(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
}

type exportVisitRepository interface {
	HistoryByStudent(ctx context.Context, studentID string) ([]models.VisitDetail, error)
}

// ExportService renders the staff downloads: the student roster as CSV and
// a student's visit history as PDF.
type ExportService struct {
	users  exportUserRepository
	visits exportVisitRepository
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(users exportUserRepository, visits exportVisitRepository, csv *export.CSVExporter, pdf *export.PDFExporter, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{users: users, visits: visits, csv: csv, pdf: pdf, logger: logger}
}

// StudentsCSV renders the full roster as CSV.
func (s *ExportService) StudentsCSV(ctx context.Context) ([]byte, error) {
	students, _, err := s.users.ListStudents(ctx, models.UserFilter{Page: 1, PageSize: 200})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	data := export.Dataset{
		Headers: []string{"Student Number", "Name", "Surname", "Email", "Onboarded"},
	}
	for _, student := range students {
		number := ""
		if student.StudentNumber != nil {
			number = *student.StudentNumber
		}
		data.Rows = append(data.Rows, map[string]string{
			"Student Number": number,
			"Name":           student.Name,
			"Surname":        student.Surname,
			"Email":          student.Email,
			"Onboarded":      strconv.FormatBool(student.PasswordChanged),
		})
	}

	out, err := s.csv.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return out, nil
}

// HistoryPDF renders a student's visit history as a tabular PDF.
func (s *ExportService) HistoryPDF(ctx context.Context, studentID string) ([]byte, error) {
	student, err := s.users.FindStudentByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	visits, err := s.visits.HistoryByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load visit history")
	}

	data := export.Dataset{
		Headers: []string{"Date", "Diagnosis", "Medication", "Dosage", "Duration"},
	}
	for _, visit := range visits {
		row := map[string]string{
			"Date":      visit.Date.Format("2006-01-02"),
			"Diagnosis": visit.Diagnosis,
		}
		if visit.Medication != nil {
			row["Medication"] = *visit.Medication
		}
		if visit.Dosage != nil {
			row["Dosage"] = *visit.Dosage
		}
		if visit.DurationDays != nil {
			row["Duration"] = fmt.Sprintf("%d days", *visit.DurationDays)
		}
		data.Rows = append(data.Rows, row)
	}

	title := fmt.Sprintf("Visit History - %s %s", student.Name, student.Surname)
	out, err := s.pdf.Render(data, title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return out, nil
}
