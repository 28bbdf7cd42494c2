package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campus-clinic/clinic-api/internal/models"
	"github.com/campus-clinic/clinic-api/internal/repository"
	appErrors "github.com/campus-clinic/clinic-api/pkg/errors"
)

var requiredImportHeaders = []string{"student_number", "name", "surname", "id_number"}

type enrollmentRepository interface {
	CreateBatch(ctx context.Context, rows []models.EnrollmentRow, passwordHash, emailDomain string) (created, skipped int, err error)
	CreateStudent(ctx context.Context, row models.EnrollmentRow, passwordHash, emailDomain string) (string, error)
}

// EnrollmentConfig carries the onboarding defaults newly created accounts
// start with.
type EnrollmentConfig struct {
	DefaultPassword string
	EmailDomain     string
	ImportMaxRows   int
}

// EnrollmentService creates student accounts, individually or from an
// uploaded spreadsheet.
type EnrollmentService struct {
	repo      enrollmentRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    EnrollmentConfig
}

// NewEnrollmentService constructs an EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, validate *validator.Validate, logger *zap.Logger, config EnrollmentConfig) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.ImportMaxRows <= 0 {
		config.ImportMaxRows = 1000
	}
	return &EnrollmentService{repo: repo, validator: validate, logger: logger, config: config}
}

// ParseWorkbook reads the first sheet of an xlsx upload into enrollment
// rows. The header row must name every required column or the whole import
// is refused; fully blank rows are skipped.
func (s *EnrollmentService) ParseWorkbook(r io.Reader) ([]models.EnrollmentRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "file is not a readable xlsx workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read sheet")
	}
	if len(rows) < 2 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "workbook has no data rows")
	}

	headerIndex := make(map[string]int, len(rows[0]))
	for i, cell := range rows[0] {
		headerIndex[strings.ToLower(strings.TrimSpace(cell))] = i
	}
	for _, header := range requiredImportHeaders {
		if _, ok := headerIndex[header]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("missing required column %q", header))
		}
	}

	cell := func(row []string, header string) string {
		idx := headerIndex[header]
		if idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	parsed := make([]models.EnrollmentRow, 0, len(rows)-1)
	for i, row := range rows[1:] {
		record := models.EnrollmentRow{
			Row:           i + 2,
			StudentNumber: cell(row, "student_number"),
			Name:          cell(row, "name"),
			Surname:       cell(row, "surname"),
			IDNumber:      cell(row, "id_number"),
		}
		if record.StudentNumber == "" && record.Name == "" && record.Surname == "" && record.IDNumber == "" {
			continue
		}
		parsed = append(parsed, record)
		if len(parsed) > s.config.ImportMaxRows {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("import exceeds the %d row limit", s.config.ImportMaxRows))
		}
	}

	return parsed, nil
}

// Enroll creates accounts for the parsed rows in one transaction. Rows
// missing required fields are counted as errors without touching the batch;
// duplicate student numbers or emails are skipped idempotently.
func (s *EnrollmentService) Enroll(ctx context.Context, rows []models.EnrollmentRow) (*models.EnrollmentReport, error) {
	report := &models.EnrollmentReport{Total: len(rows)}

	valid := make([]models.EnrollmentRow, 0, len(rows))
	for _, row := range rows {
		if !row.Complete() {
			report.Errors++
			s.logger.Warn("enrollment row rejected", zap.Int("row", row.Row))
			continue
		}
		valid = append(valid, row)
	}

	if len(valid) == 0 {
		return report, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.config.DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash default password")
	}

	created, skipped, err := s.repo.CreateBatch(ctx, valid, string(hash), s.config.EmailDomain)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enrol students")
	}

	report.Created = created
	report.Skipped = skipped

	s.logger.Info("bulk enrollment finished",
		zap.Int("total", report.Total),
		zap.Int("created", report.Created),
		zap.Int("skipped", report.Skipped),
		zap.Int("errors", report.Errors))

	return report, nil
}

// AddStudent creates a single student account with the onboarding defaults.
func (s *EnrollmentService) AddStudent(ctx context.Context, req models.AddStudentRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.config.DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash default password")
	}

	row := models.EnrollmentRow{
		StudentNumber: strings.TrimSpace(req.StudentNumber),
		Name:          strings.TrimSpace(req.Name),
		Surname:       strings.TrimSpace(req.Surname),
		IDNumber:      strings.TrimSpace(req.IDNumber),
	}

	userID, err := s.repo.CreateStudent(ctx, row, string(hash), s.config.EmailDomain)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return "", appErrors.Clone(appErrors.ErrConflict, "a student with that number or email already exists")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return userID, nil
}
