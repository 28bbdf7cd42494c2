package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campus-clinic/clinic-api/internal/models"
	appErrors "github.com/campus-clinic/clinic-api/pkg/errors"
)

const (
	prescriptionActive  = "active"
	prescriptionExpired = "expired"
)

type visitRepository interface {
	CreateWithPrescription(ctx context.Context, visit *models.Visit, prescription *models.Prescription) error
	HistoryByStudent(ctx context.Context, studentID string) ([]models.VisitDetail, error)
	RecentByStudent(ctx context.Context, studentID string, limit int) ([]models.VisitDetail, error)
	PrescriptionsByStudent(ctx context.Context, studentID string) ([]models.ActivePrescription, error)
}

type recordStudentRepository interface {
	FindStudentByID(ctx context.Context, id string) (*models.User, error)
}

// RecordService owns clinical visits and their prescriptions.
type RecordService struct {
	visits    visitRepository
	students  recordStudentRepository
	validator *validator.Validate
	logger    *zap.Logger
	location  *time.Location
	now       func() time.Time
}

// NewRecordService constructs a RecordService.
func NewRecordService(visits visitRepository, students recordStudentRepository, validate *validator.Validate, logger *zap.Logger, timezone string) *RecordService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return &RecordService{
		visits:    visits,
		students:  students,
		validator: validate,
		logger:    logger,
		location:  loc,
		now:       time.Now,
	}
}

// RecordVisit writes a consultation and its optional prescription for the
// student. Medication and dosage must travel together; the visit and
// prescription land in one transaction or not at all.
func (s *RecordService) RecordVisit(ctx context.Context, clinicianID, studentID string, req models.RecordVisitRequest) (*models.Visit, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid visit payload")
	}

	date, err := time.ParseInLocation("2006-01-02", req.Date, s.location)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be in YYYY-MM-DD format")
	}

	diagnosis := strings.TrimSpace(req.Diagnosis)
	if diagnosis == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "diagnosis is required")
	}

	medication := strings.TrimSpace(req.Medication)
	dosage := strings.TrimSpace(req.Dosage)
	if (medication == "") != (dosage == "") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "medication and dosage must be provided together")
	}

	var prescription *models.Prescription
	if medication != "" {
		if req.DurationDays != nil && *req.DurationDays < 1 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "duration_days must be at least 1")
		}
		prescription = &models.Prescription{
			Medication:   medication,
			Dosage:       dosage,
			Instructions: strings.TrimSpace(req.Instructions),
			DurationDays: req.DurationDays,
		}
	}

	if _, err := s.students.FindStudentByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	visit := &models.Visit{
		StudentID:   studentID,
		ClinicianID: &clinicianID,
		Date:        date,
		Diagnosis:   diagnosis,
		Notes:       strings.TrimSpace(req.Notes),
	}
	if err := s.visits.CreateWithPrescription(ctx, visit, prescription); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record visit")
	}

	s.logger.Info("visit recorded",
		zap.String("visit_id", visit.ID),
		zap.String("student_id", studentID),
		zap.Bool("prescribed", prescription != nil))

	return visit, nil
}

// History returns the student's visit history, newest first, with the
// prescription state derived against today on every read.
func (s *RecordService) History(ctx context.Context, studentID string) ([]models.VisitDetail, error) {
	visits, err := s.visits.HistoryByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load visit history")
	}
	s.decorate(visits)
	return visits, nil
}

// Recent returns the student's most recent visits for the dashboard.
func (s *RecordService) Recent(ctx context.Context, studentID string, limit int) ([]models.VisitDetail, error) {
	visits, err := s.visits.RecentByStudent(ctx, studentID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent visits")
	}
	s.decorate(visits)
	return visits, nil
}

// ActivePrescriptions returns only prescriptions whose duration window is
// still open, each with the days remaining. A prescription without a
// duration has no window and never shows up here.
func (s *RecordService) ActivePrescriptions(ctx context.Context, studentID string) ([]models.ActivePrescription, error) {
	all, err := s.visits.PrescriptionsByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prescriptions")
	}

	today := s.today()
	active := make([]models.ActivePrescription, 0, len(all))
	for _, p := range all {
		if p.DurationDays == nil {
			continue
		}
		daysLeft := daysRemaining(p.VisitDate, *p.DurationDays, today)
		if daysLeft < 0 {
			continue
		}
		p.DaysLeft = daysLeft
		active = append(active, p)
	}
	return active, nil
}

func (s *RecordService) decorate(visits []models.VisitDetail) {
	today := s.today()
	for i := range visits {
		if visits[i].Medication == nil || visits[i].DurationDays == nil {
			continue
		}
		if daysRemaining(visits[i].Date, *visits[i].DurationDays, today) >= 0 {
			visits[i].PrescriptionStatus = prescriptionActive
		} else {
			visits[i].PrescriptionStatus = prescriptionExpired
		}
	}
}

func (s *RecordService) today() time.Time {
	now := s.now().In(s.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
}

// daysRemaining measures whole days between today and the end of the
// prescription window. Zero means the window closes today; negative means it
// has already passed.
func daysRemaining(visitDate time.Time, durationDays int, today time.Time) int {
	end := time.Date(visitDate.Year(), visitDate.Month(), visitDate.Day(), 0, 0, 0, 0, today.Location())
	end = end.AddDate(0, 0, durationDays)
	return int(end.Sub(today).Hours() / 24)
}
