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
	"github.com/campus-clinic/clinic-api/internal/repository"
	appErrors "github.com/campus-clinic/clinic-api/pkg/errors"
)

const pendingQueueCacheKey = "clinic:appointments:pending"

type appointmentRepository interface {
	CountActiveAt(ctx context.Context, date time.Time, slot string) (int, error)
	Create(ctx context.Context, appt *models.Appointment) error
	CancelOwned(ctx context.Context, id, studentID string) (int64, error)
	UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) (int64, error)
	ListUpcomingByStudent(ctx context.Context, studentID string, from time.Time) ([]models.Appointment, error)
	ListPending(ctx context.Context) ([]models.AppointmentDetail, error)
	ListAll(ctx context.Context) ([]models.AppointmentDetail, error)
}

// AppointmentService owns booking rules and the appointment lifecycle.
type AppointmentService struct {
	repo      appointmentRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	location  *time.Location
	now       func() time.Time
}

// NewAppointmentService constructs an AppointmentService. The timezone
// anchors the working-week check; an unknown name falls back to UTC.
func NewAppointmentService(repo appointmentRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, timezone string) *AppointmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		logger.Warn("unknown clinic timezone, using UTC", zap.String("timezone", timezone))
		loc = time.UTC
	}
	return &AppointmentService{
		repo:      repo,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		location:  loc,
		now:       time.Now,
	}
}

// Book validates and claims a slot for the student. Checks run in a fixed
// order so the client always sees the same failure for the same payload:
// date format, time window, reason, weekday, then slot availability.
func (s *AppointmentService) Book(ctx context.Context, studentID string, req models.BookAppointmentRequest) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}

	date, err := time.ParseInLocation("2006-01-02", req.Date, s.location)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be in YYYY-MM-DD format")
	}

	slot, err := time.Parse("15:04", req.Time)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "time must be in HH:MM format")
	}
	hour, minute := slot.Hour(), slot.Minute()
	if hour < 8 || hour > 17 || (hour == 17 && minute > 0) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "bookings are accepted between 08:00 and 17:00")
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "reason is required")
	}

	weekday := date.Weekday()
	if weekday == time.Saturday || weekday == time.Sunday {
		return nil, appErrors.Clone(appErrors.ErrValidation, "the clinic is open Monday to Friday")
	}

	slotValue := slot.Format("15:04")

	count, err := s.repo.CountActiveAt(ctx, date, slotValue)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slot availability")
	}
	if count > 0 {
		s.metrics.RecordBooking("slot_taken")
		return nil, appErrors.Clone(appErrors.ErrSlotTaken, "")
	}

	appt := &models.Appointment{
		StudentID: studentID,
		Date:      date,
		Time:      slotValue,
		Reason:    reason,
		Status:    models.AppointmentPending,
	}
	if err := s.repo.Create(ctx, appt); err != nil {
		// The partial unique index catches the race the pre-check cannot.
		if repository.IsUniqueViolation(err) {
			s.metrics.RecordBooking("slot_taken")
			return nil, appErrors.Clone(appErrors.ErrSlotTaken, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to book appointment")
	}

	s.metrics.RecordBooking("booked")
	s.invalidatePendingQueue(ctx)

	s.logger.Info("appointment booked",
		zap.String("appointment_id", appt.ID),
		zap.String("student_id", studentID),
		zap.String("date", req.Date),
		zap.String("time", slotValue))

	return appt, nil
}

// Cancel cancels the student's own appointment. Cancelling a row that is
// already cancelled, missing, or owned by someone else reads as not found.
func (s *AppointmentService) Cancel(ctx context.Context, id, studentID string) error {
	rows, err := s.repo.CancelOwned(ctx, id, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel appointment")
	}
	if rows == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
	}

	s.invalidatePendingQueue(ctx)
	return nil
}

// SetStatus lets staff move an appointment to any of the three statuses.
func (s *AppointmentService) SetStatus(ctx context.Context, id string, req models.SetAppointmentStatusRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if !req.Status.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "status must be pending, confirmed or cancelled")
	}

	rows, err := s.repo.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update appointment")
	}
	if rows == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
	}

	s.invalidatePendingQueue(ctx)
	return nil
}

// UpcomingForStudent returns the student's pending and confirmed bookings
// from today on, flagging those that fall on tomorrow.
func (s *AppointmentService) UpcomingForStudent(ctx context.Context, studentID string) ([]models.UpcomingAppointment, error) {
	today := s.today()
	appts, err := s.repo.ListUpcomingByStudent(ctx, studentID, today)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list appointments")
	}

	tomorrow := today.AddDate(0, 0, 1)
	upcoming := make([]models.UpcomingAppointment, 0, len(appts))
	for _, appt := range appts {
		upcoming = append(upcoming, models.UpcomingAppointment{
			Appointment: appt,
			IsTomorrow:  sameDay(appt.Date, tomorrow),
		})
	}
	return upcoming, nil
}

// PendingQueue returns the staff triage queue, from cache when warm.
func (s *AppointmentService) PendingQueue(ctx context.Context) ([]models.AppointmentDetail, error) {
	var cached []models.AppointmentDetail
	if s.cache != nil {
		if hit, _ := s.cache.Get(ctx, pendingQueueCacheKey, &cached); hit {
			return cached, nil
		}
	}

	appts, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending appointments")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, pendingQueueCacheKey, appts, 0); err != nil {
			s.logger.Warn("failed to cache pending queue", zap.Error(err))
		}
	}
	return appts, nil
}

// ListAll returns every appointment for staff management.
func (s *AppointmentService) ListAll(ctx context.Context) ([]models.AppointmentDetail, error) {
	appts, err := s.repo.ListAll(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []models.AppointmentDetail{}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list appointments")
	}
	return appts, nil
}

func (s *AppointmentService) invalidatePendingQueue(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, pendingQueueCacheKey); err != nil {
		s.logger.Warn("failed to invalidate pending queue cache", zap.Error(err))
	}
}

func (s *AppointmentService) today() time.Time {
	now := s.now().In(s.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
