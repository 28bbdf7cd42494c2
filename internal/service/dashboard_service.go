package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/campus-clinic/clinic-api/internal/models"
)

// DashboardService composes the landing views out of the appointment and
// record services.
type DashboardService struct {
	appointments *AppointmentService
	records      *RecordService
	logger       *zap.Logger
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(appointments *AppointmentService, records *RecordService, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{appointments: appointments, records: records, logger: logger}
}

// Student assembles the student landing view: upcoming bookings, the last
// two visits and the prescriptions still running.
func (s *DashboardService) Student(ctx context.Context, studentID string) (*models.StudentDashboard, error) {
	upcoming, err := s.appointments.UpcomingForStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	recent, err := s.records.Recent(ctx, studentID, 2)
	if err != nil {
		return nil, err
	}

	active, err := s.records.ActivePrescriptions(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return &models.StudentDashboard{
		Appointments:        upcoming,
		RecentVisits:        recent,
		ActivePrescriptions: active,
	}, nil
}

// Staff assembles the staff landing view around the pending triage queue.
func (s *DashboardService) Staff(ctx context.Context) (*models.StaffDashboard, error) {
	pending, err := s.appointments.PendingQueue(ctx)
	if err != nil {
		return nil, err
	}
	return &models.StaffDashboard{PendingAppointments: pending}, nil
}
