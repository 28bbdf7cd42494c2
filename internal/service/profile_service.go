package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campus-clinic/clinic-api/internal/models"
	appErrors "github.com/campus-clinic/clinic-api/pkg/errors"
)

type profileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Profile, error)
	Replace(ctx context.Context, profile *models.Profile) error
}

type profileUserRepository interface {
	FindStudentByID(ctx context.Context, id string) (*models.User, error)
	ListStudents(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
}

// ProfileService owns student profiles and the staff roster view.
type ProfileService struct {
	profiles    profileRepository
	users       profileUserRepository
	validator   *validator.Validate
	logger      *zap.Logger
	emailDomain string
}

// NewProfileService constructs a ProfileService.
func NewProfileService(profiles profileRepository, users profileUserRepository, validate *validator.Validate, logger *zap.Logger, emailDomain string) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ProfileService{profiles: profiles, users: users, validator: validate, logger: logger, emailDomain: emailDomain}
}

// Complete replaces the student's profile wholesale and marks onboarding's
// second step done. The contact email is derived from the student number,
// never taken from the payload.
func (s *ProfileService) Complete(ctx context.Context, userID string, req models.CompleteProfileRequest) (*models.Profile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	user, err := s.users.FindStudentByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	var email string
	if user.StudentNumber != nil {
		email = fmt.Sprintf("%s@%s", *user.StudentNumber, s.emailDomain)
	} else {
		email = user.Email
	}

	profile := &models.Profile{
		UserID:          userID,
		IDNumber:        ptr(strings.TrimSpace(req.IDNumber)),
		DateOfBirth:     ptr(req.DateOfBirth),
		Citizenship:     ptr(strings.TrimSpace(req.Citizenship)),
		Gender:          ptr(req.Gender),
		MaritalStatus:   ptr(req.MaritalStatus),
		CellphoneNumber: ptr(strings.TrimSpace(req.CellphoneNumber)),
		Email:           ptr(email),
		ProfileComplete: true,
	}
	if disability := strings.TrimSpace(req.Disability); disability != "" {
		profile.Disability = ptr(disability)
	}

	if err := s.profiles.Replace(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save profile")
	}

	s.logger.Info("profile completed", zap.String("user_id", userID))
	return profile, nil
}

// Get returns the student's own profile.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return profile, nil
}

// StudentDetail joins account and profile for the staff view. A student
// whose profile stub is missing still resolves, with an empty profile.
func (s *ProfileService) StudentDetail(ctx context.Context, studentID string) (*models.StudentDetail, error) {
	user, err := s.users.FindStudentByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	detail := &models.StudentDetail{User: *user}
	profile, err := s.profiles.FindByUserID(ctx, studentID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
		}
		detail.Profile = models.Profile{UserID: studentID}
		return detail, nil
	}
	detail.Profile = *profile
	return detail, nil
}

// ListStudents returns the paginated roster for staff.
func (s *ProfileService) ListStudents(ctx context.Context, filter models.UserFilter) ([]models.User, models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}

	users, total, err := s.users.ListStudents(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	return users, models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

func ptr(v string) *string {
	return &v
}
