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
	"golang.org/x/crypto/bcrypt"

	"github.com/campus-clinic/clinic-api/internal/models"
	appErrors "github.com/campus-clinic/clinic-api/pkg/errors"
)

type mockAuthRepo struct {
	user            *models.User
	findErr         error
	state           models.OnboardingState
	stateErr        error
	updatedHash     string
	updatePasswdErr error
	seeded          *models.User
}

func (m *mockAuthRepo) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.user, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.user, nil
}

func (m *mockAuthRepo) FindOnboardingState(ctx context.Context, userID string) (models.OnboardingState, error) {
	if m.stateErr != nil {
		return models.OnboardingState{}, m.stateErr
	}
	return m.state, nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if m.updatePasswdErr != nil {
		return m.updatePasswdErr
	}
	m.updatedHash = passwordHash
	return nil
}

func (m *mockAuthRepo) EnsureSeedStaff(ctx context.Context, user *models.User) error {
	m.seeded = user
	return nil
}

func studentNumber(n string) *string { return &n }

func newAuthService(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		TokenSecret:     "secret",
		TokenExpiry:     time.Hour,
		Issuer:          "campus-clinic-api",
		DefaultPassword: "Ump@2025",
	})
}

func TestLoginFreshStudentPointsAtPasswordChange(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("Ump@2025"), bcrypt.DefaultCost)
	repo := &mockAuthRepo{
		user: &models.User{
			ID:            "u1",
			Role:          models.RoleStudent,
			StudentNumber: studentNumber("202412345"),
			Email:         "202412345@ump.ac.za",
			PasswordHash:  string(hash),
		},
		state: models.OnboardingState{PasswordChanged: false, ProfileComplete: false},
	}
	svc := newAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Identifier: "202412345", Password: "Ump@2025"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.False(t, res.PasswordChanged)
	assert.Equal(t, "/auth/change-password", res.Next)
}

func TestLoginActiveStudentPointsAtDashboard(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("myOwnPass1"), bcrypt.DefaultCost)
	repo := &mockAuthRepo{
		user: &models.User{
			ID:            "u1",
			Role:          models.RoleStudent,
			StudentNumber: studentNumber("202412345"),
			Email:         "202412345@ump.ac.za",
			PasswordHash:  string(hash),
		},
		state: models.OnboardingState{PasswordChanged: true, ProfileComplete: true},
	}
	svc := newAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Identifier: "202412345@ump.ac.za", Password: "myOwnPass1"})
	require.NoError(t, err)
	assert.Equal(t, "/student/dashboard", res.Next)
	assert.Equal(t, "202412345", res.User.StudentNumber)
}

func TestLoginUnknownIdentifier(t *testing.T) {
	repo := &mockAuthRepo{findErr: sql.ErrNoRows}
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Identifier: "nobody", Password: "whatever"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("rightPass1"), bcrypt.DefaultCost)
	repo := &mockAuthRepo{user: &models.User{ID: "u1", Role: models.RoleStudent, PasswordHash: string(hash)}}
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Identifier: "u1", Password: "wrongPass1"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestChangePasswordRejectsDefault(t *testing.T) {
	repo := &mockAuthRepo{user: &models.User{ID: "u1"}}
	svc := newAuthService(repo)

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{
		NewPassword:     "Ump@2025",
		ConfirmPassword: "Ump@2025",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, repo.updatedHash)
}

func TestChangePasswordRejectsMismatch(t *testing.T) {
	repo := &mockAuthRepo{user: &models.User{ID: "u1"}}
	svc := newAuthService(repo)

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{
		NewPassword:     "newPassword1",
		ConfirmPassword: "different1",
	})
	require.Error(t, err)
}

func TestChangePasswordStoresHash(t *testing.T) {
	repo := &mockAuthRepo{user: &models.User{ID: "u1"}}
	svc := newAuthService(repo)

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{
		NewPassword:     "newPassword1",
		ConfirmPassword: "newPassword1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, repo.updatedHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.updatedHash), []byte("newPassword1")))
}

func TestMeReflectsOnboardingState(t *testing.T) {
	repo := &mockAuthRepo{
		user: &models.User{
			ID:            "u1",
			Role:          models.RoleStudent,
			StudentNumber: studentNumber("202412345"),
			Email:         "202412345@ump.ac.za",
		},
		state: models.OnboardingState{PasswordChanged: true},
	}
	svc := newAuthService(repo)

	res, err := svc.Me(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", res.User.ID)
	assert.Equal(t, "202412345", res.User.StudentNumber)
	assert.True(t, res.PasswordChanged)
	assert.False(t, res.ProfileComplete)
	assert.Equal(t, "/student/profile", res.Next)
}

func TestMeStaffSkipsOnboardingLookup(t *testing.T) {
	repo := &mockAuthRepo{
		user:     &models.User{ID: "c1", Role: models.RoleStaff, Email: "admin@ump.ac.za"},
		stateErr: errors.New("must not be called"),
	}
	svc := newAuthService(repo)

	res, err := svc.Me(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, res.PasswordChanged)
	assert.Equal(t, "/staff/dashboard", res.Next)
}

func TestMeDeletedAccount(t *testing.T) {
	repo := &mockAuthRepo{findErr: sql.ErrNoRows}
	svc := newAuthService(repo)

	_, err := svc.Me(context.Background(), "gone")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestValidateTokenRoundTrip(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("myOwnPass1"), bcrypt.DefaultCost)
	repo := &mockAuthRepo{
		user: &models.User{
			ID:            "u1",
			Role:          models.RoleStudent,
			StudentNumber: studentNumber("202412345"),
			PasswordHash:  string(hash),
		},
		state: models.OnboardingState{PasswordChanged: true, ProfileComplete: true},
	}
	svc := newAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Identifier: "202412345", Password: "myOwnPass1"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
	assert.Equal(t, "202412345", claims.StudentNumber)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newAuthService(&mockAuthRepo{})
	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
}

func TestSeedStaffHashesPassword(t *testing.T) {
	repo := &mockAuthRepo{}
	svc := newAuthService(repo)

	err := svc.SeedStaff(context.Background(), "admin@ump.ac.za", "admin123", "Clinic", "Admin")
	require.NoError(t, err)
	require.NotNil(t, repo.seeded)
	assert.Equal(t, models.RoleStaff, repo.seeded.Role)
	assert.True(t, repo.seeded.PasswordChanged)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.seeded.PasswordHash), []byte("admin123")))
}
