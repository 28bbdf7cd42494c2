package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-clinic/clinic-api/internal/models"
)

type stubStateLoader struct {
	state models.OnboardingState
	err   error
	calls int
}

func (s *stubStateLoader) FindOnboardingState(ctx context.Context, userID string) (models.OnboardingState, error) {
	s.calls++
	if s.err != nil {
		return models.OnboardingState{}, s.err
	}
	return s.state, nil
}

func gateRouter(loader *stubStateLoader, required models.OnboardingStage, claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
	}, RequireStage(loader, required, zap.NewNop()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func studentClaims() *models.JWTClaims {
	return &models.JWTClaims{
		UserID:           "u1",
		Role:             models.RoleStudent,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"},
	}
}

func TestGateBlocksBeforePasswordChange(t *testing.T) {
	loader := &stubStateLoader{state: models.OnboardingState{}}
	r := gateRouter(loader, models.StageActive, studentClaims())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "PASSWORD_CHANGE_REQUIRED")
	assert.Contains(t, w.Body.String(), "/auth/change-password")
}

func TestGateBlocksBeforeProfileComplete(t *testing.T) {
	loader := &stubStateLoader{state: models.OnboardingState{PasswordChanged: true}}
	r := gateRouter(loader, models.StageActive, studentClaims())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "PROFILE_INCOMPLETE")
	assert.Contains(t, w.Body.String(), "/student/profile")
}

func TestGateAllowsProfileStepAfterPasswordChange(t *testing.T) {
	loader := &stubStateLoader{state: models.OnboardingState{PasswordChanged: true}}
	r := gateRouter(loader, models.StageProfilePending, studentClaims())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGateAllowsActiveStudent(t *testing.T) {
	loader := &stubStateLoader{state: models.OnboardingState{PasswordChanged: true, ProfileComplete: true}}
	r := gateRouter(loader, models.StageActive, studentClaims())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, loader.calls)
}

func TestGateIgnoresStaff(t *testing.T) {
	loader := &stubStateLoader{}
	r := gateRouter(loader, models.StageActive, &models.JWTClaims{UserID: "c1", Role: models.RoleStaff})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, loader.calls)
}

func TestGateRequiresClaims(t *testing.T) {
	loader := &stubStateLoader{}
	r := gateRouter(loader, models.StageActive, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	require.Equal(t, http.StatusUnauthorized, w.Code)
}
