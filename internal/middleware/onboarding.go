package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campus-clinic/clinic-api/internal/models"
	appErrors "github.com/campus-clinic/clinic-api/pkg/errors"
	"github.com/campus-clinic/clinic-api/pkg/response"
)

// OnboardingStateLoader resolves the account's onboarding flags.
type OnboardingStateLoader interface {
	FindOnboardingState(ctx context.Context, userID string) (models.OnboardingState, error)
}

// RequireStage gates student routes behind onboarding progress. The state is
// read fresh on every request so a finished step takes effect immediately,
// and a stale token can never skip a step. Staff accounts pass through.
func RequireStage(loader OnboardingStateLoader, required models.OnboardingStage, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if claims.Role != models.RoleStudent {
			c.Next()
			return
		}

		state, err := loader.FindOnboardingState(c.Request.Context(), claims.UserID)
		if err != nil {
			logger.Error("failed to load onboarding state", zap.String("user_id", claims.UserID), zap.Error(err))
			response.Error(c, appErrors.ErrInternal)
			c.Abort()
			return
		}

		stage := state.Stage()
		if stage >= required {
			c.Next()
			return
		}

		switch stage {
		case models.StagePasswordPending:
			response.ErrorWithMeta(c, appErrors.ErrPasswordChange, map[string]interface{}{
				"redirect_to": "/auth/change-password",
			})
		default:
			response.ErrorWithMeta(c, appErrors.ErrProfileIncomplete, map[string]interface{}{
				"redirect_to": "/student/profile",
			})
		}
		c.Abort()
	}
}
