package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-clinic/clinic-api/internal/service"
	appErrors "github.com/campus-clinic/clinic-api/pkg/errors"
	"github.com/campus-clinic/clinic-api/pkg/response"
)

// DashboardHandler wires the landing views.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Student godoc
// @Summary Student dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/dashboard [get]
func (h *DashboardHandler) Student(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	dashboard, err := h.service.Student(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dashboard, nil)
}

// Staff godoc
// @Summary Staff dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /staff/dashboard [get]
func (h *DashboardHandler) Staff(c *gin.Context) {
	dashboard, err := h.service.Staff(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dashboard, nil)
}
