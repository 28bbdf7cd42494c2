package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-clinic/clinic-api/internal/models"
	"github.com/campus-clinic/clinic-api/internal/service"
	appErrors "github.com/campus-clinic/clinic-api/pkg/errors"
	"github.com/campus-clinic/clinic-api/pkg/response"
)

// AppointmentHandler wires appointment endpoints for both roles.
type AppointmentHandler struct {
	service *service.AppointmentService
}

// NewAppointmentHandler creates a new handler.
func NewAppointmentHandler(svc *service.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{service: svc}
}

// Book godoc
// @Summary Book an appointment
// @Description Claim a clinic slot for the current student
// @Tags Appointments
// @Accept json
// @Produce json
// @Param payload body models.BookAppointmentRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /student/appointments [post]
func (h *AppointmentHandler) Book(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid booking payload"))
		return
	}

	appt, err := h.service.Book(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, appt)
}

// Upcoming godoc
// @Summary List own upcoming appointments
// @Tags Appointments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/appointments [get]
func (h *AppointmentHandler) Upcoming(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	appts, err := h.service.UpcomingForStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, appts, nil)
}

// Cancel godoc
// @Summary Cancel own appointment
// @Tags Appointments
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student/appointments/{id} [delete]
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Cancel(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ListAll godoc
// @Summary List all appointments
// @Tags Appointments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /staff/appointments [get]
func (h *AppointmentHandler) ListAll(c *gin.Context) {
	appts, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, appts, nil)
}

// SetStatus godoc
// @Summary Update appointment status
// @Tags Appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param payload body models.SetAppointmentStatusRequest true "Status payload"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /staff/appointments/{id}/status [put]
func (h *AppointmentHandler) SetStatus(c *gin.Context) {
	var req models.SetAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	if err := h.service.SetStatus(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
