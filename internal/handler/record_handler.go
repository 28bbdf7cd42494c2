package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-clinic/clinic-api/internal/models"
	"github.com/campus-clinic/clinic-api/internal/service"
	appErrors "github.com/campus-clinic/clinic-api/pkg/errors"
	"github.com/campus-clinic/clinic-api/pkg/response"
)

// RecordHandler wires clinical record endpoints.
type RecordHandler struct {
	service *service.RecordService
}

// NewRecordHandler creates a new handler.
func NewRecordHandler(svc *service.RecordService) *RecordHandler {
	return &RecordHandler{service: svc}
}

// RecordVisit godoc
// @Summary Record a clinical visit
// @Description Write a consultation with an optional prescription for a student
// @Tags Records
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body models.RecordVisitRequest true "Visit payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /staff/students/{id}/visits [post]
func (h *RecordHandler) RecordVisit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.RecordVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid visit payload"))
		return
	}

	visit, err := h.service.RecordVisit(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, visit)
}

// StudentHistory godoc
// @Summary Student visit history
// @Tags Records
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /staff/students/{id}/visits [get]
func (h *RecordHandler) StudentHistory(c *gin.Context) {
	visits, err := h.service.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, visits, nil)
}

// OwnHistory godoc
// @Summary Own visit history
// @Tags Records
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/visits [get]
func (h *RecordHandler) OwnHistory(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	visits, err := h.service.History(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, visits, nil)
}

// OwnPrescriptions godoc
// @Summary Own active prescriptions
// @Tags Records
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/prescriptions [get]
func (h *RecordHandler) OwnPrescriptions(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	active, err := h.service.ActivePrescriptions(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, active, nil)
}
