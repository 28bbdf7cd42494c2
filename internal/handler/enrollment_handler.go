package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-clinic/clinic-api/internal/models"
	"github.com/campus-clinic/clinic-api/internal/service"
	appErrors "github.com/campus-clinic/clinic-api/pkg/errors"
	"github.com/campus-clinic/clinic-api/pkg/response"
)

// EnrollmentHandler wires student account creation endpoints.
type EnrollmentHandler struct {
	service *service.EnrollmentService
}

// NewEnrollmentHandler creates a new handler.
func NewEnrollmentHandler(svc *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc}
}

// Import godoc
// @Summary Bulk import students
// @Description Create student accounts from an uploaded xlsx workbook
// @Tags Enrollment
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Workbook with student_number, name, surname, id_number columns"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /staff/students/import [post]
func (h *EnrollmentHandler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file upload is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to open upload"))
		return
	}
	defer file.Close()

	rows, err := h.service.ParseWorkbook(file)
	if err != nil {
		response.Error(c, err)
		return
	}

	report, err := h.service.Enroll(c.Request.Context(), rows)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, report, nil)
}

// AddStudent godoc
// @Summary Add a single student
// @Tags Enrollment
// @Accept json
// @Produce json
// @Param payload body models.AddStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /staff/students [post]
func (h *EnrollmentHandler) AddStudent(c *gin.Context) {
	var req models.AddStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}

	userID, err := h.service.AddStudent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{"id": userID})
}
