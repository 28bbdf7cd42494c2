package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campus-clinic/clinic-api/internal/models"
	"github.com/campus-clinic/clinic-api/internal/service"
	"github.com/campus-clinic/clinic-api/pkg/response"
)

// StudentHandler wires the staff roster views and downloads.
type StudentHandler struct {
	profiles *service.ProfileService
	exports  *service.ExportService
}

// NewStudentHandler creates a new handler.
func NewStudentHandler(profiles *service.ProfileService, exports *service.ExportService) *StudentHandler {
	return &StudentHandler{profiles: profiles, exports: exports}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param search query string false "Filter by name, surname or student number"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /staff/students [get]
func (h *StudentHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	filter := models.UserFilter{
		Search:   c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	}

	students, pagination, err := h.profiles.ListStudents(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, students, &pagination)
}

// Detail godoc
// @Summary Student detail
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /staff/students/{id} [get]
func (h *StudentHandler) Detail(c *gin.Context) {
	detail, err := h.profiles.StudentDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, detail, nil)
}

// ExportCSV godoc
// @Summary Download the student roster as CSV
// @Tags Students
// @Produce text/csv
// @Success 200 {file} file
// @Router /staff/students/export [get]
func (h *StudentHandler) ExportCSV(c *gin.Context) {
	out, err := h.exports.StudentsCSV(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="students.csv"`)
	c.Data(http.StatusOK, "text/csv", out)
}

// ExportHistoryPDF godoc
// @Summary Download a student's visit history as PDF
// @Tags Students
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /staff/students/{id}/visits/export [get]
func (h *StudentHandler) ExportHistoryPDF(c *gin.Context) {
	studentID := c.Param("id")
	out, err := h.exports.HistoryPDF(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="visit-history-%s.pdf"`, studentID))
	c.Data(http.StatusOK, "application/pdf", out)
}
