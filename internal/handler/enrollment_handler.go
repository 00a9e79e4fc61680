package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studentms/internal/service"
	"github.com/noah-isme/studentms/pkg/response"
)

// EnrollmentHandler exposes enrollment and grading endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// ListByStudent godoc
// @Summary List a student's enrollments with GPA
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/enrollments [get]
func (h *EnrollmentHandler) ListByStudent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	result, err := h.enrollments.ListByStudent(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Enroll godoc
// @Summary Enroll a student into a subject
// @Tags Enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.EnrollRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req service.EnrollRequest
	if !bindJSON(c, &req) {
		return
	}
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// UpdateGrade godoc
// @Summary Set or clear an enrollment grade
// @Tags Enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Enrollment ID"
// @Param payload body service.UpdateGradeRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/grade [put]
func (h *EnrollmentHandler) UpdateGrade(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req service.UpdateGradeRequest
	if !bindJSON(c, &req) {
		return
	}
	enrollment, err := h.enrollments.UpdateGrade(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Delete godoc
// @Summary Delete enrollment
// @Tags Enrollments
// @Security BearerAuth
// @Param id path int true "Enrollment ID"
// @Success 204
// @Router /enrollments/{id} [delete]
func (h *EnrollmentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.enrollments.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
