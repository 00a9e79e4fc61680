package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/studentms/internal/service"
	appErrors "github.com/noah-isme/studentms/pkg/errors"
	"github.com/noah-isme/studentms/pkg/response"
)

// ReportHandler exposes report generation and signed downloads.
type ReportHandler struct {
	reports *service.ReportService
	logger  *zap.Logger
}

// NewReportHandler constructs handler.
func NewReportHandler(reports *service.ReportService, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{reports: reports, logger: logger}
}

// Roster godoc
// @Summary Generate the all-students text report
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /reports/roster [post]
func (h *ReportHandler) Roster(c *gin.Context) {
	file, err := h.reports.GenerateRoster(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, file)
}

// StudentsCSV godoc
// @Summary Generate the student CSV export
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /reports/students.csv [post]
func (h *ReportHandler) StudentsCSV(c *gin.Context) {
	file, err := h.reports.GenerateStudentsCSV(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, file)
}

// GradeReport godoc
// @Summary Generate a student's grade report
// @Description Without semester and year the report covers every semester.
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param format query string false "txt, csv or pdf"
// @Param semester query string false "Semester 1, Semester 2 or Summer"
// @Param year query int false "Enrollment year"
// @Success 201 {object} response.Envelope
// @Router /students/{id}/grade-report [post]
func (h *ReportHandler) GradeReport(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	req := service.GradeReportRequest{
		Format:   c.Query("format"),
		Semester: strings.TrimSpace(c.Query("semester")),
	}
	if raw := strings.TrimSpace(c.Query("year")); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year must be numeric"))
			return
		}
		req.Year = year
	}
	file, err := h.reports.GenerateGradeReport(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, file)
}

// Download godoc
// @Summary Download a generated report
// @Tags Reports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /reports/download/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	download, err := h.reports.Open(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer func() {
		if cerr := download.File.Close(); cerr != nil {
			h.logger.Warn("failed to close report file", zap.Error(cerr))
		}
	}()
	c.Header("Expires", download.ExpiresAt.UTC().Format(http.TimeFormat))
	size := int64(-1)
	if info, err := download.File.Stat(); err == nil {
		size = info.Size()
	}
	response.Attachment(c, download.Filename, download.ContentType, size, download.File)
}
