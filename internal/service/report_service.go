package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/studentms/internal/gpa"
	"github.com/noah-isme/studentms/internal/models"
	"github.com/noah-isme/studentms/internal/report"
	appErrors "github.com/noah-isme/studentms/pkg/errors"
	"github.com/noah-isme/studentms/pkg/export"
	"github.com/noah-isme/studentms/pkg/storage"
)

// Report kinds and formats.
const (
	ReportKindRoster   = "roster"
	ReportKindStudents = "students"
	ReportKindGrades   = "grades"

	ReportFormatTXT = "txt"
	ReportFormatCSV = "csv"
	ReportFormatPDF = "pdf"
)

type reportStorage interface {
	Write(name string, fill func(w io.Writer) error) (int64, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type rosterSource interface {
	All(ctx context.Context) ([]models.Student, error)
}

type gradeSource interface {
	Records(ctx context.Context, studentID int64) (*models.Student, []gpa.Record, error)
}

// ReportServiceConfig holds download settings.
type ReportServiceConfig struct {
	APIPrefix string
}

// GradeReportRequest selects the grade report scope. Semester and Year must be given together.
type GradeReportRequest struct {
	Format   string `json:"format"`
	Semester string `json:"semester"`
	Year     int    `json:"year"`
}

// ReportFile describes a generated file and its signed download link.
type ReportFile struct {
	Kind      string    `json:"kind"`
	Format    string    `json:"format"`
	FileName  string    `json:"file_name"`
	Size      int64     `json:"size"`
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ReportDownload aggregates resolved download data.
type ReportDownload struct {
	File        *os.File
	Filename    string
	ContentType string
	ExpiresAt   time.Time
}

// ReportService renders reports into storage and resolves signed downloads.
type ReportService struct {
	students rosterSource
	grades   gradeSource
	storage  reportStorage
	signer   *storage.SignedURLSigner
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      ReportServiceConfig
	now      func() time.Time
}

// NewReportService constructs the report service. metrics may be nil.
func NewReportService(students rosterSource, grades gradeSource, store reportStorage, signer *storage.SignedURLSigner, metrics *MetricsService, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &ReportService{
		students: students,
		grades:   grades,
		storage:  store,
		signer:   signer,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// GenerateRoster writes the all-students text report.
func (s *ReportService) GenerateRoster(ctx context.Context) (*ReportFile, error) {
	students, err := s.students.All(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return s.store(ReportKindRoster, ReportFormatTXT, report.RosterFileName(now), func(w io.Writer) error {
		return report.RosterReport(w, students, now)
	})
}

// GenerateStudentsCSV writes the student CSV export.
func (s *ReportService) GenerateStudentsCSV(ctx context.Context) (*ReportFile, error) {
	students, err := s.students.All(ctx)
	if err != nil {
		return nil, err
	}
	return s.store(ReportKindStudents, ReportFormatCSV, report.StudentsCSVFileName(s.now()), func(w io.Writer) error {
		return report.StudentsCSV(w, students)
	})
}

// GenerateGradeReport writes a student's grade report for all semesters or a single one.
func (s *ReportService) GenerateGradeReport(ctx context.Context, studentID int64, req GradeReportRequest) (*ReportFile, error) {
	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format == "" {
		format = ReportFormatTXT
	}
	if format != ReportFormatTXT && format != ReportFormatCSV && format != ReportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be txt, csv or pdf")
	}
	if (req.Semester == "") != (req.Year == 0) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester and year must be given together")
	}
	if req.Semester != "" && !knownSemester(req.Semester) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester must be one of "+strings.Join(models.Semesters, ", "))
	}

	student, records, err := s.grades.Records(ctx, studentID)
	if err != nil {
		return nil, err
	}

	scope := ""
	if req.Semester != "" {
		records = gpa.FilterSemester(records, req.Semester, req.Year)
		if len(records) == 0 {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no enrollments for "+gpa.SemesterKey(req.Semester, req.Year))
		}
		scope = gpa.SemesterKey(req.Semester, req.Year)
	}

	now := s.now()
	name := report.GradeReportFileName(student.Code, scope, now, format)
	return s.store(ReportKindGrades, format, name, func(w io.Writer) error {
		switch format {
		case ReportFormatCSV:
			return s.csv.Write(w, report.GradeDataset(records))
		case ReportFormatPDF:
			payload, err := s.pdf.Render(report.TranscriptDocument(*student, gpa.Summarize(records), now))
			if err != nil {
				return err
			}
			_, err = w.Write(payload)
			return err
		default:
			if scope == "" {
				return report.GradeReport(w, *student, gpa.Summarize(records), now)
			}
			return report.SemesterGradeReport(w, *student, scope, records, gpa.CumulativeGPA(records), now)
		}
	})
}

// Open validates a download token and opens the referenced file.
func (s *ReportService) Open(token string) (*ReportDownload, error) {
	_, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrForbidden, err, "invalid or expired download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report file not found")
		}
		return nil, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to open report file")
	}
	return &ReportDownload{
		File:        file,
		Filename:    filepath.Base(relPath),
		ContentType: contentType(filepath.Ext(relPath)),
		ExpiresAt:   expiresAt,
	}, nil
}

// Cleanup removes generated files older than ttl.
func (s *ReportService) Cleanup(ttl time.Duration) ([]string, error) {
	removed, err := s.storage.CleanupOlderThan(ttl)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to clean report directory")
	}
	if len(removed) > 0 {
		s.logger.Info("removed stale reports", zap.Int("count", len(removed)))
	}
	return removed, nil
}

func (s *ReportService) store(kind, format, name string, fill func(w io.Writer) error) (*ReportFile, error) {
	size, err := s.storage.Write(name, fill)
	if err != nil {
		s.logger.Error("failed to write report", zap.String("kind", kind), zap.String("file", name), zap.Error(err))
		return nil, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to write "+kind+" report")
	}
	token, expiresAt, err := s.signer.Generate(uuid.NewString(), name)
	if err != nil {
		if delErr := s.storage.Delete(name); delErr != nil {
			s.logger.Warn("failed to remove unsigned report", zap.String("file", name), zap.Error(delErr))
		}
		return nil, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to sign download link")
	}
	s.metrics.RecordReport(kind, format)
	s.logger.Info("report generated", zap.String("kind", kind), zap.String("file", name), zap.Int64("size", size))
	return &ReportFile{
		Kind:      kind,
		Format:    format,
		FileName:  name,
		Size:      size,
		Token:     token,
		URL:       fmt.Sprintf("%s/reports/download/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token),
		ExpiresAt: expiresAt,
	}, nil
}

func contentType(ext string) string {
	switch strings.ToLower(ext) {
	case ".csv":
		return "text/csv"
	case ".pdf":
		return "application/pdf"
	default:
		return "text/plain; charset=utf-8"
	}
}

func knownSemester(label string) bool {
	for _, s := range models.Semesters {
		if s == label {
			return true
		}
	}
	return false
}
