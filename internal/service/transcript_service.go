package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/studentms/internal/gpa"
	"github.com/noah-isme/studentms/internal/models"
)

type enrollmentLister interface {
	ListByStudent(ctx context.Context, studentID int64) ([]models.EnrollmentDetail, error)
}

// StudentTranscript is a student's CGPA and per-semester breakdown.
type StudentTranscript struct {
	Student     models.Student `json:"student"`
	CGPADisplay string         `json:"cgpa_display"`
	gpa.Transcript
	// FromCache is set when the value was served from the transcript cache.
	FromCache bool `json:"-"`
}

// TranscriptService aggregates enrollments into transcripts and caches the result.
type TranscriptService struct {
	students    studentReader
	enrollments enrollmentLister
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewTranscriptService constructs the transcript service. cache and metrics may be nil.
func NewTranscriptService(students studentReader, enrollments enrollmentLister, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *TranscriptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptService{students: students, enrollments: enrollments, cache: cache, metrics: metrics, logger: logger}
}

// Get returns the transcript of a student, served from cache when available.
func (s *TranscriptService) Get(ctx context.Context, studentID int64) (*StudentTranscript, error) {
	var cached StudentTranscript
	if s.cache.Get(ctx, TranscriptCacheKey(studentID), &cached) {
		cached.FromCache = true
		return &cached, nil
	}

	result, err := s.build(ctx, studentID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, TranscriptCacheKey(studentID), result, 0)
	return result, nil
}

// Records returns the raw grade records of a student together with the student.
func (s *TranscriptService) Records(ctx context.Context, studentID int64) (*models.Student, []gpa.Record, error) {
	done := s.metrics.TimeDB("student_by_id")
	student, err := s.students.FindByID(ctx, studentID)
	done()
	if err != nil {
		return nil, nil, storageError(err, "student", "load student")
	}

	done = s.metrics.TimeDB("enrollments_by_student")
	rows, err := s.enrollments.ListByStudent(ctx, studentID)
	done()
	if err != nil {
		s.logger.Error("failed to load enrollments", zap.Int64("student_id", studentID), zap.Error(err))
		return nil, nil, storageError(err, "enrollment", "list enrollments")
	}
	return student, gpa.FromEnrollments(rows), nil
}

func (s *TranscriptService) build(ctx context.Context, studentID int64) (*StudentTranscript, error) {
	student, records, err := s.Records(ctx, studentID)
	if err != nil {
		return nil, err
	}
	transcript := gpa.Summarize(records)
	if transcript.Semesters == nil {
		transcript.Semesters = []gpa.SemesterSummary{}
	}
	return &StudentTranscript{
		Student:     *student,
		CGPADisplay: gpa.Display(transcript.CGPA, transcript.GradedCredits),
		Transcript:  transcript,
	}, nil
}
