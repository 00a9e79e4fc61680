package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/studentms/internal/models"
	appErrors "github.com/noah-isme/studentms/pkg/errors"
)

type fakeStudentRepo struct {
	students map[int64]models.Student
	nextID   int64
	nextCode string
	codeErr  error
	err      error
}

func newFakeStudentRepo(students ...models.Student) *fakeStudentRepo {
	repo := &fakeStudentRepo{students: make(map[int64]models.Student), nextID: 1, nextCode: models.FirstStudentCode}
	for _, s := range students {
		repo.students[s.ID] = s
		if s.ID >= repo.nextID {
			repo.nextID = s.ID + 1
		}
	}
	return repo
}

func (f *fakeStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	all, _ := f.ListAll(ctx)
	return all, len(all), nil
}

func (f *fakeStudentRepo) ListAll(ctx context.Context) ([]models.Student, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Student, 0, len(f.students))
	for _, s := range f.students {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (f *fakeStudentRepo) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.students[id]
	if !ok {
		return nil, fmt.Errorf("find student: %w", sql.ErrNoRows)
	}
	return &s, nil
}

func (f *fakeStudentRepo) FindByCode(ctx context.Context, code string) (*models.Student, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, s := range f.students {
		if s.Code == code {
			found := s
			return &found, nil
		}
	}
	return nil, fmt.Errorf("find student: %w", sql.ErrNoRows)
}

func (f *fakeStudentRepo) Authenticate(ctx context.Context, email, code string) (*models.Student, error) {
	for _, s := range f.students {
		if strings.EqualFold(s.Email, email) && s.Code == code {
			found := s
			return &found, nil
		}
	}
	return nil, fmt.Errorf("authenticate student: %w", sql.ErrNoRows)
}

func (f *fakeStudentRepo) ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	for id, s := range f.students {
		if strings.EqualFold(s.Email, email) && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStudentRepo) NextStudentCode(ctx context.Context) (string, error) {
	if f.codeErr != nil {
		return "", f.codeErr
	}
	return f.nextCode, nil
}

func (f *fakeStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if f.err != nil {
		return f.err
	}
	student.ID = f.nextID
	f.nextID++
	f.students[student.ID] = *student
	return nil
}

func (f *fakeStudentRepo) Update(ctx context.Context, student *models.Student) error {
	if _, ok := f.students[student.ID]; !ok {
		return fmt.Errorf("update student: %w", sql.ErrNoRows)
	}
	f.students[student.ID] = *student
	return nil
}

func (f *fakeStudentRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.students[id]; !ok {
		return fmt.Errorf("delete student: %w", sql.ErrNoRows)
	}
	delete(f.students, id)
	return nil
}

type fakeSubjectRepo struct {
	subjects map[int64]models.Subject
	nextID   int64
}

func newFakeSubjectRepo(subjects ...models.Subject) *fakeSubjectRepo {
	repo := &fakeSubjectRepo{subjects: make(map[int64]models.Subject), nextID: 1}
	for _, s := range subjects {
		repo.subjects[s.ID] = s
		if s.ID >= repo.nextID {
			repo.nextID = s.ID + 1
		}
	}
	return repo
}

func (f *fakeSubjectRepo) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, error) {
	out := make([]models.Subject, 0, len(f.subjects))
	for _, s := range f.subjects {
		if filter.CourseID != nil && (s.CourseID == nil || *s.CourseID != *filter.CourseID) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSubjectRepo) FindByID(ctx context.Context, id int64) (*models.Subject, error) {
	s, ok := f.subjects[id]
	if !ok {
		return nil, fmt.Errorf("find subject: %w", sql.ErrNoRows)
	}
	return &s, nil
}

func (f *fakeSubjectRepo) ExistsByCodeSection(ctx context.Context, code, section string, excludeID int64) (bool, error) {
	for id, s := range f.subjects {
		if s.Code == code && s.Section == section && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSubjectRepo) Create(ctx context.Context, subject *models.Subject) error {
	subject.ID = f.nextID
	f.nextID++
	f.subjects[subject.ID] = *subject
	return nil
}

func (f *fakeSubjectRepo) Update(ctx context.Context, subject *models.Subject) error {
	f.subjects[subject.ID] = *subject
	return nil
}

func (f *fakeSubjectRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.subjects[id]; !ok {
		return fmt.Errorf("delete subject: %w", sql.ErrNoRows)
	}
	delete(f.subjects, id)
	return nil
}

type fakeEnrollmentRepo struct {
	enrollments map[int64]models.Enrollment
	subjects    *fakeSubjectRepo
	nextID      int64
	listCalls   int
	err         error
}

func newFakeEnrollmentRepo(subjects *fakeSubjectRepo) *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{enrollments: make(map[int64]models.Enrollment), subjects: subjects, nextID: 1}
}

func (f *fakeEnrollmentRepo) ListByStudent(ctx context.Context, studentID int64) ([]models.EnrollmentDetail, error) {
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	var out []models.EnrollmentDetail
	for _, e := range f.enrollments {
		if e.StudentID != studentID {
			continue
		}
		subject := f.subjects.subjects[e.SubjectID]
		out = append(out, models.EnrollmentDetail{
			Enrollment:     e,
			SubjectCode:    subject.Code,
			SubjectName:    subject.Name,
			SubjectSection: subject.Section,
			Credits:        subject.Credits,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeEnrollmentRepo) FindByID(ctx context.Context, id int64) (*models.Enrollment, error) {
	e, ok := f.enrollments[id]
	if !ok {
		return nil, fmt.Errorf("find enrollment: %w", sql.ErrNoRows)
	}
	return &e, nil
}

func (f *fakeEnrollmentRepo) IsEnrolled(ctx context.Context, studentID, subjectID int64, semester string, year int) (bool, error) {
	for _, e := range f.enrollments {
		if e.StudentID == studentID && e.SubjectID == subjectID && e.Semester == semester && e.Year == year {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	enrollment.ID = f.nextID
	f.nextID++
	f.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (f *fakeEnrollmentRepo) UpdateGrade(ctx context.Context, id int64, grade *models.Grade) error {
	e, ok := f.enrollments[id]
	if !ok {
		return fmt.Errorf("update grade: %w", sql.ErrNoRows)
	}
	e.Grade = grade
	f.enrollments[id] = e
	return nil
}

func (f *fakeEnrollmentRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.enrollments[id]; !ok {
		return fmt.Errorf("delete enrollment: %w", sql.ErrNoRows)
	}
	delete(f.enrollments, id)
	return nil
}

// memoryCache stores values by reference instead of encoding them.
type memoryCache struct {
	entries map[string]interface{}
	deleted []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]interface{})}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	value, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	switch d := dest.(type) {
	case *StudentTranscript:
		*d = *(value.(*StudentTranscript))
	default:
		return fmt.Errorf("unsupported destination %T", dest)
	}
	return nil
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.entries[key] = value
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.entries, k)
		m.deleted = append(m.deleted, k)
	}
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
			m.deleted = append(m.deleted, k)
		}
	}
	return nil
}

func gradePtr(g models.Grade) *models.Grade { return &g }

func int64Ptr(v int64) *int64 { return &v }
