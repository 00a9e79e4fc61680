package models

import "strings"

// StudentStatus is the lifecycle flag shown on the roster.
type StudentStatus string

const (
	StudentStatusActive   StudentStatus = "Active"
	StudentStatusInactive StudentStatus = "Inactive"
)

// Student code format: prefix followed by a zero-padded counter.
const (
	StudentCodePrefix = "ST"
	StudentCodeWidth  = 3
	FirstStudentCode  = "ST001"
)

// Student represents a learner registered in the institution.
type Student struct {
	ID             int64         `db:"student_id" json:"student_id"`
	Code           string        `db:"student_code" json:"student_code"`
	FullName       string        `db:"full_name" json:"full_name"`
	Email          string        `db:"email" json:"email"`
	Phone          *string       `db:"phone" json:"phone,omitempty"`
	DateOfBirth    *string       `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender         *string       `db:"gender" json:"gender,omitempty"`
	Address        *string       `db:"address" json:"address,omitempty"`
	EnrollmentDate string        `db:"enrollment_date" json:"enrollment_date"`
	Status         StudentStatus `db:"status" json:"status"`
	CourseID       *int64        `db:"course_id" json:"course_id,omitempty"`
}

// IsActive reports whether the student counts as active in statistics.
func (s Student) IsActive() bool {
	return strings.EqualFold(string(s.Status), string(StudentStatusActive))
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Status    StudentStatus
	CourseID  *int64
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Deref returns the pointed-to string or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StringPtr returns nil for blank input so optional columns stay NULL.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
