package models

// Semester labels used by the registrar.
const (
	SemesterOne    = "Semester 1"
	SemesterTwo    = "Semester 2"
	SemesterSummer = "Summer"
)

// Semesters lists the accepted semester labels.
var Semesters = []string{SemesterOne, SemesterTwo, SemesterSummer}

// Enrollment registers a student into a subject for one semester of a year.
type Enrollment struct {
	ID        int64  `db:"enrollment_id" json:"enrollment_id"`
	StudentID int64  `db:"student_id" json:"student_id"`
	SubjectID int64  `db:"subject_id" json:"subject_id"`
	Semester  string `db:"semester" json:"semester"`
	Year      int    `db:"enrollment_year" json:"enrollment_year"`
	Grade     *Grade `db:"grade" json:"grade,omitempty"`
}

// EnrollmentDetail enriches Enrollment with the subject it points to.
type EnrollmentDetail struct {
	Enrollment
	SubjectCode    string `db:"subject_code" json:"subject_code"`
	SubjectName    string `db:"subject_name" json:"subject_name"`
	SubjectSection string `db:"subject_section" json:"subject_section"`
	Credits        int    `db:"credits" json:"credits"`
}

// GradeValue returns the stored grade or "" when ungraded.
func (e Enrollment) GradeValue() string {
	if e.Grade == nil {
		return ""
	}
	return string(*e.Grade)
}
