package models

// Subject is a gradable catalog entry. Code and section are unique together.
type Subject struct {
	ID          int64   `db:"subject_id" json:"subject_id"`
	Code        string  `db:"subject_code" json:"subject_code"`
	Name        string  `db:"subject_name" json:"subject_name"`
	Section     string  `db:"subject_section" json:"subject_section"`
	Credits     int     `db:"credits" json:"credits"`
	Description *string `db:"description" json:"description,omitempty"`
	CourseID    *int64  `db:"course_id" json:"course_id,omitempty"`
}

// SubjectFilter narrows subject listings.
type SubjectFilter struct {
	CourseID *int64
	Search   string
}
