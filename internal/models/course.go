package models

// Course groups subjects into a programme.
type Course struct {
	ID          int64   `db:"course_id" json:"course_id"`
	Code        string  `db:"course_code" json:"course_code"`
	Name        string  `db:"course_name" json:"course_name"`
	Credits     *int    `db:"credits" json:"credits,omitempty"`
	Description *string `db:"description" json:"description,omitempty"`
}
