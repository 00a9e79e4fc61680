package models

import "strings"

// Grade is a letter grade drawn from the institution's fixed scale.
type Grade string

// Grade scale, highest first, plus the ungraded sentinel.
const (
	GradeAPlus    Grade = "A+"
	GradeA        Grade = "A"
	GradeAMinus   Grade = "A-"
	GradeBPlus    Grade = "B+"
	GradeB        Grade = "B"
	GradeBMinus   Grade = "B-"
	GradeCPlus    Grade = "C+"
	GradeC        Grade = "C"
	GradeCMinus   Grade = "C-"
	GradeDPlus    Grade = "D+"
	GradeD        Grade = "D"
	GradeF        Grade = "F"
	GradeUngraded Grade = "N/A"
)

// GradeScale lists assignable grades in display order.
var GradeScale = []Grade{
	GradeAPlus, GradeA, GradeAMinus,
	GradeBPlus, GradeB, GradeBMinus,
	GradeCPlus, GradeC, GradeCMinus,
	GradeDPlus, GradeD, GradeF,
}

var gradePoints = map[Grade]float64{
	GradeAPlus:  4.0,
	GradeA:      4.0,
	GradeAMinus: 3.7,
	GradeBPlus:  3.3,
	GradeB:      3.0,
	GradeBMinus: 2.7,
	GradeCPlus:  2.3,
	GradeC:      2.0,
	GradeCMinus: 1.7,
	GradeDPlus:  1.3,
	GradeD:      1.0,
	GradeF:      0.0,
}

// Point returns the grade point. The ungraded sentinel and unknown values report false.
func (g Grade) Point() (float64, bool) {
	p, ok := gradePoints[g]
	return p, ok
}

// Valid reports whether g is a scale value or the ungraded sentinel.
func (g Grade) Valid() bool {
	if g == GradeUngraded {
		return true
	}
	_, ok := gradePoints[g]
	return ok
}

// Graded reports whether g carries a grade point.
func (g Grade) Graded() bool {
	_, ok := gradePoints[g]
	return ok
}

// NormalizeGrade trims and upper-cases raw input. Blank input and the ungraded
// sentinel both yield nil so the column is stored as NULL.
func NormalizeGrade(raw string) (*Grade, bool) {
	g := Grade(strings.ToUpper(strings.TrimSpace(raw)))
	if g == "" || g == GradeUngraded {
		return nil, true
	}
	if !g.Valid() {
		return nil, false
	}
	return &g, true
}

// String renders the grade, using the sentinel for blanks.
func (g Grade) String() string {
	if g == "" {
		return string(GradeUngraded)
	}
	return string(g)
}
