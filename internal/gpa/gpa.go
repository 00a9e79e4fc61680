// Package gpa computes grade point averages over a student's enrollment history.
package gpa

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/noah-isme/studentms/internal/models"
)

// Record is one enrollment joined with its subject.
type Record struct {
	SubjectCode    string `json:"subject_code"`
	SubjectName    string `json:"subject_name"`
	SubjectSection string `json:"subject_section"`
	Credits        int    `json:"credits"`
	Semester       string `json:"semester"`
	Year           int    `json:"year"`
	Grade          string `json:"grade"`
}

// SemesterSummary aggregates the records of one semester of one year.
type SemesterSummary struct {
	Key           string   `json:"key"`
	Semester      string   `json:"semester"`
	Year          int      `json:"year"`
	GPA           float64  `json:"gpa"`
	TotalCredits  int      `json:"total_credits"`
	GradedCredits int      `json:"graded_credits"`
	SubjectCount  int      `json:"subject_count"`
	Records       []Record `json:"records"`
}

// Transcript is the full aggregation for one student.
type Transcript struct {
	CGPA          float64           `json:"cgpa"`
	TotalCredits  int               `json:"total_credits"`
	GradedCredits int               `json:"graded_credits"`
	SubjectCount  int               `json:"subject_count"`
	Semesters     []SemesterSummary `json:"semesters"`
}

// FromEnrollments converts joined enrollment rows into records.
func FromEnrollments(rows []models.EnrollmentDetail) []Record {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, Record{
			SubjectCode:    row.SubjectCode,
			SubjectName:    row.SubjectName,
			SubjectSection: row.SubjectSection,
			Credits:        row.Credits,
			Semester:       row.Semester,
			Year:           row.Year,
			Grade:          row.GradeValue(),
		})
	}
	return records
}

// GradePoint maps a letter grade to its point value.
func GradePoint(grade string) (float64, bool) {
	return models.Grade(grade).Point()
}

// countable reports the point of a record that contributes to GPA.
// Only strictly positive points count, so F grades are left out of both sums.
func countable(r Record) (float64, bool) {
	if r.Credits <= 0 {
		return 0, false
	}
	p, ok := GradePoint(r.Grade)
	if !ok || p <= 0 {
		return 0, false
	}
	return p, true
}

// CumulativeGPA returns the credit-weighted average over countable records,
// rounded to two decimals, or 0.
func CumulativeGPA(records []Record) float64 {
	gpa, _ := weighted(records)
	return gpa
}

func weighted(records []Record) (float64, int) {
	var points float64
	var credits int
	for _, r := range records {
		p, ok := countable(r)
		if !ok {
			continue
		}
		points += p * float64(r.Credits)
		credits += r.Credits
	}
	if credits == 0 {
		return 0, 0
	}
	return Round(points / float64(credits)), credits
}

// Round rounds a GPA to two decimal places, the precision it is reported at.
func Round(gpa float64) float64 {
	return math.Round(gpa*100) / 100
}

// TotalCredits sums credits regardless of grading status.
func TotalCredits(records []Record) int {
	total := 0
	for _, r := range records {
		if r.Credits > 0 {
			total += r.Credits
		}
	}
	return total
}

// SemesterKey builds the grouping key "<semester> <year>".
func SemesterKey(semester string, year int) string {
	return semester + " " + strconv.Itoa(year)
}

// PerSemester groups records by semester and year, newest year first and
// labels in descending lexicographic order within a year.
func PerSemester(records []Record) []SemesterSummary {
	index := make(map[string]int)
	var groups []SemesterSummary
	for _, r := range records {
		key := SemesterKey(r.Semester, r.Year)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, SemesterSummary{Key: key, Semester: r.Semester, Year: r.Year})
		}
		groups[i].Records = append(groups[i].Records, r)
	}

	for i := range groups {
		g := &groups[i]
		g.GPA, g.GradedCredits = weighted(g.Records)
		g.TotalCredits = TotalCredits(g.Records)
		g.SubjectCount = len(g.Records)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Year != groups[j].Year {
			return groups[i].Year > groups[j].Year
		}
		return groups[i].Semester > groups[j].Semester
	})
	return groups
}

// Chronological returns a copy of semesters ordered oldest year first, labels ascending.
func Chronological(semesters []SemesterSummary) []SemesterSummary {
	out := append([]SemesterSummary(nil), semesters...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Semester < out[j].Semester
	})
	return out
}

// FilterSemester keeps the records of one semester of one year.
func FilterSemester(records []Record, semester string, year int) []Record {
	var out []Record
	for _, r := range records {
		if r.Semester == semester && r.Year == year {
			out = append(out, r)
		}
	}
	return out
}

// Summarize builds the full transcript aggregation.
func Summarize(records []Record) Transcript {
	cgpa, graded := weighted(records)
	return Transcript{
		CGPA:          cgpa,
		TotalCredits:  TotalCredits(records),
		GradedCredits: graded,
		SubjectCount:  len(records),
		Semesters:     PerSemester(records),
	}
}

// Display formats a GPA for screens, using N/A when nothing was graded.
func Display(gpa float64, gradedCredits int) string {
	if gradedCredits == 0 {
		return string(models.GradeUngraded)
	}
	return fmt.Sprintf("%.2f", gpa)
}
