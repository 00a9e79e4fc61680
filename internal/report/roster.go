package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/noah-isme/studentms/internal/models"
)

// RosterReport writes the comprehensive student listing with summary counts.
func RosterReport(w io.Writer, students []models.Student, now time.Time) error {
	p := &printer{w: w}
	p.banner("STUDENT MANAGEMENT SYSTEM - COMPREHENSIVE REPORT", now)

	p.println("STUDENT LISTING")
	p.println(lightRule)
	p.println("")

	active := 0
	for _, s := range students {
		if s.IsActive() {
			active++
		}
		p.printf("Student ID: %d\n", s.ID)
		p.println("Student Code: " + s.Code)
		p.println("Name: " + s.FullName)
		p.println("Email: " + s.Email)
		p.println("Phone: " + models.Deref(s.Phone))
		p.println("Date of Birth: " + models.Deref(s.DateOfBirth))
		p.println("Gender: " + models.Deref(s.Gender))
		p.println("Address: " + models.Deref(s.Address))
		p.println("Enrollment Date: " + s.EnrollmentDate)
		p.println("Status: " + string(s.Status))
		p.println(lightRule)
	}

	p.println("")
	p.println("SUMMARY STATISTICS")
	p.println(heavyRule)
	p.printf("Total Students: %d\n", len(students))
	p.printf("Active Students: %d\n", active)
	p.printf("Inactive Students: %d\n", len(students)-active)
	p.println(heavyRule)
	p.println("")
	p.println("End of Report")
	p.println(heavyRule)
	return p.err
}

// Count is one row of a distribution.
type Count struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Statistics is a titled distribution over the student roster.
type Statistics struct {
	Title  string  `json:"title"`
	Total  int     `json:"total"`
	Counts []Count `json:"counts"`
}

// String renders the distribution as the plain-text statistics block.
func (s Statistics) String() string {
	var b strings.Builder
	b.WriteString(s.Title + "\n")
	b.WriteString(strings.Repeat("=", statsWidth) + "\n\n")
	if s.Total == 0 {
		b.WriteString("No student data available.\n")
	} else {
		fmt.Fprintf(&b, "Total Students: %d\n", s.Total)
		for _, c := range s.Counts {
			fmt.Fprintf(&b, "%s: %d (%.1f%%)\n", c.Label, c.Count, c.Percent)
		}
	}
	b.WriteString("\n" + strings.Repeat("=", statsWidth))
	return b.String()
}

func distribution(title string, total int, labels []string, counts map[string]int) Statistics {
	stats := Statistics{Title: title, Total: total}
	for _, label := range labels {
		c := Count{Label: label, Count: counts[label]}
		if total > 0 {
			c.Percent = float64(c.Count) * 100.0 / float64(total)
		}
		stats.Counts = append(stats.Counts, c)
	}
	return stats
}

// GenderBreakdown counts Male, Female and everything else as Other.
func GenderBreakdown(students []models.Student) Statistics {
	counts := map[string]int{}
	for _, s := range students {
		switch g := models.Deref(s.Gender); {
		case strings.EqualFold(g, "Male"):
			counts["Male"]++
		case strings.EqualFold(g, "Female"):
			counts["Female"]++
		default:
			counts["Other"]++
		}
	}
	return distribution("GENDER DISTRIBUTION REPORT", len(students), []string{"Male", "Female", "Other"}, counts)
}

// StatusBreakdown counts Active students; any other status is Inactive.
func StatusBreakdown(students []models.Student) Statistics {
	counts := map[string]int{}
	for _, s := range students {
		if s.IsActive() {
			counts["Active"]++
		} else {
			counts["Inactive"]++
		}
	}
	return distribution("STUDENT STATUS REPORT", len(students), []string{"Active", "Inactive"}, counts)
}

// GenderStatistics renders the gender distribution text.
func GenderStatistics(students []models.Student) string {
	return GenderBreakdown(students).String()
}

// StatusStatistics renders the status distribution text.
func StatusStatistics(students []models.Student) string {
	return StatusBreakdown(students).String()
}

type studentCSVRow struct {
	ID             int64  `csv:"Student ID"`
	FullName       string `csv:"Full Name"`
	Email          string `csv:"Email"`
	Phone          string `csv:"Phone"`
	DateOfBirth    string `csv:"Date of Birth"`
	Gender         string `csv:"Gender"`
	Address        string `csv:"Address"`
	EnrollmentDate string `csv:"Enrollment Date"`
	Status         string `csv:"Status"`
}

// StudentsCSV writes one row per student under the fixed nine-column header.
func StudentsCSV(w io.Writer, students []models.Student) error {
	rows := make([]*studentCSVRow, 0, len(students))
	for _, s := range students {
		rows = append(rows, &studentCSVRow{
			ID:             s.ID,
			FullName:       s.FullName,
			Email:          s.Email,
			Phone:          models.Deref(s.Phone),
			DateOfBirth:    models.Deref(s.DateOfBirth),
			Gender:         models.Deref(s.Gender),
			Address:        models.Deref(s.Address),
			EnrollmentDate: s.EnrollmentDate,
			Status:         string(s.Status),
		})
	}
	if err := gocsv.MarshalCSV(&rows, newQuotedWriter(w, 0)); err != nil {
		return fmt.Errorf("marshal students csv: %w", err)
	}
	return nil
}

// quotedWriter is a gocsv.CSVWriter that wraps every data field in double
// quotes, doubling embedded quotes. The header row and the columns listed in
// bare are written as-is.
type quotedWriter struct {
	w      *bufio.Writer
	bare   map[int]bool
	header bool
	err    error
}

func newQuotedWriter(w io.Writer, bare ...int) *quotedWriter {
	q := &quotedWriter{w: bufio.NewWriter(w), bare: map[int]bool{}}
	for _, col := range bare {
		q.bare[col] = true
	}
	return q
}

func (q *quotedWriter) Write(row []string) error {
	if q.err != nil {
		return q.err
	}
	fields := make([]string, len(row))
	for i, field := range row {
		if !q.header || q.bare[i] {
			fields[i] = field
			continue
		}
		fields[i] = `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
	}
	q.header = true
	_, q.err = q.w.WriteString(strings.Join(fields, ",") + "\n")
	return q.err
}

func (q *quotedWriter) Flush() {
	if q.err == nil {
		q.err = q.w.Flush()
	}
}

func (q *quotedWriter) Error() error {
	return q.err
}
