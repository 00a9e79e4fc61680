// Package report renders rosters, statistics and grade reports as text and CSV.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	// TimestampLayout is printed on every report banner.
	TimestampLayout = "2006-01-02 15:04:05"
	dateStamp       = "20060102"
	reportWidth     = 80
	statsWidth      = 50
)

var (
	heavyRule = strings.Repeat("=", reportWidth)
	lightRule = strings.Repeat("-", reportWidth)
)

// printer accumulates the first write error so report bodies stay linear.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) println(s string) {
	p.printf("%s\n", s)
}

func (p *printer) banner(title string, now time.Time) {
	p.println(heavyRule)
	p.println(title)
	p.println(heavyRule)
	p.println("Generated: " + now.Format(TimestampLayout))
	p.println(heavyRule)
	p.println("")
}

// RosterFileName names the roster text report for the given day.
func RosterFileName(now time.Time) string {
	return "Student_Report_" + now.Format(dateStamp) + ".txt"
}

// StudentsCSVFileName names the student CSV export for the given day.
func StudentsCSVFileName(now time.Time) string {
	return "Student_Export_" + now.Format(dateStamp) + ".csv"
}

// GradeReportFileName names a student's grade report. An empty semester means all semesters.
func GradeReportFileName(studentCode, semester string, now time.Time, ext string) string {
	scope := "All"
	if semester != "" {
		scope = strings.ReplaceAll(semester, " ", "_")
	}
	if ext == "" {
		ext = "txt"
	}
	return fmt.Sprintf("Grade_Report_%s_%s_%s.%s", studentCode, scope, now.Format(dateStamp), strings.TrimPrefix(ext, "."))
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
