package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/studentms/internal/gpa"
	"github.com/noah-isme/studentms/internal/models"
	"github.com/noah-isme/studentms/pkg/export"
)

const (
	gradeHeaderFormat = "%-15s %-35s %-10s %-10s %-10s %-10s\n"
	gradeRowFormat    = "%-15s %-35s %-10s %-10d %-10s %-10.2f\n"
	subjectNameWidth  = 35
)

var gradeHeaders = []string{"Subject Code", "Subject Name", "Section", "Credits", "Grade", "Grade Pt"}

func gradeCell(r gpa.Record) (string, float64) {
	p, _ := gpa.GradePoint(r.Grade)
	return models.Grade(r.Grade).String(), p
}

func studentBlock(p *printer, student models.Student) {
	p.println("STUDENT INFORMATION")
	p.println(lightRule)
	p.println("Student Code: " + student.Code)
	p.println("Full Name: " + student.FullName)
	p.println("Email: " + student.Email)
	p.println("Status: " + string(student.Status))
	p.println(lightRule)
	p.println("")
}

func gradeTable(p *printer, records []gpa.Record) {
	p.printf(gradeHeaderFormat, gradeHeaders[0], gradeHeaders[1], gradeHeaders[2], gradeHeaders[3], gradeHeaders[4], gradeHeaders[5])
	p.println(lightRule)
	for _, r := range records {
		grade, point := gradeCell(r)
		p.printf(gradeRowFormat, r.SubjectCode, truncate(r.SubjectName, subjectNameWidth), r.SubjectSection, r.Credits, grade, point)
	}
}

// GradeReport writes a student's full history grouped by semester, oldest first,
// with per-semester subtotals and the overall summary.
func GradeReport(w io.Writer, student models.Student, transcript gpa.Transcript, now time.Time) error {
	p := &printer{w: w}
	p.banner("STUDENT GRADE REPORT - ALL SEMESTERS", now)
	studentBlock(p, student)

	for _, sem := range gpa.Chronological(transcript.Semesters) {
		p.println(strings.ToUpper(sem.Key))
		p.println(lightRule)
		gradeTable(p, sem.Records)
		p.println(lightRule)
		p.printf("Semester Credits: %d | Semester GPA: %.2f\n", sem.TotalCredits, sem.GPA)
		p.println(lightRule)
		p.println("")
	}

	p.println("OVERALL ACADEMIC SUMMARY")
	p.println(heavyRule)
	p.printf("Total Credits Completed: %d\n", transcript.TotalCredits)
	p.printf("Cumulative GPA (CGPA): %.2f\n", transcript.CGPA)
	p.printf("Total Subjects: %d\n", transcript.SubjectCount)
	p.println(heavyRule)
	p.println("")
	p.println("End of Report")
	p.println(heavyRule)
	return p.err
}

// SemesterGradeReport writes the grades of a single semester.
func SemesterGradeReport(w io.Writer, student models.Student, label string, records []gpa.Record, semesterGPA float64, now time.Time) error {
	p := &printer{w: w}
	upper := strings.ToUpper(label)
	p.banner("STUDENT GRADE REPORT - "+upper, now)
	studentBlock(p, student)

	p.println(upper + " - GRADES")
	p.println(lightRule)
	gradeTable(p, records)
	p.println(lightRule)
	p.printf("Total Credits: %d | Semester GPA: %.2f\n", gpa.TotalCredits(records), semesterGPA)
	p.println(lightRule)
	p.println("")
	p.println("End of Report")
	p.println(heavyRule)
	return p.err
}

// GradeDataset flattens records into a table for CSV export, one row per enrollment.
func GradeDataset(records []gpa.Record) export.Dataset {
	data := export.Dataset{
		Headers: []string{"Semester", "Year", "Subject Code", "Subject Name", "Section", "Credits", "Grade", "Grade Pt"},
		Widths:  []float64{2, 1, 2, 4, 1.2, 1.2, 1, 1.2},
	}
	for _, r := range records {
		grade, point := gradeCell(r)
		data.Rows = append(data.Rows, []string{
			r.Semester,
			strconv.Itoa(r.Year),
			r.SubjectCode,
			r.SubjectName,
			r.SubjectSection,
			strconv.Itoa(r.Credits),
			grade,
			fmt.Sprintf("%.2f", point),
		})
	}
	return data
}

// TranscriptDocument lays a transcript out for the PDF exporter.
func TranscriptDocument(student models.Student, transcript gpa.Transcript, now time.Time) export.Document {
	doc := export.Document{
		Title:    "Student Grade Report",
		Subtitle: "Generated: " + now.Format(TimestampLayout),
		Fields: []export.Field{
			{Label: "Student Code", Value: student.Code},
			{Label: "Full Name", Value: student.FullName},
			{Label: "Email", Value: student.Email},
			{Label: "Status", Value: string(student.Status)},
		},
		Summary: []export.Field{
			{Label: "Total Credits", Value: strconv.Itoa(transcript.TotalCredits)},
			{Label: "CGPA", Value: gpa.Display(transcript.CGPA, transcript.GradedCredits)},
			{Label: "Total Subjects", Value: strconv.Itoa(transcript.SubjectCount)},
		},
	}
	for _, sem := range gpa.Chronological(transcript.Semesters) {
		table := export.Dataset{Headers: gradeHeaders, Widths: []float64{2, 4.5, 1.2, 1.2, 1, 1.2}}
		for _, r := range sem.Records {
			grade, point := gradeCell(r)
			table.Rows = append(table.Rows, []string{
				r.SubjectCode, truncate(r.SubjectName, subjectNameWidth), r.SubjectSection,
				strconv.Itoa(r.Credits), grade, fmt.Sprintf("%.2f", point),
			})
		}
		doc.Sections = append(doc.Sections, export.Section{
			Heading: sem.Key,
			Table:   table,
			Footer:  fmt.Sprintf("Semester Credits: %d | Semester GPA: %.2f", sem.TotalCredits, sem.GPA),
		})
	}
	return doc
}
