// Command studentms-report generates report files without going through the HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/noah-isme/studentms/internal/app"
	"github.com/noah-isme/studentms/internal/service"
	"github.com/noah-isme/studentms/pkg/config"
	"github.com/noah-isme/studentms/pkg/logger"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run executes one report invocation and returns the process exit code:
// 0 on success, 1 on runtime failure, 2 on invalid flags.
func run(args []string, stdout io.Writer) int {
	flags := flag.NewFlagSet("studentms-report", flag.ContinueOnError)
	kind := flags.String("kind", "roster", "report kind: roster, csv, grades or stats")
	studentCode := flags.String("student", "", "student code for grade reports, e.g. ST001")
	semester := flags.String("semester", "", "limit a grade report to one semester, e.g. \"Semester 1\"")
	year := flags.Int("year", 0, "enrollment year paired with -semester")
	format := flags.String("format", "txt", "grade report format: txt, csv or pdf")
	outDir := flags.String("out", ".", "directory the report is copied into")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	switch *kind {
	case "roster", "csv", "stats":
	case "grades":
		if *studentCode == "" {
			fmt.Fprintln(flags.Output(), "-student is required for grade reports")
			return 2
		}
	default:
		fmt.Fprintf(flags.Output(), "unknown report kind %q\n", *kind)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		log.Printf("failed to load config: %v", err)
		return 1
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Printf("failed to init logger: %v", err)
		return 1
	}
	defer logr.Sync() //nolint:errcheck

	ctx := context.Background()
	application, err := app.New(ctx, cfg, logr)
	if err != nil {
		logr.Error("failed to start application", zap.Error(err))
		return 1
	}
	defer application.Close() //nolint:errcheck

	if *kind == "stats" {
		stats, err := application.Students.Statistics(ctx)
		if err != nil {
			logr.Error("statistics failed", zap.Error(err))
			return 1
		}
		fmt.Fprint(stdout, stats.Text)
		return 0
	}

	var file *service.ReportFile
	switch *kind {
	case "roster":
		file, err = application.Reports.GenerateRoster(ctx)
	case "csv":
		file, err = application.Reports.GenerateStudentsCSV(ctx)
	case "grades":
		student, lookupErr := application.Students.GetByCode(ctx, *studentCode)
		if lookupErr != nil {
			logr.Error("student lookup failed", zap.String("student_code", *studentCode), zap.Error(lookupErr))
			return 1
		}
		file, err = application.Reports.GenerateGradeReport(ctx, student.ID, service.GradeReportRequest{
			Format:   *format,
			Semester: *semester,
			Year:     *year,
		})
	}
	if err != nil {
		logr.Error("report generation failed", zap.String("kind", *kind), zap.Error(err))
		return 1
	}

	dest, err := copyOut(application.Reports, file.Token, *outDir)
	if err != nil {
		logr.Error("failed to copy report", zap.Error(err))
		return 1
	}
	fmt.Fprintln(stdout, dest)
	return 0
}

func copyOut(reports *service.ReportService, token, dir string) (string, error) {
	download, err := reports.Open(token)
	if err != nil {
		return "", err
	}
	defer download.File.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	dest := filepath.Join(dir, download.Filename)
	out, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, download.File); err != nil {
		out.Close()
		return "", err
	}
	return dest, out.Close()
}
