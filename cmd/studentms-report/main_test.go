package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTempWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", filepath.Join(dir, "studentdb.db"))
	t.Setenv("REPORTS_STORAGE_DIR", filepath.Join(dir, "reports"))
	t.Setenv("ENABLE_CACHE", "false")
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func TestRunRejectsInvalidInvocations(t *testing.T) {
	cases := map[string][]string{
		"unknown kind":     {"-kind", "transcript"},
		"grades sans code": {"-kind", "grades"},
		"undefined flag":   {"-colour", "red"},
		"non numeric year": {"-kind", "grades", "-student", "ST001", "-year", "soon"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			assert.Equal(t, 2, run(args, &out))
			assert.Empty(t, out.String())
		})
	}
}

func TestRunPrintsStatistics(t *testing.T) {
	useTempWorkspace(t)

	var out bytes.Buffer
	require.Equal(t, 0, run([]string{"-kind", "stats"}, &out))
	assert.Contains(t, out.String(), "GENDER DISTRIBUTION REPORT")
	assert.Contains(t, out.String(), "STUDENT STATUS REPORT")
}

func TestRunCopiesRosterIntoOutDir(t *testing.T) {
	dir := useTempWorkspace(t)
	outDir := filepath.Join(dir, "out")

	var out bytes.Buffer
	require.Equal(t, 0, run([]string{"-kind", "roster", "-out", outDir}, &out))

	dest := strings.TrimSpace(out.String())
	assert.Equal(t, outDir, filepath.Dir(dest))
	raw, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "STUDENT MANAGEMENT SYSTEM - COMPREHENSIVE REPORT")
}

func TestRunFailsForUnknownStudent(t *testing.T) {
	useTempWorkspace(t)

	var out bytes.Buffer
	assert.Equal(t, 1, run([]string{"-kind", "grades", "-student", "ST999"}, &out))
	assert.Empty(t, out.String())
}
