package database

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Migrate creates any missing tables for the connected dialect. It is idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	file := "schema/sqlite.sql"
	if db.DriverName() == "postgres" {
		file = "schema/postgres.sql"
	}
	raw, err := schemaFS.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	for _, stmt := range splitStatements(string(raw)) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func splitStatements(script string) []string {
	parts := strings.Split(script, ";")
	stmts := make([]string, 0, len(parts))
	for _, part := range parts {
		lines := strings.Split(part, "\n")
		kept := lines[:0]
		for _, line := range lines {
			if strings.HasPrefix(strings.TrimSpace(line), "--") {
				continue
			}
			kept = append(kept, line)
		}
		stmt := strings.TrimSpace(strings.Join(kept, "\n"))
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
