package postgres

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/uptrace/bun"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate applies the embedded goose migrations in filename order inside one
// transaction. Applied filenames are recorded in schema_migrations and
// skipped on later runs, so main can call this on every start. It is the
// single bootstrap step: no request path ever touches schema setup.
func Migrate(ctx context.Context, db *bun.DB) error {
	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewRaw(
			"CREATE TABLE IF NOT EXISTS schema_migrations (name TEXT PRIMARY KEY, applied_at TIMESTAMPTZ NOT NULL DEFAULT now())",
		).Exec(ctx); err != nil {
			return err
		}

		var appliedNames []string
		if err := tx.NewRaw("SELECT name FROM schema_migrations").Scan(ctx, &appliedNames); err != nil {
			return err
		}
		applied := make(map[string]bool, len(appliedNames))
		for _, name := range appliedNames {
			applied[name] = true
		}

		for _, name := range names {
			if applied[name] {
				continue
			}
			b, err := migrationFiles.ReadFile("migrations/" + name)
			if err != nil {
				return err
			}
			upSQL, err := extractGooseUp(string(b))
			if err != nil {
				return fmt.Errorf("migration %s: %w", name, err)
			}
			for _, stmt := range splitSQLStatements(upSQL) {
				if _, err := tx.NewRaw(stmt).Exec(ctx); err != nil {
					return fmt.Errorf("migration %s: %w", name, err)
				}
			}
			if _, err := tx.NewRaw("INSERT INTO schema_migrations (name) VALUES (?)", name).Exec(ctx); err != nil {
				return fmt.Errorf("migration %s: %w", name, err)
			}
		}
		return nil
	})
}

func extractGooseUp(sql string) (string, error) {
	upMarker := "-- +goose Up"
	downMarker := "-- +goose Down"

	upIdx := strings.Index(sql, upMarker)
	if upIdx < 0 {
		return "", fmt.Errorf("missing goose up marker")
	}
	afterUp := sql[upIdx+len(upMarker):]
	afterUp = strings.TrimLeft(afterUp, "\r\n")

	downIdx := strings.Index(afterUp, downMarker)
	if downIdx < 0 {
		return strings.TrimSpace(afterUp), nil
	}
	return strings.TrimSpace(afterUp[:downIdx]), nil
}

func splitSQLStatements(sql string) []string {
	parts := strings.Split(sql, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
