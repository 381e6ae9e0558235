package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/davidleathers/fraud-scoring-backend/internal/infrastructure/config"
	"github.com/davidleathers/fraud-scoring-backend/internal/infrastructure/telemetry"
)

const appliedTable = "schema_migrations"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file")
	dir := flag.String("dir", "migrations", "directory holding *.sql migration files")
	action := flag.String("action", "up", "up, down, status or create")
	name := flag.String("name", "", "new migration name (create only)")
	steps := flag.Int("steps", 0, "limit number of migrations (0 = all)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := telemetry.SetupLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("setting up logger: %w", err)
	}
	slog.SetDefault(logger)

	// create only touches the filesystem, no database needed.
	if *action == "create" {
		if *name == "" {
			return fmt.Errorf("-name is required for create")
		}
		return createMigration(*dir, *name, logger)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}

	m := &migrator{db: db, dir: *dir, logger: logger}

	switch *action {
	case "up":
		return m.up(ctx, *steps)
	case "down":
		return m.down(ctx, *steps)
	case "status":
		return m.status(ctx)
	default:
		return fmt.Errorf("unknown action %q", *action)
	}
}

type appliedMigration struct {
	ID        string
	Filename  string
	AppliedAt time.Time
}

type migrator struct {
	db     *sql.DB
	dir    string
	logger *slog.Logger
}

func (m *migrator) ensureAppliedTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(255) PRIMARY KEY,
			filename VARCHAR(255) NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`, appliedTable))
	return err
}

func (m *migrator) applied(ctx context.Context) ([]appliedMigration, error) {
	if err := m.ensureAppliedTable(ctx); err != nil {
		return nil, fmt.Errorf("ensuring %s table: %w", appliedTable, err)
	}

	rows, err := m.db.QueryContext(ctx,
		fmt.Sprintf("SELECT id, filename, applied_at FROM %s ORDER BY applied_at", appliedTable))
	if err != nil {
		return nil, fmt.Errorf("querying applied migrations: %w", err)
	}
	defer rows.Close()

	var out []appliedMigration
	for rows.Next() {
		var a appliedMigration
		if err := rows.Scan(&a.ID, &a.Filename, &a.AppliedAt); err != nil {
			return nil, fmt.Errorf("scanning migration row: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (m *migrator) pending(ctx context.Context) ([]string, error) {
	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	files, err := filepath.Glob(filepath.Join(m.dir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("listing migration files: %w", err)
	}

	appliedIDs := make(map[string]bool, len(applied))
	for _, a := range applied {
		appliedIDs[a.ID] = true
	}
	return pendingFiles(files, appliedIDs), nil
}

func (m *migrator) up(ctx context.Context, steps int) error {
	pending, err := m.pending(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		m.logger.Info("no pending migrations")
		return nil
	}
	if steps > 0 && steps < len(pending) {
		pending = pending[:steps]
	}

	for _, file := range pending {
		if err := m.apply(ctx, file); err != nil {
			return fmt.Errorf("applying %s: %w", file, err)
		}
		m.logger.Info("migration applied", "file", file)
	}

	m.logger.Info("migrations complete", "count", len(pending))
	return nil
}

func (m *migrator) down(ctx context.Context, steps int) error {
	applied, err := m.applied(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		m.logger.Info("nothing to roll back")
		return nil
	}

	// Most recently applied first.
	sort.Slice(applied, func(i, j int) bool {
		return applied[i].AppliedAt.After(applied[j].AppliedAt)
	})
	if steps > 0 && steps < len(applied) {
		applied = applied[:steps]
	}

	for _, a := range applied {
		if _, err := m.db.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE id = $1", appliedTable), a.ID); err != nil {
			return fmt.Errorf("rolling back %s: %w", a.Filename, err)
		}
		// Migrations carry no down SQL: only the bookkeeping row is
		// removed, schema changes need manual cleanup.
		m.logger.Warn("migration record removed, schema left as-is", "file", a.Filename)
	}

	m.logger.Info("rollback complete", "count", len(applied))
	return nil
}

func (m *migrator) status(ctx context.Context) error {
	applied, err := m.applied(ctx)
	if err != nil {
		return err
	}
	pending, err := m.pending(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("applied: %d\n", len(applied))
	for _, a := range applied {
		fmt.Printf("  %s (%s)\n", a.ID, a.AppliedAt.Format(time.RFC3339))
	}
	fmt.Printf("pending: %d\n", len(pending))
	for _, file := range pending {
		fmt.Printf("  %s\n", migrationID(filepath.Base(file)))
	}
	return nil
}

func (m *migrator) apply(ctx context.Context, file string) error {
	content, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading migration: %w", err)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("executing migration SQL: %w", err)
	}

	base := filepath.Base(file)
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (id, filename) VALUES ($1, $2)", appliedTable),
		migrationID(base), base); err != nil {
		return fmt.Errorf("recording migration: %w", err)
	}

	return tx.Commit()
}

func createMigration(dir, name string, logger *slog.Logger) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating migrations directory: %w", err)
	}

	now := time.Now().UTC()
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", now.Format("20060102150405"), name))
	content := fmt.Sprintf("-- Migration: %s\n-- Created at: %s\n\n", name, now.Format(time.RFC3339))

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing migration file: %w", err)
	}

	logger.Info("migration created", "file", path)
	return nil
}

// pendingFiles filters out already-applied files and returns the rest
// in lexical order, which is chronological for timestamp-prefixed names.
func pendingFiles(files []string, appliedIDs map[string]bool) []string {
	var out []string
	for _, file := range files {
		if !appliedIDs[migrationID(filepath.Base(file))] {
			out = append(out, file)
		}
	}
	sort.Strings(out)
	return out
}

func migrationID(filename string) string {
	return strings.TrimSuffix(filename, ".sql")
}
