package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

// TestDB wraps a database connection with schema and seeding helpers
// for integration tests.
type TestDB struct {
	t  *testing.T
	db *sql.DB
}

// NewTestDB connects to the database at url. The connection is closed
// when the test finishes.
func NewTestDB(t *testing.T, url string) *TestDB {
	t.Helper()

	db, err := sql.Open("postgres", url)
	require.NoError(t, err)

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	require.NoError(t, db.Ping())
	t.Cleanup(func() { db.Close() })

	return &TestDB{t: t, db: db}
}

// DB returns the underlying database connection.
func (tdb *TestDB) DB() *sql.DB {
	return tdb.db
}

// Migrate applies every *.sql file in dir in lexical order.
func (tdb *TestDB) Migrate(dir string) {
	tdb.t.Helper()

	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	require.NoError(tdb.t, err)
	require.NotEmpty(tdb.t, files, "no migration files in %s", dir)
	sort.Strings(files)

	ctx := context.Background()
	for _, file := range files {
		content, err := os.ReadFile(file)
		require.NoError(tdb.t, err)
		_, err = tdb.db.ExecContext(ctx, string(content))
		require.NoError(tdb.t, err, "applying %s", file)
	}
}

// TruncateTables clears all tables for test isolation. Order respects
// foreign keys.
func (tdb *TestDB) TruncateTables() {
	tdb.t.Helper()

	ctx := context.Background()
	tables := []string{
		"fraud_scores",
		"disputes",
		"payments",
		"customers",
		"merchants",
	}

	for _, table := range tables {
		_, err := tdb.db.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		require.NoError(tdb.t, err)
	}
}

// SeedData is a row that knows how to insert itself.
type SeedData interface {
	TableName() string
	InsertQuery() string
	Values() []interface{}
}

// Seed inserts test rows into the database.
func (tdb *TestDB) Seed(data ...SeedData) {
	tdb.t.Helper()

	ctx := context.Background()
	for _, d := range data {
		_, err := tdb.db.ExecContext(ctx, d.InsertQuery(), d.Values()...)
		require.NoError(tdb.t, err, "failed to seed %s", d.TableName())
	}
}

// AssertRowCount asserts the number of rows in a table.
func (tdb *TestDB) AssertRowCount(table string, expected int) {
	tdb.t.Helper()

	var count int
	err := tdb.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count)
	require.NoError(tdb.t, err)
	require.Equal(tdb.t, expected, count, "expected %d rows in %s, got %d", expected, table, count)
}
