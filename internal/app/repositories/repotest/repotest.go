// Package repotest opens migrated SQLite stores and inserts fixtures for
// tests of the packages built on top of repositories.
package repotest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/yigit/electives/internal/app/migrations"
	"github.com/yigit/electives/internal/app/models"
	"github.com/yigit/electives/internal/app/repositories"
	"github.com/yigit/electives/internal/db"
)

// NewStore returns a store on a fresh database file under t.TempDir. It is
// closed when the test ends.
func NewStore(t testing.TB) *repositories.SQLiteStore {
	t.Helper()

	sqlite, err := db.NewSQLiteDB(filepath.Join(t.TempDir(), "electives.sqlite3"), 5*time.Second)
	require.NoError(t, err)

	err = migrations.NewSQLiteMigrator(sqlite.DB, zerolog.Nop()).Up(context.Background())
	require.NoError(t, err)

	store := repositories.NewSQLiteStore(sqlite, 30*time.Second)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// PostgresDSNEnv names the variable holding a PostgreSQL URL for the
// integration tests. They are skipped when it is unset.
const PostgresDSNEnv = "ELECTIVES_TEST_POSTGRES_DSN"

// NewPostgresStore returns a store on a fresh schema of the database named by
// PostgresDSNEnv, skipping the test when the variable is unset. The schema is
// dropped when the test ends.
func NewPostgresStore(t testing.TB, lockTimeout time.Duration) *repositories.PostgresStore {
	t.Helper()

	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", PostgresDSNEnv)
	}
	ctx := context.Background()
	schema := "electives_test_" + xid.New().String()

	admin, err := pgx.Connect(ctx, dsn)
	require.NoError(t, err)
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
		_ = admin.Close(context.Background())
	})

	poolConfig, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	poolConfig.MaxConns = 50
	poolConfig.ConnConfig.RuntimeParams["search_path"] = schema

	pg, err := db.OpenPostgres(ctx, poolConfig)
	require.NoError(t, err)

	err = migrations.NewPostgresMigrator(pg.Pool, zerolog.Nop()).Up(ctx)
	require.NoError(t, err)

	store := repositories.NewPostgresStore(pg, lockTimeout, 30*time.Second)
	// Registered after the schema cleanup, so it runs first
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// Backend opens an empty migrated store of one dialect
type Backend struct {
	Name string
	Open func(t testing.TB) repositories.AllocationStore
}

// Backends lists every dialect. Postgres tests skip themselves unless
// PostgresDSNEnv is set.
func Backends() []Backend {
	return []Backend{
		{Name: "sqlite", Open: func(t testing.TB) repositories.AllocationStore { return NewStore(t) }},
		{Name: "postgres", Open: func(t testing.TB) repositories.AllocationStore { return NewPostgresStore(t, 5*time.Second) }},
	}
}

// Student inserts a student. An empty branch or a zero year is stored as NULL.
func Student(t testing.TB, store repositories.CatalogStore, username, branch string, year int) *models.Student {
	t.Helper()

	student := &models.Student{Username: username}
	if branch != "" {
		student.Branch = &branch
	}
	if year != 0 {
		student.Year = &year
	}
	require.NoError(t, store.CreateStudent(context.Background(), student))
	return student
}

// Subject inserts a subject. An empty branch or a zero year is stored as NULL.
func Subject(t testing.TB, store repositories.CatalogStore, code string, capacity int, branch string, year int) *models.Subject {
	t.Helper()

	subject := &models.Subject{Code: code, Name: code + " elective", Capacity: capacity}
	if branch != "" {
		subject.Branch = &branch
	}
	if year != 0 {
		subject.Year = &year
	}
	require.NoError(t, store.CreateSubject(context.Background(), subject))
	return subject
}
