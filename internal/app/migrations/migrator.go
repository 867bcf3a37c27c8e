package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

//go:embed sql/postgres/*.sql sql/sqlite/*.sql
var scripts embed.FS

// target abstracts the database a Migrator writes to. Each dialect applies a
// script and records its version in one transaction.
type target interface {
	ensureVersionTable(ctx context.Context) error
	isApplied(ctx context.Context, version string) (bool, error)
	apply(ctx context.Context, version, script string) error
}

// Migrator applies the embedded SQL scripts of one dialect in lexical order
type Migrator struct {
	target target
	dir    string
	logger zerolog.Logger
}

// NewPostgresMigrator creates a migrator for a PostgreSQL pool
func NewPostgresMigrator(pool *pgxpool.Pool, lgr zerolog.Logger) *Migrator {
	return &Migrator{target: &pgTarget{pool: pool}, dir: "sql/postgres", logger: lgr}
}

// NewSQLiteMigrator creates a migrator for a SQLite database
func NewSQLiteMigrator(db *sql.DB, lgr zerolog.Logger) *Migrator {
	return &Migrator{target: &sqliteTarget{db: db}, dir: "sql/sqlite", logger: lgr}
}

// Up applies every script that has not been recorded yet
func (m *Migrator) Up(ctx context.Context) error {
	if err := m.target.ensureVersionTable(ctx); err != nil {
		return err
	}

	entries, err := fs.ReadDir(scripts, m.dir)
	if err != nil {
		return fmt.Errorf("failed to read migration directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		// "001_init.sql" => "001"
		version := strings.Split(file, "_")[0]

		applied, err := m.target.isApplied(ctx, version)
		if err != nil {
			return err
		}
		if applied {
			m.logger.Debug().Str("migration", file).Msg("Migration already applied, skipping")
			continue
		}

		content, err := scripts.ReadFile(path.Join(m.dir, file))
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}

		if err := m.target.apply(ctx, version, string(content)); err != nil {
			return fmt.Errorf("migration %s failed: %w", file, err)
		}
		m.logger.Info().Str("migration", file).Msg("Migration applied")
	}

	return nil
}

const versionTableDDL = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`

type pgTarget struct {
	pool *pgxpool.Pool
}

func (t *pgTarget) ensureVersionTable(ctx context.Context) error {
	if _, err := t.pool.Exec(ctx, versionTableDDL); err != nil {
		return fmt.Errorf("failed to create migration tracking table: %w", err)
	}
	return nil
}

func (t *pgTarget) isApplied(ctx context.Context, version string) (bool, error) {
	var exists bool
	err := t.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
	return exists, nil
}

func (t *pgTarget) apply(ctx context.Context, version, script string) error {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, script); err != nil {
		return fmt.Errorf("error occurred during SQL migration execution: %w", err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, applied_at) VALUES ($1, $2)`, version, time.Now()); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return tx.Commit(ctx)
}

type sqliteTarget struct {
	db *sql.DB
}

func (t *sqliteTarget) ensureVersionTable(ctx context.Context) error {
	if _, err := t.db.ExecContext(ctx, versionTableDDL); err != nil {
		return fmt.Errorf("failed to create migration tracking table: %w", err)
	}
	return nil
}

func (t *sqliteTarget) isApplied(ctx context.Context, version string) (bool, error) {
	var exists bool
	err := t.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)`, version).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
	return exists, nil
}

func (t *sqliteTarget) apply(ctx context.Context, version, script string) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("error occurred during SQL migration execution: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`, version, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return tx.Commit()
}
