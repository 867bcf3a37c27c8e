package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/electives/internal/db"
)

// SQLiteStore implements AllocationStore on a single SQLite file. Every
// transaction begins IMMEDIATE and so holds the database write lock, which
// serializes allocation attempts globally.
type SQLiteStore struct {
	*queries
	db        *db.SQLiteDB
	txTimeout time.Duration
}

// NewSQLiteStore creates a store on an open database
func NewSQLiteStore(sqlite *db.SQLiteDB, txTimeout time.Duration) *SQLiteStore {
	return &SQLiteStore{
		queries: &queries{
			sb:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
			exec: sqlExecutor{q: sqlite.DB},
		},
		db:        sqlite,
		txTimeout: txTimeout,
	}
}

// WithinTx implements AllocationStore
func (s *SQLiteStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx AllocationTx) error) error {
	err := s.db.WithTransaction(ctx, s.txTimeout, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, s.queries.with(sqlExecutor{q: tx}))
	})
	return classifyTxError(err)
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
