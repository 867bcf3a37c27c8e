package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/electives/internal/db"
	"github.com/yigit/electives/internal/pkg/apperrors"
	"github.com/yigit/electives/internal/pkg/dberrors"
)

// PostgresStore implements AllocationStore on a pgx pool. Allocation
// transactions run at READ COMMITTED and serialize per subject through
// SELECT ... FOR UPDATE, so the occupancy count read after the lock already
// includes every committed competitor.
type PostgresStore struct {
	*queries
	db          *db.PostgresDB
	lockTimeout time.Duration
	txTimeout   time.Duration
}

// NewPostgresStore creates a store on an open pool
func NewPostgresStore(pg *db.PostgresDB, lockTimeout, txTimeout time.Duration) *PostgresStore {
	return &PostgresStore{
		queries: &queries{
			sb:         squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
			exec:       pgxExecutor{q: pg.Pool},
			lockSuffix: "FOR UPDATE",
		},
		db:          pg,
		lockTimeout: lockTimeout,
		txTimeout:   txTimeout,
	}
}

// WithinTx implements AllocationStore
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx AllocationTx) error) error {
	txCfg := db.TxConfig{
		Options:     pgx.TxOptions{IsoLevel: pgx.ReadCommitted},
		LockTimeout: s.lockTimeout,
		Timeout:     s.txTimeout,
	}
	err := s.db.WithTransaction(ctx, txCfg, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, s.queries.with(pgxExecutor{q: tx}))
	})
	return classifyTxError(err)
}

// Close releases the pool
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

// classifyTxError leaves business errors untouched and marks begin, commit
// and lock failures as transient.
func classifyTxError(err error) error {
	if err == nil || errors.Is(err, apperrors.ErrTransientFailure) {
		return err
	}
	if dberrors.IsTransient(err) {
		return apperrors.NewTransientError(err)
	}
	return err
}
