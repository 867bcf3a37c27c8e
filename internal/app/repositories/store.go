package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/electives/internal/app/models"
	"github.com/yigit/electives/internal/pkg/apperrors"
	"github.com/yigit/electives/internal/pkg/dberrors"
	"github.com/yigit/electives/internal/pkg/logger"
)

// AllocationConstraint is the unique constraint that keeps one allocation per student
const AllocationConstraint = "allocations_student_id_key"

// AllocationTx is the set of statements available inside one allocation
// transaction. Every call observes the transaction's own writes.
type AllocationTx interface {
	GetSettings(ctx context.Context) (*models.Settings, error)
	GetStudent(ctx context.Context, studentID int64) (*models.Student, error)
	GetAllocationByStudent(ctx context.Context, studentID int64) (*models.Allocation, error)
	// LockSubjects returns the subjects that exist among ids, keyed by id, and
	// holds a row lock on each of them until the transaction ends. Locks are
	// taken in ascending id order.
	LockSubjects(ctx context.Context, ids []int64) (map[int64]*models.Subject, error)
	CountAllocations(ctx context.Context, subjectID int64) (int, error)
	InsertAllocation(ctx context.Context, studentID, subjectID int64) (*models.Allocation, error)
	ReplacePreferences(ctx context.Context, studentID int64, subjectIDs []int64) error
	DeleteAllocation(ctx context.Context, studentID int64) (bool, error)
	DeletePreferences(ctx context.Context, studentID int64) (int64, error)
}

// AllocationStore owns the allocation tables. WithinTx is the only way to
// change allocations; the remaining methods are single-statement reads and
// catalog maintenance that must not be called from inside fn.
type AllocationStore interface {
	// WithinTx runs fn in one transaction. A non-nil error from fn rolls back
	// everything fn did and is returned unchanged. Storage failures that may
	// succeed on retry are reported as apperrors.ErrTransientFailure.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx AllocationTx) error) error

	GetSettings(ctx context.Context) (*models.Settings, error)
	SaveSettings(ctx context.Context, settings *models.Settings) error

	GetStudent(ctx context.Context, studentID int64) (*models.Student, error)
	GetSubject(ctx context.Context, subjectID int64) (*models.Subject, error)
	CountAllocations(ctx context.Context, subjectID int64) (int, error)
	GetAllocationByStudent(ctx context.Context, studentID int64) (*models.Allocation, error)
	ListPreferences(ctx context.Context, studentID int64) ([]models.Preference, error)
	ListSubjectsWithOccupancy(ctx context.Context) ([]models.SubjectOccupancy, error)
	ListRoster(ctx context.Context, offset, limit uint64) ([]models.RosterEntry, int64, error)

	CatalogStore

	Close() error
}

// CatalogStore maintains students and subjects. The allocation engine never
// writes these tables; seeding, the CLI and tests do.
type CatalogStore interface {
	CreateStudent(ctx context.Context, student *models.Student) error
	ListStudents(ctx context.Context) ([]models.Student, error)
	DeleteStudentsByUsernamePrefix(ctx context.Context, prefix string) (int64, error)
	CreateSubject(ctx context.Context, subject *models.Subject) error
	DeleteSubject(ctx context.Context, subjectID int64) error
}

// queries holds the statements shared by both dialects. lockSuffix is
// appended to row-locking selects; SQLite leaves it empty because its
// transactions already hold the database write lock.
type queries struct {
	sb         squirrel.StatementBuilderType
	exec       executor
	lockSuffix string
}

// with returns a copy of q bound to another executor
func (q *queries) with(exec executor) *queries {
	return &queries{sb: q.sb, exec: exec, lockSuffix: q.lockSuffix}
}

// storageError wraps a driver error, marking the retryable ones
func storageError(op string, err error) error {
	if dberrors.IsTransient(err) {
		logger.Warn().Err(err).Str("op", op).Msg("Transient storage failure")
		return apperrors.NewTransientError(fmt.Errorf("%s: %w", op, err))
	}
	logger.Error().Err(err).Str("op", op).Msg("Storage failure")
	return fmt.Errorf("%s: %w", op, err)
}

func buildError(op string, err error) error {
	logger.Error().Err(err).Str("op", op).Msg("Error building SQL")
	return fmt.Errorf("failed to build %s query: %w", op, err)
}

var (
	_ AllocationTx    = (*queries)(nil)
	_ AllocationStore = (*PostgresStore)(nil)
	_ AllocationStore = (*SQLiteStore)(nil)
)
