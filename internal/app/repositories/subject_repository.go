package repositories

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/electives/internal/app/models"
	"github.com/yigit/electives/internal/pkg/apperrors"
	"github.com/yigit/electives/internal/pkg/dberrors"
)

var subjectColumns = []string{"id", "code", "name", "description", "capacity", "branch", "year", "created_at"}

func scanSubject(row rowScanner, subject *models.Subject, extra ...any) error {
	dest := []any{
		&subject.ID,
		&subject.Code,
		&subject.Name,
		&subject.Description,
		&subject.Capacity,
		&subject.Branch,
		&subject.Year,
		&subject.CreatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

// GetSubject retrieves a subject by ID without locking it
func (q *queries) GetSubject(ctx context.Context, subjectID int64) (*models.Subject, error) {
	query, args, err := q.sb.Select(subjectColumns...).
		From("subjects").
		Where(squirrel.Eq{"id": subjectID}).
		ToSql()
	if err != nil {
		return nil, buildError("get subject", err)
	}

	subject := &models.Subject{}
	if err := scanSubject(q.exec.QueryRow(ctx, query, args...), subject); err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrSubjectNotFound
		}
		return nil, storageError("get subject", err)
	}
	return subject, nil
}

// LockSubjects selects the existing subjects among ids with a row lock, in
// ascending id order so that concurrent lockers cannot deadlock.
func (q *queries) LockSubjects(ctx context.Context, ids []int64) (map[int64]*models.Subject, error) {
	locked := make(map[int64]*models.Subject, len(ids))
	if len(ids) == 0 {
		return locked, nil
	}

	builder := q.sb.Select(subjectColumns...).
		From("subjects").
		Where(squirrel.Eq{"id": ids}).
		OrderBy("id ASC")
	if q.lockSuffix != "" {
		builder = builder.Suffix(q.lockSuffix)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, buildError("lock subjects", err)
	}

	rows, err := q.exec.Query(ctx, query, args...)
	if err != nil {
		return nil, storageError("lock subjects", err)
	}
	defer rows.Close()

	for rows.Next() {
		subject := &models.Subject{}
		if err := scanSubject(rows, subject); err != nil {
			return nil, storageError("scan subject", err)
		}
		locked[subject.ID] = subject
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("lock subjects", err)
	}
	return locked, nil
}

// ListSubjectsWithOccupancy returns every subject with its allocation count
func (q *queries) ListSubjectsWithOccupancy(ctx context.Context) ([]models.SubjectOccupancy, error) {
	query, args, err := q.sb.Select(
		"s.id", "s.code", "s.name", "s.description", "s.capacity", "s.branch", "s.year", "s.created_at",
		"COUNT(a.id) AS occupancy",
	).
		From("subjects s").
		LeftJoin("allocations a ON a.subject_id = s.id").
		GroupBy("s.id").
		OrderBy("s.code ASC").
		ToSql()
	if err != nil {
		return nil, buildError("list subjects", err)
	}

	rows, err := q.exec.Query(ctx, query, args...)
	if err != nil {
		return nil, storageError("list subjects", err)
	}
	defer rows.Close()

	subjects := []models.SubjectOccupancy{}
	for rows.Next() {
		var item models.SubjectOccupancy
		if err := scanSubject(rows, &item.Subject, &item.Occupancy); err != nil {
			return nil, storageError("scan subject", err)
		}
		subjects = append(subjects, item)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("iterate subjects", err)
	}
	return subjects, nil
}

// CreateSubject inserts a subject and fills in ID and CreatedAt
func (q *queries) CreateSubject(ctx context.Context, subject *models.Subject) error {
	if subject.Capacity <= 0 {
		return apperrors.NewValidationError("capacity must be positive")
	}
	subject.CreatedAt = time.Now().UTC()

	query, args, err := q.sb.Insert("subjects").
		Columns("code", "name", "description", "capacity", "branch", "year", "created_at").
		Values(subject.Code, subject.Name, subject.Description, subject.Capacity, subject.Branch, subject.Year, subject.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return buildError("create subject", err)
	}

	if err := q.exec.QueryRow(ctx, query, args...).Scan(&subject.ID); err != nil {
		if dberrors.IsDuplicateKeyError(err) {
			return apperrors.NewCustomError(apperrors.ErrResourceAlreadyExists, "subject with this code already exists")
		}
		return storageError("create subject", err)
	}
	return nil
}

// DeleteSubject removes a subject together with its allocations
func (q *queries) DeleteSubject(ctx context.Context, subjectID int64) error {
	query, args, err := q.sb.Delete("subjects").
		Where(squirrel.Eq{"id": subjectID}).
		ToSql()
	if err != nil {
		return buildError("delete subject", err)
	}

	n, err := q.exec.Exec(ctx, query, args...)
	if err != nil {
		return storageError("delete subject", err)
	}
	if n == 0 {
		return apperrors.ErrSubjectNotFound
	}
	return nil
}
