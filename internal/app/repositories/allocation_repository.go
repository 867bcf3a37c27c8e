package repositories

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/electives/internal/app/models"
	"github.com/yigit/electives/internal/pkg/apperrors"
	"github.com/yigit/electives/internal/pkg/dberrors"
)

// CountAllocations returns the number of students allocated to a subject.
// Inside a transaction that holds the subject's lock the count is exact.
func (q *queries) CountAllocations(ctx context.Context, subjectID int64) (int, error) {
	query, args, err := q.sb.Select("COUNT(*)").
		From("allocations").
		Where(squirrel.Eq{"subject_id": subjectID}).
		ToSql()
	if err != nil {
		return 0, buildError("count allocations", err)
	}

	var count int
	if err := q.exec.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, storageError("count allocations", err)
	}
	return count, nil
}

// GetAllocationByStudent returns the student's allocation, or nil when the
// student holds none.
func (q *queries) GetAllocationByStudent(ctx context.Context, studentID int64) (*models.Allocation, error) {
	query, args, err := q.sb.Select("id", "student_id", "subject_id", "created_at").
		From("allocations").
		Where(squirrel.Eq{"student_id": studentID}).
		ToSql()
	if err != nil {
		return nil, buildError("get allocation", err)
	}

	allocation := &models.Allocation{}
	err = q.exec.QueryRow(ctx, query, args...).Scan(
		&allocation.ID,
		&allocation.StudentID,
		&allocation.SubjectID,
		&allocation.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, storageError("get allocation", err)
	}
	return allocation, nil
}

// InsertAllocation records a seat. A second allocation for the same student
// violates allocations_student_id_key and is reported as ErrAlreadyAllocated.
func (q *queries) InsertAllocation(ctx context.Context, studentID, subjectID int64) (*models.Allocation, error) {
	allocation := &models.Allocation{
		StudentID: studentID,
		SubjectID: subjectID,
		CreatedAt: time.Now().UTC(),
	}

	query, args, err := q.sb.Insert("allocations").
		Columns("student_id", "subject_id", "created_at").
		Values(allocation.StudentID, allocation.SubjectID, allocation.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, buildError("insert allocation", err)
	}

	if err := q.exec.QueryRow(ctx, query, args...).Scan(&allocation.ID); err != nil {
		if dberrors.IsDuplicateConstraintError(err, AllocationConstraint) {
			return nil, apperrors.ErrAlreadyAllocated
		}
		return nil, storageError("insert allocation", err)
	}
	return allocation, nil
}

// DeleteAllocation removes the student's allocation and reports whether one existed
func (q *queries) DeleteAllocation(ctx context.Context, studentID int64) (bool, error) {
	query, args, err := q.sb.Delete("allocations").
		Where(squirrel.Eq{"student_id": studentID}).
		ToSql()
	if err != nil {
		return false, buildError("delete allocation", err)
	}

	n, err := q.exec.Exec(ctx, query, args...)
	if err != nil {
		return false, storageError("delete allocation", err)
	}
	return n > 0, nil
}

// ListRoster returns one page of allocations joined with student and subject
// details, oldest first, plus the total number of allocations.
func (q *queries) ListRoster(ctx context.Context, offset, limit uint64) ([]models.RosterEntry, int64, error) {
	countQuery, countArgs, err := q.sb.Select("COUNT(*)").From("allocations").ToSql()
	if err != nil {
		return nil, 0, buildError("count roster", err)
	}
	var total int64
	if err := q.exec.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, storageError("count roster", err)
	}

	builder := q.sb.Select(
		"a.id", "a.student_id", "a.subject_id", "a.created_at",
		"st.username", "st.branch", "st.year",
		"su.code", "su.name",
	).
		From("allocations a").
		Join("students st ON st.id = a.student_id").
		Join("subjects su ON su.id = a.subject_id").
		OrderBy("a.created_at ASC", "a.id ASC")
	if limit > 0 {
		builder = builder.Limit(limit).Offset(offset)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, buildError("list roster", err)
	}

	rows, err := q.exec.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, storageError("list roster", err)
	}
	defer rows.Close()

	entries := []models.RosterEntry{}
	for rows.Next() {
		var entry models.RosterEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.StudentID,
			&entry.SubjectID,
			&entry.CreatedAt,
			&entry.Username,
			&entry.Branch,
			&entry.Year,
			&entry.SubjectCode,
			&entry.SubjectName,
		); err != nil {
			return nil, 0, storageError("scan roster entry", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storageError("iterate roster", err)
	}
	return entries, total, nil
}
