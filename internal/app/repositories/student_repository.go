package repositories

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/electives/internal/app/models"
	"github.com/yigit/electives/internal/pkg/apperrors"
	"github.com/yigit/electives/internal/pkg/dberrors"
)

var studentColumns = []string{"id", "username", "branch", "year", "created_at"}

// GetStudent retrieves a student by ID
func (q *queries) GetStudent(ctx context.Context, studentID int64) (*models.Student, error) {
	query, args, err := q.sb.Select(studentColumns...).
		From("students").
		Where(squirrel.Eq{"id": studentID}).
		ToSql()
	if err != nil {
		return nil, buildError("get student", err)
	}

	student := &models.Student{}
	err = q.exec.QueryRow(ctx, query, args...).Scan(
		&student.ID,
		&student.Username,
		&student.Branch,
		&student.Year,
		&student.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, storageError("get student", err)
	}
	return student, nil
}

// ListStudents returns every student ordered by ID
func (q *queries) ListStudents(ctx context.Context) ([]models.Student, error) {
	query, args, err := q.sb.Select(studentColumns...).
		From("students").
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, buildError("list students", err)
	}

	rows, err := q.exec.Query(ctx, query, args...)
	if err != nil {
		return nil, storageError("list students", err)
	}
	defer rows.Close()

	students := []models.Student{}
	for rows.Next() {
		var student models.Student
		if err := rows.Scan(&student.ID, &student.Username, &student.Branch, &student.Year, &student.CreatedAt); err != nil {
			return nil, storageError("scan student", err)
		}
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("iterate students", err)
	}
	return students, nil
}

// CreateStudent inserts a student and fills in ID and CreatedAt
func (q *queries) CreateStudent(ctx context.Context, student *models.Student) error {
	student.CreatedAt = time.Now().UTC()

	query, args, err := q.sb.Insert("students").
		Columns("username", "branch", "year", "created_at").
		Values(student.Username, student.Branch, student.Year, student.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return buildError("create student", err)
	}

	if err := q.exec.QueryRow(ctx, query, args...).Scan(&student.ID); err != nil {
		if dberrors.IsDuplicateKeyError(err) {
			return apperrors.NewCustomError(apperrors.ErrResourceAlreadyExists, "student with this username already exists")
		}
		return storageError("create student", err)
	}
	return nil
}

// DeleteStudentsByUsernamePrefix removes students whose username starts with
// prefix. Their allocations and preferences go with them.
func (q *queries) DeleteStudentsByUsernamePrefix(ctx context.Context, prefix string) (int64, error) {
	query, args, err := q.sb.Delete("students").
		Where(squirrel.Like{"username": prefix + "%"}).
		ToSql()
	if err != nil {
		return 0, buildError("delete students", err)
	}

	n, err := q.exec.Exec(ctx, query, args...)
	if err != nil {
		return 0, storageError("delete students", err)
	}
	return n, nil
}
