package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/electives/internal/app/models"
)

// ReplacePreferences drops the student's stored list and writes subjectIDs
// with ranks starting at 1.
func (q *queries) ReplacePreferences(ctx context.Context, studentID int64, subjectIDs []int64) error {
	if _, err := q.DeletePreferences(ctx, studentID); err != nil {
		return err
	}
	if len(subjectIDs) == 0 {
		return nil
	}

	builder := q.sb.Insert("preferences").Columns("student_id", "subject_id", "rank")
	for i, subjectID := range subjectIDs {
		builder = builder.Values(studentID, subjectID, i+1)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return buildError("insert preferences", err)
	}

	if _, err := q.exec.Exec(ctx, query, args...); err != nil {
		return storageError("insert preferences", err)
	}
	return nil
}

// DeletePreferences removes the student's stored list
func (q *queries) DeletePreferences(ctx context.Context, studentID int64) (int64, error) {
	query, args, err := q.sb.Delete("preferences").
		Where(squirrel.Eq{"student_id": studentID}).
		ToSql()
	if err != nil {
		return 0, buildError("delete preferences", err)
	}

	n, err := q.exec.Exec(ctx, query, args...)
	if err != nil {
		return 0, storageError("delete preferences", err)
	}
	return n, nil
}

// ListPreferences returns the student's stored list ordered by rank
func (q *queries) ListPreferences(ctx context.Context, studentID int64) ([]models.Preference, error) {
	query, args, err := q.sb.Select("student_id", "subject_id", "rank").
		From("preferences").
		Where(squirrel.Eq{"student_id": studentID}).
		OrderBy("rank ASC").
		ToSql()
	if err != nil {
		return nil, buildError("list preferences", err)
	}

	rows, err := q.exec.Query(ctx, query, args...)
	if err != nil {
		return nil, storageError("list preferences", err)
	}
	defer rows.Close()

	prefs := []models.Preference{}
	for rows.Next() {
		var pref models.Preference
		if err := rows.Scan(&pref.StudentID, &pref.SubjectID, &pref.Rank); err != nil {
			return nil, storageError("scan preference", err)
		}
		prefs = append(prefs, pref)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("iterate preferences", err)
	}
	return prefs, nil
}
