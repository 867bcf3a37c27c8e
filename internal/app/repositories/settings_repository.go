package repositories

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/electives/internal/app/models"
)

// GetSettings reads the singleton settings row. A missing row yields the
// defaults written by the initial migration.
func (q *queries) GetSettings(ctx context.Context) (*models.Settings, error) {
	query, args, err := q.sb.Select("login_enabled", "deadline", "updated_at").
		From("settings").
		Where(squirrel.Eq{"singleton": true}).
		ToSql()
	if err != nil {
		return nil, buildError("get settings", err)
	}

	settings := &models.Settings{}
	err = q.exec.QueryRow(ctx, query, args...).Scan(&settings.LoginEnabled, &settings.Deadline, &settings.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			defaults := models.DefaultSettings()
			return &defaults, nil
		}
		return nil, storageError("get settings", err)
	}
	return settings, nil
}

// SaveSettings overwrites the singleton settings row
func (q *queries) SaveSettings(ctx context.Context, settings *models.Settings) error {
	settings.UpdatedAt = time.Now().UTC()

	query, args, err := q.sb.Insert("settings").
		Columns("singleton", "login_enabled", "deadline", "updated_at").
		Values(true, settings.LoginEnabled, settings.Deadline, settings.UpdatedAt).
		Suffix("ON CONFLICT (singleton) DO UPDATE SET login_enabled = excluded.login_enabled, deadline = excluded.deadline, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return buildError("save settings", err)
	}

	if _, err := q.exec.Exec(ctx, query, args...); err != nil {
		return storageError("save settings", err)
	}
	return nil
}
