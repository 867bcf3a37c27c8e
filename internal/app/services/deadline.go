package services

import (
	"time"

	"github.com/yigit/electives/internal/app/models"
	"github.com/yigit/electives/internal/pkg/apperrors"
)

// CheckOpen returns ErrDeadlineClosed when settings carry a deadline and now
// is strictly after it. The deadline instant itself is still open.
func CheckOpen(settings *models.Settings, now time.Time) error {
	if settings == nil || settings.Deadline == nil {
		return nil
	}
	if now.After(*settings.Deadline) {
		return apperrors.ErrDeadlineClosed
	}
	return nil
}
