package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yigit/electives/internal/app/models"
	"github.com/yigit/electives/internal/pkg/apperrors"
)

func TestCheckOpen(t *testing.T) {
	deadline := time.Date(2026, 1, 15, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		settings *models.Settings
		now      time.Time
		wantErr  error
	}{
		{name: "nil settings", settings: nil, now: deadline.Add(time.Hour)},
		{name: "no deadline", settings: &models.Settings{LoginEnabled: true}, now: deadline.Add(time.Hour)},
		{name: "before deadline", settings: &models.Settings{Deadline: &deadline}, now: deadline.Add(-time.Second)},
		{name: "at deadline", settings: &models.Settings{Deadline: &deadline}, now: deadline},
		{
			name:     "after deadline",
			settings: &models.Settings{Deadline: &deadline},
			now:      deadline.Add(time.Nanosecond),
			wantErr:  apperrors.ErrDeadlineClosed,
		},
		{
			name:     "other time zone",
			settings: &models.Settings{Deadline: &deadline},
			now:      deadline.Add(time.Minute).In(time.FixedZone("IST", 5*3600+1800)),
			wantErr:  apperrors.ErrDeadlineClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckOpen(tt.settings, tt.now)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
