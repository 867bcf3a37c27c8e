package services

import (
	"context"
	"fmt"
	"time"

	"github.com/yigit/electives/internal/app/models"
	"github.com/yigit/electives/internal/app/repositories"
	"github.com/yigit/electives/internal/pkg/apperrors"
	"github.com/yigit/electives/internal/pkg/logger"
)

// SettingsService reads and replaces the selection window settings
type SettingsService interface {
	GetSettings(ctx context.Context) (*models.Settings, error)
	UpdateSettings(ctx context.Context, loginEnabled bool, deadline *time.Time) (*models.Settings, error)
	// EnsureStudentAccess returns ErrSelectionClosed while student login is disabled
	EnsureStudentAccess(ctx context.Context) error
}

// settingsServiceImpl implements the SettingsService interface
type settingsServiceImpl struct {
	store repositories.AllocationStore
}

// NewSettingsService creates a new settings service instance
func NewSettingsService(store repositories.AllocationStore) SettingsService {
	return &settingsServiceImpl{store: store}
}

// GetSettings implements SettingsService
func (s *settingsServiceImpl) GetSettings(ctx context.Context) (*models.Settings, error) {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("error retrieving settings: %w", err)
	}
	return settings, nil
}

// UpdateSettings implements SettingsService. A nil deadline removes it.
func (s *settingsServiceImpl) UpdateSettings(ctx context.Context, loginEnabled bool, deadline *time.Time) (*models.Settings, error) {
	settings := &models.Settings{LoginEnabled: loginEnabled}
	if deadline != nil {
		utc := deadline.UTC()
		settings.Deadline = &utc
	}

	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("error saving settings: %w", err)
	}

	event := logger.Info().Bool("loginEnabled", settings.LoginEnabled)
	if settings.Deadline != nil {
		event = event.Time("deadline", *settings.Deadline)
	}
	event.Msg("Settings updated")
	return settings, nil
}

// EnsureStudentAccess implements SettingsService
func (s *settingsServiceImpl) EnsureStudentAccess(ctx context.Context) error {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return err
	}
	if !settings.LoginEnabled {
		return apperrors.ErrSelectionClosed
	}
	return nil
}
