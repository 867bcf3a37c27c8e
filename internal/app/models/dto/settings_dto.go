package dto

import (
	"time"

	"github.com/yigit/electives/internal/app/models"
)

// UpdateSettingsRequest replaces the settings row. Omitting deadline, or
// sending null, removes it.
type UpdateSettingsRequest struct {
	LoginEnabled *bool      `json:"loginEnabled" binding:"required" example:"true"`
	Deadline     *time.Time `json:"deadline" example:"2025-05-01T23:59:59Z"`
}

// SettingsResponse represents the settings in API responses
type SettingsResponse struct {
	LoginEnabled bool    `json:"loginEnabled" example:"true"`
	Deadline     *string `json:"deadline" example:"2025-05-01T23:59:59Z"`
	Open         bool    `json:"open" example:"true"`
}

// NewSettingsResponse converts settings; open reports whether the deadline
// has not yet passed at now
func NewSettingsResponse(s *models.Settings, now time.Time) SettingsResponse {
	resp := SettingsResponse{LoginEnabled: s.LoginEnabled, Open: true}
	if s.Deadline != nil {
		formatted := s.Deadline.UTC().Format(time.RFC3339)
		resp.Deadline = &formatted
		resp.Open = !now.After(*s.Deadline)
	}
	return resp
}
