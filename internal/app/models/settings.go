package models

import "time"

// Settings is the singleton row of 'settings'. A nil Deadline means the
// selection window never closes.
type Settings struct {
	LoginEnabled bool       `json:"loginEnabled" db:"login_enabled"`
	Deadline     *time.Time `json:"deadline" db:"deadline"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
}

// DefaultSettings mirrors the row inserted by the initial migration
func DefaultSettings() Settings {
	return Settings{LoginEnabled: true}
}
