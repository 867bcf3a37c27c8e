package models

import "time"

// Subject represents an elective offered with a fixed number of seats.
// Capacity is a ceiling compared against the live allocation count; it is
// never decremented.
type Subject struct {
	ID          int64     `json:"id" db:"id" example:"1"`
	Code        string    `json:"code" db:"code" example:"CSE401"`
	Name        string    `json:"name" db:"name" example:"Advanced CSE"`
	Description *string   `json:"description,omitempty" db:"description"`
	Capacity    int       `json:"capacity" db:"capacity" example:"140"`
	Branch      *string   `json:"branch,omitempty" db:"branch" example:"CSE"` // students of this branch may not select it
	Year        *int      `json:"year,omitempty" db:"year" example:"3"`       // nil: open to every year
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// SubjectOccupancy pairs a subject with its current allocation count
type SubjectOccupancy struct {
	Subject
	Occupancy int `json:"occupancy"`
}

// Remaining returns the number of free seats, never below zero
func (s SubjectOccupancy) Remaining() int {
	if s.Occupancy >= s.Capacity {
		return 0
	}
	return s.Capacity - s.Occupancy
}
