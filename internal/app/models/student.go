package models

import "time"

// Student defines the student model based on the 'students' table.
// Branch and Year are nullable; the allocation engine only reads students.
type Student struct {
	ID        int64     `json:"id" db:"id" example:"1"`
	Username  string    `json:"username" db:"username" example:"cse001"`
	Branch    *string   `json:"branch,omitempty" db:"branch" example:"CSE"`
	Year      *int      `json:"year,omitempty" db:"year" example:"3"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
