package models

import "time"

// Allocation binds one student to one subject. The 'allocations' table holds
// at most one row per student (constraint allocations_student_id_key).
type Allocation struct {
	ID        int64     `json:"id" db:"id"`
	StudentID int64     `json:"studentId" db:"student_id"`
	SubjectID int64     `json:"subjectId" db:"subject_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Preference is one ranked entry of a student's submitted list. SubjectID is
// not checked against 'subjects'; unknown ids are skipped at allocation time.
type Preference struct {
	StudentID int64 `json:"studentId" db:"student_id"`
	SubjectID int64 `json:"subjectId" db:"subject_id"`
	Rank      int   `json:"rank" db:"rank"`
}

// RosterEntry is an allocation joined with its student and subject, used by
// the admin listing and export.
type RosterEntry struct {
	Allocation
	Username    string  `json:"username"`
	Branch      *string `json:"branch,omitempty"`
	Year        *int    `json:"year,omitempty"`
	SubjectCode string  `json:"subjectCode"`
	SubjectName string  `json:"subjectName"`
}
