package dto

import (
	"time"

	"github.com/yigit/electives/internal/app/models"
)

// SubjectResponse is a subject with its live seat count
type SubjectResponse struct {
	ID          int64   `json:"id" example:"1"`
	Code        string  `json:"code" example:"CSE401"`
	Name        string  `json:"name" example:"Advanced CSE"`
	Description *string `json:"description,omitempty"`
	Capacity    int     `json:"capacity" example:"140"`
	Branch      *string `json:"branch,omitempty" example:"CSE"`
	Year        *int    `json:"year,omitempty" example:"3"`
	Occupancy   int     `json:"occupancy" example:"96"`
	Remaining   int     `json:"remaining" example:"44"`
}

// OccupancyResponse reports how many seats of a subject are taken
type OccupancyResponse struct {
	SubjectID int64 `json:"subjectId" example:"1"`
	Occupancy int   `json:"occupancy" example:"96"`
}

// RosterEntryResponse is one line of the admin allocation roster
type RosterEntryResponse struct {
	AllocationID int64   `json:"allocationId" example:"42"`
	StudentID    int64   `json:"studentId" example:"7"`
	Username     string  `json:"username" example:"cse001"`
	Branch       *string `json:"branch,omitempty" example:"CSE"`
	Year         *int    `json:"year,omitempty" example:"3"`
	SubjectID    int64   `json:"subjectId" example:"3"`
	SubjectCode  string  `json:"subjectCode" example:"ECE401"`
	SubjectName  string  `json:"subjectName" example:"Advanced ECE"`
	SelectedAt   string  `json:"selectedAt" example:"2025-04-23T12:01:05Z"`
}

// NewSubjectListResponse converts subjects with occupancy
func NewSubjectListResponse(subjects []models.SubjectOccupancy) []SubjectResponse {
	out := make([]SubjectResponse, 0, len(subjects))
	for _, s := range subjects {
		out = append(out, SubjectResponse{
			ID:          s.ID,
			Code:        s.Code,
			Name:        s.Name,
			Description: s.Description,
			Capacity:    s.Capacity,
			Branch:      s.Branch,
			Year:        s.Year,
			Occupancy:   s.Occupancy,
			Remaining:   s.Remaining(),
		})
	}
	return out
}

// NewRosterResponse converts roster entries
func NewRosterResponse(entries []models.RosterEntry) []RosterEntryResponse {
	out := make([]RosterEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, RosterEntryResponse{
			AllocationID: e.ID,
			StudentID:    e.StudentID,
			Username:     e.Username,
			Branch:       e.Branch,
			Year:         e.Year,
			SubjectID:    e.SubjectID,
			SubjectCode:  e.SubjectCode,
			SubjectName:  e.SubjectName,
			SelectedAt:   e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}
