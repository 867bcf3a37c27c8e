package dto

import (
	"time"

	"github.com/yigit/electives/internal/app/models"
)

// SelectSubjectRequest asks for a seat in one subject
type SelectSubjectRequest struct {
	SubjectID int64 `json:"subjectId" binding:"required,gt=0" example:"3"`
}

// PreferencesRequest submits a ranked list; the first entry is rank 1
type PreferencesRequest struct {
	SubjectIDs []int64 `json:"subjectIds" binding:"required,min=1,max=50,unique,dive,gt=0" example:"3,1,4"`
}

// AllocationResponse represents an allocation in API responses
type AllocationResponse struct {
	ID        int64  `json:"id" example:"42"`
	StudentID int64  `json:"studentId" example:"7"`
	SubjectID int64  `json:"subjectId" example:"3"`
	CreatedAt string `json:"createdAt" example:"2025-04-23T12:01:05Z"`
}

// MySelectionResponse is the caller's allocation and stored preference list
type MySelectionResponse struct {
	Allocation  *AllocationResponse `json:"allocation"`
	Preferences []int64             `json:"preferences"`
}

// NewAllocationResponse converts a model; nil stays nil
func NewAllocationResponse(a *models.Allocation) *AllocationResponse {
	if a == nil {
		return nil
	}
	return &AllocationResponse{
		ID:        a.ID,
		StudentID: a.StudentID,
		SubjectID: a.SubjectID,
		CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// NewMySelectionResponse combines an allocation with preferences in rank order
func NewMySelectionResponse(a *models.Allocation, prefs []models.Preference) MySelectionResponse {
	ids := make([]int64, 0, len(prefs))
	for _, p := range prefs {
		ids = append(ids, p.SubjectID)
	}
	return MySelectionResponse{
		Allocation:  NewAllocationResponse(a),
		Preferences: ids,
	}
}
