package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/yigit/electives/internal/app/models"
	"github.com/yigit/electives/internal/app/repositories"
	"github.com/yigit/electives/internal/pkg/helpers"
)

// SubjectService serves the read side of the catalog: subjects with live
// occupancy and the allocation roster.
type SubjectService interface {
	ListSubjects(ctx context.Context) ([]models.SubjectOccupancy, error)
	ListRoster(ctx context.Context, page, size int) ([]models.RosterEntry, int64, error)
	ExportRoster(ctx context.Context, w io.Writer) error
}

// subjectServiceImpl implements the SubjectService interface
type subjectServiceImpl struct {
	store repositories.AllocationStore
}

// NewSubjectService creates a new subject service instance
func NewSubjectService(store repositories.AllocationStore) SubjectService {
	return &subjectServiceImpl{store: store}
}

// ListSubjects implements SubjectService
func (s *subjectServiceImpl) ListSubjects(ctx context.Context) ([]models.SubjectOccupancy, error) {
	subjects, err := s.store.ListSubjectsWithOccupancy(ctx)
	if err != nil {
		return nil, fmt.Errorf("error retrieving subjects: %w", err)
	}
	return subjects, nil
}

// ListRoster implements SubjectService
func (s *subjectServiceImpl) ListRoster(ctx context.Context, page, size int) ([]models.RosterEntry, int64, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	entries, total, err := s.store.ListRoster(ctx, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("error retrieving roster: %w", err)
	}
	return entries, total, nil
}

// rosterHeader is the first CSV line written by ExportRoster
var rosterHeader = []string{"Student ID", "Username", "Branch", "Year", "Subject Code", "Subject Name", "Selected At"}

// ExportRoster writes every allocation as CSV
func (s *subjectServiceImpl) ExportRoster(ctx context.Context, w io.Writer) error {
	entries, _, err := s.store.ListRoster(ctx, 0, 0)
	if err != nil {
		return fmt.Errorf("error retrieving roster: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(rosterHeader); err != nil {
		return err
	}
	for _, e := range entries {
		branch := "N/A"
		if e.Branch != nil {
			branch = *e.Branch
		}
		year := ""
		if e.Year != nil {
			year = strconv.Itoa(*e.Year)
		}
		record := []string{
			strconv.FormatInt(e.StudentID, 10),
			e.Username,
			branch,
			year,
			e.SubjectCode,
			e.SubjectName,
			helpers.FormatTimestamp(e.CreatedAt),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
