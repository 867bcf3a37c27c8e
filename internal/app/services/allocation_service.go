package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/electives/internal/app/models"
	"github.com/yigit/electives/internal/app/repositories"
	"github.com/yigit/electives/internal/pkg/apperrors"
	"github.com/yigit/electives/internal/pkg/logger"
	"github.com/yigit/electives/internal/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
)

// AllocationService binds students to elective subjects. Every mutating
// operation runs in a single store transaction and either commits fully or
// leaves no trace.
type AllocationService interface {
	// Select allocates the student to one specific subject
	Select(ctx context.Context, studentID, subjectID int64) (*models.Allocation, error)
	// AllocateFromPreferences stores the ranked list and allocates the first
	// subject in it that exists, is eligible and has a free seat
	AllocateFromPreferences(ctx context.Context, studentID int64, subjectIDs []int64) (*models.Allocation, error)
	// ResetAllocation removes the student's allocation and preference list
	ResetAllocation(ctx context.Context, studentID int64) error
	Occupancy(ctx context.Context, subjectID int64) (int, error)
	CurrentAllocation(ctx context.Context, studentID int64) (*models.Allocation, error)
	Preferences(ctx context.Context, studentID int64) ([]models.Preference, error)
}

// OccupancyPublisher is notified after a transaction changes a subject's
// occupancy. Implementations must not block. Calls may arrive out of commit
// order; for one subject a larger version is always the newer state.
type OccupancyPublisher interface {
	PublishOccupancy(subjectID int64, occupancy, capacity int, version uint64)
}

type noopPublisher struct{}

func (noopPublisher) PublishOccupancy(int64, int, int, uint64) {}

// allocationServiceImpl implements the AllocationService interface
type allocationServiceImpl struct {
	store     repositories.AllocationStore
	now       func() time.Time
	publisher OccupancyPublisher
	// versions numbers occupancy changes while the subject lock is held
	versions atomic.Uint64
	logger   zerolog.Logger
}

// occupancyChange is the post-commit state of one subject
type occupancyChange struct {
	subjectID int64
	occupancy int
	capacity  int
	version   uint64
}

// AllocationOption customizes the allocation service
type AllocationOption func(*allocationServiceImpl)

// WithClock replaces the clock used by the deadline gate
func WithClock(now func() time.Time) AllocationOption {
	return func(s *allocationServiceImpl) {
		s.now = now
	}
}

// WithPublisher receives occupancy changes after each commit
func WithPublisher(p OccupancyPublisher) AllocationOption {
	return func(s *allocationServiceImpl) {
		if p != nil {
			s.publisher = p
		}
	}
}

// NewAllocationService creates a new allocation service instance
func NewAllocationService(store repositories.AllocationStore, opts ...AllocationOption) AllocationService {
	s := &allocationServiceImpl{
		store:     store,
		now:       time.Now,
		publisher: noopPublisher{},
		logger:    logger.Component("allocation"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select implements AllocationService
func (s *allocationServiceImpl) Select(ctx context.Context, studentID, subjectID int64) (*models.Allocation, error) {
	if studentID <= 0 || subjectID <= 0 {
		return nil, fmt.Errorf("%w: invalid student or subject ID", apperrors.ErrValidationFailed)
	}

	ctx, span := tracing.StartSpan(ctx, "allocation.Select",
		attribute.Int64("student.id", studentID),
		attribute.Int64("subject.id", subjectID),
	)

	var allocation *models.Allocation
	var change occupancyChange
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.AllocationTx) error {
		settings, err := tx.GetSettings(ctx)
		if err != nil {
			return err
		}
		if err := CheckOpen(settings, s.now()); err != nil {
			return err
		}
		student, err := tx.GetStudent(ctx, studentID)
		if err != nil {
			return err
		}
		if err := ensureUnallocated(ctx, tx, studentID); err != nil {
			return err
		}

		locked, err := tx.LockSubjects(ctx, []int64{subjectID})
		if err != nil {
			return err
		}
		subject, ok := locked[subjectID]
		if !ok {
			return apperrors.ErrSubjectNotFound
		}
		if err := checkEligibility(student, subject); err != nil {
			return err
		}

		occupancy, err := tx.CountAllocations(ctx, subjectID)
		if err != nil {
			return err
		}
		if occupancy >= subject.Capacity {
			return apperrors.ErrSubjectFull
		}

		allocation, err = tx.InsertAllocation(ctx, studentID, subjectID)
		change = occupancyChange{subjectID, occupancy + 1, subject.Capacity, s.versions.Add(1)}
		return err
	})
	span.End(err)
	s.logOutcome("select", studentID, allocation, err)

	if err != nil {
		return nil, err
	}
	s.publish(change)
	return allocation, nil
}

// AllocateFromPreferences implements AllocationService
func (s *allocationServiceImpl) AllocateFromPreferences(ctx context.Context, studentID int64, subjectIDs []int64) (*models.Allocation, error) {
	if studentID <= 0 {
		return nil, fmt.Errorf("%w: invalid student ID", apperrors.ErrValidationFailed)
	}
	if len(subjectIDs) == 0 {
		return nil, apperrors.NewValidationError("at least one subject preference is required")
	}
	for _, id := range subjectIDs {
		if id <= 0 {
			return nil, apperrors.NewValidationError("subject IDs must be positive")
		}
	}

	ctx, span := tracing.StartSpan(ctx, "allocation.AllocateFromPreferences",
		attribute.Int64("student.id", studentID),
		attribute.Int("preferences.count", len(subjectIDs)),
	)

	var allocation *models.Allocation
	var change occupancyChange
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.AllocationTx) error {
		settings, err := tx.GetSettings(ctx)
		if err != nil {
			return err
		}
		if err := CheckOpen(settings, s.now()); err != nil {
			return err
		}
		student, err := tx.GetStudent(ctx, studentID)
		if err != nil {
			return err
		}
		if err := ensureUnallocated(ctx, tx, studentID); err != nil {
			return err
		}

		if err := tx.ReplacePreferences(ctx, studentID, subjectIDs); err != nil {
			return err
		}

		locked, err := tx.LockSubjects(ctx, uniqueIDs(subjectIDs))
		if err != nil {
			return err
		}

		for _, subjectID := range subjectIDs {
			subject, ok := locked[subjectID]
			if !ok || !IsEligible(student, subject) {
				continue
			}
			occupancy, err := tx.CountAllocations(ctx, subjectID)
			if err != nil {
				return err
			}
			if occupancy >= subject.Capacity {
				continue
			}

			allocation, err = tx.InsertAllocation(ctx, studentID, subjectID)
			change = occupancyChange{subjectID, occupancy + 1, subject.Capacity, s.versions.Add(1)}
			return err
		}

		return apperrors.ErrNoEligibleSubject
	})
	if allocation != nil {
		span.SetAttributes(attribute.Int64("subject.id", allocation.SubjectID))
	}
	span.End(err)
	s.logOutcome("allocate_from_preferences", studentID, allocation, err)

	if err != nil {
		return nil, err
	}
	s.publish(change)
	return allocation, nil
}

// ResetAllocation implements AllocationService
func (s *allocationServiceImpl) ResetAllocation(ctx context.Context, studentID int64) error {
	if studentID <= 0 {
		return fmt.Errorf("%w: invalid student ID", apperrors.ErrValidationFailed)
	}

	ctx, span := tracing.StartSpan(ctx, "allocation.ResetAllocation", attribute.Int64("student.id", studentID))

	var removed bool
	var prefsRemoved int64
	var change occupancyChange
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.AllocationTx) error {
		existing, err := tx.GetAllocationByStudent(ctx, studentID)
		if err != nil {
			return err
		}
		if removed, err = tx.DeleteAllocation(ctx, studentID); err != nil {
			return err
		}
		if prefsRemoved, err = tx.DeletePreferences(ctx, studentID); err != nil {
			return err
		}
		if existing == nil || !removed {
			return nil
		}

		locked, err := tx.LockSubjects(ctx, []int64{existing.SubjectID})
		if err != nil {
			return err
		}
		subject, ok := locked[existing.SubjectID]
		if !ok {
			return nil
		}
		occupancy, err := tx.CountAllocations(ctx, subject.ID)
		if err != nil {
			return err
		}
		change = occupancyChange{subject.ID, occupancy, subject.Capacity, s.versions.Add(1)}
		return nil
	})
	span.End(err)

	if err != nil {
		s.logger.Error().Err(err).Int64("studentID", studentID).Msg("Failed to reset allocation")
		return err
	}
	s.logger.Info().
		Int64("studentID", studentID).
		Bool("allocationRemoved", removed).
		Int64("preferencesRemoved", prefsRemoved).
		Msg("Allocation reset")
	if change.subjectID != 0 {
		s.publish(change)
	}
	return nil
}

// Occupancy implements AllocationService. The count is a snapshot and may be
// stale by the time the caller reads it.
func (s *allocationServiceImpl) Occupancy(ctx context.Context, subjectID int64) (int, error) {
	if _, err := s.store.GetSubject(ctx, subjectID); err != nil {
		return 0, err
	}
	return s.store.CountAllocations(ctx, subjectID)
}

// CurrentAllocation implements AllocationService. It returns nil, nil when
// the student holds no allocation.
func (s *allocationServiceImpl) CurrentAllocation(ctx context.Context, studentID int64) (*models.Allocation, error) {
	return s.store.GetAllocationByStudent(ctx, studentID)
}

// Preferences implements AllocationService
func (s *allocationServiceImpl) Preferences(ctx context.Context, studentID int64) ([]models.Preference, error) {
	return s.store.ListPreferences(ctx, studentID)
}

func (s *allocationServiceImpl) publish(c occupancyChange) {
	s.publisher.PublishOccupancy(c.subjectID, c.occupancy, c.capacity, c.version)
}

func ensureUnallocated(ctx context.Context, tx repositories.AllocationTx, studentID int64) error {
	existing, err := tx.GetAllocationByStudent(ctx, studentID)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperrors.ErrAlreadyAllocated
	}
	return nil
}

// uniqueIDs drops repeated ids, keeping first occurrences
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// isBusinessOutcome reports errors that describe a decision rather than a failure
func isBusinessOutcome(err error) bool {
	return apperrors.Is(err, apperrors.ErrAlreadyAllocated,
		apperrors.ErrDeadlineClosed,
		apperrors.ErrSubjectNotFound,
		apperrors.ErrIneligibleBranch,
		apperrors.ErrSubjectFull,
		apperrors.ErrNoEligibleSubject,
		apperrors.ErrStudentNotFound,
		apperrors.ErrValidationFailed,
	)
}

func (s *allocationServiceImpl) logOutcome(op string, studentID int64, allocation *models.Allocation, err error) {
	switch {
	case err == nil:
		s.logger.Debug().
			Str("op", op).
			Int64("studentID", studentID).
			Int64("subjectID", allocation.SubjectID).
			Msg("Allocation committed")
	case isBusinessOutcome(err):
		s.logger.Debug().Err(err).Str("op", op).Int64("studentID", studentID).Msg("Allocation rejected")
	case errors.Is(err, apperrors.ErrTransientFailure):
		s.logger.Warn().Err(err).Str("op", op).Int64("studentID", studentID).Msg("Allocation aborted by transient failure")
	default:
		s.logger.Error().Err(err).Str("op", op).Int64("studentID", studentID).Msg("Allocation failed")
	}
}
