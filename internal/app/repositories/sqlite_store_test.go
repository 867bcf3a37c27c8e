package repositories_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/electives/internal/app/models"
	"github.com/yigit/electives/internal/app/repositories"
	"github.com/yigit/electives/internal/app/repositories/repotest"
	"github.com/yigit/electives/internal/pkg/apperrors"
)

func TestSQLiteStore_DefaultSettings(t *testing.T) {
	store := repotest.NewStore(t)

	settings, err := store.GetSettings(context.Background())
	require.NoError(t, err)
	assert.True(t, settings.LoginEnabled)
	assert.Nil(t, settings.Deadline)
}

func TestSQLiteStore_SaveSettings(t *testing.T) {
	store := repotest.NewStore(t)
	ctx := context.Background()

	deadline := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveSettings(ctx, &models.Settings{LoginEnabled: false, Deadline: &deadline}))

	settings, err := store.GetSettings(ctx)
	require.NoError(t, err)
	assert.False(t, settings.LoginEnabled)
	require.NotNil(t, settings.Deadline)
	assert.True(t, deadline.Equal(*settings.Deadline))

	// Saving again replaces the single row
	require.NoError(t, store.SaveSettings(ctx, &models.Settings{LoginEnabled: true}))
	settings, err = store.GetSettings(ctx)
	require.NoError(t, err)
	assert.True(t, settings.LoginEnabled)
	assert.Nil(t, settings.Deadline)
}

func TestSQLiteStore_CatalogDuplicates(t *testing.T) {
	store := repotest.NewStore(t)
	ctx := context.Background()

	repotest.Student(t, store, "cse_student_1", "CSE", 3)
	err := store.CreateStudent(ctx, &models.Student{Username: "cse_student_1"})
	assert.ErrorIs(t, err, apperrors.ErrResourceAlreadyExists)

	repotest.Subject(t, store, "ECE401", 10, "ECE", 0)
	err = store.CreateSubject(ctx, &models.Subject{Code: "ECE401", Name: "dup", Capacity: 5})
	assert.ErrorIs(t, err, apperrors.ErrResourceAlreadyExists)

	err = store.CreateSubject(ctx, &models.Subject{Code: "ZERO", Name: "zero", Capacity: 0})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestSQLiteStore_GetNotFound(t *testing.T) {
	store := repotest.NewStore(t)
	ctx := context.Background()

	_, err := store.GetStudent(ctx, 42)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)

	_, err = store.GetSubject(ctx, 42)
	assert.ErrorIs(t, err, apperrors.ErrSubjectNotFound)

	allocation, err := store.GetAllocationByStudent(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, allocation)

	assert.ErrorIs(t, store.DeleteSubject(ctx, 42), apperrors.ErrSubjectNotFound)
}

func TestSQLiteStore_InsertAllocationTwice(t *testing.T) {
	store := repotest.NewStore(t)
	ctx := context.Background()

	student := repotest.Student(t, store, "civil_student_1", "CIVIL", 2)
	first := repotest.Subject(t, store, "CSE401", 10, "CSE", 0)
	second := repotest.Subject(t, store, "ECE401", 10, "ECE", 0)

	err := store.WithinTx(ctx, func(ctx context.Context, tx repositories.AllocationTx) error {
		allocation, err := tx.InsertAllocation(ctx, student.ID, first.ID)
		require.NoError(t, err)
		assert.Positive(t, allocation.ID)
		assert.False(t, allocation.CreatedAt.IsZero())
		return nil
	})
	require.NoError(t, err)

	err = store.WithinTx(ctx, func(ctx context.Context, tx repositories.AllocationTx) error {
		_, err := tx.InsertAllocation(ctx, student.ID, second.ID)
		return err
	})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyAllocated)

	count, err := store.CountAllocations(ctx, second.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSQLiteStore_WithinTxRollsBack(t *testing.T) {
	store := repotest.NewStore(t)
	ctx := context.Background()

	student := repotest.Student(t, store, "mec_student_1", "MECHANICAL", 1)
	subject := repotest.Subject(t, store, "CSE401", 10, "CSE", 0)
	errAbort := errors.New("abort")

	err := store.WithinTx(ctx, func(ctx context.Context, tx repositories.AllocationTx) error {
		if err := tx.ReplacePreferences(ctx, student.ID, []int64{subject.ID}); err != nil {
			return err
		}
		if _, err := tx.InsertAllocation(ctx, student.ID, subject.ID); err != nil {
			return err
		}
		return errAbort
	})
	assert.ErrorIs(t, err, errAbort)
	assert.False(t, errors.Is(err, apperrors.ErrTransientFailure))

	allocation, err := store.GetAllocationByStudent(ctx, student.ID)
	require.NoError(t, err)
	assert.Nil(t, allocation)

	prefs, err := store.ListPreferences(ctx, student.ID)
	require.NoError(t, err)
	assert.Empty(t, prefs)
}

func TestSQLiteStore_LockSubjects(t *testing.T) {
	store := repotest.NewStore(t)
	ctx := context.Background()

	a := repotest.Subject(t, store, "A", 1, "", 0)
	b := repotest.Subject(t, store, "B", 2, "", 0)

	err := store.WithinTx(ctx, func(ctx context.Context, tx repositories.AllocationTx) error {
		locked, err := tx.LockSubjects(ctx, []int64{b.ID, 9999, a.ID})
		require.NoError(t, err)
		assert.Len(t, locked, 2)
		assert.Equal(t, "A", locked[a.ID].Code)
		assert.Equal(t, 2, locked[b.ID].Capacity)

		empty, err := tx.LockSubjects(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, empty)
		return nil
	})
	require.NoError(t, err)
}

func TestSQLiteStore_Preferences(t *testing.T) {
	store := repotest.NewStore(t)
	ctx := context.Background()

	student := repotest.Student(t, store, "csm_student_1", "CSM", 4)

	replace := func(ids ...int64) {
		err := store.WithinTx(ctx, func(ctx context.Context, tx repositories.AllocationTx) error {
			return tx.ReplacePreferences(ctx, student.ID, ids)
		})
		require.NoError(t, err)
	}

	replace(3, 1, 2)
	replace(7, 5)

	prefs, err := store.ListPreferences(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Preference{
		{StudentID: student.ID, SubjectID: 7, Rank: 1},
		{StudentID: student.ID, SubjectID: 5, Rank: 2},
	}, prefs)

	var removed int64
	err = store.WithinTx(ctx, func(ctx context.Context, tx repositories.AllocationTx) error {
		removed, err = tx.DeletePreferences(ctx, student.ID)
		return err
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)
}

func TestSQLiteStore_SubjectsAndRoster(t *testing.T) {
	store := repotest.NewStore(t)
	ctx := context.Background()

	cse := repotest.Subject(t, store, "CSE401", 2, "CSE", 0)
	repotest.Subject(t, store, "ECE401", 3, "ECE", 0)
	alice := repotest.Student(t, store, "alice", "ECE", 3)
	bob := repotest.Student(t, store, "bob", "", 0)

	for _, id := range []int64{alice.ID, bob.ID} {
		err := store.WithinTx(ctx, func(ctx context.Context, tx repositories.AllocationTx) error {
			_, err := tx.InsertAllocation(ctx, id, cse.ID)
			return err
		})
		require.NoError(t, err)
	}

	subjects, err := store.ListSubjectsWithOccupancy(ctx)
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "CSE401", subjects[0].Code)
	assert.Equal(t, 2, subjects[0].Occupancy)
	assert.Zero(t, subjects[0].Remaining())
	assert.Equal(t, "ECE401", subjects[1].Code)
	assert.Zero(t, subjects[1].Occupancy)
	assert.Equal(t, 3, subjects[1].Remaining())

	entries, total, err := store.ListRoster(ctx, 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, entries, 2)
	assert.Equal(t, "alice", entries[0].Username)
	assert.Equal(t, "CSE401", entries[0].SubjectCode)
	require.NotNil(t, entries[0].Branch)
	assert.Equal(t, "ECE", *entries[0].Branch)
	assert.Nil(t, entries[1].Branch)

	page, total, err := store.ListRoster(ctx, 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, page, 1)
	assert.Equal(t, "bob", page[0].Username)
}

func TestSQLiteStore_DeleteCascades(t *testing.T) {
	store := repotest.NewStore(t)
	ctx := context.Background()

	subject := repotest.Subject(t, store, "LOAD", 5, "", 0)
	for _, name := range []string{"loaduser_x_1", "loaduser_x_2", "keep_me"} {
		student := repotest.Student(t, store, name, "CSE", 1)
		err := store.WithinTx(ctx, func(ctx context.Context, tx repositories.AllocationTx) error {
			_, err := tx.InsertAllocation(ctx, student.ID, subject.ID)
			return err
		})
		require.NoError(t, err)
	}

	n, err := store.DeleteStudentsByUsernamePrefix(ctx, "loaduser_x_")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	count, err := store.CountAllocations(ctx, subject.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, store.DeleteSubject(ctx, subject.ID))
	_, total, err := store.ListRoster(ctx, 0, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
}
