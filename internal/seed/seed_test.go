package seed_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/electives/internal/app/repositories/repotest"
	"github.com/yigit/electives/internal/seed"
)

func TestStudentUsername(t *testing.T) {
	assert.Equal(t, "civil_student_12", seed.StudentUsername("CIVIL", 12))
}

func TestCreateDefaultData(t *testing.T) {
	store := repotest.NewStore(t)
	ctx := context.Background()

	summary, err := seed.CreateDefaultData(ctx, store, zerolog.Nop())
	require.NoError(t, err)

	wantStudents := 0
	for _, n := range seed.DefaultStudentCounts {
		wantStudents += n
	}
	assert.Equal(t, len(seed.DefaultSubjects), summary.SubjectsCreated)
	assert.Equal(t, wantStudents, summary.StudentsCreated)

	students, err := store.ListStudents(ctx)
	require.NoError(t, err)
	require.Len(t, students, wantStudents)
	for _, s := range students {
		require.NotNil(t, s.Year)
		assert.True(t, *s.Year >= 1 && *s.Year <= 4, s.Username)
	}

	subjects, err := store.ListSubjectsWithOccupancy(ctx)
	require.NoError(t, err)
	assert.Len(t, subjects, len(seed.DefaultSubjects))

	again, err := seed.CreateDefaultData(ctx, store, zerolog.Nop())
	require.NoError(t, err)
	assert.Zero(t, again.SubjectsCreated)
	assert.Zero(t, again.StudentsCreated)
}
