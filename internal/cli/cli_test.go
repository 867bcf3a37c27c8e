package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/electives/internal/app/repositories/repotest"
	appServices "github.com/yigit/electives/internal/app/services"
	"github.com/yigit/electives/internal/seed"
)

func TestRunLoadTest(t *testing.T) {
	store := repotest.NewStore(t)
	svc := appServices.NewAllocationService(store)
	ctx := context.Background()

	result, err := RunLoadTest(ctx, store, svc, LoadTestOptions{Students: 30, Capacity: 10})
	require.NoError(t, err)

	assert.False(t, result.Oversold())
	assert.Equal(t, 10, result.Occupancy)
	assert.EqualValues(t, 10, result.Succeeded)
	assert.EqualValues(t, 20, result.Rejected)
	assert.Zero(t, result.Failed)
	assert.Zero(t, result.Transient)

	students, err := store.ListStudents(ctx)
	require.NoError(t, err)
	assert.Empty(t, students)

	subjects, err := store.ListSubjectsWithOccupancy(ctx)
	require.NoError(t, err)
	assert.Empty(t, subjects)
}

func TestRunLoadTest_KeepData(t *testing.T) {
	store := repotest.NewStore(t)
	svc := appServices.NewAllocationService(store)
	ctx := context.Background()

	result, err := RunLoadTest(ctx, store, svc, LoadTestOptions{Students: 5, Capacity: 2, Concurrency: 2, KeepData: true})
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.Succeeded)

	subjects, err := store.ListSubjectsWithOccupancy(ctx)
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, 2, subjects[0].Occupancy)
}

func TestRunSimulation(t *testing.T) {
	store := repotest.NewStore(t)
	svc := appServices.NewAllocationService(store)
	ctx := context.Background()

	_, err := seed.CreateDefaultData(ctx, store, zerolog.Nop())
	require.NoError(t, err)

	result, err := RunSimulation(ctx, store, svc, SimulateOptions{BatchSize: 20, Seed: 7})
	require.NoError(t, err)

	assert.Equal(t, result.Students, result.Succeeded+result.Failed()+result.Skipped)

	total := 0
	for _, s := range result.Subjects {
		assert.LessOrEqual(t, s.Occupancy, s.Capacity, s.Code)
		total += s.Occupancy
	}
	assert.Equal(t, result.Succeeded, total)

	var out bytes.Buffer
	result.print(&out)
	assert.Contains(t, out.String(), seed.DefaultSubjects[0].Code)
}
