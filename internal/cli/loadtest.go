package cli

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/xid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yigit/electives/internal/app/models"
	appRepos "github.com/yigit/electives/internal/app/repositories"
	appServices "github.com/yigit/electives/internal/app/services"
	"github.com/yigit/electives/internal/pkg/apperrors"
)

// LoadTestOptions configures RunLoadTest
type LoadTestOptions struct {
	Students    int
	Capacity    int
	Concurrency int
	// KeepData skips the cleanup of the generated subject and students
	KeepData bool
}

// LoadTestResult reports the outcome of RunLoadTest
type LoadTestResult struct {
	Requests  int
	Succeeded int64
	Rejected  int64
	Transient int64
	Failed    int64
	Occupancy int
	Capacity  int
	Elapsed   time.Duration
}

// Oversold reports whether more students were allocated than the capacity allows
func (r LoadTestResult) Oversold() bool {
	return r.Occupancy > r.Capacity
}

// RunLoadTest creates one subject and opts.Students students, then has every
// student request that subject at the same time through the cascading
// allocator. The generated rows are removed afterwards unless KeepData is set.
func RunLoadTest(ctx context.Context, store appRepos.AllocationStore, svc appServices.AllocationService, opts LoadTestOptions) (LoadTestResult, error) {
	result := LoadTestResult{Requests: opts.Students, Capacity: opts.Capacity}
	runID := xid.New().String()

	subject := &models.Subject{
		Code:     "LOAD-" + runID,
		Name:     "Load Test Subject",
		Capacity: opts.Capacity,
	}
	if err := store.CreateSubject(ctx, subject); err != nil {
		return result, fmt.Errorf("failed to create load test subject: %w", err)
	}

	prefix := "loaduser_" + runID + "_"
	branch := "CSE"
	studentIDs := make([]int64, 0, opts.Students)
	for i := 0; i < opts.Students; i++ {
		student := &models.Student{Username: fmt.Sprintf("%s%d", prefix, i), Branch: &branch}
		if err := store.CreateStudent(ctx, student); err != nil {
			cleanupLoadTest(store, subject.ID, prefix)
			return result, fmt.Errorf("failed to create load test student: %w", err)
		}
		studentIDs = append(studentIDs, student.ID)
	}

	if !opts.KeepData {
		defer cleanupLoadTest(store, subject.ID, prefix)
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = opts.Students
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, id := range studentIDs {
		g.Go(func() error {
			_, err := svc.AllocateFromPreferences(gctx, id, []int64{subject.ID})
			switch {
			case err == nil:
				atomic.AddInt64(&result.Succeeded, 1)
			case errors.Is(err, apperrors.ErrTransientFailure):
				atomic.AddInt64(&result.Transient, 1)
			case apperrors.Is(err, apperrors.ErrNoEligibleSubject, apperrors.ErrSubjectFull):
				atomic.AddInt64(&result.Rejected, 1)
			default:
				atomic.AddInt64(&result.Failed, 1)
			}
			return nil
		})
	}
	_ = g.Wait()
	result.Elapsed = time.Since(start)

	occupancy, err := svc.Occupancy(ctx, subject.ID)
	if err != nil {
		return result, fmt.Errorf("failed to read final occupancy: %w", err)
	}
	result.Occupancy = occupancy
	return result, nil
}

func cleanupLoadTest(store appRepos.AllocationStore, subjectID int64, prefix string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	// Deleting students cascades to their allocations and preferences
	_, _ = store.DeleteStudentsByUsernamePrefix(ctx, prefix)
	_ = store.DeleteSubject(ctx, subjectID)
}

var loadTestOpts LoadTestOptions

var loadTestCmd = &cobra.Command{
	Use:   "loadtest",
	Short: "Fire concurrent allocations at one subject and verify it is never oversold",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if loadTestOpts.Students <= 0 || loadTestOpts.Capacity <= 0 {
			return fmt.Errorf("--students and --capacity must be positive")
		}

		_, store, _, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		svc := appServices.NewAllocationService(store)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Firing %d concurrent requests at a subject with %d seats...\n",
			loadTestOpts.Students, loadTestOpts.Capacity)

		result, err := RunLoadTest(cmd.Context(), store, svc, loadTestOpts)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "\n--- Test Results ---\n")
		fmt.Fprintf(out, "Time taken:        %s\n", result.Elapsed.Round(time.Millisecond))
		fmt.Fprintf(out, "Total requests:    %d\n", result.Requests)
		fmt.Fprintf(out, "Successful:        %d\n", result.Succeeded)
		fmt.Fprintf(out, "Rejected (full):   %d\n", result.Rejected)
		fmt.Fprintf(out, "Transient:         %d\n", result.Transient)
		fmt.Fprintf(out, "Other failures:    %d\n", result.Failed)
		fmt.Fprintf(out, "\n--- Database Verification ---\n")
		fmt.Fprintf(out, "Seat limit:        %d\n", result.Capacity)
		fmt.Fprintf(out, "Allocations in DB: %d\n", result.Occupancy)

		switch {
		case result.Oversold():
			return fmt.Errorf("oversold: %d allocations for %d seats", result.Occupancy, result.Capacity)
		case int64(result.Occupancy) != result.Succeeded:
			return fmt.Errorf("%d successes reported but %d allocations stored", result.Succeeded, result.Occupancy)
		}
		fmt.Fprintln(out, "Seat limit strictly enforced.")
		return nil
	},
}

func init() {
	loadTestCmd.Flags().IntVar(&loadTestOpts.Students, "students", 200, "number of concurrent students")
	loadTestCmd.Flags().IntVar(&loadTestOpts.Capacity, "capacity", 50, "seats in the test subject")
	loadTestCmd.Flags().IntVar(&loadTestOpts.Concurrency, "concurrency", 0, "maximum requests in flight (default: all)")
	loadTestCmd.Flags().BoolVar(&loadTestOpts.KeepData, "keep", false, "keep the generated subject and students")
	rootCmd.AddCommand(loadTestCmd)
}
