package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yigit/electives/internal/app/models"
	appRepos "github.com/yigit/electives/internal/app/repositories"
	appServices "github.com/yigit/electives/internal/app/services"
)

// SimulateOptions configures RunSimulation
type SimulateOptions struct {
	BatchSize int
	Seed      uint64
}

// SimulationResult summarizes one simulated selection round
type SimulationResult struct {
	Students  int
	Succeeded int
	Skipped   int
	// FailuresByBranch counts failed selections per student branch
	FailuresByBranch map[string]int
	// Errors counts failures by error message
	Errors   map[string]int
	Subjects []models.SubjectOccupancy
}

// RunSimulation has every unallocated student pick one random subject outside
// their own branch, at most opts.BatchSize selections in flight at a time.
// Students with no candidate subject are skipped.
func RunSimulation(ctx context.Context, store appRepos.AllocationStore, svc appServices.AllocationService, opts SimulateOptions) (SimulationResult, error) {
	result := SimulationResult{
		FailuresByBranch: make(map[string]int),
		Errors:           make(map[string]int),
	}

	students, err := store.ListStudents(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list students: %w", err)
	}
	subjects, err := store.ListSubjectsWithOccupancy(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list subjects: %w", err)
	}
	result.Students = len(students)

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	picks := make(map[int64]int64, len(students))
	for i := range students {
		candidates := make([]int64, 0, len(subjects))
		for j := range subjects {
			if appServices.IsEligible(&students[i], &subjects[j].Subject) {
				candidates = append(candidates, subjects[j].ID)
			}
		}
		if len(candidates) == 0 {
			result.Skipped++
			continue
		}
		picks[students[i].ID] = candidates[rng.IntN(len(candidates))]
	}

	batch := opts.BatchSize
	if batch <= 0 {
		batch = 50
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batch)
	for i := range students {
		student := students[i]
		subjectID, ok := picks[student.ID]
		if !ok {
			continue
		}
		g.Go(func() error {
			_, err := svc.Select(gctx, student.ID, subjectID)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				result.Succeeded++
				return nil
			}
			branch := "N/A"
			if student.Branch != nil {
				branch = *student.Branch
			}
			result.FailuresByBranch[branch]++
			result.Errors[err.Error()]++
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return result, err
	}

	result.Subjects, err = store.ListSubjectsWithOccupancy(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list subjects: %w", err)
	}
	return result, nil
}

// Failed returns the number of selections that did not commit
func (r SimulationResult) Failed() int {
	total := 0
	for _, n := range r.FailuresByBranch {
		total += n
	}
	return total
}

func (r SimulationResult) print(w io.Writer) {
	fmt.Fprintf(w, "\n--- Simulation Results ---\n")
	fmt.Fprintf(w, "Students:   %d\n", r.Students)
	fmt.Fprintf(w, "Successful: %d\n", r.Succeeded)
	fmt.Fprintf(w, "Failed:     %d\n", r.Failed())
	fmt.Fprintf(w, "Skipped:    %d\n", r.Skipped)

	if len(r.FailuresByBranch) > 0 {
		fmt.Fprintf(w, "\nFailures by branch:\n")
		for _, branch := range sortedKeys(r.FailuresByBranch) {
			fmt.Fprintf(w, "  %-12s %d\n", branch, r.FailuresByBranch[branch])
		}
		fmt.Fprintf(w, "\nErrors:\n")
		for _, msg := range sortedKeys(r.Errors) {
			fmt.Fprintf(w, "  %4d  %s\n", r.Errors[msg], msg)
		}
	}

	fmt.Fprintf(w, "\nSubject fill:\n")
	for _, s := range r.Subjects {
		fmt.Fprintf(w, "  %-10s %4d / %-4d\n", s.Code, s.Occupancy, s.Capacity)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var simulateOpts SimulateOptions

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Have every student select a random subject outside their branch",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, _, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		svc := appServices.NewAllocationService(store)
		result, err := RunSimulation(cmd.Context(), store, svc, simulateOpts)
		if err != nil {
			return err
		}
		result.print(cmd.OutOrStdout())

		for _, s := range result.Subjects {
			if s.Occupancy > s.Capacity {
				return errors.New("subject " + s.Code + " is oversold")
			}
		}
		return nil
	},
}

func init() {
	simulateCmd.Flags().IntVar(&simulateOpts.BatchSize, "batch-size", 50, "selections in flight at a time")
	simulateCmd.Flags().Uint64Var(&simulateOpts.Seed, "seed", 1, "random seed for subject picks")
	rootCmd.AddCommand(simulateCmd)
}
