package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	appModels "github.com/yigit/electives/internal/app/models"
	appRepos "github.com/yigit/electives/internal/app/repositories"
	"github.com/yigit/electives/internal/pkg/apperrors"
)

// DefaultSubject describes one of the branch electives created on first start
type DefaultSubject struct {
	Code     string
	Name     string
	Capacity int
	Branch   string
}

// DefaultSubjects are offered by each branch and closed to its own students
var DefaultSubjects = []DefaultSubject{
	{Code: "CSE401", Name: "Advanced CSE", Capacity: 140, Branch: "CSE"},
	{Code: "CSM401", Name: "Advanced CSM", Capacity: 70, Branch: "CSM"},
	{Code: "ECE401", Name: "Advanced ECE", Capacity: 120, Branch: "ECE"},
	{Code: "CIV401", Name: "Advanced Civil", Capacity: 70, Branch: "CIVIL"},
	{Code: "MEC401", Name: "Advanced Mech", Capacity: 70, Branch: "MECHANICAL"},
}

// DefaultStudentCounts is the number of students created per branch
var DefaultStudentCounts = map[string]int{
	"CSE":        200,
	"CSM":        70,
	"ECE":        130,
	"CIVIL":      60,
	"MECHANICAL": 60,
}

// Summary reports what CreateDefaultData inserted
type Summary struct {
	SubjectsCreated int
	StudentsCreated int
}

// StudentUsername is the username given to the i-th (1-based) seeded student of a branch
func StudentUsername(branch string, i int) string {
	return fmt.Sprintf("%s_student_%d", strings.ToLower(branch), i)
}

// CreateDefaultData creates the default subjects and students if they don't
// exist. Existing rows are left untouched, so the call is safe on every start.
// Students of a branch get years 1 to 4 in rotation.
func CreateDefaultData(ctx context.Context, store appRepos.CatalogStore, lgr zerolog.Logger) (Summary, error) {
	var summary Summary
	var finalErr error // collect errors without stopping the process

	lgr.Info().Msg("Checking/Creating default data (Subjects/Students)...")

	for _, s := range DefaultSubjects {
		branch := s.Branch
		subject := &appModels.Subject{
			Code:     s.Code,
			Name:     s.Name,
			Capacity: s.Capacity,
			Branch:   &branch,
		}
		err := store.CreateSubject(ctx, subject)
		switch {
		case err == nil:
			summary.SubjectsCreated++
		case errors.Is(err, apperrors.ErrResourceAlreadyExists):
			lgr.Debug().Str("code", s.Code).Msg("Subject already exists")
		default:
			lgr.Error().Err(err).Str("code", s.Code).Msg("Error creating default subject")
			finalErr = errors.Join(finalErr, err)
		}
	}

	for _, branch := range sortedBranches() {
		for i := 1; i <= DefaultStudentCounts[branch]; i++ {
			b := branch
			year := (i-1)%4 + 1
			student := &appModels.Student{
				Username: StudentUsername(branch, i),
				Branch:   &b,
				Year:     &year,
			}
			err := store.CreateStudent(ctx, student)
			switch {
			case err == nil:
				summary.StudentsCreated++
			case errors.Is(err, apperrors.ErrResourceAlreadyExists):
			default:
				lgr.Error().Err(err).Str("username", student.Username).Msg("Error creating default student")
				finalErr = errors.Join(finalErr, err)
			}
			if ctx.Err() != nil {
				return summary, errors.Join(finalErr, ctx.Err())
			}
		}
	}

	lgr.Info().
		Int("subjectsCreated", summary.SubjectsCreated).
		Int("studentsCreated", summary.StudentsCreated).
		Msg("Default data check complete")
	return summary, finalErr
}

// sortedBranches returns the branches in DefaultSubjects order
func sortedBranches() []string {
	branches := make([]string, 0, len(DefaultSubjects))
	for _, s := range DefaultSubjects {
		if _, ok := DefaultStudentCounts[s.Branch]; ok {
			branches = append(branches, s.Branch)
		}
	}
	return branches
}
