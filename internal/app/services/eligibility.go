package services

import (
	"fmt"

	"github.com/yigit/electives/internal/app/models"
	"github.com/yigit/electives/internal/pkg/apperrors"
)

// IsEligible reports whether student may hold a seat in subject. A subject
// with a year admits only students of that year; a subject with a branch is
// closed to students of that same branch (open-elective rule).
func IsEligible(student *models.Student, subject *models.Subject) bool {
	return eligibilityViolation(student, subject) == ""
}

// checkEligibility returns ErrIneligibleBranch with a message naming the
// rule the pair violates, or nil.
func checkEligibility(student *models.Student, subject *models.Subject) error {
	if reason := eligibilityViolation(student, subject); reason != "" {
		return apperrors.NewCustomError(apperrors.ErrIneligibleBranch, reason)
	}
	return nil
}

func eligibilityViolation(student *models.Student, subject *models.Subject) string {
	if subject.Year != nil {
		if student.Year == nil {
			return fmt.Sprintf("subject %s is restricted to year %d students", subject.Code, *subject.Year)
		}
		if *student.Year != *subject.Year {
			return fmt.Sprintf("subject %s is restricted to year %d students (you are in year %d)", subject.Code, *subject.Year, *student.Year)
		}
	}
	if student.Branch != nil && subject.Branch != nil && *student.Branch == *subject.Branch {
		return fmt.Sprintf("you cannot select a subject from your own branch (%s)", *student.Branch)
	}
	return ""
}
