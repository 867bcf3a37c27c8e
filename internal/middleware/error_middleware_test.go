package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/electives/internal/app/models/dto"
	"github.com/yigit/electives/internal/pkg/apperrors"
)

func performError(t *testing.T, err error) (*httptest.ResponseRecorder, dto.APIResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/selections", nil)

	HandleAPIError(c, err)

	var body dto.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestHandleAPIError_Mapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   dto.ErrorCode
	}{
		{"already allocated", apperrors.ErrAlreadyAllocated, http.StatusConflict, dto.ErrorCodeAlreadyAllocated},
		{"deadline", apperrors.ErrDeadlineClosed, http.StatusForbidden, dto.ErrorCodeDeadlineClosed},
		{"subject not found", apperrors.ErrSubjectNotFound, http.StatusNotFound, dto.ErrorCodeSubjectNotFound},
		{"ineligible", apperrors.NewCustomError(apperrors.ErrIneligibleBranch, "you cannot select a subject from your own branch (CSE)"), http.StatusUnprocessableEntity, dto.ErrorCodeIneligible},
		{"full", apperrors.ErrSubjectFull, http.StatusConflict, dto.ErrorCodeSubjectFull},
		{"no eligible subject", apperrors.ErrNoEligibleSubject, http.StatusConflict, dto.ErrorCodeNoEligibleSubject},
		{"selection closed", apperrors.ErrSelectionClosed, http.StatusForbidden, dto.ErrorCodeSelectionClosed},
		{"student not found", apperrors.ErrStudentNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{"validation", apperrors.NewValidationError("at least one subject preference is required"), http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{"wrapped", fmt.Errorf("error retrieving subjects: %w", apperrors.ErrSubjectFull), http.StatusConflict, dto.ErrorCodeSubjectFull},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, dto.ErrorCodeInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := performError(t, tt.err)
			assert.Equal(t, tt.status, w.Code)
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.code, body.Error.Code)
			assert.Empty(t, w.Header().Get("Retry-After"))
		})
	}
}

func TestHandleAPIError_MessageIsErrorText(t *testing.T) {
	_, body := performError(t, apperrors.NewCustomError(apperrors.ErrIneligibleBranch, "subject ECE201 is restricted to year 2 students"))
	assert.Equal(t, "subject ECE201 is restricted to year 2 students", body.Error.Message)
}

func TestHandleAPIError_Transient(t *testing.T) {
	cause := errors.New("database is locked")
	w, body := performError(t, apperrors.NewTransientError(cause))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, RetryAfterSeconds, w.Header().Get("Retry-After"))
	assert.Equal(t, dto.ErrorCodeServiceUnavailable, body.Error.Code)
	assert.Equal(t, dto.ErrorSeverityWarning, body.Error.Severity)
	// The driver message stays in the logs
	assert.Nil(t, body.Error.Details)
	assert.NotContains(t, body.Error.Message, "locked")
}

func TestHandleAPIError_InternalHidesCause(t *testing.T) {
	_, body := performError(t, errors.New("pq: relation does not exist"))
	assert.Equal(t, "Internal server error", body.Error.Message)
}
