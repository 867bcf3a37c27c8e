package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/electives/internal/app/models/dto"
	"github.com/yigit/electives/internal/pkg/apperrors"
	"github.com/yigit/electives/internal/pkg/logger"
)

// RetryAfterSeconds is sent with every 503 caused by a transient storage failure
const RetryAfterSeconds = "1"

type errorMapping struct {
	target error
	status int
	code   dto.ErrorCode
}

// errorMappings is checked in order; the first errors.Is match wins
var errorMappings = []errorMapping{
	{apperrors.ErrTransientFailure, http.StatusServiceUnavailable, dto.ErrorCodeServiceUnavailable},

	{apperrors.ErrAlreadyAllocated, http.StatusConflict, dto.ErrorCodeAlreadyAllocated},
	{apperrors.ErrDeadlineClosed, http.StatusForbidden, dto.ErrorCodeDeadlineClosed},
	{apperrors.ErrSubjectNotFound, http.StatusNotFound, dto.ErrorCodeSubjectNotFound},
	{apperrors.ErrIneligibleBranch, http.StatusUnprocessableEntity, dto.ErrorCodeIneligible},
	{apperrors.ErrSubjectFull, http.StatusConflict, dto.ErrorCodeSubjectFull},
	{apperrors.ErrNoEligibleSubject, http.StatusConflict, dto.ErrorCodeNoEligibleSubject},
	{apperrors.ErrSelectionClosed, http.StatusForbidden, dto.ErrorCodeSelectionClosed},

	{apperrors.ErrStudentNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrResourceNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrResourceAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrConflict, http.StatusConflict, dto.ErrorCodeConflict},
	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
	{apperrors.ErrBadRequest, http.StatusBadRequest, dto.ErrorCodeInvalidRequest},
	{apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken},
	{apperrors.ErrTokenInvalid, http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
}

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}

		detail := dto.NewErrorDetail(m.code, err.Error())
		if m.status == http.StatusServiceUnavailable {
			c.Header("Retry-After", RetryAfterSeconds)
			detail = dto.NewErrorDetail(m.code, apperrors.ErrTransientFailure.Error()).
				WithSeverity(dto.ErrorSeverityWarning)
		}
		var custom *apperrors.CustomError
		if errors.As(err, &custom) && len(custom.Details) > 0 && m.status < http.StatusInternalServerError {
			detail = detail.WithDetails(custom.Details)
		}

		_ = c.Error(err)
		c.JSON(m.status, dto.NewErrorResponse(detail))
		return
	}

	logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Unhandled API error")
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
		dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error").
			WithSeverity(dto.ErrorSeverityCritical),
	))
}
