package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/electives/internal/app/models/dto"
	"github.com/yigit/electives/internal/app/services"
	"github.com/yigit/electives/internal/middleware"
	"github.com/yigit/electives/internal/pkg/apperrors"
	"github.com/yigit/electives/internal/pkg/helpers"
)

// AdminController handles administrative selection and settings operations
type AdminController struct {
	allocationService services.AllocationService
	subjectService    services.SubjectService
	settingsService   services.SettingsService
}

// NewAdminController creates a new AdminController
func NewAdminController(
	allocationService services.AllocationService,
	subjectService services.SubjectService,
	settingsService services.SettingsService,
) *AdminController {
	return &AdminController{
		allocationService: allocationService,
		subjectService:    subjectService,
		settingsService:   settingsService,
	}
}

// ResetSelection removes a student's allocation and preference list
// @Summary Reset a student's selection
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param studentId path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /admin/selections/{studentId} [delete]
func (c *AdminController) ResetSelection(ctx *gin.Context) {
	studentID, err := strconv.ParseInt(ctx.Param("studentId"), 10, 64)
	if err != nil || studentID <= 0 {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("invalid student ID"))
		return
	}

	if err := c.allocationService.ResetAllocation(ctx.Request.Context(), studentID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Selection removed"}))
}

// GetRoster lists allocations page by page
// @Summary List allocations
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 50, max: 500)"
// @Success 200 {object} dto.APIResponse{data=[]dto.RosterEntryResponse}
// @Router /admin/selections [get]
func (c *AdminController) GetRoster(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)

	entries, total, err := c.subjectService.ListRoster(ctx.Request.Context(), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewPaginatedResponse(
		dto.NewRosterResponse(entries),
		helpers.NewPaginationInfo(total, page, size),
	))
}

// ExportRoster downloads every allocation as CSV
// @Summary Export allocations as CSV
// @Tags admin
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {string} string "CSV file"
// @Router /admin/selections/export [get]
func (c *AdminController) ExportRoster(ctx *gin.Context) {
	var buf bytes.Buffer
	if err := c.subjectService.ExportRoster(ctx.Request.Context(), &buf); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	filename := fmt.Sprintf("selections-%s.csv", time.Now().UTC().Format("20060102-150405"))
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	ctx.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// GetSettings returns the selection window settings
// @Summary Get settings
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.SettingsResponse}
// @Router /admin/settings [get]
func (c *AdminController) GetSettings(ctx *gin.Context) {
	settings, err := c.settingsService.GetSettings(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewSettingsResponse(settings, time.Now())))
}

// UpdateSettings replaces the selection window settings
// @Summary Replace settings
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateSettingsRequest true "New settings"
// @Success 200 {object} dto.APIResponse{data=dto.SettingsResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /admin/settings [put]
func (c *AdminController) UpdateSettings(ctx *gin.Context) {
	var req dto.UpdateSettingsRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	settings, err := c.settingsService.UpdateSettings(ctx.Request.Context(), *req.LoginEnabled, req.Deadline)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewSettingsResponse(settings, time.Now())))
}
