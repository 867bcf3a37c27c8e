package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/electives/internal/app/models/dto"
	"github.com/yigit/electives/internal/app/services"
	"github.com/yigit/electives/internal/middleware"
	"github.com/yigit/electives/internal/pkg/apperrors"
)

// AllocationController handles the student side of subject selection
type AllocationController struct {
	allocationService services.AllocationService
}

// NewAllocationController creates a new AllocationController
func NewAllocationController(allocationService services.AllocationService) *AllocationController {
	return &AllocationController{
		allocationService: allocationService,
	}
}

// SelectSubject allocates the caller to one subject
// @Summary Select a subject
// @Description Takes a seat in the given subject if the window is open, the caller is eligible and a seat is free
// @Tags selections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SelectSubjectRequest true "Subject to select"
// @Success 201 {object} dto.APIResponse{data=dto.AllocationResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail} "Deadline passed or selection closed"
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 409 {object} dto.APIResponse{error=dto.ErrorDetail} "Already allocated or subject full"
// @Failure 422 {object} dto.APIResponse{error=dto.ErrorDetail} "Not eligible"
// @Failure 503 {object} dto.APIResponse{error=dto.ErrorDetail} "Retry later"
// @Router /selections [post]
func (c *AllocationController) SelectSubject(ctx *gin.Context) {
	studentID, ok := middleware.GetUserID(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, apperrors.ErrTokenInvalid)
		return
	}

	var req dto.SelectSubjectRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	allocation, err := c.allocationService.Select(ctx.Request.Context(), studentID, req.SubjectID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewAllocationResponse(allocation)))
}

// SubmitPreferences stores a ranked list and allocates the first subject that fits
// @Summary Submit ranked preferences
// @Description Replaces the caller's preference list and allocates the first existing, eligible subject with a free seat
// @Tags selections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.PreferencesRequest true "Subject IDs in rank order"
// @Success 201 {object} dto.APIResponse{data=dto.AllocationResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 409 {object} dto.APIResponse{error=dto.ErrorDetail} "Already allocated or no eligible subject"
// @Failure 503 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /selections/preferences [post]
func (c *AllocationController) SubmitPreferences(ctx *gin.Context) {
	studentID, ok := middleware.GetUserID(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, apperrors.ErrTokenInvalid)
		return
	}

	var req dto.PreferencesRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	allocation, err := c.allocationService.AllocateFromPreferences(ctx.Request.Context(), studentID, req.SubjectIDs)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewAllocationResponse(allocation)))
}

// GetMySelection returns the caller's allocation and stored preferences
// @Summary Get own selection
// @Tags selections
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.MySelectionResponse}
// @Failure 401 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /selections/me [get]
func (c *AllocationController) GetMySelection(ctx *gin.Context) {
	studentID, ok := middleware.GetUserID(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, apperrors.ErrTokenInvalid)
		return
	}

	allocation, err := c.allocationService.CurrentAllocation(ctx.Request.Context(), studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	prefs, err := c.allocationService.Preferences(ctx.Request.Context(), studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewMySelectionResponse(allocation, prefs)))
}
