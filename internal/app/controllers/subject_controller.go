package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/electives/internal/app/models/dto"
	"github.com/yigit/electives/internal/app/services"
	"github.com/yigit/electives/internal/middleware"
	"github.com/yigit/electives/internal/pkg/apperrors"
)

// SubjectController exposes the subject catalog with live occupancy
type SubjectController struct {
	subjectService    services.SubjectService
	allocationService services.AllocationService
}

// NewSubjectController creates a new SubjectController
func NewSubjectController(subjectService services.SubjectService, allocationService services.AllocationService) *SubjectController {
	return &SubjectController{
		subjectService:    subjectService,
		allocationService: allocationService,
	}
}

// GetAllSubjects lists subjects with occupancy
// @Summary List subjects
// @Tags subjects
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.SubjectResponse}
// @Failure 503 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /subjects [get]
func (c *SubjectController) GetAllSubjects(ctx *gin.Context) {
	subjects, err := c.subjectService.ListSubjects(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewSubjectListResponse(subjects)))
}

// GetOccupancy returns the number of seats taken in a subject
// @Summary Get subject occupancy
// @Tags subjects
// @Produce json
// @Security BearerAuth
// @Param id path int true "Subject ID"
// @Success 200 {object} dto.APIResponse{data=dto.OccupancyResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /subjects/{id}/occupancy [get]
func (c *SubjectController) GetOccupancy(ctx *gin.Context) {
	subjectID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || subjectID <= 0 {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("invalid subject ID"))
		return
	}

	occupancy, err := c.allocationService.Occupancy(ctx.Request.Context(), subjectID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.OccupancyResponse{
		SubjectID: subjectID,
		Occupancy: occupancy,
	}))
}
